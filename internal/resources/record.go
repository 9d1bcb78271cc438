package resources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"garansi-console/pkg/utils"
)

// record is one raw API object, read through field aliases.
type record map[string]json.RawMessage

func decodeRecord(raw json.RawMessage) (record, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}

func (r record) raw(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok {
			continue
		}
		v = bytes.TrimSpace(v)
		if len(v) == 0 || bytes.Equal(v, []byte("null")) {
			continue
		}
		return v, true
	}
	return nil, false
}

func (r record) str(keys ...string) string {
	v, ok := r.raw(keys...)
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(v, &s) == nil {
		return strings.TrimSpace(s)
	}
	if v[0] != '{' && v[0] != '[' {
		return string(v)
	}
	return ""
}

func (r record) id(keys ...string) utils.FlexID {
	v, ok := r.raw(keys...)
	if !ok {
		return ""
	}
	var id utils.FlexID
	if id.UnmarshalJSON(v) != nil {
		return ""
	}
	return id
}

func (r record) num(keys ...string) float64 {
	s := r.str(keys...)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func (r record) integer(keys ...string) int {
	return int(r.num(keys...))
}

func (r record) status(keys ...string) Status {
	v, ok := r.raw(keys...)
	if !ok {
		return StatusUnknown
	}
	return parseStatus(v)
}

func (r record) timestamp(keys ...string) *time.Time {
	s := r.str(keys...)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// nested returns an embedded object such as {"store":{"id":1,"name":"X"}}.
func (r record) nested(keys ...string) record {
	v, ok := r.raw(keys...)
	if !ok || v[0] != '{' {
		return record{}
	}
	var out record
	if json.Unmarshal(v, &out) != nil {
		return record{}
	}
	return out
}

// Shared aliases.
var (
	nameKeys   = []string{"name", "fullName", "full_name", "fullname"}
	phoneKeys  = []string{"phone", "phoneNumber", "phone_number", "phone_no", "noHp", "no_hp", "mobile"}
	idKeys     = []string{"id", "_id", "ID", "uuid"}
	statusKeys = []string{"status", "isActive", "is_active", "active"}
	createdKey = []string{"createdAt", "created_at"}
)

// normalizePhone strips formatting so numbers can be compared.
func normalizePhone(p string) string {
	var b strings.Builder
	for _, r := range p {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if strings.HasPrefix(s, "62") {
		s = "0" + s[2:]
	}
	return s
}
