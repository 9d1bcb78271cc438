package resources

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Status unifies the API's active flags. Some endpoints send booleans,
// some send "active"/"inactive" strings, some send 1/0.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusUnknown  Status = "UNKNOWN"
)

func (s *Status) UnmarshalJSON(b []byte) error {
	*s = parseStatus(b)
	return nil
}

// ParseStatus maps a status text onto the enumeration.
func ParseStatus(v string) Status {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "active", "aktif", "true", "1", "enabled", "yes":
		return StatusActive
	case "inactive", "nonaktif", "non-aktif", "false", "0", "disabled", "no", "suspended":
		return StatusInactive
	default:
		return StatusUnknown
	}
}

func parseStatus(raw json.RawMessage) Status {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return StatusUnknown
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		if b {
			return StatusActive
		}
		return StatusInactive
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return ParseStatus(s)
	}
	return ParseStatus(string(raw))
}
