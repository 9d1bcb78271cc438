package validate

import (
	"errors"
	"testing"
)

type form struct {
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,min=6"`
	Note     string `json:"-" validate:"max=3"`
}

func TestStruct(t *testing.T) {
	if err := Struct(form{Phone: "0811111111", Password: "secret"}); err != nil {
		t.Fatalf("valid form: %v", err)
	}

	err := Struct(form{Phone: "08-abc", Password: "x", Note: "long"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected *Error")
	}
	fields := ve.Fields()
	if fields["phone"] != "must be a valid phone number" {
		t.Fatalf("phone: %q", fields["phone"])
	}
	if fields["password"] != "must be at least 6 characters" {
		t.Fatalf("password: %q", fields["password"])
	}
	if _, ok := fields["Note"]; !ok {
		t.Fatalf("expected Go field name for json:\"-\", got %v", fields)
	}
	if got := ve.Messages()[0]; got != "Note must be at most 3 characters" {
		t.Fatalf("first message: %q", got)
	}
}

func TestPhone(t *testing.T) {
	for phone, ok := range map[string]bool{
		"0811111111":    true,
		"+628111111111": true,
		"1234567":       false,
		"08111 11111":   false,
	} {
		err := Struct(struct {
			P string `json:"p" validate:"phone"`
		}{phone})
		if (err == nil) != ok {
			t.Fatalf("%q: err=%v", phone, err)
		}
	}
}
