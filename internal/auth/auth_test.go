package auth

import (
	"errors"
	"testing"

	"github.com/danmuck/viaduct/internal/testutil/testlog"
)

func TestStaticTokenValidate(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "abc", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticToken{Token: tc.stored}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAuthorizeHeader(t *testing.T) {
	testlog.Start(t)
	v := StaticToken{Token: "s3cret"}
	tests := []struct {
		header  string
		wantErr error
	}{
		{"Bearer s3cret", nil},
		{"bearer   s3cret ", nil},
		{"Bearer wrong", ErrUnauthorized},
		{"Basic s3cret", ErrMissingToken},
		{"Bearer ", ErrMissingToken},
		{"", ErrMissingToken},
	}
	for _, tc := range tests {
		if err := Authorize(v, tc.header); !errors.Is(err, tc.wantErr) {
			t.Fatalf("header=%q expected %v, got %v", tc.header, tc.wantErr, err)
		}
	}
}

func TestFuncValidator(t *testing.T) {
	testlog.Start(t)
	validator := FuncValidator(func(token string) error {
		if token != "ok" {
			return ErrUnauthorized
		}
		return nil
	})
	if err := validator.Validate("ok"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := validator.Validate("bad"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
