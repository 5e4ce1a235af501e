package services_test

import (
	"errors"
	"strings"
	"testing"

	"custid/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrUnavailable, "sqlsource", "lookup", "query failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"sqlsource", "lookup", "query failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetailOrMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsFatalClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unavailable", services.Wrap(services.ErrUnavailable, "contractapi", "lookup", "", errors.New("dial")), false},
		{"timeout", services.Wrap(services.ErrTimeout, "contractapi", "lookup", "", nil), false},
		{"corrupt", services.Wrap(services.ErrStoreCorrupt, "store", "load", "", nil), true},
		{"missing", services.Wrap(services.ErrMissingField, "confirm", "", "office_id", nil), true},
		{"config", services.Wrap(services.ErrConfiguration, "config", "", "", nil), true},
	}
	for _, tc := range cases {
		if got := services.IsFatal(tc.err); got != tc.want {
			t.Fatalf("%s: IsFatal = %v, want %v", tc.name, got, tc.want)
		}
	}
}
