package rti

import "testing"

func TestRequestIdStringRoundTrip(t *testing.T) {
	id := RequestId(42)
	if id.String() != "42" {
		t.Errorf("String() = %q, want %q", id.String(), "42")
	}

	parsed, err := ParseRequestId(id.String())
	if err != nil {
		t.Fatalf("ParseRequestId: %v", err)
	}
	if parsed != id {
		t.Errorf("ParseRequestId round trip = %v, want %v", parsed, id)
	}
}

func TestParseRequestIdRejectsNonNumeric(t *testing.T) {
	if _, err := ParseRequestId("not-a-number"); err == nil {
		t.Error("expected error parsing a non-numeric request id")
	}
}
