package apperr

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"api key equals", "request failed: api_key=sk-1234 rejected", "request failed: API_KEY rejected"},
		{"api key colon", "auth error apikey:abcdef", "auth error API_KEY"},
		{"absolute url", "fetch https://supadata.ai/v1/transcript?id=1 failed", "fetch [URL] failed"},
		{"plain message", "video not found", "video not found"},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := InvalidInput("op", nil, "bad")
	wrapped := Internal("outer.op", inner, "wrapped")

	if wrapped.Unwrap() != inner {
		t.Fatalf("Unwrap() did not return inner error")
	}
	if wrapped.Error() == "" {
		t.Fatalf("Error() returned empty string")
	}
}
