package otp

import "testing"

func TestNewCodeShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewCode()
		if err != nil {
			t.Fatalf("NewCode: %v", err)
		}
		if len(code) != Digits {
			t.Fatalf("code %q has length %d, want %d", code, len(code), Digits)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit %q", code, r)
			}
		}
	}
}

func TestMatch(t *testing.T) {
	if !Match("042137", "042137") {
		t.Fatal("expected equal codes to match")
	}
	if Match("042137", "042138") {
		t.Fatal("expected different codes to mismatch")
	}
	if Match("", "042137") {
		t.Fatal("expected empty submission to mismatch")
	}
	if Match("42137", "42137") {
		t.Fatal("expected short codes to be rejected")
	}
}
