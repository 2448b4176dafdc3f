package audit

import "testing"

func TestAppendAndVerify(t *testing.T) {
	l := New()
	l.Append("64f0c3a1b2c3d4e5f6a7b8c9", "add", "rec1")
	l.Append("64f0c3a1b2c3d4e5f6a7b8c9", "update", "rec1")
	l.Append("64f0c3a1b2c3d4e5f6a7b8c9", "delete", "rec1")

	if err := l.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	events := l.Events()
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Hash == events[1].Hash {
		t.Fatal("consecutive events share a hash")
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	l := New()
	l.Append("actor", "add", "rec1")
	l.Append("actor", "delete", "rec1")

	l.events[0].Action = "update"
	if err := l.Verify(); err == nil {
		t.Fatal("expected Verify to fail after tampering")
	}
}
