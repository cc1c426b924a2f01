package mail

import "testing"

func TestUnconfiguredMailerSkipsSend(t *testing.T) {
	m := New("", 0, "", "")
	if m.configured() {
		t.Fatalf("mailer with empty credentials reports configured")
	}
	// Must return immediately without dialing anything.
	m.SendSubscriptionConfirmation("user@example.com")
}

func TestConfiguredDetection(t *testing.T) {
	if !New("smtp.example.com", 587, "a@b.c", "secret").configured() {
		t.Fatalf("mailer with credentials reports unconfigured")
	}
	if New("smtp.example.com", 587, "a@b.c", "").configured() {
		t.Fatalf("mailer without password reports configured")
	}
}
