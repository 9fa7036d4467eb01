package server

import (
	"errors"
	"testing"
)

// TestConnManagerAdmission covers one connection per address, release and bans
func TestConnManagerAdmission(t *testing.T) {
	m := NewConnManager(1)

	if err := m.Admit("1.1.1.1"); err != nil {
		t.Fatalf("first admit: %v", err)
	}
	if err := m.Admit("1.1.1.1"); !errors.Is(err, ErrDuplicateIP) {
		t.Errorf("Expected ErrDuplicateIP, got %v", err)
	}
	if err := m.Admit("2.2.2.2"); err != nil {
		t.Errorf("other address should be admitted, got %v", err)
	}
	if m.Active() != 2 {
		t.Errorf("Expected 2 active, got %d", m.Active())
	}

	m.Release("1.1.1.1")
	m.Release("1.1.1.1") // 重复释放不会出现负数
	if err := m.Admit("1.1.1.1"); err != nil {
		t.Errorf("Expected admit after release, got %v", err)
	}
	if m.Active() != 2 {
		t.Errorf("Expected 2 active, got %d", m.Active())
	}

	m.Ban("2.2.2.2")
	m.Release("2.2.2.2")
	if err := m.Admit("2.2.2.2"); !errors.Is(err, ErrBanned) {
		t.Errorf("Expected ErrBanned, got %v", err)
	}
}

// TestAdmissionMessage maps admission errors to client text
func TestAdmissionMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrBanned, "You are banned from this server"},
		{ErrDuplicateIP, "Only one connection per IP is allowed"},
		{ErrCapacityExceeded, "Server is full"},
		{ErrNameTaken, "Nickname already in use"},
	}
	for _, tt := range tests {
		if got := AdmissionMessage(tt.err); got != tt.want {
			t.Errorf("%v: expected %q, got %q", tt.err, tt.want, got)
		}
	}
}
