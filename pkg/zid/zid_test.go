package zid

import (
	"testing"
	"time"
)

func TestFromString(t *testing.T) {
	id := New()
	parsed, err := FromString(id.String())
	if err != nil {
		t.Fatalf("ERROR: %v", err)
	}
	if parsed != id {
		t.Errorf("ERROR: got %s, want %s", parsed, id)
	}

	_, err = FromString("not-an-id")
	if err == nil {
		t.Errorf("ERROR: expected error for malformed id")
	}
}

func TestNewWithTime(t *testing.T) {
	at := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	id := NewWithTime(at)
	if !id.Time().Equal(at) {
		t.Errorf("ERROR: got %s, want %s", id.Time(), at)
	}

	later := NewWithTime(at.Add(time.Second))
	if id.Compare(later) >= 0 {
		t.Errorf("ERROR: expected %s to sort before %s", id, later)
	}

	if id.IsZero() || !(ID{}).IsZero() {
		t.Errorf("ERROR: IsZero is wrong")
	}
}

func TestScanValue(t *testing.T) {
	id := New()
	v, err := id.Value()
	if err != nil {
		t.Fatalf("ERROR: %v", err)
	}

	var scanned ID
	if err := scanned.Scan(v); err != nil {
		t.Fatalf("ERROR: %v", err)
	}
	if scanned != id {
		t.Errorf("ERROR: got %s, want %s", scanned, id)
	}
}
