package testfixtures

import (
	"testing"
	"time"
)

func TestClock(t *testing.T) {
	c := NewClock(time.Time{})
	if !c.Now().Equal(ReferenceTime()) {
		t.Fatalf("Expected reference time, got %v", c.Now())
	}
	got := c.Advance(90 * time.Second)
	if !got.Equal(ReferenceTime().Add(90*time.Second)) || !c.Now().Equal(got) {
		t.Errorf("Advance did not move the clock: %v", got)
	}
}
