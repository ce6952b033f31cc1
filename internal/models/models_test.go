package models

import (
	"testing"
	"time"
)

func TestSnapshotCopiesEngineFields(t *testing.T) {
	at := time.Date(2026, 3, 2, 8, 15, 0, 0, time.UTC)
	c := Complaint{
		ID:            "c1",
		Title:         "Broken ramp",
		Description:   "The wheelchair ramp on bus 42 did not deploy",
		Category:      "accessibility",
		DateTime:      at,
		Location:      "Central Station",
		VehicleNumber: "42",
		SubmittedBy:   "p1",
		Priority:      PriorityMedium,
	}
	s := c.Snapshot()
	if s.Title != c.Title || s.Description != c.Description || s.Category != c.Category {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if !s.DateTime.Equal(at) || s.Location != "Central Station" || s.VehicleNumber != "42" {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestIsCategory(t *testing.T) {
	for _, c := range Categories {
		if !IsCategory(c) {
			t.Fatalf("expected %q to be a category", c)
		}
	}
	if IsCategory("weather") {
		t.Fatalf("expected weather to be rejected")
	}
}

func TestIsPriority(t *testing.T) {
	if !IsPriority("high") || !IsPriority("medium") || !IsPriority("low") {
		t.Fatalf("expected high/medium/low to be valid")
	}
	if IsPriority("urgent") || IsPriority("HIGH") {
		t.Fatalf("expected priority check to be exact")
	}
}
