package priority

import (
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/transit-complaints/backend/internal/models"
)

func TestBuildPromptEmbedsFields(t *testing.T) {
	p := BuildPrompt(models.ComplaintSnapshot{
		Title:         "Bus skipped stop",
		Description:   "Line 4 did not stop at Oak Ave",
		Category:      "service",
		DateTime:      time.Date(2026, 1, 15, 7, 30, 0, 0, time.UTC),
		Location:      "Oak Ave",
		VehicleNumber: "B-204",
	})
	for _, want := range []string{
		"Title: Bus skipped stop",
		"Description: Line 4 did not stop at Oak Ave",
		"Category: service",
		"2026-01-15 07:30 UTC",
		"Location: Oak Ave",
		"Vehicle: B-204",
		"Safety implications",
		"service disruption",
		"Number of passengers affected",
		"Urgency",
		"sentiment",
		"JSON only",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestBuildPromptOptionalFields(t *testing.T) {
	p := BuildPrompt(models.ComplaintSnapshot{Title: "t", Description: "d", Category: "other"})
	if !strings.Contains(p, "Location: Not specified") || !strings.Contains(p, "Vehicle: Not specified") {
		t.Fatalf("expected Not specified placeholders:\n%s", p)
	}
	if !strings.Contains(p, "Date/time of incident: Not specified") {
		t.Fatalf("expected missing date placeholder:\n%s", p)
	}
}

func TestParseAnalysisDropsSameCategory(t *testing.T) {
	a, err := ParseAnalysis(validator.New(), `{"priority":"low","reasoning":"ok","sentiment":0.2,"confidence":0.4,"suggestedCategory":"staff"}`, "staff")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.SuggestedCategory != "" {
		t.Fatalf("expected suggestion equal to submitted category to be dropped, got %q", a.SuggestedCategory)
	}
}

func TestParseAnalysisIgnoresUnknownFields(t *testing.T) {
	a, err := ParseAnalysis(validator.New(), `{"priority":"medium","reasoning":"ok","sentiment":-0.1,"confidence":0.55,"tags":["x"]}`, "other")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Priority != "medium" || a.Confidence != 0.55 {
		t.Fatalf("unexpected analysis: %+v", a)
	}
}

func TestParseAnalysisNullSuggestion(t *testing.T) {
	a, err := ParseAnalysis(validator.New(), `{"priority":"high","reasoning":"ok","sentiment":-0.9,"confidence":0.95,"suggestedCategory":null}`, "safety")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.SuggestedCategory != "" {
		t.Fatalf("expected no suggestion, got %q", a.SuggestedCategory)
	}
}
