package models

import (
	"encoding/json"
	"time"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusRejected   = "rejected"
)

// Categories is the fixed set of complaint categories a passenger can pick.
var Categories = []string{
	"service",
	"safety",
	"accessibility",
	"cleanliness",
	"staff",
	"vehicle",
	"schedule",
	"other",
}

func IsCategory(v string) bool {
	for _, c := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

func IsPriority(v string) bool {
	switch v {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

func IsStatus(v string) bool {
	switch v {
	case StatusOpen, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// ComplaintSnapshot is the read-only projection of a complaint handed to the
// prioritization engine. It carries no identity.
type ComplaintSnapshot struct {
	Title         string    `json:"title" validate:"required"`
	Description   string    `json:"description" validate:"required"`
	Category      string    `json:"category" validate:"required,oneof=service safety accessibility cleanliness staff vehicle schedule other"`
	DateTime      time.Time `json:"dateTime"`
	Location      string    `json:"location,omitempty"`
	VehicleNumber string    `json:"vehicleNumber,omitempty"`
}

// PriorityAnalysis is always fully populated. Confidence is zero only for
// fallback results.
type PriorityAnalysis struct {
	Priority          string    `json:"priority"`
	Reasoning         string    `json:"reasoning"`
	Sentiment         float64   `json:"sentiment"`
	Confidence        float64   `json:"confidence"`
	SuggestedCategory string    `json:"suggestedCategory,omitempty"`
	Model             string    `json:"model,omitempty"`
	AnalyzedAt        time.Time `json:"analyzedAt"`
}

func (a PriorityAnalysis) IsFallback() bool {
	return a.Confidence == 0
}

type Complaint struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Category      string            `json:"category"`
	DateTime      time.Time         `json:"dateTime"`
	Location      string            `json:"location,omitempty"`
	VehicleNumber string            `json:"vehicleNumber,omitempty"`
	SubmittedBy   string            `json:"submittedBy,omitempty"`
	Status        string            `json:"status"`
	Priority      string            `json:"priority"`
	Analysis      *PriorityAnalysis `json:"analysis,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (c Complaint) Snapshot() ComplaintSnapshot {
	return ComplaintSnapshot{
		Title:         c.Title,
		Description:   c.Description,
		Category:      c.Category,
		DateTime:      c.DateTime,
		Location:      c.Location,
		VehicleNumber: c.VehicleNumber,
	}
}

// ComplaintFilter narrows complaint listings. Empty fields match everything.
type ComplaintFilter struct {
	Status   string
	Priority string
	Category string
	Query    string
	Limit    int
	Offset   int
}

// Setting is one key of the settings store. Value holds a JSON scalar.
type Setting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedBy string          `json:"updatedBy,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
