package priority

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/transit-complaints/backend/internal/models"
)

var ErrMalformed = errors.New("malformed analysis")

// wireAnalysis uses pointers so a missing field can be told apart from a zero.
type wireAnalysis struct {
	Priority          *string  `json:"priority"`
	Reasoning         *string  `json:"reasoning"`
	Sentiment         *float64 `json:"sentiment"`
	Confidence        *float64 `json:"confidence"`
	SuggestedCategory *string  `json:"suggestedCategory"`
}

type checkedAnalysis struct {
	Priority          string  `validate:"oneof=high medium low"`
	Reasoning         string  `validate:"required"`
	Sentiment         float64 `validate:"gte=-1,lte=1"`
	Confidence        float64 `validate:"gt=0,lte=1"`
	SuggestedCategory string  `validate:"omitempty,oneof=service safety accessibility cleanliness staff vehicle schedule other"`
}

// ParseAnalysis decodes the model's answer. Any syntax error, missing
// required field or out-of-range value rejects the whole answer.
// A suggestedCategory equal to submitted is dropped.
func ParseAnalysis(v *validator.Validate, text string, submitted string) (models.PriorityAnalysis, error) {
	var w wireAnalysis
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return models.PriorityAnalysis{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var missing []string
	if w.Priority == nil {
		missing = append(missing, "priority")
	}
	if w.Reasoning == nil {
		missing = append(missing, "reasoning")
	}
	if w.Sentiment == nil {
		missing = append(missing, "sentiment")
	}
	if w.Confidence == nil {
		missing = append(missing, "confidence")
	}
	if len(missing) > 0 {
		return models.PriorityAnalysis{}, fmt.Errorf("%w: missing %s", ErrMalformed, strings.Join(missing, ", "))
	}

	c := checkedAnalysis{
		Priority:   *w.Priority,
		Reasoning:  strings.TrimSpace(*w.Reasoning),
		Sentiment:  *w.Sentiment,
		Confidence: *w.Confidence,
	}
	if w.SuggestedCategory != nil {
		c.SuggestedCategory = strings.TrimSpace(*w.SuggestedCategory)
	}
	if err := v.Struct(c); err != nil {
		return models.PriorityAnalysis{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if c.SuggestedCategory == submitted {
		c.SuggestedCategory = ""
	}

	return models.PriorityAnalysis{
		Priority:          c.Priority,
		Reasoning:         c.Reasoning,
		Sentiment:         c.Sentiment,
		Confidence:        c.Confidence,
		SuggestedCategory: c.SuggestedCategory,
	}, nil
}
