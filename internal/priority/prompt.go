package priority

import (
	"fmt"
	"strings"
	"time"

	"github.com/transit-complaints/backend/internal/models"
)

const SystemPrompt = "You are an assistant specialized in analyzing public transport complaints. Always respond with valid JSON."

const notSpecified = "Not specified"

// BuildPrompt renders the user turn sent to the completion service.
func BuildPrompt(s models.ComplaintSnapshot) string {
	var b strings.Builder

	b.WriteString("Analyze the following public transport complaint and determine its priority.\n\n")
	b.WriteString("Complaint:\n")
	fmt.Fprintf(&b, "- Title: %s\n", strings.TrimSpace(s.Title))
	fmt.Fprintf(&b, "- Description: %s\n", strings.TrimSpace(s.Description))
	fmt.Fprintf(&b, "- Category: %s\n", s.Category)
	fmt.Fprintf(&b, "- Date/time of incident: %s\n", formatIncidentTime(s.DateTime))
	fmt.Fprintf(&b, "- Location: %s\n", orNotSpecified(s.Location))
	fmt.Fprintf(&b, "- Vehicle: %s\n", orNotSpecified(s.VehicleNumber))

	b.WriteString("\nWhen deciding the priority, weigh:\n")
	b.WriteString("1. Safety implications for passengers or staff\n")
	b.WriteString("2. Impact on service disruption\n")
	b.WriteString("3. Number of passengers affected\n")
	b.WriteString("4. Urgency of the situation\n")
	b.WriteString("5. Emotional sentiment of the complaint\n")

	b.WriteString("\nRespond with JSON only, no other text, using exactly this shape:\n")
	b.WriteString(`{
  "priority": "high" | "medium" | "low",
  "reasoning": "short explanation of the priority",
  "sentiment": number between -1 (very negative) and 1 (very positive),
  "confidence": number between 0 and 1,
  "suggestedCategory": "optional, only if a different category fits better"
}`)
	b.WriteString("\nValid categories: ")
	b.WriteString(strings.Join(models.Categories, ", "))
	b.WriteString("\n")

	return b.String()
}

func orNotSpecified(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return notSpecified
	}
	return v
}

func formatIncidentTime(t time.Time) string {
	if t.IsZero() {
		return notSpecified
	}
	return t.Format("2006-01-02 15:04 MST")
}
