package ai

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strings"
)

// MockCompleter returns a deterministic classification derived from the
// prompt text. Used for local development without an API key.
type MockCompleter struct {
	ModelVersion string
}

func (m MockCompleter) Name() string {
	if m.ModelVersion == "" {
		return "mock"
	}
	return "mock/" + m.ModelVersion
}

func (m MockCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newError("mock", kindForTransport(err), 0, err)
	}

	h := hashString(req.User)
	priorities := []string{"low", "medium", "medium", "high"}
	sentiments := []float64{-0.8, -0.4, 0, 0.3}

	priority := priorities[int(h%uint64(len(priorities)))]
	lower := strings.ToLower(req.User)
	if strings.Contains(lower, "injur") || strings.Contains(lower, "fire") || strings.Contains(lower, "assault") {
		priority = "high"
	}
	confidence := 0.75
	if h%5 == 0 {
		confidence = 0.62
	}

	out, _ := json.Marshal(map[string]any{
		"priority":   priority,
		"reasoning":  "Mock classification based on prompt hash",
		"sentiment":  sentiments[int((h/7)%uint64(len(sentiments)))],
		"confidence": confidence,
	})
	return string(out), nil
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
