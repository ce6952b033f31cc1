// Package priority turns a complaint snapshot into a PriorityAnalysis. It
// never returns an error: every failure resolves to the medium fallback with
// zero confidence so complaint intake cannot fail because of classification.
package priority

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/transit-complaints/backend/internal/ai"
	"github.com/transit-complaints/backend/internal/models"
	"github.com/transit-complaints/backend/internal/settings"
)

const (
	MaxTokens      = 300
	Temperature    = 0.3
	DefaultTimeout = 20 * time.Second
)

const (
	ReasonDisabled      = "AI prioritization is disabled by an administrator, defaulting to medium"
	ReasonMisconfigured = "AI disabled or misconfigured, defaulting to medium"
	ReasonUnavailable   = "AI analysis unavailable, using default priority"
)

// Prioritizer is what complaint lifecycle code depends on.
type Prioritizer interface {
	Prioritize(ctx context.Context, s models.ComplaintSnapshot) models.PriorityAnalysis
}

type Engine struct {
	flags    settings.FlagReader
	client   ai.Completer
	validate *validator.Validate
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   zerolog.Logger
	observer Observer
	now      func() time.Time
}

// Observer receives one outcome per Prioritize call: "ai" on success,
// otherwise the failure category that was logged. latency is zero when no
// call was made.
type Observer interface {
	ObserveOutcome(outcome string, latency time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveOutcome(string, time.Duration) {}

type Option func(*Engine)

// WithTimeout bounds each outbound call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRateLimit caps outbound calls per second. Calls over the limit are not
// queued; they get the fallback result.
func WithRateLimit(rps float64, burst int) Option {
	return func(e *Engine) {
		if rps <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine. client may be nil, meaning no classification service
// is configured; that is logged here once rather than on every call.
func New(flags settings.FlagReader, client ai.Completer, opts ...Option) *Engine {
	e := &Engine{
		flags:    flags,
		client:   client,
		validate: validator.New(),
		timeout:  DefaultTimeout,
		logger:   zerolog.Nop(),
		observer: nopObserver{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("component", "prioritizer").Logger()

	if client == nil {
		e.logger.Warn().Msg("no AI classification client configured, complaints will default to medium priority")
	} else {
		e.logger.Info().Str("model", client.Name()).Dur("timeout", e.timeout).Msg("AI prioritization ready")
	}
	return e
}

func (e *Engine) Prioritize(ctx context.Context, s models.ComplaintSnapshot) (result models.PriorityAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Str("category", "panic").Interface("panic", r).Msg("AI analysis panicked, using default priority")
			e.observer.ObserveOutcome("panic", 0)
			result = e.fallback(ReasonUnavailable)
		}
	}()

	if !e.flags.GetFlag(ctx, settings.AIPrioritization, true) {
		e.observer.ObserveOutcome("disabled", 0)
		return e.fallback(ReasonDisabled)
	}
	if e.client == nil {
		e.observer.ObserveOutcome("no_client", 0)
		return e.fallback(ReasonMisconfigured)
	}

	if err := e.validate.Struct(s); err != nil {
		e.logger.Warn().Err(err).Str("category", "invalid_input").Msg("complaint snapshot rejected, using default priority")
		e.observer.ObserveOutcome("invalid_input", 0)
		return e.fallback(ReasonUnavailable)
	}

	if e.limiter != nil && !e.limiter.Allow() {
		e.logger.Warn().Str("category", "rate_limited").Str("source", "local").Msg("AI call budget exhausted, using default priority")
		e.observer.ObserveOutcome("rate_limited", 0)
		return e.fallback(ReasonUnavailable)
	}

	// The caller going away does not abort an issued call; only the timeout does.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	start := time.Now()
	text, err := e.client.Complete(callCtx, ai.CompletionRequest{
		System:      SystemPrompt,
		User:        BuildPrompt(s),
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
	})
	latency := time.Since(start)
	if err != nil {
		e.observer.ObserveOutcome(e.logFailure(err, latency), latency)
		return e.fallback(ReasonUnavailable)
	}

	analysis, err := ParseAnalysis(e.validate, text, s.Category)
	if err != nil {
		e.logger.Error().Err(err).Str("category", "parse_error").Dur("latency", latency).Msg("AI response rejected, using default priority")
		e.observer.ObserveOutcome("parse_error", latency)
		return e.fallback(ReasonUnavailable)
	}

	analysis.Model = e.client.Name()
	analysis.AnalyzedAt = e.now()
	e.observer.ObserveOutcome("ai", latency)
	e.logger.Debug().
		Str("priority", analysis.Priority).
		Float64("confidence", analysis.Confidence).
		Dur("latency", latency).
		Msg("complaint prioritized")
	return analysis
}

func (e *Engine) logFailure(err error, latency time.Duration) string {
	category := ai.Classify(err)
	if errors.Is(err, ai.ErrRateLimited) {
		e.logger.Warn().Err(err).Str("category", category).Dur("latency", latency).Msg("AI quota or rate limit reached, using default priority")
		return category
	}
	e.logger.Error().Err(err).Str("category", category).Dur("latency", latency).Msg("AI analysis failed, using default priority")
	return category
}

func (e *Engine) fallback(reason string) models.PriorityAnalysis {
	return Fallback(reason, e.now())
}

// Fallback is the fixed degraded result. Confidence zero marks it.
func Fallback(reason string, at time.Time) models.PriorityAnalysis {
	return models.PriorityAnalysis{
		Priority:   models.PriorityMedium,
		Reasoning:  reason,
		Sentiment:  0,
		Confidence: 0,
		AnalyzedAt: at,
	}
}
