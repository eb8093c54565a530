package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/moneywise/internal/observability"
)

// Limiter is the quota check used by the Gateway.
type Limiter interface {
	Acquire(userID string) Decision
}

// ResultCache is the result store used by the Gateway.
type ResultCache interface {
	Get(userID, prompt string, data any) (string, bool)
	Set(userID, prompt string, data any, result string) error
}

// Generator produces a completion for a rendered prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RenderFunc turns the user's prompt and data payload into the text sent to
// the generator.
type RenderFunc func(prompt string, data any) (string, error)

// Gateway runs the quota check, the cache lookup and the generation call for
// one analysis request.
type Gateway struct {
	limiter Limiter
	cache   ResultCache
	gen     Generator
	render  RenderFunc
}

// NewGateway wires a Gateway. A nil render uses DefaultRender.
func NewGateway(l Limiter, c ResultCache, g Generator, render RenderFunc) *Gateway {
	if render == nil {
		render = DefaultRender
	}
	return &Gateway{limiter: l, cache: c, gen: g, render: render}
}

// DefaultRender appends the JSON payload to the prompt.
func DefaultRender(prompt string, data any) (string, error) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return prompt + "\n\nData:\n" + string(raw), nil
}

// AcquireAndAnalyze returns the analysis text for (userID, prompt, data).
//
// Errors:
//   - *RateLimitError (matches ErrRateLimited) when the quota is exhausted
//   - ErrGenerationFailed when rendering or generation fails
//
// Nothing is cached on failure. Cache write failures are logged and the
// result is still returned.
func (g *Gateway) AcquireAndAnalyze(ctx context.Context, userID, prompt string, data any) (string, error) {
	ctx, span := otel.Tracer("gate").Start(ctx, "AcquireAndAnalyze",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	d := g.limiter.Acquire(userID)
	if !d.Allowed {
		observability.GateDecisions.WithLabelValues("denied").Inc()
		span.SetAttributes(attribute.Bool("gate.allowed", false))
		return "", &RateLimitError{RetryAfter: d.RetryAfter}
	}
	observability.GateDecisions.WithLabelValues("allowed").Inc()

	if res, ok := g.cache.Get(userID, prompt, data); ok {
		span.SetAttributes(attribute.Bool("gate.cache_hit", true))
		return res, nil
	}
	span.SetAttributes(attribute.Bool("gate.cache_hit", false))

	text, err := g.render(prompt, data)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: render prompt: %w", ErrGenerationFailed, err)
	}

	out, err := g.gen.Complete(ctx, text)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrGenerationFailed)
	}

	if err := g.cache.Set(userID, prompt, data, out); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("analysis cache set failed")
	}
	return out, nil
}
