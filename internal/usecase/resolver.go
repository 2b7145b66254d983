package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/service/upstream"
	"MacroPulse/pkg/logger"
	"MacroPulse/pkg/util"
)

// Step is one provider attempt in a fallback chain.
type Step struct {
	Tag models.ProviderTag
	Run func(ctx context.Context) (models.Reading, error)
}

// Chain is the fixed-priority provider list for one field.
type Chain struct {
	Field models.FieldName
	Steps []Step
}

// Outcome is the explicit result of a single step.
type Outcome struct {
	Tag     models.ProviderTag
	Reading models.Reading
	Err     error
}

// OK reports whether the step produced a usable value.
func (o Outcome) OK() bool { return o.Err == nil }

// FieldError is reported when every provider of a field failed.
type FieldError struct {
	Field models.FieldName
	Last  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: all providers failed: %v", e.Field, e.Last)
}

func (e *FieldError) Unwrap() error { return e.Last }

var errNoProviders = errors.New("no providers configured")

// Resolution is the settled state of a chain: Resolved when Err is nil, Unavailable otherwise.
type Resolution struct {
	Field    models.FieldName
	Result   models.FieldResult
	Err      *FieldError
	Attempts []Outcome
}

// Resolver walks fallback chains. It never returns provider failures to its caller;
// they end up in the Resolution.
type Resolver struct {
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewResolver(metrics domrepo.Metrics, log *logger.Logger) *Resolver {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver{metrics: metrics, log: log}
}

// Resolve tries each step in order until one yields a finite value.
func (r *Resolver) Resolve(ctx context.Context, c Chain) Resolution {
	res := Resolution{Field: c.Field, Attempts: make([]Outcome, 0, len(c.Steps))}

	for _, step := range c.Steps {
		out := r.attempt(ctx, c.Field, step)
		res.Attempts = append(res.Attempts, out)
		if out.OK() {
			res.Result = out.Reading.Result(out.Tag)
			r.metrics.RecordLastValue(string(c.Field), out.Reading.Value)
			return res
		}
		r.log.Warn("provider failed",
			logger.String("field", string(c.Field)),
			logger.String("provider", out.Tag.Provider),
			logger.String("symbol", out.Tag.Symbol),
			logger.Error(out.Err),
		)
	}

	last := errNoProviders
	var tag models.ProviderTag
	if n := len(res.Attempts); n > 0 {
		last = res.Attempts[n-1].Err
		tag = res.Attempts[n-1].Tag
	}
	tag.Note = last.Error()

	res.Result = models.FieldResult{Source: tag}
	res.Err = &FieldError{Field: c.Field, Last: last}
	r.metrics.RecordFieldUnavailable(string(c.Field))
	r.log.Error("field unavailable",
		logger.String("field", string(c.Field)),
		logger.Error(last),
	)
	return res
}

func (r *Resolver) attempt(ctx context.Context, field models.FieldName, step Step) Outcome {
	out := Outcome{Tag: step.Tag}
	if err := ctx.Err(); err != nil {
		out.Err = upstream.FetchError(step.Tag.Provider, err)
		return out
	}

	start := time.Now()
	reading, err := step.Run(ctx)
	r.metrics.RecordProviderCall(step.Tag.Provider, string(field), time.Since(start), err)

	switch {
	case err != nil:
		out.Err = err
	case !util.IsFinite(reading.Value):
		out.Err = upstream.ParseError(step.Tag.Provider, "non-finite value")
	default:
		out.Reading = reading
	}
	return out
}
