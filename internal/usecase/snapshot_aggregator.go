package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"MacroPulse/internal/domain/models"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/pkg/logger"
	"MacroPulse/pkg/util"

	"github.com/guregu/null/v6"
)

// ErrAggregationFault marks a failure that escaped per-field containment.
var ErrAggregationFault = errors.New("aggregation fault")

const defaultBudget = 8 * time.Second

// SnapshotAggregator resolves all applicable fields concurrently and merges them.
type SnapshotAggregator struct {
	chains   *FieldChains
	resolver *Resolver
	budget   time.Duration
	log      *logger.Logger
}

func NewSnapshotAggregator(chains *FieldChains, resolver *Resolver, budget time.Duration, log *logger.Logger) *SnapshotAggregator {
	if budget <= 0 {
		budget = defaultBudget
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &SnapshotAggregator{chains: chains, resolver: resolver, budget: budget, log: log}
}

// Aggregate waits for every chain to settle; provider failures never fail the call.
// Only a panic inside a resolver yields an error (ErrAggregationFault).
func (a *SnapshotAggregator) Aggregate(ctx context.Context, p models.SnapshotParams) (*models.Snapshot, error) {
	if p.AsOf.IsZero() {
		p.AsOf = time.Now()
	}

	// Overall timeout
	ctx, cancel := context.WithTimeout(ctx, a.budget)
	defer cancel()

	chains := a.chains.Chains(p.SkipNAV)

	type item struct {
		res   Resolution
		fault error
	}
	ch := make(chan item, len(chains))
	var wg sync.WaitGroup

	for _, c := range chains {
		wg.Add(1)
		go func(c Chain) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.log.Error("resolver panic",
						logger.String("field", string(c.Field)),
						logger.Any("panic", r),
						logger.String("stack", string(debug.Stack())),
					)
					ch <- item{fault: fmt.Errorf("%w: resolving %s: %v", ErrAggregationFault, c.Field, r)}
				}
			}()
			ch <- item{res: a.resolver.Resolve(ctx, c)}
		}(c)
	}

	go func() { wg.Wait(); close(ch) }()

	results := make(map[models.FieldName]Resolution, len(chains))
	var fault error
	for it := range ch {
		if it.fault != nil {
			if fault == nil {
				fault = it.fault
			}
			continue
		}
		results[it.res.Field] = it.res
	}
	if fault != nil {
		return nil, fault
	}

	return merge(p, results), nil
}

func merge(p models.SnapshotParams, results map[models.FieldName]Resolution) *models.Snapshot {
	snap := models.NewSnapshot(p.AsOf)

	for _, f := range models.AllFields {
		res, ok := results[f]
		if !ok {
			continue
		}
		snap.Fields[f] = res.Result
		snap.Freshness[f] = res.Result.Source
		snap.SetValue(f, res.Result.Value)
		if f == models.FieldUSDINR {
			snap.USDINRPct30d = res.Result.Pct30d
			snap.USDINRTrend = res.Result.Trend
		}
		if res.Err != nil {
			snap.Errors = append(snap.Errors, res.Err.Error())
		}
	}

	for _, f := range models.AllFields {
		v, ok := p.Overrides[f]
		if !ok || !f.Overridable() || !util.IsFinite(v) {
			continue
		}
		auto := snap.Fields[f]
		if snap.Manual == nil {
			snap.Manual = make(map[models.FieldName]models.ManualOverride)
		}
		snap.Manual[f] = models.ManualOverride{Manual: v, Auto: auto.Value, AutoSource: auto.Source}
		snap.SetValue(f, null.FloatFrom(v))
	}
	return snap
}

var _ domsvc.SnapshotAggregator = (*SnapshotAggregator)(nil)
