package usecase

import (
	"context"
	"sync"
	"time"

	"PerfDash/internal/domain/models"
	domrepo "PerfDash/internal/domain/repository"
	domsvc "PerfDash/internal/domain/service"
	"PerfDash/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	opFetchData = "fetch-data"
	opHeatmap   = "heatmap"
	opCycle     = "cycle"

	outcomeReady  = "ready"
	outcomeFailed = "failed"
)

// StateListener is called after every state transition, in transition order.
// Listeners must not block and must not call Trigger.
type StateListener func(models.RequestState)

// FetchOrchestrator runs fetch cycles against the analytics service and owns
// the published RequestState.
type FetchOrchestrator struct {
	svc     domsvc.AnalyticsService
	log     *logger.Logger
	metrics domrepo.Metrics
	timeout time.Duration

	mu        sync.RWMutex
	state     models.RequestState
	listeners map[int]StateListener
	nextID    int

	// transitionMu is held across a state change and its notification so
	// listeners observe transitions in the order they happened. It is always
	// acquired before mu.
	transitionMu sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewFetchOrchestrator creates an orchestrator in PhaseIdle. A zero timeout
// leaves cycles bounded only by the analytics client.
func NewFetchOrchestrator(svc domsvc.AnalyticsService, log *logger.Logger, metrics domrepo.Metrics, timeout time.Duration) *FetchOrchestrator {
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	o := &FetchOrchestrator{
		svc:       svc,
		log:       log,
		metrics:   metrics,
		timeout:   timeout,
		listeners: make(map[int]StateListener),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	o.state = models.RequestState{Phase: models.PhaseIdle, UpdatedAt: o.now()}
	return o
}

// State returns the currently published state.
func (o *FetchOrchestrator) State() models.RequestState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Subscribe registers fn for every future transition and returns a function
// that removes it.
func (o *FetchOrchestrator) Subscribe(fn StateListener) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.listeners, id)
		o.mu.Unlock()
	}
}

// Trigger starts a cycle for snap. The transition to PhaseLoading is visible
// before Trigger returns; the returned channel receives the terminal state.
// Requests run under ctx, so callers that must outlive a request scope pass a
// detached context.
func (o *FetchOrchestrator) Trigger(ctx context.Context, snap models.Snapshot) (<-chan models.RequestState, error) {
	if snap.Empty() {
		return nil, models.ErrNoInstruments
	}

	o.transitionMu.Lock()
	o.mu.Lock()
	if o.state.Loading() {
		o.mu.Unlock()
		o.transitionMu.Unlock()
		return nil, models.ErrCycleInFlight
	}
	cycleID := o.newID()
	loading := models.RequestState{
		Phase:     models.PhaseLoading,
		CycleID:   cycleID,
		Snapshot:  snap,
		UpdatedAt: o.now(),
	}
	o.state = loading
	o.mu.Unlock()
	o.notify(loading)
	o.transitionMu.Unlock()

	o.log.Info("Fetch cycle started",
		logger.String("cycle_id", cycleID),
		logger.Strings("tickers", snap.Tickers()),
		logger.String("start", snap.StartISO()),
		logger.String("end", snap.EndISO()),
	)

	done := make(chan models.RequestState, 1)
	go func() {
		defer close(done)
		done <- o.run(ctx, cycleID, snap)
	}()
	return done, nil
}

// Run triggers a cycle and blocks until it reaches a terminal state.
func (o *FetchOrchestrator) Run(ctx context.Context, snap models.Snapshot) (models.RequestState, error) {
	done, err := o.Trigger(ctx, snap)
	if err != nil {
		return o.State(), err
	}
	return <-done, nil
}

func (o *FetchOrchestrator) run(ctx context.Context, cycleID string, snap models.Snapshot) models.RequestState {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	log := o.log.With(logger.String("cycle_id", cycleID))
	started := time.Now()

	var (
		result  *models.AnalyticsResult
		heatmap *models.HeatmapImage
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t0 := time.Now()
		res, err := o.svc.FetchData(gctx, snap)
		o.metrics.RecordLatency(opFetchData, time.Since(t0))
		if err != nil {
			return err
		}
		result = res
		return nil
	})

	// The heatmap never fails the cycle.
	g.Go(func() error {
		t0 := time.Now()
		hm, err := o.svc.FetchHeatmap(gctx, snap)
		o.metrics.RecordLatency(opHeatmap, time.Since(t0))
		if err != nil {
			// Cancelled means the primary failed or the cycle timed out.
			if gctx.Err() != nil {
				return nil
			}
			log.Warn("Heatmap unavailable, publishing without it",
				logger.String("kind", string(models.KindOf(err))),
				logger.Error(err),
			)
			return nil
		}
		heatmap = hm
		return nil
	})

	err := g.Wait()
	o.metrics.RecordLatency(opCycle, time.Since(started))

	var final models.RequestState
	if err != nil {
		info := models.NewErrorInfo(err)
		final = models.RequestState{
			Phase:    models.PhaseFailed,
			CycleID:  cycleID,
			Snapshot: snap,
			Err:      info,
		}
		o.metrics.RecordCycle(outcomeFailed)
		o.metrics.RecordError(string(info.Kind))
		log.Error("Fetch cycle failed",
			logger.String("kind", string(info.Kind)),
			logger.Error(err),
			logger.Float64("elapsed_seconds", time.Since(started).Seconds()),
		)
	} else {
		final = models.RequestState{
			Phase:    models.PhaseReady,
			CycleID:  cycleID,
			Snapshot: snap,
			Result:   result,
			Heatmap:  heatmap,
		}
		o.metrics.RecordCycle(outcomeReady)
		o.metrics.SetInstruments(result.Len())
		if heatmap == nil {
			o.metrics.RecordHeatmapDegraded()
		}
		log.Info("Fetch cycle published",
			logger.Int("instruments", result.Len()),
			logger.Bool("heatmap", heatmap != nil),
			logger.Float64("elapsed_seconds", time.Since(started).Seconds()),
		)
	}

	return o.publish(final)
}

// publish replaces the state in one step. A cycle that is no longer current
// is dropped.
func (o *FetchOrchestrator) publish(s models.RequestState) models.RequestState {
	o.transitionMu.Lock()
	defer o.transitionMu.Unlock()

	s.UpdatedAt = o.now()
	o.mu.Lock()
	if o.state.CycleID != s.CycleID {
		o.mu.Unlock()
		return s
	}
	o.state = s
	o.mu.Unlock()

	o.notify(s)
	return s
}

// notify must be called with transitionMu held.
func (o *FetchOrchestrator) notify(s models.RequestState) {
	o.mu.RLock()
	ls := make([]StateListener, 0, len(o.listeners))
	for _, fn := range o.listeners {
		ls = append(ls, fn)
	}
	o.mu.RUnlock()

	for _, fn := range ls {
		fn(s)
	}
}
