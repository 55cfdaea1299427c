package workflow

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tripgo-dev/tripgo/internal/aggregate"
	"github.com/tripgo-dev/tripgo/internal/observability"
	"github.com/tripgo-dev/tripgo/internal/steps"
	"github.com/tripgo-dev/tripgo/pkg/provider"
)

// ExecutionError wraps a phase failure together with the state the run
// had reached when it failed.
type ExecutionError struct {
	State State
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("workflow failed in state %s: %v", e.State, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Sub-analysis functions for the parallel phase. Overridable for tests
// and alternative analyzers; a returned error degrades that sub-result to
// its zero value without failing the phase.
type (
	MatchFunc     func(destinations []provider.Destination, prefs steps.Preferences) (steps.MatchReport, error)
	BudgetFunc    func(budget int, prefs steps.Preferences) (steps.BudgetPlan, error)
	ItineraryFunc func(destinations []provider.Destination, duration int) ([]steps.Itinerary, error)
)

// Engine drives the recommendation workflow. An Engine is safe for
// concurrent use: all per-run state lives in the run, never the Engine.
type Engine struct {
	provider  provider.Provider
	observers []Observer

	matchFunc     MatchFunc
	budgetFunc    BudgetFunc
	itineraryFunc ItineraryFunc

	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers a lifecycle observer.
func WithObserver(obs Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, obs)
	}
}

// WithMatchFunc replaces the preference-matching sub-analysis.
func WithMatchFunc(fn MatchFunc) Option {
	return func(e *Engine) {
		e.matchFunc = fn
	}
}

// WithBudgetFunc replaces the budget-optimization sub-analysis.
func WithBudgetFunc(fn BudgetFunc) Option {
	return func(e *Engine) {
		e.budgetFunc = fn
	}
}

// WithItineraryFunc replaces the itinerary-drafting sub-analysis.
func WithItineraryFunc(fn ItineraryFunc) Option {
	return func(e *Engine) {
		e.itineraryFunc = fn
	}
}

// WithClock overrides the engine clock. Tests use this to pin
// recommendation timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a workflow engine over the given provider.
func NewEngine(p provider.Provider, opts ...Option) *Engine {
	if p == nil {
		panic("workflow engine provider cannot be nil")
	}

	e := &Engine{
		provider: p,
		matchFunc: func(destinations []provider.Destination, prefs steps.Preferences) (steps.MatchReport, error) {
			return steps.MatchDestinations(destinations, prefs), nil
		},
		budgetFunc: func(budget int, prefs steps.Preferences) (steps.BudgetPlan, error) {
			return steps.OptimizeBudget(budget, prefs), nil
		},
		itineraryFunc: func(destinations []provider.Destination, duration int) ([]steps.Itinerary, error) {
			return steps.DraftItineraries(destinations, duration), nil
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run holds the per-execution state machine.
type run struct {
	engine    *Engine
	wctx      *Context
	state     State
	observers []Observer
}

// transition moves the run to next, enforcing the forward-only order.
func (r *run) transition(next State) error {
	if !r.state.CanTransition(next) {
		return fmt.Errorf("illegal transition %s -> %s", r.state, next)
	}
	from := r.state
	r.state = next
	for _, obs := range r.observers {
		obs.OnStateChange(r.wctx.SessionID, from, next)
	}
	return nil
}

func (r *run) stepExecuted(step string) {
	for _, obs := range r.observers {
		obs.OnStepExecuted(r.wctx.SessionID, step)
	}
}

// Run executes the full workflow for one context. Extra observers see
// this run only, in addition to those registered on the Engine. On
// failure the returned error is always an *ExecutionError carrying the
// state reached.
func (e *Engine) Run(ctx context.Context, wctx *Context, extra ...Observer) (*aggregate.Result, error) {
	ctx, span := observability.StartSpanWithOtel(ctx, "workflow.run",
		trace.WithAttributes(
			attribute.String("workflow.session_id", wctx.SessionID),
		),
	)
	defer span.End()

	observers := make([]Observer, 0, len(e.observers)+len(extra))
	observers = append(observers, e.observers...)
	observers = append(observers, extra...)

	r := &run{engine: e, wctx: wctx, state: StateInitialized, observers: observers}
	for _, obs := range r.observers {
		obs.OnWorkflowStart(wctx.SessionID)
	}

	result, err := r.execute(ctx)
	if err != nil {
		execErr := &ExecutionError{State: r.state, Err: err}
		if r.state != StateError {
			_ = r.transition(StateError)
		}
		for _, obs := range r.observers {
			obs.OnError(wctx.SessionID, execErr)
		}
		span.RecordError(execErr)
		return nil, execErr
	}

	span.SetAttributes(
		attribute.String("workflow.state", string(r.state)),
		attribute.Int("workflow.recommendations", len(result.Recommendations)),
	)
	for _, obs := range r.observers {
		obs.OnWorkflowComplete(wctx.SessionID, len(result.Recommendations))
	}
	return result, nil
}

func (r *run) execute(ctx context.Context) (*aggregate.Result, error) {
	e := r.engine
	wctx := r.wctx

	// Phase A: preference analysis.
	if err := r.transition(StateAnalyzingPreferences); err != nil {
		return nil, err
	}
	prefs := steps.AnalyzePreferences(wctx.UserInput)
	wctx.Set("preferences", prefs)
	r.stepExecuted("analyze_preferences")

	budget := wctx.Budget
	if budget <= 0 {
		budget = prefs.Budget
	}

	// Phase B: destination search.
	if err := r.transition(StateSearchingDestinations); err != nil {
		return nil, err
	}
	query := steps.BuildSearchQuery(prefs)
	destinations, err := e.provider.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("destination search %q: %w", query, err)
	}
	wctx.Set("destinations", destinations)
	r.stepExecuted("search_destinations")

	// Parallel phase: the three sub-analyses are independent; a failure in
	// any one degrades that sub-result to its zero value, never the phase.
	if err := r.transition(StateMatchingPreferences); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var analysis aggregate.Analysis
	var g errgroup.Group

	g.Go(func() error {
		report, err := runSubAnalysis(wctx.SessionID, "preference_matching", r, func() (steps.MatchReport, error) {
			return e.matchFunc(destinations, prefs)
		})
		if err == nil {
			analysis.PreferenceMatching = report
		}
		return nil
	})
	g.Go(func() error {
		plan, err := runSubAnalysis(wctx.SessionID, "budget_optimization", r, func() (steps.BudgetPlan, error) {
			return e.budgetFunc(budget, prefs)
		})
		if err == nil {
			analysis.BudgetOptimization = plan
		}
		return nil
	})
	g.Go(func() error {
		itineraries, err := runSubAnalysis(wctx.SessionID, "itinerary_planning", r, func() ([]steps.Itinerary, error) {
			return e.itineraryFunc(destinations, prefs.Duration)
		})
		if err == nil {
			analysis.ItineraryPlanning = itineraries
		}
		return nil
	})
	_ = g.Wait()

	wctx.Set("analysis", analysis)

	// Observable pass-through transitions at the join boundary keep the
	// declared forward order intact.
	if err := r.transition(StateOptimizingBudget); err != nil {
		return nil, err
	}
	if err := r.transition(StateGeneratingItinerary); err != nil {
		return nil, err
	}

	// Phase C: recommendation assembly.
	if err := r.transition(StateFinalizingRecommendations); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recommendations := aggregate.BuildRecommendations(wctx.SessionID, destinations, analysis, e.now())
	wctx.Set("recommendations", recommendations)
	r.stepExecuted("generate_recommendations")

	if err := r.transition(StateCompleted); err != nil {
		return nil, err
	}

	return &aggregate.Result{
		Preferences:     prefs,
		Destinations:    destinations,
		Analysis:        analysis,
		Recommendations: recommendations,
	}, nil
}

// runSubAnalysis guards one parallel sub-analysis: panics become errors,
// errors degrade the sub-result, and the step event fires either way.
func runSubAnalysis[T any](sessionID, name string, r *run, fn func() (T, error)) (result T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sub-analysis %s panicked: %v", name, rec)
		}
		if err != nil {
			for _, obs := range r.observers {
				obs.OnError(sessionID, fmt.Errorf("sub-analysis %s degraded: %w", name, err))
			}
		}
		r.stepExecuted(name)
	}()

	return fn()
}
