package lifecycle

import (
	"context"
	"fmt"
)

// ExperimentHandler is the signature for the two experiment-scoped stages,
// which carry no run context.
type ExperimentHandler func(ctx context.Context) error

// RunHandler is the signature for the run-scoped stages from BeforeRun
// through StopRun.
type RunHandler func(ctx context.Context, rc *RunContext) error

// DataHandler is the signature for PopulateRunData. A nil map with a nil
// error means "no measurement available", which is a valid outcome.
type DataHandler func(ctx context.Context, rc *RunContext) (map[string]float64, error)

// Module is the interface a lifecycle module implements to hook its
// handlers into the registry at startup.
type Module interface {
	Register(r *Registry)
}

// Registry maps each stage to its ordered handler list.
type Registry struct {
	experiment map[Stage][]ExperimentHandler
	run        map[Stage][]RunHandler
	data       []DataHandler
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		experiment: make(map[Stage][]ExperimentHandler),
		run:        make(map[Stage][]RunHandler),
	}
}

// Subscribe registers a handler for a stage. The handler must match the
// stage's kind: ExperimentHandler for BeforeExperiment/AfterExperiment,
// RunHandler for the per-run stages, DataHandler for PopulateRunData.
// A mismatch is a programmer error and panics at registration time.
func (r *Registry) Subscribe(stage Stage, handler any) {
	switch stage {
	case BeforeExperiment, AfterExperiment:
		fn, ok := handler.(ExperimentHandler)
		if !ok {
			if raw, isRaw := handler.(func(context.Context) error); isRaw {
				fn, ok = ExperimentHandler(raw), true
			}
		}
		if !ok {
			panic(fmt.Sprintf("lifecycle: stage %s requires an ExperimentHandler, got %T", stage, handler))
		}
		r.experiment[stage] = append(r.experiment[stage], fn)
	case BeforeRun, StartRun, StartMeasurement, Interact, StopMeasurement, StopRun:
		fn, ok := handler.(RunHandler)
		if !ok {
			if raw, isRaw := handler.(func(context.Context, *RunContext) error); isRaw {
				fn, ok = RunHandler(raw), true
			}
		}
		if !ok {
			panic(fmt.Sprintf("lifecycle: stage %s requires a RunHandler, got %T", stage, handler))
		}
		r.run[stage] = append(r.run[stage], fn)
	case PopulateRunData:
		fn, ok := handler.(DataHandler)
		if !ok {
			if raw, isRaw := handler.(func(context.Context, *RunContext) (map[string]float64, error)); isRaw {
				fn, ok = DataHandler(raw), true
			}
		}
		if !ok {
			panic(fmt.Sprintf("lifecycle: stage %s requires a DataHandler, got %T", stage, handler))
		}
		r.data = append(r.data, fn)
	default:
		panic(fmt.Sprintf("lifecycle: unknown stage %s", stage))
	}
}

// OnExperiment registers a handler for an experiment-scoped stage.
func (r *Registry) OnExperiment(stage Stage, fn ExperimentHandler) {
	r.Subscribe(stage, fn)
}

// OnRun registers a handler for a run-scoped stage.
func (r *Registry) OnRun(stage Stage, fn RunHandler) {
	r.Subscribe(stage, fn)
}

// OnData registers a PopulateRunData handler.
func (r *Registry) OnData(fn DataHandler) {
	r.Subscribe(PopulateRunData, fn)
}

// Publish invokes every handler registered for an experiment-scoped stage,
// synchronously, in registration order. The first handler error aborts the
// publish and is returned to the caller.
func (r *Registry) Publish(ctx context.Context, stage Stage) error {
	if stage != BeforeExperiment && stage != AfterExperiment {
		return fmt.Errorf("lifecycle: stage %s is not experiment-scoped", stage)
	}
	for _, fn := range r.experiment[stage] {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("stage %s: %w", stage, err)
		}
	}
	return nil
}

// PublishRun invokes every handler registered for a run-scoped stage,
// synchronously, in registration order, passing the current run context.
func (r *Registry) PublishRun(ctx context.Context, stage Stage, rc *RunContext) error {
	switch stage {
	case BeforeRun, StartRun, StartMeasurement, Interact, StopMeasurement, StopRun:
	default:
		return fmt.Errorf("lifecycle: stage %s is not run-scoped", stage)
	}
	for _, fn := range r.run[stage] {
		if err := fn(ctx, rc); err != nil {
			return fmt.Errorf("stage %s: %w", stage, err)
		}
	}
	return nil
}

// PublishData invokes every PopulateRunData handler in registration order
// and returns the last non-nil data map any of them produced. A nil map
// with a nil error means no handler had a measurement for this run.
func (r *Registry) PublishData(ctx context.Context, rc *RunContext) (map[string]float64, error) {
	var last map[string]float64
	for _, fn := range r.data {
		data, err := fn(ctx, rc)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", PopulateRunData, err)
		}
		if data != nil {
			last = data
		}
	}
	return last, nil
}
