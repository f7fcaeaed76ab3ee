package pipeline

import (
	"context"
	"fmt"
	"reflect"
)

// Proc is the contract every processing stage implements: one operation
// transforming its input record into the next hop's record. A stage must
// be a pure function of its input (the storage stage's connector is the
// one sanctioned exception) and must raise only taxonomy errors.
type Proc[In, Out any] interface {
	Name() string
	Process(ctx context.Context, in In) (Out, error)
}

// Stage is one pipeline position with its input and output types
// reified, so the runner can validate the chain once at construction.
// Build values with Wrap; stages are never inspected by concrete type.
type Stage interface {
	Name() string
	InputType() reflect.Type
	OutputType() reflect.Type

	run(ctx context.Context, in any) (any, error)
}

// Wrap adapts a typed stage into a pipeline position.
func Wrap[In, Out any](p Proc[In, Out]) Stage {
	return &wrapped[In, Out]{p: p}
}

type wrapped[In, Out any] struct {
	p Proc[In, Out]
}

func (w *wrapped[In, Out]) Name() string { return w.p.Name() }

func (w *wrapped[In, Out]) InputType() reflect.Type {
	return reflect.TypeOf((*In)(nil)).Elem()
}

func (w *wrapped[In, Out]) OutputType() reflect.Type {
	return reflect.TypeOf((*Out)(nil)).Elem()
}

func (w *wrapped[In, Out]) run(ctx context.Context, in any) (any, error) {
	typed, ok := in.(In)
	if !ok {
		// Unreachable after construction-time validation.
		return nil, fmt.Errorf("stage %s: input is %T, want %v", w.p.Name(), in, w.InputType())
	}
	out, err := w.p.Process(ctx, typed)
	if err != nil {
		return nil, err
	}
	return out, nil
}
