// Package pipeline sequences injected stages over one submission at a
// time. The stage list is fixed at construction; the runner itself holds
// no per-run state, so separate submissions may run concurrently.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/tidelake/textpipe/pkg/textpipe/pipeerr"
	"github.com/tidelake/textpipe/pkg/textpipe/record"
)

// Pipeline drives one RawText submission through its stages in order,
// stopping at the first failure. Failures are per-submission: a failed
// run leaves the pipeline ready for the next call.
type Pipeline struct {
	stages []Stage
	log    *slog.Logger
}

// New validates the stage list and builds the runner. The list must be
// non-empty, accept RawText at the front, chain types end to end, and
// produce ProcessedResult at the back. Validation happens here once,
// never per submission.
func New(log *slog.Logger, stages ...Stage) (*Pipeline, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(stages) == 0 {
		return nil, &pipeerr.ConfigError{Reason: "stage list is empty"}
	}

	rawType := reflect.TypeOf(record.RawText{})
	resultType := reflect.TypeOf(record.ProcessedResult{})

	if got := stages[0].InputType(); got != rawType {
		return nil, &pipeerr.ConfigError{
			Reason: fmt.Sprintf("stage %s accepts %v, pipeline input is %v", stages[0].Name(), got, rawType),
		}
	}
	for i := 0; i+1 < len(stages); i++ {
		out, in := stages[i].OutputType(), stages[i+1].InputType()
		if out != in {
			return nil, &pipeerr.ConfigError{
				Reason: fmt.Sprintf("stage %s produces %v but stage %s accepts %v",
					stages[i].Name(), out, stages[i+1].Name(), in),
			}
		}
	}
	if got := stages[len(stages)-1].OutputType(); got != resultType {
		return nil, &pipeerr.ConfigError{
			Reason: fmt.Sprintf("stage %s produces %v, pipeline output is %v",
				stages[len(stages)-1].Name(), got, resultType),
		}
	}

	return &Pipeline{stages: stages, log: log}, nil
}

// Stages returns the stage names in pipeline order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run processes one submission. The first stage error stops the run; no
// later stage executes and the error is propagated to the caller
// unchanged.
func (p *Pipeline) Run(ctx context.Context, in record.RawText) (record.ProcessedResult, error) {
	log := p.log.With("trace_id", in.TraceID, "source", in.Source)
	log.Debug("pipeline run start", "stages", len(p.stages))

	var current any = in
	for _, stage := range p.stages {
		out, err := stage.run(ctx, current)
		if err != nil {
			log.Error("pipeline run failed", "stage", stage.Name(), "error", err)
			return record.ProcessedResult{}, err
		}
		current = out
	}

	result, ok := current.(record.ProcessedResult)
	if !ok {
		// Unreachable: construction pinned the final output type.
		return record.ProcessedResult{}, &pipeerr.ConfigError{
			Reason: fmt.Sprintf("final stage produced %T", current),
		}
	}

	log.Info("pipeline run complete", "storage_id", result.StorageID, "sentiment", result.Sentiment)
	return result, nil
}
