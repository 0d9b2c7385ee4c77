// Package pipeline drives one job end to end: start the clock, run the
// script into a fresh log sink, build the bounded completion record, and
// deliver it to the resume URL. The pipeline itself never fails; every inner
// failure is carried inside the record.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"hookrun/pkg/callback"
	"hookrun/pkg/logsink"
	"hookrun/pkg/metrics"
	"hookrun/pkg/models"
	"hookrun/pkg/report"
	"hookrun/pkg/resilience"
	"hookrun/pkg/runner"
)

type Pipeline struct {
	dispatcher *callback.Dispatcher
	log        *zap.Logger
	tracer     trace.Tracer
}

func New(dispatcher *callback.Dispatcher, log *zap.Logger) *Pipeline {
	return &Pipeline{
		dispatcher: dispatcher,
		log:        log,
		tracer:     otel.Tracer("hookrun/pipeline"),
	}
}

// Execute runs one job in workdir and returns the completion record that was
// delivered (or whose delivery was attempted). The sink and workdir belong
// exclusively to this run; concurrent runs must use disjoint ones.
func (p *Pipeline) Execute(ctx context.Context, req models.JobRequest, workdir string) models.CompletionRecord {
	runID := req.RunID.String()
	ctx, span := p.tracer.Start(ctx, "pipeline.execute",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	t0 := time.Now()
	sink := logsink.New()

	outcome := runner.New(workdir).Run(ctx, req.Script, sink)
	switch {
	case !outcome.Ran:
		metrics.ScriptResults.WithLabelValues("not_run").Inc()
	case outcome.ExitCode == 0:
		metrics.ScriptResults.WithLabelValues("ok").Inc()
	default:
		metrics.ScriptResults.WithLabelValues("nonzero_exit").Inc()
	}

	sink.Event("pipeline completed")
	sink.Close()

	// The conclusion mirrors the pipeline's own terminal status, not the
	// script's exit code.
	conclusion := models.ConclusionSuccess
	if ctx.Err() == context.Canceled {
		conclusion = models.ConclusionCancelled
	}

	t1 := time.Now()
	record := report.Build(runID, conclusion, sink, t0, t1)
	metrics.RecordRun(string(conclusion), t1.Sub(t0).Seconds())

	p.deliver(ctx, req.ResumeURL, record)
	return record
}

// deliver attempts the single callback POST. A cancelled run still gets its
// delivery attempt, so the parent context's cancellation is stripped.
func (p *Pipeline) deliver(ctx context.Context, resumeURL string, record models.CompletionRecord) {
	ctx, span := p.tracer.Start(context.WithoutCancel(ctx), "pipeline.deliver")
	defer span.End()

	err := p.dispatcher.Dispatch(ctx, resumeURL, record)
	switch {
	case err == nil:
		metrics.RecordDelivery("sent")
		p.log.Info("completion record delivered",
			zap.String("run_id", record.RunID),
			zap.String("conclusion", string(record.Conclusion)))
	case errors.Is(err, resilience.ErrCircuitOpen):
		metrics.RecordDelivery("shed")
		p.log.Warn("completion record shed, callback circuit open",
			zap.String("run_id", record.RunID))
	default:
		metrics.RecordDelivery("failed")
		span.RecordError(err)
		p.log.Warn("completion record delivery failed",
			zap.String("run_id", record.RunID),
			zap.Error(err))
	}
}
