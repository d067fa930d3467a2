package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"muse-workers/internal/common/errors"
	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/metrics"
	"muse-workers/internal/common/observability"
)

const sendTimeout = 10 * time.Second

// Reporter sends a job's outcome back to Zeebe and records it in metrics.
// Commands use their own deadline so an expired job context never blocks the reply.
type Reporter struct {
	taskType string
	errs     *errors.ErrorHandler
	obs      *observability.Observability
	logger   logger.Logger
}

func NewReporter(taskType string, obs *observability.Observability, log logger.Logger) *Reporter {
	return &Reporter{
		taskType: taskType,
		errs:     errors.NewErrorHandler(log),
		obs:      obs,
		logger:   log,
	}
}

func (r *Reporter) Complete(client worker.JobClient, job entities.Job, started time.Time, output interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		r.Fail(client, job, started, errors.NewInternalError(err))
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
	}
	r.observe(ctx, started, "")
	r.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"durationMs": time.Since(started).Milliseconds(),
	})
}

func (r *Reporter) Fail(client worker.JobClient, job entities.Job, started time.Time, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	stdErr := errors.Normalize(err)
	r.errs.HandleJobError(ctx, client, job, stdErr)
	r.observe(ctx, started, string(stdErr.Code))
}

func (r *Reporter) observe(ctx context.Context, started time.Time, code string) {
	elapsed := time.Since(started)
	metrics.ObserveJob(r.taskType, elapsed.Seconds(), code)

	status := "success"
	if code != "" {
		status = code
	}
	r.obs.RecordJobProcessed(ctx, r.taskType, status)
	r.obs.RecordJobDuration(ctx, r.taskType, elapsed, status)
}
