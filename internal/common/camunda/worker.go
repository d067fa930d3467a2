package camunda

import (
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/metrics"
)

// JobHandler completes or fails the job itself; nothing is returned to the poller.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type WorkerOptions struct {
	TaskType      string
	Name          string
	MaxJobsActive int
	// Timeout is how long Zeebe keeps the job locked to this worker.
	Timeout time.Duration
}

type Worker struct {
	jobWorker worker.JobWorker
	logger    logger.Logger
	taskType  string
}

func NewWorker(zb zbc.Client, opts WorkerOptions, handler JobHandler, log logger.Logger) *Worker {
	log = log.WithFields(map[string]interface{}{"taskType": opts.TaskType})

	step := zb.NewJobWorker().
		JobType(opts.TaskType).
		Handler(func(client worker.JobClient, job entities.Job) {
			active := metrics.WorkerJobsActive.WithLabelValues(opts.TaskType)
			active.Inc()
			defer active.Dec()
			handler.Handle(client, job)
		})

	if opts.Name != "" {
		step = step.Name(opts.Name)
	}
	if opts.MaxJobsActive > 0 {
		step = step.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}

	w := &Worker{jobWorker: step.Open(), logger: log, taskType: opts.TaskType}
	log.Info("worker started", map[string]interface{}{"maxJobsActive": opts.MaxJobsActive})
	return w
}

func (w *Worker) TaskType() string {
	return w.taskType
}

// Stop stops polling and waits for in-flight jobs to finish.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.jobWorker.Close()
	w.jobWorker.AwaitClose()
}
