package work

import (
	"fmt"

	"github.com/go-co-op/gocron"
	"github.com/medportal/medportal/server/cron"
	"github.com/medportal/medportal/server/models"
	"github.com/pkg/errors"
)

const MAX_CONCURRENCY = 1

type WorkerPoolAdapter struct {
	cronScheduler *gocron.Scheduler
	pool          *WorkerPool
	requeuers     []*requeuer
}

// NewWorkerAdapter wires a cron scheduler, the worker pool, and the job
// requeuers together. The scheduled-job requeuer always runs, PerformIn
// depends on it; disableStuckJobRequeuer turns off only the sweep for jobs
// stuck in-progress, mostly for tests.
func NewWorkerAdapter(timeZoneArg string, disableStuckJobRequeuer bool) *WorkerPoolAdapter {
	pool, err := newWorkerPool(MAX_CONCURRENCY)
	if err != nil {
		logg.Panic(err)
	}

	adapter := WorkerPoolAdapter{
		cronScheduler: cron.NewCronScheduler(timeZoneArg),
		pool:          pool,
	}

	queues := []string{models.SCHEDULED_JOB}
	if !disableStuckJobRequeuer {
		queues = append(queues, models.IN_PROGRESS_JOB)
	}

	for _, queue := range queues {
		rq, err := newRequeuer(queue)
		if err != nil {
			logg.Panic(err)
		}
		adapter.requeuers = append(adapter.requeuers, rq)
	}

	return &adapter
}

// Start starts the cron scheduler, worker pool & requeuers
func (adapter *WorkerPoolAdapter) Start() error {
	logg.Info("Starting cron scheduler & worker pool")
	adapter.cronScheduler.StartAsync()
	adapter.pool.start()

	for _, rq := range adapter.requeuers {
		rq.start()
	}

	return nil
}

// Stop stops the cron scheduler, worker pool & requeuers
func (adapter *WorkerPoolAdapter) Stop() error {
	logg.Info("Stopping cron scheduler & worker pool")
	adapter.cronScheduler.Stop()
	adapter.pool.stop()

	for _, rq := range adapter.requeuers {
		rq.stop()
	}

	return nil
}

// Register binds a name to a handler.
func (adapter *WorkerPoolAdapter) Register(name string, handler Handler) error {
	return adapter.pool.registerHandler(name, handler)
}

// Perform sends a new job to the queue, now - to be executed as soon as a worker is available
func (adapter *WorkerPoolAdapter) Perform(job JobParams) error {
	logg.Infof("Enqueuing job: %v", job)

	err := adapter.pool.enqueue(job)
	if errors.Is(err, models.ErrDuplicateJob) {
		logg.Warnf("Duplicate job already in queue for: %v", job)
		return nil
	}

	if err != nil {
		return fmt.Errorf("error enqueuing job: %v, %v", job, err)
	}

	return nil
}

// PerformIn schedules a job to be queued 'secondsInFuture' seconds from now
func (adapter *WorkerPoolAdapter) PerformIn(secondsInFuture int64, job JobParams) error {
	err := adapter.pool.enqueueIn(secondsInFuture, job)
	if err != nil {
		return fmt.Errorf("error scheduling job: %v, %v", job, err)
	}

	return nil
}

// PeriodicallyPerform adds a job to the queue (to be executed)
// periodically, based on the 'cronExpression' expression provided
func (adapter *WorkerPoolAdapter) PeriodicallyPerform(cronExpression string, job JobParams) error {
	_, err := adapter.cronScheduler.Cron(cronExpression).Tag(job.Name).
		Do(
			func(job JobParams) {
				err := adapter.Perform(job)
				if err != nil {
					logg.Error(err)
				}
			},
			job,
		)
	return err
}

func (adapter *WorkerPoolAdapter) RemovePeriodicJob(jobName string) {
	adapter.cronScheduler.RemoveByTag(jobName)
}
