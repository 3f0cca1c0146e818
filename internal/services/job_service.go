package services

import (
	"github.com/leonardosolari/dental-pay-tracker/internal/jobs"
)

// JobService exposes worker pool stats for the admin status endpoint.
type JobService struct {
	worker *jobs.Worker
}

func NewJobService(worker *jobs.Worker) *JobService {
	return &JobService{
		worker: worker,
	}
}

// GetStatus reports the worker pool counters plus two derived fields the
// clinic dashboard reads directly: how many email jobs succeeded and whether
// the pool is currently saturated.
func (s *JobService) GetStatus() map[string]interface{} {
	stats := s.worker.GetStats()
	return map[string]interface{}{
		"active_jobs":    stats.ActiveJobs,
		"completed_jobs": stats.CompletedJobs,
		"succeeded_jobs": stats.CompletedJobs - stats.FailedJobs,
		"failed_jobs":    stats.FailedJobs,
		"queue_length":   stats.QueueLength,
		"max_concurrent": stats.MaxConcurrent,
		"saturated":      stats.ActiveJobs >= stats.MaxConcurrent,
	}
}
