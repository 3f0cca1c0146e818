package services

import (
	"testing"

	"github.com/leonardosolari/dental-pay-tracker/internal/jobs"
	"github.com/stretchr/testify/assert"
)

func TestJobServiceGetStatus(t *testing.T) {
	worker := jobs.NewWorker(2)
	defer worker.Shutdown()

	status := NewJobService(worker).GetStatus()

	assert.Equal(t, 0, status["active_jobs"])
	assert.Equal(t, int64(0), status["succeeded_jobs"])
	assert.Equal(t, 2, status["max_concurrent"])
	assert.Equal(t, false, status["saturated"])
}
