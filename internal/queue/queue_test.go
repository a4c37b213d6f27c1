package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskID(t *testing.T) {
	assert.Equal(t, "publish-abc123", TaskID("abc123"))
}

func TestRetryDelay(t *testing.T) {
	err := errors.New("network unreachable")

	assert.Equal(t, 5*time.Second, RetryDelay(1, err, nil))
	assert.Equal(t, 10*time.Second, RetryDelay(2, err, nil))
	assert.Equal(t, 20*time.Second, RetryDelay(3, err, nil))

	assert.Equal(t, 5*time.Second, RetryDelay(0, err, nil))
}

func TestRetryBudget(t *testing.T) {
	// First delivery plus MaxRetry redeliveries gives three attempts total.
	assert.Equal(t, 3, MaxRetry+1)
}
