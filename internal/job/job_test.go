package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	queueSize    int
	pagesCrawled int
}

func (f fakeSource) QueueSize() int    { return f.queueSize }
func (f fakeSource) PagesCrawled() int { return f.pagesCrawled }

func TestRegistryStatusUnknownJobID(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Status("nonexistent")

	assert.False(t, ok)
}

func TestRegistryStatusStartingBeforeAnyPageCrawled(t *testing.T) {
	r := NewRegistry()
	id := r.Start(fakeSource{queueSize: 5, pagesCrawled: 0})

	status, ok := r.Status(id)

	assert.True(t, ok)
	assert.Equal(t, StatusStarting, status.Status)
}

func TestRegistryStatusInProgressWhilePagesCrawledAndQueueNonEmpty(t *testing.T) {
	r := NewRegistry()
	id := r.Start(fakeSource{queueSize: 3, pagesCrawled: 10})

	status, _ := r.Status(id)

	assert.Equal(t, StatusInProgress, status.Status)
	assert.Equal(t, 10, status.PagesCrawled)
	assert.Equal(t, 3, status.QueueSize)
}

func TestRegistryStatusCompletedWhenQueueEmptyAndPagesCrawled(t *testing.T) {
	r := NewRegistry()
	id := r.Start(fakeSource{queueSize: 0, pagesCrawled: 42})

	status, _ := r.Status(id)

	assert.Equal(t, StatusCompleted, status.Status)
}
