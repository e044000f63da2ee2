package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/crawlstack/distsearch/internal/frontier"
)

func TestEventLogWatchAndLogToDrainEvents(t *testing.T) {
	events := make(chan frontier.Event, 2)
	events <- frontier.Event{URL: "https://example.com/", Depth: 0, Outcome: frontier.OutcomeStored}
	events <- frontier.Event{URL: "https://blocked.example.com/", Depth: 1, Outcome: frontier.OutcomeDisallowed}
	close(events)

	el := NewEventLog()
	done := make(chan struct{})
	go func() {
		el.LogTo(zaptest.NewLogger(t))
		close(done)
	}()
	el.Watch(events)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("LogTo did not drain after Watch closed the queue")
	}

	assert.True(t, true)
}
