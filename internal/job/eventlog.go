package job

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/crawlstack/distsearch/internal/frontier"
	"github.com/crawlstack/distsearch/internal/messaging"
)

// EventLog fans a Frontier's best-effort Events channel out onto a
// messaging.ChannelQueue, so a crawl's per-URL outcomes can be drained by a
// logging sink independently of whatever produced them.
type EventLog struct {
	queue messaging.ChannelQueue
}

// NewEventLog builds an EventLog backed by a fresh ChannelQueue.
func NewEventLog() *EventLog {
	return &EventLog{queue: messaging.NewChannelQueue()}
}

// Watch drains events, JSON-encoding and producing each onto the EventLog's
// queue, until events is closed. Intended to run in its own goroutine for the
// lifetime of the frontier it watches.
func (l *EventLog) Watch(events <-chan frontier.Event) {
	for e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			continue
		}
		_ = l.queue.Produce(payload)
	}
	l.queue.Close()
}

// LogTo consumes the queue and writes one structured log line per event,
// until the queue is closed by Watch. Intended to run in its own goroutine
// alongside Watch.
func (l *EventLog) LogTo(logger *zap.Logger) {
	out := make(chan []byte)
	go func() {
		_ = l.queue.Consume(out)
		close(out)
	}()

	for payload := range out {
		var e frontier.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			continue
		}
		logger.Debug("crawl event",
			zap.String("url", e.URL),
			zap.Int("depth", e.Depth),
			zap.String("outcome", e.Outcome),
		)
	}
}
