package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	RealtimeEventBoardChanged = "board-changed"
	realtimeEventHeartbeat    = "heartbeat"
	realtimeSourceBackend     = "controlroom"
	defaultHeartbeatInterval  = 25 * time.Second
)

type RealtimeMessage struct {
	EventType string
	Timestamp time.Time
}

// RealtimeDispatcher fans board notifications out to every open stream.
type RealtimeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[int64]*realtimeSubscriber
	nextID      int64
	bufferSize  int
	clock       func() time.Time
	done        chan struct{}
	closeOnce   sync.Once
}

type realtimeSubscriber struct {
	id     int64
	stream chan RealtimeMessage
}

func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		subscribers: make(map[int64]*realtimeSubscriber),
		bufferSize:  16,
		clock:       time.Now,
		done:        make(chan struct{}),
	}
}

func (d *RealtimeDispatcher) Subscribe(ctx context.Context) (<-chan RealtimeMessage, func()) {
	subscriber := &realtimeSubscriber{
		stream: make(chan RealtimeMessage, d.bufferSize),
	}
	d.registerSubscriber(subscriber)
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			d.unregisterSubscriber(subscriber.id)
		})
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

func (d *RealtimeDispatcher) Publish(message RealtimeMessage) {
	if message.EventType == "" {
		return
	}
	d.mu.RLock()
	if len(d.subscribers) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*realtimeSubscriber, 0, len(d.subscribers))
	for _, subscriber := range d.subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- message:
		default:
		}
	}
}

// BoardChanged tells open pages to reload.
func (d *RealtimeDispatcher) BoardChanged() {
	d.Publish(RealtimeMessage{EventType: RealtimeEventBoardChanged, Timestamp: d.clock().UTC()})
}

// Close ends every open stream. It is safe to call more than once.
func (d *RealtimeDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.done)
	})
}

// Done is closed once the dispatcher shuts down.
func (d *RealtimeDispatcher) Done() <-chan struct{} {
	return d.done
}

// SubscriberCount reports how many streams are open.
func (d *RealtimeDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

func (d *RealtimeDispatcher) registerSubscriber(subscriber *realtimeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	subscriber.id = d.nextID
	d.subscribers[subscriber.id] = subscriber
}

func (d *RealtimeDispatcher) unregisterSubscriber(subscriberID int64) {
	d.mu.Lock()
	delete(d.subscribers, subscriberID)
	d.mu.Unlock()
}

type realtimeEventPayload struct {
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

func (h *httpHandler) handleStream(c *gin.Context) {
	ctx := c.Request.Context()
	stream, cleanup := h.realtime.Subscribe(ctx)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.realtime.Done():
			return
		case message, ok := <-stream:
			if !ok {
				return
			}
			c.SSEvent(message.EventType, realtimeEventPayload{
				Source:    realtimeSourceBackend,
				Timestamp: message.Timestamp.Format(time.RFC3339),
			})
			c.Writer.Flush()
		case tick := <-heartbeat.C:
			c.SSEvent(realtimeEventHeartbeat, realtimeEventPayload{
				Source:    realtimeSourceBackend,
				Timestamp: tick.UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		}
	}
}
