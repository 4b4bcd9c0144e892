// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package event

import (
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/quorumvote/models"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultSubscriberBuffer = 64
	AsyncQueueSize          = 1000
	AsyncWorkerPoolSize     = 4
)

// AllMeetings subscribes to events of every meeting.
const AllMeetings = "*"

type EventType string

const (
	StateChanged   EventType = models.EventStateChanged
	VoteRegistered EventType = models.EventVoteRegistered
)

type SubscriberID int

// Event is what observers receive. Data is one of StateChangedData or
// VoteRegisteredData.
type Event struct {
	Type      EventType `json:"type"`
	MeetingID string    `json:"meeting_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type StateChangedData struct {
	RecordID string                 `json:"record_id"`
	NewState models.AttendanceState `json:"new_state"`
}

type VoteRegisteredData struct {
	QuestionID string `json:"question_id"`
	OptionID   string `json:"option_id"`
	Shares     int64  `json:"shares"`
}

func NewEvent(eventType EventType, meetingID string, data any) Event {
	return Event{
		Type:      eventType,
		MeetingID: meetingID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Publisher is the side of the bus used by the write paths.
type Publisher interface {
	Publish(Event) bool
}

// Subscriber receives events for one topic. Deliver must not block; Close
// must be idempotent.
type Subscriber interface {
	Deliver(Event) error
	Close()
}

// ErrSubscriberFull is returned by a channel subscriber whose buffer is full.
var ErrSubscriberFull = errors.New("subscriber buffer full")

// channelSubscriber drops events when the reader falls behind.
type channelSubscriber struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
}

func newChannelSubscriber(buffer int) *channelSubscriber {
	return &channelSubscriber{ch: make(chan Event, buffer)}
}

func (c *channelSubscriber) Deliver(evt Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	select {
	case c.ch <- evt:
		return nil
	default:
		return ErrSubscriberFull
	}
}

func (c *channelSubscriber) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// Bus fans events out to subscribers keyed by meeting id. Publishing only
// enqueues; a worker pool performs delivery. Each meeting hashes to one
// worker, so a meeting's events reach a subscriber in publish order.
type Bus struct {
	subscribers map[string]map[SubscriberID]Subscriber
	lastSubID   SubscriberID
	buffer      int
	mu          sync.RWMutex
	metrics     *busMetrics
	logger      *slog.Logger

	queues   []chan Event
	workerWg sync.WaitGroup
	stopCh   chan struct{}
	stopped  bool
	stopMu   sync.RWMutex
}

// NewBus starts a bus. buffer is the per-subscriber channel size; values
// below 1 use DefaultSubscriberBuffer.
func NewBus(buffer int, promRegistry prometheus.Registerer, logger *slog.Logger) *Bus {
	if buffer < 1 {
		buffer = DefaultSubscriberBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		subscribers: make(map[string]map[SubscriberID]Subscriber),
		buffer:      buffer,
		logger:      logger,
		queues:      make([]chan Event, AsyncWorkerPoolSize),
		stopCh:      make(chan struct{}),
	}
	if promRegistry != nil {
		b.initMetrics(promRegistry)
	}
	for i := range b.queues {
		b.queues[i] = make(chan Event, AsyncQueueSize)
		b.workerWg.Add(1)
		go b.worker(b.queues[i])
	}
	return b
}

func (b *Bus) worker(queue <-chan Event) {
	defer b.workerWg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		case evt := <-queue:
			b.deliver(evt)
		}
	}
}

// queueFor picks the worker queue that owns a meeting.
func (b *Bus) queueFor(meetingID string) chan Event {
	h := fnv.New32a()
	h.Write([]byte(meetingID))
	return b.queues[h.Sum32()%uint32(len(b.queues))]
}

// Subscribe registers a channel subscriber for a meeting id, or for
// AllMeetings. The channel is closed by Unsubscribe or Close.
func (b *Bus) Subscribe(meetingID string) (SubscriberID, <-chan Event) {
	sub := newChannelSubscriber(b.buffer)
	id := b.Register(meetingID, sub)
	return id, sub.ch
}

// Register adds an arbitrary Subscriber for a topic.
func (b *Bus) Register(meetingID string, sub Subscriber) SubscriberID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSubID++
	id := b.lastSubID
	if _, ok := b.subscribers[meetingID]; !ok {
		b.subscribers[meetingID] = make(map[SubscriberID]Subscriber)
	}
	b.subscribers[meetingID][id] = sub
	if b.metrics != nil {
		b.metrics.subscribers.Inc()
	}
	return id
}

// Unsubscribe removes and closes a subscriber. Unknown ids are ignored.
func (b *Bus) Unsubscribe(meetingID string, id SubscriberID) {
	b.mu.Lock()
	var sub Subscriber
	if topic, ok := b.subscribers[meetingID]; ok {
		if s, ok := topic[id]; ok {
			sub = s
			delete(topic, id)
			if len(topic) == 0 {
				delete(b.subscribers, meetingID)
			}
			if b.metrics != nil {
				b.metrics.subscribers.Dec()
			}
		}
	}
	b.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// Publish enqueues evt and returns immediately. It reports false when the
// bus is stopped or the queue is full, in which case the event is dropped.
func (b *Bus) Publish(evt Event) bool {
	b.stopMu.RLock()
	defer b.stopMu.RUnlock()
	if b.stopped {
		return false
	}

	select {
	case b.queueFor(evt.MeetingID) <- evt:
		return true
	default:
		b.logger.Warn("event queue full, dropping event",
			"type", evt.Type,
			"meeting_id", evt.MeetingID)
		if b.metrics != nil {
			b.metrics.dropped.WithLabelValues(string(evt.Type), "queue-full").Inc()
		}
		return false
	}
}

// deliver hands evt to the subscribers of its meeting and to wildcard
// subscribers. A subscriber that is full misses the event but stays
// subscribed.
func (b *Bus) deliver(evt Event) {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers[evt.MeetingID])+len(b.subscribers[AllMeetings]))
	for _, s := range b.subscribers[evt.MeetingID] {
		subs = append(subs, s)
	}
	if evt.MeetingID != AllMeetings {
		for _, s := range b.subscribers[AllMeetings] {
			subs = append(subs, s)
		}
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("subscriber deliver panic: %v", r)
				}
			}()
			err = sub.Deliver(evt)
		}()
		if err != nil {
			b.logger.Debug("event delivery failed",
				"type", evt.Type,
				"meeting_id", evt.MeetingID,
				"error", err)
			if b.metrics != nil {
				b.metrics.dropped.WithLabelValues(string(evt.Type), "subscriber").Inc()
			}
			continue
		}
		if b.metrics != nil {
			b.metrics.delivered.WithLabelValues(string(evt.Type)).Inc()
		}
	}
}

// SubscriberCount returns the number of subscribers on a topic.
func (b *Bus) SubscriberCount(meetingID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[meetingID])
}

// Close stops the workers, discards queued events and closes every
// subscriber. Events published afterwards are dropped. Close is idempotent.
func (b *Bus) Close() {
	b.stopMu.Lock()
	if b.stopped {
		b.stopMu.Unlock()
		return
	}
	b.stopped = true
	close(b.stopCh)
	b.stopMu.Unlock()
	b.workerWg.Wait()

	b.mu.Lock()
	old := b.subscribers
	b.subscribers = make(map[string]map[SubscriberID]Subscriber)
	b.mu.Unlock()

	for _, topic := range old {
		for _, sub := range topic {
			sub.Close()
		}
	}
	if b.metrics != nil {
		b.metrics.subscribers.Set(0)
	}
}
