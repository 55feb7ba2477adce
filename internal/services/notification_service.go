package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/game"
	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure NotificationService can receive engine events
var _ game.EventSink = (*NotificationService)(nil)

const (
	defaultQueueSize      = 1024
	defaultSubscriberSize = 64
	persistTimeout        = 3 * time.Second
)

// NotificationService persists engine events and fans them out to live
// subscribers. Publish never blocks: a full queue or a slow subscriber drops
// the event and counts it.
type NotificationService struct {
	events repositories.EventRepository
	log    *slog.Logger
	queue  chan models.GameEvent

	mu     sync.RWMutex
	subs   map[int]chan models.GameEvent
	nextID int

	dropped atomic.Uint64
}

// NewNotificationService creates a NotificationService. queueSize <= 0 uses the default.
func NewNotificationService(events repositories.EventRepository, log *slog.Logger, queueSize int) *NotificationService {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &NotificationService{
		events: events,
		log:    log,
		queue:  make(chan models.GameEvent, queueSize),
		subs:   make(map[int]chan models.GameEvent),
	}
}

// Publish enqueues ev. It is called with the engine lock held.
func (s *NotificationService) Publish(ev models.GameEvent) {
	select {
	case s.queue <- ev:
	default:
		s.dropped.Add(1)
		s.log.Warn("Event queue full, dropping event", "seq", ev.Seq, "type", ev.Type, "round", ev.RoundNumber)
	}
}

// Run delivers queued events until ctx is done, then drains what is left.
func (s *NotificationService) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-s.queue:
			s.deliver(ctx, ev)
		case <-ctx.Done():
			s.drain()
			s.closeAll()
			return nil
		}
	}
}

func (s *NotificationService) drain() {
	ctx := context.Background()
	for {
		select {
		case ev := <-s.queue:
			s.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (s *NotificationService) deliver(ctx context.Context, ev models.GameEvent) {
	if s.events != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		stored := ev
		if err := s.events.Create(pctx, &stored); err != nil {
			s.log.Error("Failed to persist event", "error", err, "seq", ev.Seq, "type", ev.Type)
		}
		cancel()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.dropped.Add(1)
			s.log.Debug("Subscriber lagging, dropping event", "subscriber", id, "seq", ev.Seq)
		}
	}
}

// Subscribe registers a live listener. The returned cancel func must be
// called to release it; the channel is closed on cancel or shutdown.
func (s *NotificationService) Subscribe() (<-chan models.GameEvent, func()) {
	ch := make(chan models.GameEvent, defaultSubscriberSize)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
			s.mu.Unlock()
		})
	}
}

func (s *NotificationService) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// Subscribers returns the number of live listeners
func (s *NotificationService) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Dropped returns how many deliveries were skipped
func (s *NotificationService) Dropped() uint64 {
	return s.dropped.Load()
}
