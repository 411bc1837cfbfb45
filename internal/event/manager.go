package event

import (
	"sync"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"go.uber.org/zap"
)

// Manager fans committed records out to listeners. Each listener has its own
// unbounded queue and goroutine, so Emit never blocks and every listener sees
// messages in emission order.
type Manager struct {
	mu        sync.RWMutex
	listeners []*Listener
	wg        sync.WaitGroup
	closed    bool
}

type Listener struct {
	eventType Type
	callback  func(msg interface{})

	mu     sync.Mutex
	queue  []interface{}
	signal chan struct{}
	done   bool
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) AddEventListener(eventType Type, callback func(msg interface{})) {
	zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: AddListener")

	listener := &Listener{
		eventType: eventType,
		callback:  callback,
		signal:    make(chan struct{}, 1),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.listeners = append(m.listeners, listener)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		listener.run()
	}()
}

func (m *Manager) EmitEvent(eventType Type, msg interface{}) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, listener := range m.listeners {
		if listener.eventType == eventType {
			listener.push(msg)
		}
	}
}

// Emit publishes the records of one committed call, as a batch and per kind.
func (m *Manager) Emit(records []entity.Record) {
	if len(records) == 0 {
		return
	}
	zap.L().With(zap.Int("records", len(records)), zap.Uint64("firstSeq", records[0].Seq)).Debug("EventManager: Emitting records")

	m.EmitEvent(RecordsCommittedEvent, records)
	for _, r := range records {
		m.EmitEvent(RecordEvent(r.Kind), r)
	}
}

func (m *Manager) EmitPayouts(payouts []entity.Payout) {
	if len(payouts) == 0 {
		return
	}
	m.EmitEvent(PayoutsQueuedEvent, payouts)
}

// Close stops accepting listeners and waits for queued messages to be handled.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	listeners := m.listeners
	m.listeners = nil
	m.mu.Unlock()

	for _, listener := range listeners {
		listener.stop()
	}
	m.wg.Wait()
}

func (l *Listener) push(msg interface{}) {
	l.mu.Lock()
	l.queue = append(l.queue, msg)
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
}

func (l *Listener) stop() {
	l.mu.Lock()
	l.done = true
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
}

func (l *Listener) run() {
	for range l.signal {
		for {
			l.mu.Lock()
			if len(l.queue) == 0 {
				done := l.done
				l.mu.Unlock()
				if done {
					return
				}
				break
			}
			msg := l.queue[0]
			l.queue = l.queue[1:]
			l.mu.Unlock()

			l.handle(msg)
		}
	}
}

func (l *Listener) handle(msg interface{}) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().With(zap.String("type", string(l.eventType)), zap.Any("panic", r)).Error("EventManager: listener panicked")
		}
	}()
	l.callback(msg)
}
