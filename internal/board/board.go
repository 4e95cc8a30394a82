// Package board holds what the viewer sees: the candle chart and the text slots.
// It implements the chart renderer and display sink the scheduler writes to and
// fans every change out to subscribers.
package board

import (
	"sync"
	"time"

	"CandleWatch/internal/calculator"
	"CandleWatch/internal/model"
	"CandleWatch/internal/notifier"

	"github.com/shopspring/decimal"
)

// EventType tags a board event.
type EventType string

const (
	EventChartInit   EventType = "chart.init"
	EventChartUpdate EventType = "chart.update"
	EventSlots       EventType = "slots"
	EventSnapshot    EventType = "snapshot"
	EventError       EventType = "error"
)

// ChartState is the chart as last rendered.
type ChartState struct {
	Label     string               `json:"label"`
	Candles   model.CandleSequence `json:"candles"`
	Low       decimal.Decimal      `json:"low"`
	High      decimal.Decimal      `json:"high"`
	Version   uint64               `json:"version"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// View is a full copy of the board.
type View struct {
	Chart *ChartState                       `json:"chart"`
	Slots map[notifier.Slot]notifier.Update `json:"slots"`
}

// Event is one change pushed to subscribers.
type Event struct {
	Type    EventType         `json:"type"`
	Chart   *ChartState       `json:"chart,omitempty"`
	Updates []notifier.Update `json:"updates,omitempty"`
	View    *View             `json:"view,omitempty"`
	Message string            `json:"message,omitempty"`
}

// Board is the in-memory chart and slot state.
type Board struct {
	mu     sync.RWMutex
	chart  *ChartState
	slots  map[notifier.Slot]notifier.Update
	subs   map[int]func(Event)
	nextID int
	now    func() time.Time
}

// New creates an empty board.
func New() *Board {
	return &Board{
		slots: make(map[notifier.Slot]notifier.Update),
		subs:  make(map[int]func(Event)),
		now:   time.Now,
	}
}

// Subscribe registers fn for every later event and returns a func that removes it.
// fn is called with the board locked, in event order, and must not block.
func (b *Board) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Render replaces the chart data. The first call initializes the chart; later calls
// update it in place.
func (b *Board) Render(seq model.CandleSequence, label string) {
	bounds := make([]decimal.Decimal, 0, 2*len(seq))
	for _, c := range seq {
		bounds = append(bounds, c.Low, c.High)
	}
	low, high, _ := calculator.Range(bounds)

	b.mu.Lock()
	defer b.mu.Unlock()

	typ := EventChartUpdate
	var version uint64 = 1
	if b.chart == nil {
		typ = EventChartInit
	} else {
		version = b.chart.Version + 1
	}
	b.chart = &ChartState{
		Label:     label,
		Candles:   seq,
		Low:       low,
		High:      high,
		Version:   version,
		UpdatedAt: b.now().UTC(),
	}
	chart := *b.chart
	b.emit(Event{Type: typ, Chart: &chart})
}

// Apply writes a batch of slot updates as one event.
func (b *Board) Apply(updates []notifier.Update) {
	if len(updates) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range updates {
		b.slots[u.Slot] = u
	}
	batch := make([]notifier.Update, len(updates))
	copy(batch, updates)
	b.emit(Event{Type: EventSlots, Updates: batch})
}

// Snapshot returns a copy of the current board.
func (b *Board) Snapshot() View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.view()
}

// SnapshotEvent returns the current board as an event and runs fn with it while no
// other event can be emitted, so a new subscriber sees nothing twice or out of order.
func (b *Board) SnapshotEvent(fn func(Event)) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v := b.view()
	fn(Event{Type: EventSnapshot, View: &v})
}

func (b *Board) view() View {
	v := View{Slots: make(map[notifier.Slot]notifier.Update, len(b.slots))}
	if b.chart != nil {
		chart := *b.chart
		v.Chart = &chart
	}
	for k, u := range b.slots {
		v.Slots[k] = u
	}
	return v
}

func (b *Board) emit(ev Event) {
	for _, fn := range b.subs {
		fn(ev)
	}
}

var (
	_ notifier.Renderer = (*Board)(nil)
	_ notifier.Sink     = (*Board)(nil)
)
