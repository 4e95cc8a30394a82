package board

import (
	"testing"
	"time"

	"CandleWatch/internal/collector"
	"CandleWatch/internal/model"
	"CandleWatch/internal/notifier"

	"github.com/shopspring/decimal"
)

func TestRender_InitThenUpdate(t *testing.T) {
	b := New()
	var events []Event
	b.Subscribe(func(ev Event) { events = append(events, ev) })

	b.Render(collector.GenerateCandles(100, 10), "BTC / BRL")
	b.Render(collector.GenerateCandles(200, 5), "ETH / BRL")

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventChartInit || events[1].Type != EventChartUpdate {
		t.Errorf("unexpected event types %s, %s", events[0].Type, events[1].Type)
	}
	if events[1].Chart.Version != 2 {
		t.Errorf("expected version 2, got %d", events[1].Chart.Version)
	}

	v := b.Snapshot()
	if v.Chart == nil || v.Chart.Label != "ETH / BRL" || len(v.Chart.Candles) != 5 {
		t.Fatalf("unexpected chart %+v", v.Chart)
	}
}

func TestRender_Bounds(t *testing.T) {
	b := New()
	seq := model.CandleSequence{
		{Time: time.Unix(0, 0), Open: decimal.NewFromInt(10), High: decimal.NewFromInt(12), Low: decimal.NewFromInt(9), Close: decimal.NewFromInt(11)},
		{Time: time.Unix(60, 0), Open: decimal.NewFromInt(11), High: decimal.NewFromInt(15), Low: decimal.NewFromInt(10), Close: decimal.NewFromInt(14)},
	}
	b.Render(seq, "x")

	v := b.Snapshot()
	if !v.Chart.Low.Equal(decimal.NewFromInt(9)) || !v.Chart.High.Equal(decimal.NewFromInt(15)) {
		t.Errorf("expected 9..15, got %s..%s", v.Chart.Low, v.Chart.High)
	}
}

func TestRender_EmptySequence(t *testing.T) {
	b := New()
	b.Render(model.CandleSequence{}, "BTC / BRL")

	v := b.Snapshot()
	if v.Chart == nil || len(v.Chart.Candles) != 0 {
		t.Fatalf("expected empty chart, got %+v", v.Chart)
	}
	if !v.Chart.Low.IsZero() || !v.Chart.High.IsZero() {
		t.Error("empty chart should have zero bounds")
	}
}

func TestApply_MergesSlots(t *testing.T) {
	b := New()
	var batches int
	b.Subscribe(func(ev Event) {
		if ev.Type == EventSlots {
			batches++
		}
	})

	b.Apply([]notifier.Update{
		{Slot: notifier.SlotMarketState, Text: "Online"},
		{Slot: notifier.SlotBTCInfo, Text: "$ 1.00 (+1.00%)", Direction: notifier.DirectionUp},
	})
	b.Apply([]notifier.Update{{Slot: notifier.SlotMarketState, Text: "Unstable"}})
	b.Apply(nil)

	if batches != 2 {
		t.Errorf("expected 2 slot events, got %d", batches)
	}
	v := b.Snapshot()
	if v.Slots[notifier.SlotMarketState].Text != "Unstable" {
		t.Errorf("expected latest status, got %q", v.Slots[notifier.SlotMarketState].Text)
	}
	if v.Slots[notifier.SlotBTCInfo].Direction != notifier.DirectionUp {
		t.Error("untouched slot should keep its value")
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	b := New()
	b.Apply([]notifier.Update{{Slot: notifier.SlotUSDPrice, Text: "R$ 5,40"}})

	v := b.Snapshot()
	v.Slots[notifier.SlotUSDPrice] = notifier.Update{Text: "changed"}

	if got := b.Snapshot().Slots[notifier.SlotUSDPrice].Text; got != "R$ 5,40" {
		t.Errorf("snapshot leaked into board: %q", got)
	}
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	b := New()
	n := 0
	unsubscribe := b.Subscribe(func(Event) { n++ })
	b.Apply([]notifier.Update{{Slot: notifier.SlotUSDPrice, Text: "a"}})
	unsubscribe()
	b.Apply([]notifier.Update{{Slot: notifier.SlotUSDPrice, Text: "b"}})

	if n != 1 {
		t.Errorf("expected 1 event before unsubscribe, got %d", n)
	}
}
