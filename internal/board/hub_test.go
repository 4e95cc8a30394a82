package board

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CandleWatch/internal/model"
	"CandleWatch/internal/notifier"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func startHub(t *testing.T, b *Board, onSelect SelectFunc) (*Hub, *websocket.Conn) {
	t.Helper()
	h := NewHub(b, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, onSelect)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return h, conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := sonic.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return ev
}

func TestHub_SnapshotThenEvents(t *testing.T) {
	b := New()
	b.Apply([]notifier.Update{{Slot: notifier.SlotMarketState, Text: "Online"}})
	_, conn := startHub(t, b, nil)

	ev := readEvent(t, conn)
	if ev.Type != EventSnapshot || ev.View == nil {
		t.Fatalf("expected snapshot first, got %+v", ev)
	}
	if ev.View.Slots[notifier.SlotMarketState].Text != "Online" {
		t.Errorf("snapshot missing slot: %+v", ev.View.Slots)
	}

	b.Apply([]notifier.Update{{Slot: notifier.SlotMarketState, Text: "Unstable"}})
	ev = readEvent(t, conn)
	if ev.Type != EventSlots || len(ev.Updates) != 1 || ev.Updates[0].Text != "Unstable" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestHub_SelectMessage(t *testing.T) {
	b := New()
	got := make(chan model.Selection, 1)
	_, conn := startHub(t, b, func(sel model.Selection) error {
		got <- sel
		return nil
	})
	readEvent(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`not json`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(ClientMessage{Type: MessageSelect, Pair: model.PairETHBRL, Timeframe: model.Timeframe15m}); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case sel := <-got:
		want := model.Selection{Pair: model.PairETHBRL, Timeframe: model.Timeframe15m}
		if sel != want {
			t.Errorf("expected %v, got %v", want, sel)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("select message not delivered")
	}
}

func TestHub_RejectedSelectionReplies(t *testing.T) {
	b := New()
	_, conn := startHub(t, b, func(model.Selection) error {
		return errors.New("unknown pair")
	})
	readEvent(t, conn)

	if err := conn.WriteJSON(ClientMessage{Type: MessageSelect, Pair: "DOGE", Timeframe: model.Timeframe1h}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev := readEvent(t, conn)
	if ev.Type != EventError || ev.Message != "unknown pair" {
		t.Errorf("unexpected reply %+v", ev)
	}
}

func TestHub_CloseDisconnects(t *testing.T) {
	b := New()
	h, conn := startHub(t, b, nil)
	readEvent(t, conn)

	if n := h.Clients(); n != 1 {
		t.Fatalf("expected 1 client, got %d", n)
	}
	h.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to close")
	}
	if n := h.Clients(); n != 0 {
		t.Errorf("expected no clients, got %d", n)
	}
}

func dialWithOrigin(t *testing.T, h *Hub, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, nil)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	header.Set("Origin", origin)
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	h := NewHub(New(), zap.NewNop())
	t.Cleanup(h.Close)

	_, resp, err := dialWithOrigin(t, h, "https://evil.example")
	if err == nil {
		t.Fatal("expected foreign origin to be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}
}

func TestHub_AllowedOrigin(t *testing.T) {
	h := NewHub(New(), zap.NewNop(), "http://localhost:3000")
	t.Cleanup(h.Close)

	conn, _, err := dialWithOrigin(t, h, "http://localhost:3000")
	if err != nil {
		t.Fatalf("allowed origin refused: %v", err)
	}
	if ev := readEvent(t, conn); ev.Type != EventSnapshot {
		t.Errorf("expected snapshot, got %s", ev.Type)
	}

	if _, _, err := dialWithOrigin(t, h, "https://evil.example"); err == nil {
		t.Error("unlisted origin should still be refused")
	}
}
