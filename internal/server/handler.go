package server

import (
	"CandleWatch/internal/board"
	"CandleWatch/internal/model"
	"CandleWatch/internal/notifier"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Selector is the refresh loop as seen by the selection UI.
type Selector interface {
	Start(sel model.Selection) error
	CurrentSelection() model.Selection
}

// Handler serves the selection API, the board read API and the viewer websocket.
type Handler struct {
	selector Selector
	board    *board.Board
	hub      *board.Hub
	log      *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(sel Selector, b *board.Board, hub *board.Hub, log *zap.Logger) *Handler {
	return &Handler{selector: sel, board: b, hub: hub, log: log}
}

// RegisterRoutes mounts every endpoint on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
	e.GET("/ws", h.stream)

	api := e.Group("/api")
	api.GET("/options", h.options)
	api.GET("/selection", h.getSelection)
	api.PUT("/selection", h.putSelection)
	api.GET("/view", h.view)
}

type selectionRequest struct {
	Pair      string `json:"pair" validate:"required,pair"`
	Timeframe string `json:"timeframe" default:"4h" validate:"required,timeframe"`
}

// SelectionView is a selection with its display labels.
type SelectionView struct {
	Pair           model.PairKey   `json:"pair"`
	Timeframe      model.Timeframe `json:"timeframe"`
	PairLabel      string          `json:"pair_label"`
	TimeframeLabel string          `json:"timeframe_label"`
}

func newSelectionView(sel model.Selection) SelectionView {
	v := SelectionView{Pair: sel.Pair, Timeframe: sel.Timeframe}
	if p, ok := model.LookupPair(sel.Pair); ok {
		v.PairLabel = p.Label
	}
	if tf, ok := model.LookupTimeframe(sel.Timeframe); ok {
		v.TimeframeLabel = tf.Label
	}
	return v
}

// Options lists what the viewer may select.
type Options struct {
	Pairs      []model.Pair            `json:"pairs"`
	Timeframes []model.TimeframeOption `json:"timeframes"`
}

// BoardView is the whole board plus the selection it shows.
type BoardView struct {
	Selection SelectionView                     `json:"selection"`
	Chart     *board.ChartState                 `json:"chart"`
	Slots     map[notifier.Slot]notifier.Update `json:"slots"`
}

func (h *Handler) health(c echo.Context) error {
	return SuccessResponse(c, map[string]interface{}{
		"status":  "ok",
		"viewers": h.hub.Clients(),
	})
}

func (h *Handler) options(c echo.Context) error {
	return SuccessResponse(c, Options{Pairs: model.Pairs, Timeframes: model.Timeframes})
}

func (h *Handler) getSelection(c echo.Context) error {
	return SuccessResponse(c, newSelectionView(h.selector.CurrentSelection()))
}

func (h *Handler) putSelection(c echo.Context) error {
	var req selectionRequest
	if errs := readAndValidate(c, &req); errs != nil {
		return BadRequestResponse(c, errs)
	}

	sel := model.Selection{Pair: model.PairKey(req.Pair), Timeframe: model.Timeframe(req.Timeframe)}
	if err := h.selector.Start(sel); err != nil {
		h.log.Warn("start selection failed", zap.Stringer("selection", sel), zap.Error(err))
		return ServiceUnavailableResponse(c, err.Error())
	}
	return SuccessResponse(c, newSelectionView(sel))
}

func (h *Handler) view(c echo.Context) error {
	v := h.board.Snapshot()
	return SuccessResponse(c, BoardView{
		Selection: newSelectionView(h.selector.CurrentSelection()),
		Chart:     v.Chart,
		Slots:     v.Slots,
	})
}

func (h *Handler) stream(c echo.Context) error {
	if err := h.hub.Serve(c.Response(), c.Request(), h.selector.Start); err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
	}
	return nil
}
