// Package viewbridge connects the remote presentation layer over websocket.
// It pushes state, search and chart views to every client and turns
// incoming user actions into store, search and chart calls.
package viewbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"stockchart/internal/chart"
	"stockchart/internal/model"
	"stockchart/internal/pricechart"
	"stockchart/internal/search"
	"stockchart/internal/store"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SymbolStore is the part of the store driven by user actions.
type SymbolStore interface {
	State() store.State
	AddSymbol(ctx context.Context, candidate model.StockSymbol) (store.State, error)
	RemoveSymbol(code string) store.State
	SelectSymbol(code string) store.State
	SetPeriod(label string) (store.State, error)
	SetCustomRange(from, to time.Time) (store.State, error)
	ClearError() store.State
}

type SearchBox interface {
	Input(query string)
	View() search.View
}

type PriceChart interface {
	Resize(width, height float64)
	Tooltip(x float64) (chart.Tooltip, bool)
	ToggleMovingAverage() bool
	View() pricechart.View
}

// Bridge serves the websocket endpoint.
type Bridge struct {
	hub      *Hub
	store    SymbolStore
	search   SearchBox
	chart    PriceChart
	upgrader websocket.Upgrader
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates a Bridge. addTimeout bounds the profile lookup of an add.
func New(hub *Hub, st SymbolStore, sb SearchBox, pc PriceChart, addTimeout time.Duration, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	if addTimeout <= 0 {
		addTimeout = 10 * time.Second
	}
	return &Bridge{
		hub:    hub,
		store:  st,
		search: sb,
		chart:  pc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		timeout: addTimeout,
		logger:  logger,
	}
}

// ServeHTTP upgrades the connection, registers the client and sends it the
// current state, search and chart views.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &Client{hub: b.hub, conn: conn, send: make(chan []byte, sendBuffer)}
	if !b.hub.add(c) {
		conn.Close()
		return
	}
	go c.writePump()

	for _, m := range []Message{
		{Type: TypeState, Data: b.store.State()},
		{Type: TypeSearch, Data: b.search.View()},
		{Type: TypeChart, Data: b.chart.View()},
	} {
		if data, err := encode(m); err == nil {
			c.reply(data)
		}
	}

	go c.readPump(func(c *Client, msg []byte) {
		for _, reply := range b.HandleMessage(msg) {
			if data, err := encode(reply); err == nil {
				c.reply(data)
			}
		}
	})
}

// PushState broadcasts a state snapshot.
func (b *Bridge) PushState(st store.State) { b.push(TypeState, st) }

// PushSearch broadcasts the search view.
func (b *Bridge) PushSearch(v search.View) { b.push(TypeSearch, v) }

// PushChart broadcasts the chart view.
func (b *Bridge) PushChart(v pricechart.View) { b.push(TypeChart, v) }

func (b *Bridge) push(typ string, data any) {
	msg, err := encode(Message{Type: typ, Data: data})
	if err != nil {
		b.logger.Error("failed to encode view", zap.String("type", typ), zap.Error(err))
		return
	}
	b.hub.Broadcast(msg)
}

// HandleMessage applies one incoming request and returns the replies meant
// for the sender only. View changes reach clients through the Push methods.
func (b *Bridge) HandleMessage(msg []byte) []Message {
	// Step 1: Extract op for early filtering
	var meta struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(msg, &meta); err != nil {
		b.logger.Warn("failed to extract op", zap.Error(err))
		return nil
	}
	if !knownOp(meta.Op) {
		b.logger.Warn("ignoring unknown op", zap.String("op", meta.Op))
		return nil
	}

	// Step 2: Fully parse the request
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		b.logger.Warn("failed to parse request", zap.String("op", meta.Op), zap.Error(err))
		return []Message{errorMessage(fmt.Sprintf("malformed %s request", meta.Op))}
	}

	switch req.Op {
	case OpSearch:
		b.search.Input(req.Query)
	case OpAdd:
		if req.Symbol == nil || req.Symbol.Symbol == "" {
			return []Message{errorMessage("add requires a symbol")}
		}
		// Profile enrichment blocks; adds for distinct codes run independently.
		go b.add(*req.Symbol)
	case OpRemove:
		b.store.RemoveSymbol(req.Code)
	case OpSelect:
		b.store.SelectSymbol(req.Code)
	case OpPeriod:
		if _, err := b.store.SetPeriod(req.Period); err != nil {
			b.logger.Warn("invalid period", zap.String("period", req.Period), zap.Error(err))
			return []Message{errorMessage(err.Error())}
		}
	case OpRange:
		from, to := time.Unix(req.From, 0).UTC(), time.Unix(req.To, 0).UTC()
		if _, err := b.store.SetCustomRange(from, to); err != nil {
			b.logger.Warn("invalid range", zap.Int64("from", req.From), zap.Int64("to", req.To), zap.Error(err))
			return []Message{errorMessage(err.Error())}
		}
	case OpDismissError:
		b.store.ClearError()
	case OpResize:
		b.chart.Resize(req.Width, req.Height)
	case OpTooltip:
		tip, ok := b.chart.Tooltip(req.X)
		if !ok {
			return []Message{{Type: TypeTooltip, Data: nil}}
		}
		return []Message{{Type: TypeTooltip, Data: tip}}
	case OpToggleMA:
		b.chart.ToggleMovingAverage()
	}
	return nil
}

func (b *Bridge) add(sym model.StockSymbol) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	if _, err := b.store.AddSymbol(ctx, sym); err != nil {
		// Already recorded in the global error slot.
		b.logger.Debug("add failed", zap.String("symbol", sym.Symbol), zap.Error(err))
	}
}

func knownOp(op string) bool {
	switch op {
	case OpSearch, OpAdd, OpRemove, OpSelect, OpPeriod, OpRange,
		OpDismissError, OpResize, OpTooltip, OpToggleMA:
		return true
	}
	return false
}

func errorMessage(text string) Message {
	return Message{Type: TypeError, Data: text}
}

func encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}
