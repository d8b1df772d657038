package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Tick is one inbound market data update.
type Tick struct {
	Symbol   string                 `json:"symbol"`
	Exchange string                 `json:"exchange"`
	Mode     string                 `json:"mode"` // ltp | quote | depth
	Data     map[string]interface{} `json:"data"`
}

// StreamClient holds a single shared websocket connection to the gateway's
// streaming endpoint and fans inbound ticks out to per-subscription
// channels. One process keeps at most one connection, matching the
// external interface contract that streaming access is shared, not
// reopened per node.
type StreamClient struct {
	url string

	mu       sync.Mutex
	conn     *websocket.Conn
	subs     map[string]chan Tick // key: symbol|exchange|mode
	dialOnce sync.Once
	dialErr  error
}

// NewStreamClient builds a client bound to the gateway's websocket URL; it
// does not dial until the first Subscribe call.
func NewStreamClient(url string) *StreamClient {
	return &StreamClient{
		url:  url,
		subs: make(map[string]chan Tick),
	}
}

func subKey(symbol, exchange, mode string) string {
	return symbol + "|" + exchange + "|" + mode
}

func (s *StreamClient) ensureConnected() error {
	s.dialOnce.Do(func() {
		conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
		if err != nil {
			s.dialErr = fmt.Errorf("gateway: streaming dial failed: %w", err)
			return
		}
		s.conn = conn
		go s.readLoop()
	})
	return s.dialErr
}

func (s *StreamClient) readLoop() {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var tick Tick
		if err := json.Unmarshal(raw, &tick); err != nil {
			continue
		}
		s.mu.Lock()
		ch, ok := s.subs[subKey(tick.Symbol, tick.Exchange, tick.Mode)]
		s.mu.Unlock()
		if ok {
			select {
			case ch <- tick:
			default:
				// slow subscriber: drop the tick rather than block the
				// shared read loop for every other subscription.
			}
		}
	}
}

// Subscribe registers interest in one symbol/mode and returns a channel
// that receives ticks until Unsubscribe is called. It dials the shared
// connection on first use.
func (s *StreamClient) Subscribe(symbol, exchange, mode string) (<-chan Tick, error) {
	if err := s.ensureConnected(); err != nil {
		return nil, err
	}
	key := subKey(symbol, exchange, mode)
	ch := make(chan Tick, 16)

	s.mu.Lock()
	s.subs[key] = ch
	s.mu.Unlock()

	req := map[string]interface{}{
		"action":   "subscribe",
		"symbol":   symbol,
		"exchange": exchange,
		"mode":     mode,
	}
	if err := s.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("gateway: subscribe request failed: %w", err)
	}
	return ch, nil
}

// Unsubscribe tears down a subscription registered by Subscribe.
func (s *StreamClient) Unsubscribe(symbol, exchange, mode string) {
	key := subKey(symbol, exchange, mode)
	s.mu.Lock()
	ch, ok := s.subs[key]
	delete(s.subs, key)
	s.mu.Unlock()
	if ok {
		close(ch)
	}
	if s.conn != nil {
		_ = s.conn.WriteJSON(map[string]interface{}{
			"action":   "unsubscribe",
			"symbol":   symbol,
			"exchange": exchange,
			"mode":     mode,
		})
	}
}

// WaitForTick subscribes, waits up to timeout for the first tick, and
// unsubscribes regardless of outcome. It is the building block the
// subscribe nodes use before falling back to a synchronous quote (or, for
// depth, market depth) query.
func (s *StreamClient) WaitForTick(ctx context.Context, symbol, exchange, mode string, timeout time.Duration) (Tick, bool, error) {
	ch, err := s.Subscribe(symbol, exchange, mode)
	if err != nil {
		return Tick{}, false, err
	}
	defer s.Unsubscribe(symbol, exchange, mode)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case tick, ok := <-ch:
		if !ok {
			return Tick{}, false, nil
		}
		return tick, true, nil
	case <-timer.C:
		return Tick{}, false, nil
	case <-ctx.Done():
		return Tick{}, false, ctx.Err()
	}
}

// Close tears down the shared connection.
func (s *StreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
