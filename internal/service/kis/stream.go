package kis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"RankPulse/internal/domain/models"
	drepo "RankPulse/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements a QuoteStream backed by the KIS realtime execution feed.
// It feeds the last-price gauge between polling cycles; cycle computation
// itself always works from REST snapshots.
type Stream struct {
	websocketURL   string
	approvalKey    string
	codes          []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	// mu guards conn and connected, and serializes writes on the connection.
	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewStream creates a new realtime quote stream.
func NewStream(websocketURL, approvalKey string, codes []string, reconnectDelay, pingInterval time.Duration) drepo.QuoteStream {
	return &Stream{
		websocketURL:   websocketURL,
		approvalKey:    approvalKey,
		codes:          codes,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("kis stream connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	return nil
}

// current returns the live connection, or nil when disconnected.
func (s *Stream) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	return s.conn
}

func (s *Stream) writeJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || !s.connected {
		return fmt.Errorf("kis stream not connected")
	}
	return s.conn.WriteJSON(v)
}

func (s *Stream) writePing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || !s.connected {
		return fmt.Errorf("kis stream not connected")
	}
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// Subscribe registers the configured codes on the execution feed.
func (s *Stream) Subscribe(ctx context.Context) error {
	for _, code := range s.codes {
		msg := map[string]interface{}{
			"header": map[string]string{
				"approval_key": s.approvalKey,
				"custtype":     "P",
				"tr_type":      "1",
				"content-type": "utf-8",
			},
			"body": map[string]interface{}{
				"input": map[string]string{
					"tr_id":  "H0STCNT0",
					"tr_key": code,
				},
			},
		}
		if err := s.writeJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", code, err)
		}
	}
	return nil
}

// Read streams execution quotes and errors until the context ends or the
// connection drops.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Quote, <-chan error) {
	quotes := make(chan *models.Quote, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.writePing()
			}
		}
	}()

	// read loop; reads stay off the write lock, pinned to the connection
	// that was live when Read was called.
	conn := s.current()
	go func() {
		defer close(quotes)
		defer close(errs)
		if conn == nil {
			errs <- fmt.Errorf("kis stream conn nil")
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("kis stream read: %w", err)
					return
				}
				q, ok := parseExecutionFrame(string(b))
				if !ok {
					continue
				}
				select {
				case quotes <- q:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return quotes, errs
}

// parseExecutionFrame decodes a pipe-delimited realtime execution frame:
// flag|tr_id|count|code^time^price^... Control frames (JSON) are skipped.
func parseExecutionFrame(raw string) (*models.Quote, bool) {
	if !strings.HasPrefix(raw, "0|") {
		return nil, false
	}
	parts := strings.Split(raw, "|")
	if len(parts) < 4 || parts[1] != "H0STCNT0" {
		return nil, false
	}
	fields := strings.Split(parts[3], "^")
	if len(fields) < 3 {
		return nil, false
	}
	price := parseNum(fields[2])
	if price <= 0 {
		return nil, false
	}
	return &models.Quote{
		Code:      fields[0],
		Price:     price,
		Timestamp: time.Now(),
	}, true
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
