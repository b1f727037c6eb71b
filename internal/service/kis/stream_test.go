package kis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestParseExecutionFrame(t *testing.T) {
	q, ok := parseExecutionFrame("0|H0STCNT0|001|005930^093001^5670^100")
	if !ok {
		t.Fatalf("expected execution frame to parse")
	}
	if q.Code != "005930" || q.Price != 5670 {
		t.Fatalf("unexpected quote %+v", q)
	}

	rejected := []string{
		`{"header":{"tr_id":"PINGPONG"}}`,   // JSON control frame
		"0|H0STASP0|001|005930^093001^5670", // different feed
		"0|H0STCNT0|001|005930^093001",      // short payload
		"0|H0STCNT0|001|005930^093001^0",    // no price
	}
	for _, raw := range rejected {
		if _, ok := parseExecutionFrame(raw); ok {
			t.Fatalf("frame %q must not parse", raw)
		}
	}
}

func TestStreamSubscribeAndRead(t *testing.T) {
	upgrader := websocket.Upgrader{}
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var sub map[string]interface{}
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte("0|H0STCNT0|001|005930^093001^5670")); err != nil {
			t.Errorf("write frame: %v", err)
			return
		}
		<-done
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(done) })

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewStream(wsURL, "approval", []string{"005930"}, time.Millisecond, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.IsConnected() {
		t.Fatalf("must start disconnected")
	}
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !s.IsConnected() {
		t.Fatalf("must report connected")
	}
	if err := s.Subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	quotes, errs := s.Read(ctx)
	select {
	case q := <-quotes:
		if q.Code != "005930" || q.Price != 5670 {
			t.Fatalf("unexpected quote %+v", q)
		}
	case err := <-errs:
		t.Fatalf("stream error: %v", err)
	case <-ctx.Done():
		t.Fatalf("timed out waiting for a quote")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if s.IsConnected() {
		t.Fatalf("must report disconnected after close")
	}
}
