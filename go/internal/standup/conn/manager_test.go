package conn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// echoServer upgrades each connection, sends the given frames, then holds
// the connection open until the server closes it.
type echoServer struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	dials int64

	mu    sync.Mutex
	conns []*websocket.Conn
	send  [][]byte
}

func newEchoServer(t *testing.T, send [][]byte) *echoServer {
	s := &echoServer{t: t, send: send}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.dials, 1)
		ws, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, ws)
		for _, frame := range s.send {
			ws.WriteMessage(websocket.TextMessage, frame)
		}
		s.mu.Unlock()
		// Hold the connection; reads discard client pings.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *echoServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *echoServer) dialCount() int64 {
	return atomic.LoadInt64(&s.dials)
}

func (s *echoServer) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ws := range s.conns {
		ws.Close()
	}
	s.conns = nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestConnectDeliversFramesInOrder(t *testing.T) {
	server := newEchoServer(t, [][]byte{[]byte(`{"n":1}`), []byte(`{"n":2}`), []byte(`{"n":3}`)})

	var mu sync.Mutex
	var frames []string
	var statuses []Status

	m := NewManager(Config{
		URL: server.wsURL(),
		OnFrame: func(data []byte) {
			mu.Lock()
			frames = append(frames, string(data))
			mu.Unlock()
		},
		OnStatus: func(s Status) {
			mu.Lock()
			statuses = append(statuses, s)
			mu.Unlock()
		},
		BackoffSeed: 10 * time.Millisecond,
	})
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) == 3
	})

	mu.Lock()
	defer mu.Unlock()
	for i, want := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		if frames[i] != want {
			t.Errorf("frames[%d] = %q, want %q", i, frames[i], want)
		}
	}
	if len(statuses) < 2 || statuses[0] != StatusConnecting || statuses[1] != StatusConnected {
		t.Errorf("statuses = %v, want connecting then connected", statuses)
	}
}

func TestReconnectAfterServerClose(t *testing.T) {
	server := newEchoServer(t, nil)

	var connected int64
	m := NewManager(Config{
		URL: server.wsURL(),
		OnStatus: func(s Status) {
			if s == StatusConnected {
				atomic.AddInt64(&connected, 1)
			}
		},
		BackoffSeed: 10 * time.Millisecond,
		BackoffMax:  20 * time.Millisecond,
	})
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt64(&connected) == 1 })
	server.closeConns()
	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt64(&connected) >= 2 })

	if server.dialCount() < 2 {
		t.Errorf("dials = %d, want at least 2", server.dialCount())
	}
}

func TestCloseSuppressesReconnect(t *testing.T) {
	server := newEchoServer(t, nil)

	var statuses int64
	m := NewManager(Config{
		URL: server.wsURL(),
		OnStatus: func(s Status) {
			atomic.AddInt64(&statuses, 1)
		},
		BackoffSeed: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitFor(t, 2*time.Second, func() bool { return server.dialCount() == 1 })

	// Tear down right as the server drops the connection: no reconnect
	// attempt and no further status callbacks may happen.
	m.Close()
	server.closeConns()

	time.Sleep(100 * time.Millisecond)
	if got := server.dialCount(); got != 1 {
		t.Errorf("dials after teardown = %d, want 1", got)
	}
	after := atomic.LoadInt64(&statuses)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt64(&statuses); got != after {
		t.Error("status callbacks fired after teardown")
	}

	// Close is idempotent.
	m.Close()
}

func TestBackoffSchedule(t *testing.T) {
	m := NewManager(Config{URL: "ws://unused"})

	delay := m.seed
	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		15 * time.Second,
		15 * time.Second,
	}
	for i, w := range want {
		if delay != w {
			t.Errorf("retry %d delay = %v, want %v", i+1, delay, w)
		}
		delay = m.nextDelay(delay)
	}
}

func TestBackoffResetAfterSuccessfulOpen(t *testing.T) {
	const seed = 50 * time.Millisecond

	// Reject the first three dials so the delay doubles up to the cap,
	// then accept. The retry after the next drop must wait only the seed.
	var (
		mu        sync.Mutex
		dialTimes []time.Time
		conns     []*websocket.Conn
	)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		dialTimes = append(dialTimes, time.Now())
		reject := len(dialTimes) <= 3
		mu.Unlock()
		if reject {
			http.Error(w, "no", http.StatusForbidden)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		conns = append(conns, ws)
		mu.Unlock()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	var connected int64
	m := NewManager(Config{
		URL: "ws" + strings.TrimPrefix(srv.URL, "http"),
		OnStatus: func(s Status) {
			if s == StatusConnected {
				atomic.AddInt64(&connected, 1)
			}
		},
		BackoffSeed: seed,
		BackoffMax:  8 * seed,
	})
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitFor(t, 5*time.Second, func() bool { return atomic.LoadInt64(&connected) == 1 })

	mu.Lock()
	for _, ws := range conns {
		ws.Close()
	}
	conns = nil
	dropped := time.Now()
	mu.Unlock()

	waitFor(t, 5*time.Second, func() bool { return atomic.LoadInt64(&connected) >= 2 })

	mu.Lock()
	last := dialTimes[len(dialTimes)-1]
	mu.Unlock()
	// Without the reset the pending delay would still be the 8x cap; the
	// observed wait must be in the neighborhood of the seed instead.
	if waited := last.Sub(dropped); waited >= 4*seed {
		t.Errorf("retry after drop waited %v, want the %v seed", waited, seed)
	}
}

func TestDialFailureRetries(t *testing.T) {
	// Point at a server that immediately rejects the upgrade.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusForbidden)
	}))
	defer srv.Close()

	var disconnects int64
	m := NewManager(Config{
		URL: "ws" + strings.TrimPrefix(srv.URL, "http"),
		OnStatus: func(s Status) {
			if s == StatusDisconnected {
				atomic.AddInt64(&disconnects, 1)
			}
		},
		BackoffSeed: 5 * time.Millisecond,
		BackoffMax:  10 * time.Millisecond,
	})
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt64(&disconnects) >= 3 })
}
