package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnPair(t *testing.T) (server *ws.Conn, client *ws.Conn) {
	t.Helper()
	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	ready := make(chan *ws.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		ready <- conn
	}))
	t.Cleanup(func() { srv.Close() })

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	serverConn := <-ready
	t.Cleanup(func() { serverConn.Close() })

	return serverConn, clientConn
}

func TestClientWriter_DeliversQueuedMessages(t *testing.T) {
	serverConn, clientConn := newTestConnPair(t)

	cw := newClientWriter(serverConn, clockwork.NewRealClock())
	t.Cleanup(func() { cw.stop() })

	require.True(t, cw.trySend([]byte(`{"type":"state_update"}`)))

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := clientConn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"state_update"}`, string(msg))
}

func TestClientWriter_PingOnInterval(t *testing.T) {
	// Anchor the fake clock to wall time so fake-derived write deadlines are
	// still in the future for the real connection.
	fakeClock := clockwork.NewFakeClockAt(time.Now())
	serverConn, clientConn := newTestConnPair(t)

	pings := make(chan struct{}, 1)
	clientConn.SetPingHandler(func(string) error {
		select {
		case pings <- struct{}{}:
		default:
		}
		return nil
	})
	go func() {
		for {
			if _, _, err := clientConn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	cw := newClientWriter(serverConn, fakeClock)
	t.Cleanup(func() { cw.stop() })

	fakeClock.BlockUntil(1) // writer's ticker is registered
	fakeClock.Advance(pingInterval)

	select {
	case <-pings:
	case <-time.After(2 * time.Second):
		t.Fatal("no ping after interval elapsed")
	}
}

func TestClientWriter_TrySendFullBuffer(t *testing.T) {
	serverConn, _ := newTestConnPair(t)

	cw := newClientWriter(serverConn, clockwork.NewRealClock())
	cw.stop()

	// With the writer stopped nothing drains the channel, so the buffer
	// fills deterministically.
	for i := 0; i < messageBufferSize; i++ {
		assert.True(t, cw.trySend([]byte("{}")))
	}
	assert.False(t, cw.trySend([]byte("{}")), "full buffer marks the client slow")
}

func TestClientWriter_StopIdempotent(t *testing.T) {
	serverConn, clientConn := newTestConnPair(t)
	t.Cleanup(func() { clientConn.Close() })

	cw := newClientWriter(serverConn, clockwork.NewRealClock())

	// Repeated stops must not panic
	cw.stop()
	cw.stop()
	cw.stop()
}

func TestClientWriter_ConcurrentStop(t *testing.T) {
	serverConn, clientConn := newTestConnPair(t)
	t.Cleanup(func() { clientConn.Close() })

	cw := newClientWriter(serverConn, clockwork.NewRealClock())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cw.stop()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("concurrent stop calls deadlocked")
	}
}
