package server

import (
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w3hc/xszc/errors"
	"github.com/w3hc/xszc/internal/chaintest"
)

func dialFeed(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketFeedReceivesConfirmedPixel(t *testing.T) {
	grid := chaintest.NewGrid(8)
	s, srv := newTestServer(t, grid, true)

	conn := dialFeed(t, srv.URL)
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	resp := postRelay(t, srv, signedPlacement(t, key, -1, 3, 2))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update PixelUpdate
	require.NoError(t, conn.ReadJSON(&update))

	assert.Equal(t, "pixel", update.Type)
	assert.Equal(t, int64(-1), update.X)
	assert.Equal(t, int64(3), update.Y)
	assert.Equal(t, uint8(2), update.ColorIndex)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), update.Author)
	assert.NotEmpty(t, update.TransactionHash)
}

func TestWebSocketFeedSilentOnRejectedRelay(t *testing.T) {
	grid := chaintest.NewGrid(8)
	s, srv := newTestServer(t, grid, true)
	grid.FailNextWrite(errors.New("execution reverted"))

	conn := dialFeed(t, srv.URL)
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	resp := postRelay(t, srv, signedPlacement(t, key, 0, 0, 1))
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// No pixel may be pushed for a placement that never confirmed.
	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var update PixelUpdate
	err = conn.ReadJSON(&update)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "timeout") || websocket.IsUnexpectedCloseError(err))
}

func TestHubUnregisterOnDisconnect(t *testing.T) {
	grid := chaintest.NewGrid(8)
	s, srv := newTestServer(t, grid, false)

	conn := dialFeed(t, srv.URL)
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestBroadcastWithNoClients(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, 0, hub.BroadcastPixel(PixelUpdate{Type: "pixel"}))
}

func TestBroadcastRacingDisconnect(t *testing.T) {
	hub := NewHub()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					hub.BroadcastPixel(PixelUpdate{Type: "pixel"})
				}
			}
		}()
	}

	// Clients connect and disconnect while broadcasts are in flight; a
	// disconnect must never make a concurrent broadcast panic.
	for i := 0; i < 500; i++ {
		c := &wsClient{
			hub:  hub,
			send: make(chan PixelUpdate, 1),
			done: make(chan struct{}),
		}
		hub.register(c)
		hub.unregister(c)
	}
	hub.CloseAll()

	close(stop)
	wg.Wait()
	assert.Equal(t, 0, hub.ClientCount())
}
