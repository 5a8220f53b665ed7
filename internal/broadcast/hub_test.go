package broadcast

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimelordUK/sigview/internal/playback"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) playback.Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var snap playback.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return snap
}

func TestHubDeliversSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(playback.Snapshot{FileID: "rec-1", WindowEnd: 2, Channels: []string{"Fp1"}})
	snap := readSnapshot(t, conn)
	assert.Equal(t, "rec-1", snap.FileID)
	assert.Equal(t, 2.0, snap.WindowEnd)
	assert.Equal(t, []string{"Fp1"}, snap.Channels)
}

func TestLateClientGetsLastSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	hub.Publish(playback.Snapshot{FileID: "early"})
	require.Eventually(t, func() bool { return len(hub.input) == 0 }, 2*time.Second, 10*time.Millisecond)

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))

	assert.Equal(t, "early", readSnapshot(t, conn).FileID)
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub(nil)
	// no Run loop: the queue holds only the newest snapshot
	for i := 0; i < 10; i++ {
		assert.True(t, hub.Publish(playback.Snapshot{Pages: i}))
	}
	assert.Equal(t, 9, (<-hub.input).Pages)
}

func TestServerStartAndClose(t *testing.T) {
	hub := NewHub(nil)
	s, err := Start(context.Background(), "127.0.0.1:0", hub)
	require.NoError(t, err)

	conn := dial(t, "ws://"+s.Addr()+"/ws")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Close())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "hub shutdown closes client connections")
}
