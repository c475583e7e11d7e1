package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := newHub()
	go hub.run(&Config{})

	mux := httprouter.New()
	mux.GET("/ws", serveWS(hub))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dialHub(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// give the hub's run loop a beat to process the registration
	time.Sleep(50 * time.Millisecond)

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var ev wireEvent
	require.NoError(t, conn.ReadJSON(&ev))

	return ev
}

func TestHub_FanOutToAllClients(t *testing.T) {
	hub, url := newTestHub(t)

	first := dialHub(t, url)
	second := dialHub(t, url)

	hub.Publish(eventCardsRefresh, []CardView{
		{Card: Card{ID: 1, Title: "Alice"}, IsActive: true},
	})

	for _, conn := range []*websocket.Conn{first, second} {
		ev := readEvent(t, conn)
		assert.Equal(t, eventCardsRefresh, ev.Type)
		require.Len(t, ev.Cards, 1)
		assert.Equal(t, "Alice", ev.Cards[0].Title)
		assert.True(t, ev.Cards[0].IsActive)
	}
}

func TestHub_TimerEventsHaveNoPayload(t *testing.T) {
	hub, url := newTestHub(t)

	conn := dialHub(t, url)

	hub.Publish(eventTimerStart, nil)
	ev := readEvent(t, conn)
	assert.Equal(t, eventTimerStart, ev.Type)
	assert.Empty(t, ev.Cards)

	hub.Publish(eventTimerStop, nil)
	ev = readEvent(t, conn)
	assert.Equal(t, eventTimerStop, ev.Type)
}

func TestHub_NoBacklogForLateJoiners(t *testing.T) {
	hub, url := newTestHub(t)

	early := dialHub(t, url)

	hub.Publish(eventTimerStart, nil)
	readEvent(t, early)

	late := dialHub(t, url)

	// nothing is replayed; the late joiner only sees future events
	require.NoError(t, late.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var ev wireEvent
	err := late.ReadJSON(&ev)
	assert.Error(t, err, "late joiner must not receive a backlog")

	// but it is wired in for the next event — reconnect since the failed
	// read poisoned the deadline
	replacement := dialHub(t, url)
	hub.Publish(eventTimerStop, nil)
	ev = readEvent(t, replacement)
	assert.Equal(t, eventTimerStop, ev.Type)
}
