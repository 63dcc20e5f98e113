package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub upgrades one server-side connection, registers it with the hub and
// returns the client end for reading.
func dialHub(t *testing.T, hub *WSHub, userID string) *websocket.Conn {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	select {
	case serverConn := <-connCh:
		hub.Register(userID, serverConn)
	case <-time.After(time.Second):
		t.Fatal("server connection never arrived")
	}
	return clientConn
}

func TestHubSendToUserSerializesConcurrentWrites(t *testing.T) {
	hub := NewWSHub()
	clientConn := dialHub(t, hub, "viewer-1")
	defer hub.Unregister("viewer-1")

	const writers = 8
	const perWriter = 25

	received := make(chan struct{}, writers*perWriter)
	go func() {
		for {
			if _, _, err := clientConn.ReadMessage(); err != nil {
				return
			}
			received <- struct{}{}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				assert.NoError(t, hub.SendToUser("viewer-1", WSMessage{Type: MessageDigests}))
			}
		}()
	}
	wg.Wait()

	for i := 0; i < writers*perWriter; i++ {
		select {
		case <-received:
		case <-time.After(time.Second):
			t.Fatalf("only %d of %d messages arrived intact", i, writers*perWriter)
		}
	}
}

func TestHubNotifySurvivesConcurrentUnregister(t *testing.T) {
	hub := NewWSHub()
	event := WSMessage{Type: MessageFollowedSaved, SaverID: "user-a", LocationID: "loc-x"}

	for round := 0; round < 10; round++ {
		clientConn := dialHub(t, hub, "viewer-1")
		go func() {
			for {
				if _, _, err := clientConn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := 0; j < 50; j++ {
					hub.NotifyFollowedSaved("viewer-1", event)
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			hub.Unregister("viewer-1")
		}()

		close(start)
		wg.Wait()
	}
}

func TestHubRegisterReplacesExistingConnection(t *testing.T) {
	hub := NewWSHub()
	first := dialHub(t, hub, "viewer-1")
	second := dialHub(t, hub, "viewer-1")
	defer hub.Unregister("viewer-1")

	require.NoError(t, hub.SendToUser("viewer-1", WSMessage{Type: MessageDigests}))

	require.NoError(t, second.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := second.ReadMessage()
	require.NoError(t, err, "replacement connection must receive messages")

	require.NoError(t, first.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = first.ReadMessage()
	require.Error(t, err, "replaced connection must be closed")
}
