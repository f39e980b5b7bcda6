package realtime

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsPair upgrades a real websocket over a test server and returns both ends.
func wsPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverSide := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverSide <- ws
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return <-serverSide, client
}

func readFrame(t *testing.T, client *websocket.Conn) string {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func assertNoFrame(t *testing.T, client *websocket.Conn) {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := client.ReadMessage()
	assert.Error(t, err, "no further frame should arrive")
}

func attached(t *testing.T, hub *Hub, userID uint64) (*Connection, *websocket.Conn) {
	t.Helper()
	server, client := wsPair(t)
	conn := NewConnection(userID, server)
	hub.Attach(conn)
	return conn, client
}

func TestHub_AttachJoinsIdentityRoom(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn, client := attached(t, hub, 7)
	assert.True(t, hub.InRoom(UserRoom(7), conn))

	n := hub.Deliver([]string{UserRoom(7)}, []byte("hello"), 0)
	assert.Equal(t, 1, n)
	assert.Equal(t, "hello", readFrame(t, client))
}

func TestHub_DeliverOncePerSessionAcrossRooms(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn, client := attached(t, hub, 7)
	hub.Join(ConversationRoom("conv-123"), conn)

	// The session sits in both target rooms; it must still get one copy.
	rooms := []string{ConversationRoom("conv-123"), UserRoom(7)}
	n := hub.Deliver(rooms, []byte("once"), 0)
	assert.Equal(t, 1, n)
	assert.Equal(t, "once", readFrame(t, client))
	assertNoFrame(t, client)
}

func TestHub_DeliverExcludesSender(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	student, studentClient := attached(t, hub, 7)
	mentor, mentorClient := attached(t, hub, 42)
	hub.Join(ConversationRoom("conv-123"), student)
	hub.Join(ConversationRoom("conv-123"), mentor)

	rooms := []string{ConversationRoom("conv-123"), UserRoom(42)}
	n := hub.Deliver(rooms, []byte("from student"), 7)
	assert.Equal(t, 1, n)
	assert.Equal(t, "from student", readFrame(t, mentorClient))
	assertNoFrame(t, studentClient)
}

func TestHub_MultipleSessionsPerUser(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	_, phone := attached(t, hub, 7)
	_, laptop := attached(t, hub, 7)

	n := hub.Deliver([]string{UserRoom(7)}, []byte("both"), 0)
	assert.Equal(t, 2, n)
	assert.Equal(t, "both", readFrame(t, phone))
	assert.Equal(t, "both", readFrame(t, laptop))
}

func TestHub_LeaveStopsRoomDelivery(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn, client := attached(t, hub, 7)
	hub.Join(ConversationRoom("conv-123"), conn)
	hub.Leave(ConversationRoom("conv-123"), conn)

	assert.False(t, hub.InRoom(ConversationRoom("conv-123"), conn))
	n := hub.Deliver([]string{ConversationRoom("conv-123")}, []byte("gone"), 0)
	assert.Zero(t, n)
	assertNoFrame(t, client)

	// Identity room membership survives an explicit room leave.
	assert.True(t, hub.InRoom(UserRoom(7), conn))
}

func TestHub_DetachRemovesEveryMembership(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn, _ := attached(t, hub, 7)
	hub.Join(ConversationRoom("conv-123"), conn)

	hub.Detach(conn)

	assert.False(t, hub.InRoom(UserRoom(7), conn))
	assert.False(t, hub.InRoom(ConversationRoom("conv-123"), conn))
	assert.Zero(t, hub.Deliver([]string{UserRoom(7), ConversationRoom("conv-123")}, []byte("x"), 0))

	// A detached session cannot rejoin.
	hub.Join(ConversationRoom("conv-123"), conn)
	assert.False(t, hub.InRoom(ConversationRoom("conv-123"), conn))
}

func TestConnection_DeliveryOrder(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	_, client := attached(t, hub, 7)

	const frames = 50
	for i := 0; i < frames; i++ {
		n := hub.Deliver([]string{UserRoom(7)}, []byte(fmt.Sprintf("frame-%d", i)), 0)
		require.Equal(t, 1, n)
	}
	for i := 0; i < frames; i++ {
		assert.Equal(t, fmt.Sprintf("frame-%d", i), readFrame(t, client),
			"frames must arrive in the order they were delivered")
	}
}

func TestRoomNames(t *testing.T) {
	assert.Equal(t, "user:7", UserRoom(7))
	assert.Equal(t, "conv:conv-123", ConversationRoom("conv-123"))
}
