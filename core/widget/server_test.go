package widget

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-talk/core/avatar"
	"github.com/koscakluka/ema-talk/core/conversations"
	"github.com/koscakluka/ema-talk/core/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu        sync.Mutex
	submitted []string
	records   []conversations.Record
}

func (s *fakeSession) SubmitUserMessage(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, text)
	return nil
}

func (s *fakeSession) Records() []conversations.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]conversations.Record(nil), s.records...)
}

func (s *fakeSession) Submitted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.submitted...)
}

type fakeSignals struct {
	mu      sync.Mutex
	loads   int
	details []string
}

func (s *fakeSignals) HandleLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
}

func (s *fakeSignals) HandleError(detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details = append(s.details, detail)
	return avatar.ErrAvatarLoad
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestServerSendsTranscriptOnConnect(t *testing.T) {
	session := &fakeSession{records: []conversations.Record{
		{Role: conversations.RoleUser, Text: "Hallo", State: conversations.StateFinal, TurnID: 1},
	}}
	hub := NewHub()
	server := httptest.NewServer(NewServer(hub, session))
	defer server.Close()

	conn := dial(t, server)

	msg := readMessage(t, conn)
	assert.Equal(t, TypeTranscript, msg.Type)
	require.Len(t, msg.Records, 1)
	assert.Equal(t, "Hallo", msg.Records[0].Text)
}

func TestServerForwardsUserMessages(t *testing.T) {
	session := &fakeSession{}
	hub := NewHub()
	widgetServer := NewServer(hub, session)
	server := httptest.NewServer(widgetServer)
	defer server.Close()

	conn := dial(t, server)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypeMessage, Text: "Wie geht's?"}))

	require.Eventually(t, func() bool { return len(session.Submitted()) == 1 }, 2*time.Second, 5*time.Millisecond)
	widgetServer.Wait()
	assert.Equal(t, []string{"Wie geht's?"}, session.Submitted())
}

func TestServerForwardsAvatarSignals(t *testing.T) {
	signals := &fakeSignals{}
	var mu sync.Mutex
	var kinds []events.Kind
	hub := NewHub()
	server := httptest.NewServer(NewServer(hub, &fakeSession{},
		WithAvatarSignals(signals),
		WithEventCallback(func(event events.Event) {
			mu.Lock()
			defer mu.Unlock()
			kinds = append(kinds, event.Kind())
		}),
	))
	defer server.Close()

	conn := dial(t, server)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypeAvatar, Event: AvatarEventLoad}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypeAvatar, Event: AvatarEventError, Detail: "model missing"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(kinds) == 2
	}, 2*time.Second, 5*time.Millisecond)

	signals.mu.Lock()
	defer signals.mu.Unlock()
	assert.Equal(t, 1, signals.loads)
	assert.Equal(t, []string{"model missing"}, signals.details)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []events.Kind{events.KindAvatarLoaded, events.KindAvatarLoadFailed}, kinds)
}

func TestHubDrivesWidgetAvatar(t *testing.T) {
	hub := NewHub()
	driver := avatar.NewRendererDriver(hub, avatar.WithMouthInterval(time.Hour))
	loaded := make(chan struct{}, 1)
	server := httptest.NewServer(NewServer(hub, &fakeSession{},
		WithAvatarSignals(driver),
		WithEventCallback(func(event events.Event) {
			if event.Kind() == events.KindAvatarLoaded {
				loaded <- struct{}{}
			}
		}),
	))
	defer server.Close()

	conn := dial(t, server)
	readMessage(t, conn)
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypeAvatar, Event: AvatarEventLoad}))
	select {
	case <-loaded:
	case <-time.After(2 * time.Second):
		t.Fatal("avatar load was not handled")
	}

	driver.SetTalking(true)

	msg := readMessage(t, conn)
	assert.Equal(t, TypeAnimation, msg.Type)
	assert.Equal(t, avatar.StateTalking, msg.State)

	driver.SetTalking(false)
	msg = readMessage(t, conn)
	assert.Equal(t, TypeMouth, msg.Type)
	require.NotNil(t, msg.Open)
	assert.Zero(t, *msg.Open)
	msg = readMessage(t, conn)
	assert.Equal(t, TypeAnimation, msg.Type)
	assert.Equal(t, avatar.StateIdle, msg.State)
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(NewServer(hub, &fakeSession{}))
	defer server.Close()

	first := dial(t, server)
	second := dial(t, server)
	readMessage(t, first)
	readMessage(t, second)
	waitForClients(t, hub, 2)

	hub.Status("Avatar nicht verfügbar")

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, TypeStatus, msg.Type)
		assert.Equal(t, "Avatar nicht verfügbar", msg.Text)
	}
}

func TestHubForgetsDisconnectedClients(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(NewServer(hub, &fakeSession{}))
	defer server.Close()

	conn := dial(t, server)
	readMessage(t, conn)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

func TestSchemaJSONDescribesBothDirections(t *testing.T) {
	data, err := SchemaJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"client"`)
	assert.Contains(t, string(data), `"server"`)
	assert.Contains(t, string(data), `"transcript"`)
}
