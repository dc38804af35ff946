package chathub_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skillnexus/backend/internal/chathub"
	"skillnexus/backend/internal/models"
)

func startHub(t *testing.T, mirror chathub.PresenceMirror) *chathub.ManagerService {
	t.Helper()
	hub := chathub.NewManagerService(mirror, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub
}

func online(t *testing.T, hub *chathub.ManagerService) []string {
	t.Helper()
	ids, err := hub.OnlineUsers(context.Background())
	require.NoError(t, err)
	return ids
}

func mustEvent(t *testing.T, name string, data any) models.Event {
	t.Helper()
	ev, err := models.NewEvent(name, data)
	require.NoError(t, err)
	return ev
}

func TestManager_RegisterUnregister(t *testing.T) {
	hub := startHub(t, nil)
	a := newMockClient("A")

	hub.RegisterCh <- a
	assert.Equal(t, []string{"A"}, online(t, hub))

	hub.UnregisterCh <- a
	assert.Empty(t, online(t, hub))
	assert.Eventually(t, func() bool { return a.Closed() == 1 }, time.Second, 10*time.Millisecond)
}

func TestManager_PresenceBroadcast(t *testing.T) {
	hub := startHub(t, nil)
	a, b := newMockClient("A"), newMockClient("B")

	hub.RegisterCh <- a
	hub.RegisterCh <- b

	ev := expectEvent(t, a, models.EventUserOnline)
	var id string
	require.NoError(t, ev.Decode(&id))
	assert.Equal(t, "B", id)
	expectNothing(t, b)

	hub.UnregisterCh <- b
	ev = expectEvent(t, a, models.EventUserOffline)
	require.NoError(t, ev.Decode(&id))
	assert.Equal(t, "B", id)
}

func TestManager_SupersededLeaveIsSilent(t *testing.T) {
	hub := startHub(t, nil)
	watcher := newMockClient("W")
	h1, h2 := newMockClient("A"), newMockClient("A")

	hub.RegisterCh <- watcher
	hub.RegisterCh <- h1
	expectEvent(t, watcher, models.EventUserOnline)
	hub.RegisterCh <- h2
	expectEvent(t, watcher, models.EventUserOnline)

	hub.UnregisterCh <- h1
	expectNothing(t, watcher)
	assert.Equal(t, []string{"A", "W"}, online(t, hub))
	assert.Equal(t, 1, h1.Closed())
	assert.Equal(t, 0, h2.Closed())

	// a duplicate unregister is ignored
	hub.UnregisterCh <- h1
	assert.Equal(t, []string{"A", "W"}, online(t, hub))
	assert.Equal(t, 1, h1.Closed())
}

func TestManager_MessageSend(t *testing.T) {
	hub := startHub(t, nil)
	x, y := newMockClient("X"), newMockClient("Y")
	hub.RegisterCh <- x
	hub.RegisterCh <- y
	expectEvent(t, x, models.EventUserOnline)

	record := json.RawMessage(`{"id":1,"content":"hello"}`)
	hub.IncomingCh <- chathub.Inbound{
		Client: x,
		Event:  mustEvent(t, models.EventMessageSend, models.SendPayload{ReceiverID: "Y", Message: record}),
	}

	ev := expectEvent(t, y, models.EventMessageReceive)
	assert.JSONEq(t, string(record), string(ev.Data))
	expectNothing(t, x)
}

func TestManager_MessageToAbsentReceiverDropped(t *testing.T) {
	hub := startHub(t, nil)
	x := newMockClient("X")
	hub.RegisterCh <- x

	hub.IncomingCh <- chathub.Inbound{
		Client: x,
		Event:  mustEvent(t, models.EventMessageSend, models.SendPayload{ReceiverID: "Y", Message: json.RawMessage(`{}`)}),
	}
	expectNothing(t, x)
	assert.Equal(t, []string{"X"}, online(t, hub))
}

func TestManager_TypingUsesAuthenticatedSender(t *testing.T) {
	hub := startHub(t, nil)
	x, y := newMockClient("X"), newMockClient("Y")
	hub.RegisterCh <- x
	hub.RegisterCh <- y

	hub.IncomingCh <- chathub.Inbound{
		Client: x,
		Event:  mustEvent(t, models.EventTypingStart, models.TypingPayload{ReceiverID: "Y", SenderID: "spoofed"}),
	}
	ev := expectEvent(t, y, models.EventTypingShow)
	var sender string
	require.NoError(t, ev.Decode(&sender))
	assert.Equal(t, "X", sender)

	hub.IncomingCh <- chathub.Inbound{
		Client: x,
		Event:  mustEvent(t, models.EventTypingStop, models.TypingPayload{ReceiverID: "Y"}),
	}
	expectEvent(t, y, models.EventTypingHide)
}

func TestManager_JoinEventFromCurrentHandleIsNotRebroadcast(t *testing.T) {
	mirror := new(MockMirror)
	var onlineCalls atomic.Int32
	mirror.On("MarkOnline", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) { onlineCalls.Add(1) })

	hub := startHub(t, mirror)
	a, b := newMockClient("A"), newMockClient("B")
	hub.RegisterCh <- a
	hub.RegisterCh <- b
	expectEvent(t, a, models.EventUserOnline)

	hub.IncomingCh <- chathub.Inbound{Client: b, Event: mustEvent(t, models.EventUserJoin, "B")}
	expectNothing(t, a)
	assert.Equal(t, []string{"A", "B"}, online(t, hub))
	assert.Eventually(t, func() bool { return onlineCalls.Load() == 2 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 2, onlineCalls.Load())
}

func TestManager_JoinEventFromSupersededHandleRetakes(t *testing.T) {
	hub := startHub(t, nil)
	watcher := newMockClient("W")
	h1, h2 := newMockClient("A"), newMockClient("A")
	hub.RegisterCh <- watcher
	hub.RegisterCh <- h1
	hub.RegisterCh <- h2
	expectEvent(t, watcher, models.EventUserOnline)
	expectEvent(t, watcher, models.EventUserOnline)

	hub.IncomingCh <- chathub.Inbound{Client: h1, Event: mustEvent(t, models.EventUserJoin, "A")}
	expectEvent(t, watcher, models.EventUserOnline)

	hub.IncomingCh <- chathub.Inbound{
		Client: watcher,
		Event:  mustEvent(t, models.EventMessageSend, models.SendPayload{ReceiverID: "A", Message: json.RawMessage(`{"id":3}`)}),
	}
	expectEvent(t, h1, models.EventMessageReceive)
	expectNothing(t, h2)
}

func TestManager_RelayTargetsLatestConnection(t *testing.T) {
	hub := startHub(t, nil)
	sender := newMockClient("S")
	h1, h2 := newMockClient("A"), newMockClient("A")
	hub.RegisterCh <- sender
	hub.RegisterCh <- h1
	hub.RegisterCh <- h2
	expectEvent(t, sender, models.EventUserOnline)
	expectEvent(t, sender, models.EventUserOnline)
	expectNothing(t, h1)

	record := json.RawMessage(`{"id":9,"content":"only the latest tab"}`)
	hub.IncomingCh <- chathub.Inbound{
		Client: sender,
		Event:  mustEvent(t, models.EventMessageSend, models.SendPayload{ReceiverID: "A", Message: record}),
	}
	ev := expectEvent(t, h2, models.EventMessageReceive)
	assert.JSONEq(t, string(record), string(ev.Data))
	expectNothing(t, h1)

	hub.IncomingCh <- chathub.Inbound{
		Client: sender,
		Event:  mustEvent(t, models.EventTypingStart, models.TypingPayload{ReceiverID: "A"}),
	}
	expectEvent(t, h2, models.EventTypingShow)
	expectNothing(t, h1)
}

func TestManager_MalformedEventsIgnored(t *testing.T) {
	hub := startHub(t, nil)
	x, y := newMockClient("X"), newMockClient("Y")
	hub.RegisterCh <- x
	hub.RegisterCh <- y

	hub.IncomingCh <- chathub.Inbound{Client: x, Event: models.Event{Event: models.EventMessageSend, Data: json.RawMessage(`"nope"`)}}
	hub.IncomingCh <- chathub.Inbound{Client: x, Event: models.Event{Event: "room:leave"}}
	expectNothing(t, y)
	assert.Equal(t, []string{"X", "Y"}, online(t, hub))
}

func TestManager_MirrorUpdates(t *testing.T) {
	var calls atomic.Int32
	count := func(mock.Arguments) { calls.Add(1) }
	mirror := new(MockMirror)
	mirror.On("MarkOnline", mock.Anything, "A").Return(nil).Run(count)
	mirror.On("MarkOffline", mock.Anything, "A").Return(errors.New("redis down")).Run(count)

	hub := startHub(t, mirror)
	a := newMockClient("A")
	hub.RegisterCh <- a
	hub.UnregisterCh <- a

	assert.Eventually(t, func() bool {
		return calls.Load() == 2
	}, time.Second, 10*time.Millisecond)
	mirror.AssertExpectations(t)
}

func TestManager_ShutdownClosesConnections(t *testing.T) {
	hub := chathub.NewManagerService(nil, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	h1, h2 := newMockClient("A"), newMockClient("A")
	hub.RegisterCh <- h1
	hub.RegisterCh <- h2
	cancel()
	<-hub.Done()

	assert.Equal(t, 1, h1.Closed())
	assert.Equal(t, 1, h2.Closed())
	assert.False(t, hub.Register(newMockClient("B")))

	_, err := hub.OnlineUsers(context.Background())
	assert.Error(t, err)
}
