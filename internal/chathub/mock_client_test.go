package chathub_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skillnexus/backend/internal/models"
)

type MockClient struct {
	userID      string
	RecvChannel chan models.Event

	mu     sync.Mutex
	closed int
}

func newMockClient(userID string) *MockClient {
	return &MockClient{
		userID:      userID,
		RecvChannel: make(chan models.Event, 10),
	}
}

func (c *MockClient) GetUserID() string                   { return c.userID }
func (c *MockClient) GetSendChannel() chan<- models.Event { return c.RecvChannel }
func (c *MockClient) Run()                                {}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
}

func (c *MockClient) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// expectEvent waits for the next event on c and checks its name.
func expectEvent(t *testing.T, c *MockClient, name string) models.Event {
	t.Helper()
	select {
	case ev := <-c.RecvChannel:
		require.Equal(t, name, ev.Event)
		return ev
	case <-time.After(time.Second):
		t.Fatalf("%s did not receive %s", c.userID, name)
		return models.Event{}
	}
}

func expectNothing(t *testing.T, c *MockClient) {
	t.Helper()
	select {
	case ev := <-c.RecvChannel:
		t.Fatalf("%s received unexpected %s", c.userID, ev.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) MarkOnline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockMirror) MarkOffline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
