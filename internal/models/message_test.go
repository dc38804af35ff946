package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"skillnexus/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationID_OrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"bob", "alice"},
		{"", "x"},
		{"same", "same"},
		{uuid.NewString(), uuid.NewString()},
		{uuid.NewString(), uuid.NewString()},
	}

	for _, p := range pairs {
		assert.Equal(t, models.ConversationID(p[0], p[1]), models.ConversationID(p[1], p[0]),
			"conversation id must not depend on argument order for %v", p)
	}
}

func TestConversationID_Format(t *testing.T) {
	assert.Equal(t, "alice:bob", models.ConversationID("bob", "alice"))
	assert.NotEqual(t, models.ConversationID("a", "bc"), models.ConversationID("ab", "c"))
}

func TestMessageRecord_Shape(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := &models.Message{
		ID:             7,
		SenderID:       "s",
		Sender:         models.User{ID: "s", Name: "Sam", ProfileImage: "s.png"},
		ReceiverID:     "r",
		Receiver:       models.User{ID: "r", Name: "Rae", ProfileImage: "r.png"},
		Content:        "hello",
		ConversationID: models.ConversationID("s", "r"),
		CreatedAt:      created,
	}

	raw, err := json.Marshal(msg.Record())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, float64(7), got["id"])
	assert.Equal(t, "hello", got["content"])
	assert.Equal(t, false, got["isRead"])
	assert.Equal(t, "r:s", got["conversationId"])
	assert.Equal(t, map[string]any{"id": "s", "name": "Sam", "avatar": "s.png"}, got["sender"])
	assert.Equal(t, map[string]any{"id": "r", "name": "Rae", "avatar": "r.png"}, got["receiver"])
	assert.Contains(t, got, "createdAt")
}

func TestMessageRecord_Counterpart(t *testing.T) {
	rec := models.MessageRecord{
		Sender:   models.UserRef{ID: "a"},
		Receiver: models.UserRef{ID: "b"},
	}

	assert.Equal(t, "b", rec.Counterpart("a").ID)
	assert.Equal(t, "a", rec.Counterpart("b").ID)
}

func TestEvent_RoundTrip(t *testing.T) {
	ev, err := models.NewEvent(models.EventTypingStart, models.TypingPayload{ReceiverID: "b", SenderID: "a"})
	require.NoError(t, err)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"typing:start","data":{"receiverId":"b","senderId":"a"}}`, string(raw))

	var decoded models.Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	var payload models.TypingPayload
	require.NoError(t, decoded.Decode(&payload))
	assert.Equal(t, "b", payload.ReceiverID)
}

func TestEvent_DecodeWithoutPayload(t *testing.T) {
	ev := models.Event{Event: models.EventUserJoin}

	var s string
	assert.Error(t, ev.Decode(&s))
}
