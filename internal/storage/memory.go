package storage

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"skillnexus/backend/internal/apperrors"
	"skillnexus/backend/internal/models"

	"github.com/samber/lo"
)

// Memory is a process-local Storage used for development and tests. It
// keeps the same ordering and validation rules as Service.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]models.User
	messages []models.Message
	nextID   uint
	now      func() time.Time
	log      *slog.Logger
}

// NewMemory creates an empty in-memory store.
func NewMemory(log *slog.Logger) *Memory {
	return &Memory{
		users: make(map[string]models.User),
		now:   time.Now,
		log:   log,
	}
}

// SetClock replaces the time source used for CreatedAt.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) SaveUser(_ context.Context, user *models.User) error {
	if err := user.BeforeCreate(nil); err != nil {
		return apperrors.NewPersistenceError("Failed to save user", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return apperrors.NewValidationError("User already exists", nil)
	}
	for _, u := range m.users {
		if user.Email != "" && u.Email == user.Email {
			return apperrors.NewValidationError("Email already registered", nil)
		}
	}
	now := m.now()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, apperrors.NewNotFoundError("User not found", nil)
	}
	return &user, nil
}

func (m *Memory) AppendMessage(_ context.Context, senderID, receiverID, content string) (*models.Message, error) {
	content, err := ValidateMessage(senderID, receiverID, content)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	users := lo.Values(m.users)
	sender, receiver, err := resolveParticipants(users, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	m.nextID++
	msg := models.Message{
		ID:             m.nextID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
		ConversationID: models.ConversationID(senderID, receiverID),
		CreatedAt:      m.now(),
	}
	m.messages = append(m.messages, msg)
	m.log.Debug("message stored", "message_id", msg.ID, "conversation_id", msg.ConversationID)

	msg.Sender, msg.Receiver = sender, receiver
	return &msg, nil
}

func (m *Memory) ListConversation(_ context.Context, userA, userB string) ([]models.Message, error) {
	conversationID := models.ConversationID(userA, userB)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := lo.Filter(m.messages, func(msg models.Message, _ int) bool {
		return msg.ConversationID == conversationID
	})
	sortAscending(out)
	return m.expand(out), nil
}

func (m *Memory) ListConversationsFor(_ context.Context, userID string) ([]models.ConversationSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := lo.Filter(m.messages, func(msg models.Message, _ int) bool {
		return msg.SenderID == userID || msg.ReceiverID == userID
	})
	sort.SliceStable(out, func(i, j int) bool { return newer(out[i], out[j]) })
	return Summarize(userID, m.expand(out)), nil
}

func (m *Memory) MarkRead(_ context.Context, userID, otherUserID string) (int64, error) {
	conversationID := models.ConversationID(userID, otherUserID)

	m.mu.Lock()
	defer m.mu.Unlock()

	var updated int64
	for i := range m.messages {
		msg := &m.messages[i]
		if msg.ConversationID == conversationID && msg.ReceiverID == userID && !msg.IsRead {
			msg.IsRead = true
			updated++
		}
	}
	return updated, nil
}

// expand fills Sender and Receiver on copies of msgs. Callers hold m.mu.
func (m *Memory) expand(msgs []models.Message) []models.Message {
	for i := range msgs {
		msgs[i].Sender = m.users[msgs[i].SenderID]
		msgs[i].Receiver = m.users[msgs[i].ReceiverID]
	}
	return msgs
}

func sortAscending(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool { return newer(msgs[j], msgs[i]) })
}

// newer orders by creation time, then by insertion id.
func newer(a, b models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

var (
	_ Storage = (*Memory)(nil)
	_ Storage = (*Service)(nil)
)
