package models

import (
	"sort"
	"strings"
	"time"
)

// Message is a persisted direct message. It is immutable after creation
// except for IsRead.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SenderID       string    `gorm:"type:text;not null;index:idx_sender_receiver" json:"senderId"`
	Sender         User      `gorm:"foreignKey:SenderID" json:"-"`
	ReceiverID     string    `gorm:"type:text;not null;index:idx_sender_receiver" json:"receiverId"`
	Receiver       User      `gorm:"foreignKey:ReceiverID" json:"-"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsRead         bool      `gorm:"not null;default:false;index" json:"isRead"`
	ConversationID string    `gorm:"type:text;not null;index:idx_conversation_created" json:"conversationId"`
	CreatedAt      time.Time `gorm:"index:idx_conversation_created" json:"createdAt"`
}

// Record expands the message into its wire form. Sender and Receiver must
// be loaded.
func (m *Message) Record() MessageRecord {
	return MessageRecord{
		ID:             m.ID,
		Sender:         m.Sender.Ref(),
		Receiver:       m.Receiver.Ref(),
		Content:        m.Content,
		IsRead:         m.IsRead,
		ConversationID: m.ConversationID,
		CreatedAt:      m.CreatedAt,
	}
}

// MessageRecord is the persisted message as returned by the REST API and
// relayed to the counterpart.
type MessageRecord struct {
	ID             uint      `json:"id"`
	Sender         UserRef   `json:"sender"`
	Receiver       UserRef   `json:"receiver"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"isRead"`
	ConversationID string    `json:"conversationId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Counterpart returns the participant of the record that is not userID.
func (r MessageRecord) Counterpart(userID string) UserRef {
	if r.Sender.ID == userID {
		return r.Receiver
	}
	return r.Sender
}

// ConversationSummary describes one conversation from the point of view of
// a single user. LastMessage is nil for a freshly opened, empty conversation.
type ConversationSummary struct {
	User        UserRef        `json:"user"`
	LastMessage *MessageRecord `json:"lastMessage"`
	UnreadCount int            `json:"unreadCount"`
}

// ConversationID derives the order-independent identifier of the
// conversation between a and b.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}
