package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"skillnexus/backend/internal/apperrors"
	"skillnexus/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage is the conversation store plus the user lookups it depends on.
type Storage interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// AppendMessage validates and persists a message with read=false and
	// returns it with Sender and Receiver loaded.
	AppendMessage(ctx context.Context, senderID, receiverID, content string) (*models.Message, error)
	// ListConversation returns the messages between userA and userB in
	// ascending creation order. No messages is not an error.
	ListConversation(ctx context.Context, userA, userB string) ([]models.Message, error)
	// ListConversationsFor returns one summary per counterpart of userID,
	// most recent first.
	ListConversationsFor(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	// MarkRead flags every unread message sent by otherUserID to userID as
	// read and returns how many changed.
	MarkRead(ctx context.Context, userID, otherUserID string) (int64, error)
}

// Service is the PostgreSQL-backed Storage. Redis is optional and only
// used for the presence mirror.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	log   *slog.Logger
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client, log *slog.Logger) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		log:   log,
	}
}

// Migrate creates or updates the tables used by the messaging core.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(&models.User{}, &models.Message{})
}

// SaveUser inserts a new user.
func (s *Service) SaveUser(ctx context.Context, user *models.User) error {
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		s.log.Error("failed to save user", "email", user.Email, "error", err)
		return apperrors.NewPersistenceError("Failed to save user", err)
	}
	return nil
}

// GetUserByID loads a user by primary key.
func (s *Service) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("User not found", nil)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("Failed to load user", err)
	}
	return &user, nil
}

func (s *Service) AppendMessage(ctx context.Context, senderID, receiverID, content string) (*models.Message, error) {
	content, err := ValidateMessage(senderID, receiverID, content)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.DB.WithContext(ctx).Where("id IN ?", []string{senderID, receiverID}).Find(&users).Error; err != nil {
		return nil, apperrors.NewPersistenceError("Failed to load participants", err)
	}
	sender, receiver, err := resolveParticipants(users, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	msg := models.Message{
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
		ConversationID: models.ConversationID(senderID, receiverID),
	}
	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(&msg).Error; err != nil {
		s.log.Error("failed to save message", "conversation_id", msg.ConversationID, "error", err)
		return nil, apperrors.NewPersistenceError("Failed to save message", err)
	}
	msg.Sender = sender
	msg.Receiver = receiver
	return &msg, nil
}

func (s *Service) ListConversation(ctx context.Context, userA, userB string) ([]models.Message, error) {
	messages := []models.Message{}
	err := s.DB.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("conversation_id = ?", models.ConversationID(userA, userB)).
		Order("created_at asc, id asc").
		Find(&messages).Error
	if err != nil {
		s.log.Error("failed to list conversation", "user_a", userA, "user_b", userB, "error", err)
		return nil, apperrors.NewPersistenceError("Failed to load conversation", err)
	}
	return messages, nil
}

func (s *Service) ListConversationsFor(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	var messages []models.Message
	err := s.DB.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at desc, id desc").
		Find(&messages).Error
	if err != nil {
		s.log.Error("failed to list conversations", "user_id", userID, "error", err)
		return nil, apperrors.NewPersistenceError("Failed to load conversations", err)
	}
	return Summarize(userID, messages), nil
}

func (s *Service) MarkRead(ctx context.Context, userID, otherUserID string) (int64, error) {
	result := s.DB.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?",
			models.ConversationID(userID, otherUserID), userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, apperrors.NewPersistenceError("Failed to mark messages as read", result.Error)
	}
	return result.RowsAffected, nil
}

func resolveParticipants(users []models.User, senderID, receiverID string) (models.User, models.User, error) {
	var sender, receiver *models.User
	for i := range users {
		if users[i].ID == senderID {
			sender = &users[i]
		}
		if users[i].ID == receiverID {
			receiver = &users[i]
		}
	}
	if sender == nil {
		return models.User{}, models.User{}, apperrors.NewNotFoundError("Sender not found", fmt.Errorf("user %s", senderID))
	}
	if receiver == nil {
		return models.User{}, models.User{}, apperrors.NewNotFoundError("Receiver not found", fmt.Errorf("user %s", receiverID))
	}
	return *sender, *receiver, nil
}
