package storage

import (
	"errors"
	"fmt"
	"strings"

	"skillnexus/backend/internal/apperrors"
	"skillnexus/backend/internal/config"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var contentRule = fmt.Sprintf("max=%d", config.MaxContentLength)

type messageInput struct {
	SenderID   string `validate:"required"`
	ReceiverID string `validate:"required,nefield=SenderID"`
	Content    string `validate:"required"`
}

// ValidateMessage checks a send request and returns the trimmed content.
// Length is counted in characters, not bytes.
func ValidateMessage(senderID, receiverID, content string) (string, error) {
	in := messageInput{
		SenderID:   strings.TrimSpace(senderID),
		ReceiverID: strings.TrimSpace(receiverID),
		Content:    strings.TrimSpace(content),
	}

	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			switch fe := fieldErrs[0]; {
			case fe.Field() == "ReceiverID" && fe.Tag() == "nefield":
				return "", apperrors.NewValidationError("Cannot send a message to yourself", nil)
			case fe.Field() == "Content":
				return "", apperrors.NewValidationError("Message content is required", nil)
			}
		}
		return "", apperrors.NewValidationError("Receiver and content are required", err)
	}

	if err := validate.Var(in.Content, contentRule); err != nil {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("Message cannot exceed %d characters", config.MaxContentLength), nil)
	}
	return in.Content, nil
}
