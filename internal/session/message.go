package session

import "skillnexus/backend/internal/models"

// LocalMessage is an entry of the visible list. It is either pending,
// identified by TempID until the server confirms it, or confirmed,
// identified by Record.ID.
type LocalMessage struct {
	TempID string
	Record models.MessageRecord
}

func (m LocalMessage) Pending() bool { return m.TempID != "" }
