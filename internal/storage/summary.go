package storage

import "skillnexus/backend/internal/models"

// Summarize groups messages by the counterpart of userID. messages must be
// ordered most recent first; the first message seen per counterpart becomes
// its last message, so ties keep storage order. Sender and Receiver must be
// loaded.
func Summarize(userID string, messages []models.Message) []models.ConversationSummary {
	summaries := []models.ConversationSummary{}
	index := make(map[string]int)

	for i := range messages {
		msg := &messages[i]
		otherID := msg.SenderID
		if otherID == userID {
			otherID = msg.ReceiverID
		}

		pos, ok := index[otherID]
		if !ok {
			rec := msg.Record()
			summaries = append(summaries, models.ConversationSummary{
				User:        rec.Counterpart(userID),
				LastMessage: &rec,
			})
			pos = len(summaries) - 1
			index[otherID] = pos
		}

		if msg.ReceiverID == userID && !msg.IsRead {
			summaries[pos].UnreadCount++
		}
	}
	return summaries
}
