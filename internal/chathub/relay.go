package chathub

import (
	"encoding/json"
	"log/slog"

	"skillnexus/backend/internal/models"
)

// Relay forwards events to live connections found in the directory. It is
// fire-and-forget: an absent receiver or a full outbound queue drops the
// event, nothing is queued or retried. Persistence happens before the relay
// is asked to forward, so a drop only costs immediacy.
type Relay struct {
	dir *Directory
	log *slog.Logger
}

func NewRelay(dir *Directory, log *slog.Logger) *Relay {
	return &Relay{dir: dir, log: log}
}

// Send forwards message verbatim to receiverID as message:receive.
func (r *Relay) Send(senderID, receiverID string, message json.RawMessage) bool {
	return r.forward(receiverID, models.Event{Event: models.EventMessageReceive, Data: message}, "sender_id", senderID)
}

// TypingStart forwards typing:show carrying senderID.
func (r *Relay) TypingStart(senderID, receiverID string) bool {
	return r.typing(models.EventTypingShow, senderID, receiverID)
}

// TypingStop forwards typing:hide carrying senderID.
func (r *Relay) TypingStop(senderID, receiverID string) bool {
	return r.typing(models.EventTypingHide, senderID, receiverID)
}

// Broadcast delivers ev to every present user except exceptUserID.
func (r *Relay) Broadcast(exceptUserID string, ev models.Event) {
	for _, c := range r.dir.Others(exceptUserID) {
		r.deliver(c, ev)
	}
}

func (r *Relay) typing(name, senderID, receiverID string) bool {
	ev, err := models.NewEvent(name, senderID)
	if err != nil {
		r.log.Error("failed to encode typing event", "error", err)
		return false
	}
	return r.forward(receiverID, ev, "sender_id", senderID)
}

func (r *Relay) forward(receiverID string, ev models.Event, args ...any) bool {
	c, ok := r.dir.Resolve(receiverID)
	if !ok {
		r.log.Debug("receiver not present, event dropped",
			append(args, "event", ev.Event, "receiver_id", receiverID)...)
		return false
	}
	return r.deliver(c, ev)
}

func (r *Relay) deliver(c Client, ev models.Event) bool {
	select {
	case c.GetSendChannel() <- ev:
		return true
	default:
		r.log.Warn("outbound queue full, event dropped", "event", ev.Event, "user_id", c.GetUserID())
		return false
	}
}
