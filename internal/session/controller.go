// Package session reconciles a user's view of their conversations. It
// merges optimistic local sends, server-confirmed records and relayed
// events into one ordered, deduplicated message list per open
// conversation, and tracks typing and presence signals.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"skillnexus/backend/internal/config"
	"skillnexus/backend/internal/models"
)

// ErrNoConversation is returned by operations that need an active
// counterpart when none is selected.
var ErrNoConversation = errors.New("no active conversation")

// API is the persistence side the controller talks to.
type API interface {
	SendMessage(ctx context.Context, receiverID, content string) (models.MessageRecord, error)
	Conversation(ctx context.Context, userID string) ([]models.MessageRecord, error)
	Conversations(ctx context.Context) ([]models.ConversationSummary, error)
	MarkRead(ctx context.Context, userID string) (int64, error)
	Profile(ctx context.Context, userID string) (models.UserRef, error)
}

// Transport emits realtime events to the hub.
type Transport interface {
	Emit(event string, data any) error
}

// Options configures a Controller. Zero durations use the defaults from
// the config package.
type Options struct {
	TypingDebounce  time.Duration
	TypingAutoClear time.Duration

	// OnChange is called, outside any lock, after visible state changed.
	OnChange func()
	// OnError is called with failures the user should see.
	OnError func(error)

	Logger *slog.Logger
}

// Controller holds the client side state of one signed-in user. It is safe
// for concurrent use: network completions and relayed events may arrive on
// any goroutine.
type Controller struct {
	self      models.UserRef
	api       API
	transport Transport
	opts      Options
	log       *slog.Logger

	mu         sync.Mutex
	active     string
	generation uint64
	messages   []LocalMessage
	summaries  []models.ConversationSummary
	online     map[string]bool

	typingTo  string
	typingSeq uint64

	remoteTyping map[string]uint64
	remoteSeq    uint64
}

func NewController(self models.UserRef, api API, transport Transport, opts Options) *Controller {
	if opts.TypingDebounce <= 0 {
		opts.TypingDebounce = config.TypingDebounce
	}
	if opts.TypingAutoClear <= 0 {
		opts.TypingAutoClear = config.TypingAutoClear
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		self:         self,
		api:          api,
		transport:    transport,
		opts:         opts,
		log:          opts.Logger.With("user_id", self.ID),
		online:       make(map[string]bool),
		remoteTyping: make(map[string]uint64),
	}
}

// Active returns the counterpart of the open conversation, or "".
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Messages returns a copy of the visible message list.
func (c *Controller) Messages() []LocalMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LocalMessage(nil), c.messages...)
}

// Conversations returns a copy of the conversation summaries in display
// order.
func (c *Controller) Conversations() []models.ConversationSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ConversationSummary(nil), c.summaries...)
}

// IsTyping reports whether userID is currently shown as typing.
func (c *Controller) IsTyping(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.remoteTyping[userID]
	return ok
}

// IsOnline reports whether userID was last announced online.
func (c *Controller) IsOnline(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online[userID]
}

// LoadConversations replaces the summaries with the server's list. Locally
// opened conversations without messages are kept.
func (c *Controller) LoadConversations(ctx context.Context) error {
	fetched, err := c.api.Conversations(ctx)
	if err != nil {
		c.fail(err)
		return err
	}

	c.mu.Lock()
	known := lo.SliceToMap(fetched, func(s models.ConversationSummary) (string, bool) { return s.User.ID, true })
	drafts := lo.Filter(c.summaries, func(s models.ConversationSummary, _ int) bool {
		return s.LastMessage == nil && !known[s.User.ID]
	})
	c.summaries = append(drafts, fetched...)
	sortSummaries(c.summaries)
	c.mu.Unlock()

	c.changed()
	return nil
}

// OpenConversation makes userID the active counterpart, creating an empty
// summary at the front of the list when none exists yet.
func (c *Controller) OpenConversation(ctx context.Context, userID string) error {
	c.mu.Lock()
	_, exists := c.summaryIndex(userID)
	c.mu.Unlock()

	if !exists {
		ref, err := c.api.Profile(ctx, userID)
		if err != nil {
			c.fail(err)
			return err
		}
		c.mu.Lock()
		if _, ok := c.summaryIndex(userID); !ok {
			c.summaries = append([]models.ConversationSummary{{User: ref}}, c.summaries...)
		}
		c.mu.Unlock()
	}
	return c.Switch(ctx, userID)
}

// Switch changes the active counterpart. It stops local typing towards the
// previous counterpart, fetches the new conversation and marks it read. A
// fetch that completes after a later switch is discarded.
func (c *Controller) Switch(ctx context.Context, userID string) error {
	c.mu.Lock()
	c.stopTypingLocked()
	c.active = userID
	c.generation++
	gen := c.generation
	c.messages = nil
	c.remoteTyping = make(map[string]uint64)
	c.mu.Unlock()
	c.changed()

	fetched, err := c.api.Conversation(ctx, userID)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.log.Debug("stale conversation fetch discarded", "counterpart", userID)
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.fail(err)
		return err
	}
	c.mergeFetchedLocked(fetched)
	c.mu.Unlock()
	c.changed()

	if _, err := c.api.MarkRead(ctx, userID); err != nil {
		c.log.Warn("mark read failed", "counterpart", userID, "error", err)
		return nil
	}

	c.mu.Lock()
	if i, ok := c.summaryIndex(userID); ok {
		c.summaries[i].UnreadCount = 0
	}
	c.mu.Unlock()
	c.changed()
	return nil
}

// Send shows content immediately as a pending message, persists it, and on
// success swaps in the confirmed record and asks the hub to relay it. On
// failure the pending message is removed and the error returned; nothing is
// retried.
func (c *Controller) Send(ctx context.Context, content string) (LocalMessage, error) {
	c.mu.Lock()
	receiverID := c.active
	if receiverID == "" {
		c.mu.Unlock()
		return LocalMessage{}, ErrNoConversation
	}
	c.stopTypingLocked()

	pending := LocalMessage{
		TempID: "temp-" + uuid.NewString(),
		Record: models.MessageRecord{
			Sender:         c.self,
			Receiver:       models.UserRef{ID: receiverID},
			Content:        strings.TrimSpace(content),
			ConversationID: models.ConversationID(c.self.ID, receiverID),
			CreatedAt:      time.Now(),
		},
	}
	c.messages = append(c.messages, pending)
	c.mu.Unlock()
	c.changed()

	record, err := c.api.SendMessage(ctx, receiverID, content)

	c.mu.Lock()
	if err != nil {
		c.removeLocked(pending.TempID)
		c.mu.Unlock()
		c.changed()
		c.fail(err)
		return LocalMessage{}, err
	}
	confirmed := LocalMessage{Record: record}
	c.confirmLocked(pending.TempID, confirmed)
	c.upsertSummaryLocked(record.Receiver, record, false)
	c.mu.Unlock()
	c.changed()

	payload, err := json.Marshal(record)
	if err == nil {
		err = c.transport.Emit(models.EventMessageSend, models.SendPayload{ReceiverID: receiverID, Message: payload})
	}
	if err != nil {
		c.log.Warn("relay request failed, receiver will see the message on next fetch", "error", err)
	}
	return confirmed, nil
}

// HandleEvent merges one relayed event into the state.
func (c *Controller) HandleEvent(ev models.Event) {
	switch ev.Event {
	case models.EventMessageReceive:
		var record models.MessageRecord
		if err := ev.Decode(&record); err != nil {
			c.log.Warn("undecodable message dropped", "error", err)
			return
		}
		c.receive(record)

	case models.EventTypingShow, models.EventTypingHide:
		var senderID string
		if err := ev.Decode(&senderID); err != nil {
			c.log.Warn("undecodable typing event dropped", "error", err)
			return
		}
		c.mu.Lock()
		if ev.Event == models.EventTypingShow {
			c.showTypingLocked(senderID)
		} else {
			delete(c.remoteTyping, senderID)
		}
		c.mu.Unlock()

	case models.EventUserOnline, models.EventUserOffline:
		var userID string
		if err := ev.Decode(&userID); err != nil {
			c.log.Warn("undecodable presence event dropped", "error", err)
			return
		}
		c.mu.Lock()
		if ev.Event == models.EventUserOnline {
			c.online[userID] = true
		} else {
			delete(c.online, userID)
		}
		c.mu.Unlock()

	default:
		c.log.Debug("unknown event ignored", "event", ev.Event)
		return
	}
	c.changed()
}

func (c *Controller) receive(record models.MessageRecord) {
	counterpart := record.Counterpart(c.self.ID)

	c.mu.Lock()
	defer func() {
		c.mu.Unlock()
		c.changed()
	}()

	if counterpart.ID != c.active {
		if i, ok := c.summaryIndex(counterpart.ID); ok {
			if last := c.summaries[i].LastMessage; last != nil && last.ID == record.ID {
				return
			}
		}
		c.upsertSummaryLocked(counterpart, record, record.Receiver.ID == c.self.ID)
		return
	}
	if c.hasRecordLocked(record.ID) {
		return
	}
	c.messages = append(c.messages, LocalMessage{Record: record})
	sortMessages(c.messages)
	c.upsertSummaryLocked(counterpart, record, false)
}

func (c *Controller) mergeFetchedLocked(fetched []models.MessageRecord) {
	merged := lo.Map(fetched, func(r models.MessageRecord, _ int) LocalMessage { return LocalMessage{Record: r} })
	seen := lo.SliceToMap(fetched, func(r models.MessageRecord) (uint, bool) { return r.ID, true })
	for _, m := range c.messages {
		if m.Pending() || !seen[m.Record.ID] {
			merged = append(merged, m)
		}
	}
	sortMessages(merged)
	c.messages = merged
}

func (c *Controller) hasRecordLocked(id uint) bool {
	return lo.ContainsBy(c.messages, func(m LocalMessage) bool { return !m.Pending() && m.Record.ID == id })
}

// confirmLocked replaces the pending entry tempID with confirmed. When the
// durable record is already present (relayed or fetched meanwhile) the
// pending entry is just dropped. When a switch cleared the pending entry
// and its conversation is active again, the record is appended.
func (c *Controller) confirmLocked(tempID string, confirmed LocalMessage) {
	if c.hasRecordLocked(confirmed.Record.ID) {
		c.removeLocked(tempID)
		return
	}
	for i := range c.messages {
		if c.messages[i].TempID == tempID {
			c.messages[i] = confirmed
			sortMessages(c.messages)
			return
		}
	}
	if confirmed.Record.Counterpart(c.self.ID).ID == c.active {
		c.messages = append(c.messages, confirmed)
		sortMessages(c.messages)
	}
}

func (c *Controller) removeLocked(tempID string) {
	c.messages = lo.Filter(c.messages, func(m LocalMessage, _ int) bool { return m.TempID != tempID })
}

func (c *Controller) summaryIndex(userID string) (int, bool) {
	_, i, ok := lo.FindIndexOf(c.summaries, func(s models.ConversationSummary) bool { return s.User.ID == userID })
	return i, ok
}

// upsertSummaryLocked records record as the last message with counterpart
// and moves that summary to the front.
func (c *Controller) upsertSummaryLocked(counterpart models.UserRef, record models.MessageRecord, unread bool) {
	summary := models.ConversationSummary{User: counterpart}
	if i, ok := c.summaryIndex(counterpart.ID); ok {
		summary = c.summaries[i]
		c.summaries = append(c.summaries[:i], c.summaries[i+1:]...)
	}
	if summary.User.Name == "" {
		summary.User = counterpart
	}
	summary.LastMessage = &record
	if unread {
		summary.UnreadCount++
	}
	c.summaries = append([]models.ConversationSummary{summary}, c.summaries...)
}

func (c *Controller) changed() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}

func (c *Controller) fail(err error) {
	c.log.Warn("session operation failed", "error", err)
	if c.opts.OnError != nil {
		c.opts.OnError(err)
	}
}

// sortMessages orders by creation time then durable id. Pending entries
// sort after confirmed ones with the same timestamp.
func sortMessages(msgs []LocalMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		a, b := msgs[i], msgs[j]
		if !a.Record.CreatedAt.Equal(b.Record.CreatedAt) {
			return a.Record.CreatedAt.Before(b.Record.CreatedAt)
		}
		if a.Pending() != b.Pending() {
			return !a.Pending()
		}
		return a.Record.ID < b.Record.ID
	})
}

// sortSummaries puts conversations without messages first, then the rest
// by most recent message.
func sortSummaries(summaries []models.ConversationSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LastMessage, summaries[j].LastMessage
		switch {
		case a == nil || b == nil:
			return a == nil && b != nil
		case !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.After(b.CreatedAt)
		default:
			return a.ID > b.ID
		}
	})
}
