package session

import (
	"time"

	"skillnexus/backend/internal/models"
)

// Keystroke signals local typing in the active conversation. Every call
// emits typing:start and re-arms the debounce countdown; when it elapses
// without another keystroke a single typing:stop is emitted.
func (c *Controller) Keystroke() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == "" {
		return
	}

	c.typingTo = c.active
	c.typingSeq++
	seq := c.typingSeq
	c.emitTypingLocked(models.EventTypingStart, c.active)
	time.AfterFunc(c.opts.TypingDebounce, func() { c.typingElapsed(seq) })
}

func (c *Controller) typingElapsed(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.typingSeq {
		return
	}
	c.stopTypingLocked()
}

// stopTypingLocked emits typing:stop if a countdown is armed and disarms
// it. Pending timers become no-ops.
func (c *Controller) stopTypingLocked() {
	if c.typingTo == "" {
		return
	}
	to := c.typingTo
	c.typingTo = ""
	c.typingSeq++
	c.emitTypingLocked(models.EventTypingStop, to)
}

func (c *Controller) emitTypingLocked(event, receiverID string) {
	err := c.transport.Emit(event, models.TypingPayload{ReceiverID: receiverID, SenderID: c.self.ID})
	if err != nil {
		c.log.Debug("typing signal not sent", "event", event, "error", err)
	}
}

// showTypingLocked marks senderID as typing until typing:hide arrives or
// the auto-clear window passes without a new typing:show.
func (c *Controller) showTypingLocked(senderID string) {
	c.remoteSeq++
	seq := c.remoteSeq
	c.remoteTyping[senderID] = seq

	time.AfterFunc(c.opts.TypingAutoClear, func() {
		c.mu.Lock()
		cleared := c.remoteTyping[senderID] == seq
		if cleared {
			delete(c.remoteTyping, senderID)
		}
		c.mu.Unlock()
		if cleared {
			c.changed()
		}
	})
}
