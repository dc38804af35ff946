package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillnexus/backend/internal/models"
	"skillnexus/backend/internal/session"
)

const debounce = 40 * time.Millisecond

func TestKeystroke_DebounceEmitsExactlyOneStop(t *testing.T) {
	api, tr := new(MockAPI), &fakeTransport{}
	c := newController(api, tr, session.Options{TypingDebounce: debounce})
	openWith(t, c, api, bob.ID, nil)

	for i := 0; i < 5; i++ {
		c.Keystroke()
		time.Sleep(debounce / 4)
	}
	assert.Equal(t, 5, tr.count(models.EventTypingStart))
	assert.Zero(t, tr.count(models.EventTypingStop))

	require.Eventually(t, func() bool { return tr.count(models.EventTypingStop) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * debounce)
	assert.Equal(t, 1, tr.count(models.EventTypingStop))

	stop := tr.last().data.(models.TypingPayload)
	assert.Equal(t, bob.ID, stop.ReceiverID)
	assert.Equal(t, me.ID, stop.SenderID)
}

func TestKeystroke_WithoutConversationIsIgnored(t *testing.T) {
	tr := &fakeTransport{}
	c := newController(new(MockAPI), tr, session.Options{TypingDebounce: debounce})
	c.Keystroke()
	assert.Zero(t, tr.count(models.EventTypingStart))
}

func TestSwitch_StopsTypingTowardsPreviousCounterpart(t *testing.T) {
	api, tr := new(MockAPI), &fakeTransport{}
	c := newController(api, tr, session.Options{TypingDebounce: time.Hour})
	openWith(t, c, api, bob.ID, nil)

	c.Keystroke()
	openWith(t, c, api, cleo.ID, nil)

	require.Equal(t, 1, tr.count(models.EventTypingStop))
	var stop models.TypingPayload
	for _, e := range tr.events {
		if e.event == models.EventTypingStop {
			stop = e.data.(models.TypingPayload)
		}
	}
	assert.Equal(t, bob.ID, stop.ReceiverID)
}

func TestRemoteTyping_ShowHideAndAutoClear(t *testing.T) {
	c := newController(new(MockAPI), &fakeTransport{}, session.Options{TypingAutoClear: 50 * time.Millisecond})

	show, err := models.NewEvent(models.EventTypingShow, bob.ID)
	require.NoError(t, err)
	hide, err := models.NewEvent(models.EventTypingHide, bob.ID)
	require.NoError(t, err)

	c.HandleEvent(show)
	assert.True(t, c.IsTyping(bob.ID))
	c.HandleEvent(hide)
	assert.False(t, c.IsTyping(bob.ID))

	// a lost typing:hide is cleared after the auto-clear window
	c.HandleEvent(show)
	assert.True(t, c.IsTyping(bob.ID))
	assert.Eventually(t, func() bool { return !c.IsTyping(bob.ID) }, time.Second, 5*time.Millisecond)
}
