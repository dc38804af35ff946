package chathub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"skillnexus/backend/internal/chathub"
)

func TestDirectory_JoinResolve(t *testing.T) {
	dir := chathub.NewDirectory()
	a := newMockClient("A")

	assert.Nil(t, dir.Join("A", a))

	got, ok := dir.Resolve("A")
	assert.True(t, ok)
	assert.Same(t, a, got)

	_, ok = dir.Resolve("B")
	assert.False(t, ok)
}

func TestDirectory_LastJoinWins(t *testing.T) {
	dir := chathub.NewDirectory()
	h1 := newMockClient("A")
	h2 := newMockClient("A")

	dir.Join("A", h1)
	previous := dir.Join("A", h2)
	assert.Same(t, h1, previous)

	got, _ := dir.Resolve("A")
	assert.Same(t, h2, got)

	// leaving with the superseded handle changes nothing
	_, ok := dir.Leave(h1)
	assert.False(t, ok)
	got, ok = dir.Resolve("A")
	assert.True(t, ok)
	assert.Same(t, h2, got)

	userID, ok := dir.Leave(h2)
	assert.True(t, ok)
	assert.Equal(t, "A", userID)
	assert.Equal(t, 0, dir.Len())
}

func TestDirectory_RejoinSameHandle(t *testing.T) {
	dir := chathub.NewDirectory()
	a := newMockClient("A")
	dir.Join("A", a)
	assert.Nil(t, dir.Join("A", a))
	assert.Equal(t, 1, dir.Len())
}

func TestDirectory_OthersAndUserIDs(t *testing.T) {
	dir := chathub.NewDirectory()
	dir.Join("B", newMockClient("B"))
	dir.Join("A", newMockClient("A"))
	dir.Join("C", newMockClient("C"))

	assert.Equal(t, []string{"A", "B", "C"}, dir.UserIDs())
	assert.Len(t, dir.Others("A"), 2)
	assert.Len(t, dir.Others("Z"), 3)
}
