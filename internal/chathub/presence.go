package chathub

import "sort"

// Directory maps user identities to their live connection handle. It holds
// at most one handle per user: a later join silently supersedes the earlier
// one. Directory is not safe for concurrent use; ManagerService owns it and
// only touches it from its Run goroutine.
//
// The directory is process-local. Several server processes do not share
// presence.
type Directory struct {
	entries map[string]Client
}

func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]Client)}
}

// Join registers c as the handle of userID and returns the handle it
// replaced, if any.
func (d *Directory) Join(userID string, c Client) Client {
	previous := d.entries[userID]
	d.entries[userID] = c
	if previous == c {
		return nil
	}
	return previous
}

// Leave removes the entry whose current handle is c. A handle that was
// already superseded is not found and nothing changes.
func (d *Directory) Leave(c Client) (string, bool) {
	for userID, current := range d.entries {
		if current == c {
			delete(d.entries, userID)
			return userID, true
		}
	}
	return "", false
}

// Resolve returns the live handle of userID.
func (d *Directory) Resolve(userID string) (Client, bool) {
	c, ok := d.entries[userID]
	return c, ok
}

// Others returns the handles of every present user except userID.
func (d *Directory) Others(userID string) []Client {
	out := make([]Client, 0, len(d.entries))
	for id, c := range d.entries {
		if id != userID {
			out = append(out, c)
		}
	}
	return out
}

// UserIDs returns the present identities, sorted.
func (d *Directory) UserIDs() []string {
	ids := make([]string, 0, len(d.entries))
	for id := range d.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (d *Directory) Len() int { return len(d.entries) }
