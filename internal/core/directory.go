package core

import (
	"time"

	"github.com/vovakirdan/roomchat-server/internal/store"
)

// UnknownNickname is shown for users missing from the directory.
const UnknownNickname = "Unknown"

// User is a directory entry. ConnectionID is empty while the user has no live connection.
type User struct {
	ID           string
	ConnectionID string
	Nickname     string
	LastSeen     time.Time
}

// Rebind describes what a SetNickname call displaced.
type Rebind struct {
	// PreviousConn is the user's former connection handle, now orphaned.
	PreviousConn string
	// DisplacedUser was bound to the connection before this call.
	DisplacedUser string
	// Created reports a first-time user.
	Created bool
}

// Directory maps durable user ids to their live connection and nickname,
// with an inverse index from connection handle to user id.
type Directory struct {
	users  map[string]*User
	byConn map[string]string
	now    func() time.Time
}

// NewDirectory builds an empty directory. A nil now uses time.Now.
func NewDirectory(now func() time.Time) *Directory {
	if now == nil {
		now = time.Now
	}
	return &Directory{
		users:  make(map[string]*User),
		byConn: make(map[string]string),
		now:    now,
	}
}

// SetNickname upserts the user and binds it to connID unconditionally.
func (d *Directory) SetNickname(userID, connID, nickname string) Rebind {
	var rb Rebind

	if owner, ok := d.byConn[connID]; ok && owner != userID {
		if prev := d.users[owner]; prev != nil && prev.ConnectionID == connID {
			prev.ConnectionID = ""
		}
		rb.DisplacedUser = owner
	}

	u, ok := d.users[userID]
	if !ok {
		u = &User{ID: userID}
		d.users[userID] = u
		rb.Created = true
	}
	if u.ConnectionID != "" && u.ConnectionID != connID {
		rb.PreviousConn = u.ConnectionID
		delete(d.byConn, u.ConnectionID)
	}

	u.ConnectionID = connID
	u.Nickname = nickname
	u.LastSeen = d.now()
	d.byConn[connID] = userID
	return rb
}

// Resolve returns the user currently bound to connID.
func (d *Directory) Resolve(connID string) (string, bool) {
	userID, ok := d.byConn[connID]
	return userID, ok
}

// MarkDisconnected stamps lastSeen for the owner of connID and unbinds the handle.
// The user record is kept.
func (d *Directory) MarkDisconnected(connID string) (string, bool) {
	userID, ok := d.byConn[connID]
	if !ok {
		return "", false
	}
	delete(d.byConn, connID)
	if u := d.users[userID]; u != nil {
		u.ConnectionID = ""
		u.LastSeen = d.now()
	}
	return userID, true
}

// NicknameOf returns the nickname of userID or UnknownNickname.
func (d *Directory) NicknameOf(userID string) string {
	if u, ok := d.users[userID]; ok {
		return u.Nickname
	}
	return UnknownNickname
}

// ConnectionOf returns the current connection handle of userID, if any.
func (d *Directory) ConnectionOf(userID string) string {
	if u, ok := d.users[userID]; ok {
		return u.ConnectionID
	}
	return ""
}

// Lookup returns a copy of the user record.
func (d *Directory) Lookup(userID string) (User, bool) {
	u, ok := d.users[userID]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// Len returns the number of known users.
func (d *Directory) Len() int {
	return len(d.users)
}

// Records returns the persisted form of the directory.
func (d *Directory) Records() map[string]store.UserRecord {
	out := make(map[string]store.UserRecord, len(d.users))
	for id, u := range d.users {
		out[id] = store.UserRecord{
			SocketID: u.ConnectionID,
			Nickname: u.Nickname,
			LastSeen: FormatTime(u.LastSeen),
		}
	}
	return out
}

// Restore replaces the directory with persisted records. Connection handles
// from a previous process are dead, so restored users start unbound.
func (d *Directory) Restore(records map[string]store.UserRecord) {
	d.users = make(map[string]*User, len(records))
	d.byConn = make(map[string]string)

	for id, r := range records {
		d.users[id] = &User{
			ID:       id,
			Nickname: r.Nickname,
			LastSeen: parseTime(r.LastSeen),
		}
	}
}
