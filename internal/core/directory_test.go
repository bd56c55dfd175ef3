package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDirectorySetNicknameBindsConnection(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d := NewDirectory(fixedClock(now))

	rb := d.SetNickname("u1", "c1", "Alice")
	assert.True(t, rb.Created)
	assert.Empty(t, rb.PreviousConn)

	userID, ok := d.Resolve("c1")
	require.True(t, ok)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "Alice", d.NicknameOf("u1"))
	assert.Equal(t, "c1", d.ConnectionOf("u1"))

	u, ok := d.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, now, u.LastSeen)
}

func TestDirectoryRebindOrphansPreviousConnection(t *testing.T) {
	d := NewDirectory(nil)
	d.SetNickname("u1", "c1", "Alice")

	rb := d.SetNickname("u1", "c2", "Alice")
	assert.False(t, rb.Created)
	assert.Equal(t, "c1", rb.PreviousConn)

	_, ok := d.Resolve("c1")
	assert.False(t, ok, "old handle must not resolve")
	userID, ok := d.Resolve("c2")
	require.True(t, ok)
	assert.Equal(t, "u1", userID)
}

func TestDirectoryConnectionTakenByAnotherUser(t *testing.T) {
	d := NewDirectory(nil)
	d.SetNickname("u1", "c1", "Alice")

	rb := d.SetNickname("u2", "c1", "Bob")
	assert.Equal(t, "u1", rb.DisplacedUser)
	assert.Empty(t, d.ConnectionOf("u1"))

	userID, ok := d.Resolve("c1")
	require.True(t, ok)
	assert.Equal(t, "u2", userID)
}

func TestDirectoryMarkDisconnectedKeepsUser(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := start
	d := NewDirectory(func() time.Time { return now })
	d.SetNickname("u1", "c1", "Alice")

	now = start.Add(time.Minute)
	userID, ok := d.MarkDisconnected("c1")
	require.True(t, ok)
	assert.Equal(t, "u1", userID)

	u, ok := d.Lookup("u1")
	require.True(t, ok)
	assert.Empty(t, u.ConnectionID)
	assert.Equal(t, now, u.LastSeen)
	assert.Equal(t, "Alice", u.Nickname)

	_, ok = d.MarkDisconnected("c1")
	assert.False(t, ok)
}

func TestDirectoryUnknownUser(t *testing.T) {
	d := NewDirectory(nil)
	assert.Equal(t, UnknownNickname, d.NicknameOf("ghost"))
	assert.Empty(t, d.ConnectionOf("ghost"))
}

func TestDirectoryRecordsRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d := NewDirectory(fixedClock(now))
	d.SetNickname("u1", "c1", "Alice")
	d.SetNickname("u2", "c2", "Bob")
	d.MarkDisconnected("c2")

	records := d.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "c1", records["u1"].SocketID)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", records["u1"].LastSeen)
	assert.Empty(t, records["u2"].SocketID)

	restored := NewDirectory(nil)
	restored.Restore(records)
	assert.Equal(t, 2, restored.Len())
	assert.Equal(t, "Alice", restored.NicknameOf("u1"))
	assert.Empty(t, restored.ConnectionOf("u1"), "restored users start unbound")
	_, ok := restored.Resolve("c1")
	assert.False(t, ok)

	u, _ := restored.Lookup("u1")
	assert.True(t, u.LastSeen.Equal(now))
}
