package engine

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retrochat-service/internal/models"
	"retrochat-service/internal/store"
)

func newTestRoomEngine(now time.Time) (*RoomEngine, *store.MemoryStore) {
	docs := store.NewMemoryStore()
	engine := NewRoomEngine(docs, DefaultConfig())
	engine.now = func() time.Time { return now }
	return engine, docs
}

var creator = models.ChatUser{ID: "u1", Nickname: "alice", Avatar: ":-)"}

func TestRandomRoomIDShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	for i := 0; i < 100; i++ {
		assert.Regexp(t, pattern, randomRoomID())
	}
}

func TestCreateRoomSeedsCreatorAndSystemMessage(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())

	view, err := engine.Create(context.Background(), creator, "abc")
	require.NoError(t, err)

	assert.Regexp(t, `^[A-Z0-9]{6}$`, view.RoomID)
	require.Len(t, view.Users, 1)
	assert.Equal(t, "u1", view.Users[0].ID)
	require.Len(t, view.Messages, 1)
	assert.Equal(t, models.TypeSystem, view.Messages[0].Type)
}

func TestCreateRoomRerollsOnCollision(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())
	ctx := context.Background()

	first, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)

	ids := []string{first.RoomID, first.RoomID, "ZZZZZ9"}
	engine.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	second, err := engine.Create(ctx, models.ChatUser{ID: "u2", Nickname: "bob"}, "")
	require.NoError(t, err)
	assert.Equal(t, "ZZZZZ9", second.RoomID)
}

func TestJoinRoomPasswordFlow(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "abc")
	require.NoError(t, err)
	roomID := created.RoomID

	bob := models.ChatUser{ID: "u2", Nickname: "bob"}

	_, err = engine.Join(ctx, roomID, bob, "wrong")
	assert.ErrorIs(t, err, ErrBadPassword)

	// denial must not have mutated the room
	view, err := engine.Fetch(ctx, roomID, "")
	require.NoError(t, err)
	assert.Len(t, view.Users, 1)
	assert.Len(t, view.Messages, 1)

	view, err = engine.Join(ctx, roomID, bob, "abc")
	require.NoError(t, err)
	assert.Len(t, view.Users, 2)
	require.Len(t, view.Messages, 2)
	assert.Equal(t, "bob joined", view.Messages[1].Message)
}

func TestJoinUnknownRoom(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())

	_, err := engine.Join(context.Background(), "NOPE01", creator, "")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRejoinReplacesUserWithoutSecondAnnouncement(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)

	view, err := engine.Join(ctx, created.RoomID, models.ChatUser{ID: "u1", Nickname: "alice-two"}, "")
	require.NoError(t, err)

	require.Len(t, view.Users, 1)
	assert.Equal(t, "alice-two", view.Users[0].Nickname)
	assert.Len(t, view.Messages, 1)
}

func TestBannedUserCannotJoin(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)
	roomID := created.RoomID

	_, err = engine.Join(ctx, roomID, models.ChatUser{ID: "u2", Nickname: "bob"}, "")
	require.NoError(t, err)

	require.NoError(t, engine.SetBan(ctx, roomID, "u2", true))

	view, err := engine.Fetch(ctx, roomID, "")
	require.NoError(t, err)
	assert.Len(t, view.Users, 1)

	_, err = engine.Join(ctx, roomID, models.ChatUser{ID: "u2", Nickname: "bob"}, "")
	assert.ErrorIs(t, err, ErrBanned)
}

func TestUnbanRemovesOnlyTargetAndDoesNotRestore(t *testing.T) {
	engine, docs := newTestRoomEngine(time.Now())
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)
	roomID := created.RoomID

	require.NoError(t, engine.SetBan(ctx, roomID, "u2", true))
	require.NoError(t, engine.SetBan(ctx, roomID, "u3", true))
	require.NoError(t, engine.SetBan(ctx, roomID, "u2", false))

	set := models.RoomSet{}
	found, err := docs.Load(ctx, DefaultConfig().RoomSetKey, &set)
	require.NoError(t, err)
	require.True(t, found)

	room := set[roomID]
	require.NotNil(t, room)
	assert.Equal(t, []string{"u3"}, room.BannedUsers)
	assert.Nil(t, models.FindUser(room.Users, "u2"))

	_, err = engine.Join(ctx, roomID, models.ChatUser{ID: "u2", Nickname: "bob"}, "")
	assert.NoError(t, err)
}

func TestBannedUserCannotSend(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)

	_, err = engine.Join(ctx, created.RoomID, models.ChatUser{ID: "u2", Nickname: "bob"}, "")
	require.NoError(t, err)
	require.NoError(t, engine.SetBan(ctx, created.RoomID, "u2", true))

	_, err = engine.Send(ctx, created.RoomID, models.ChatUser{ID: "u2", Nickname: "bob"}, "hi")
	assert.ErrorIs(t, err, ErrBanned)
}

func TestSendRequiresMembership(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)

	_, err = engine.Send(ctx, created.RoomID, models.ChatUser{ID: "stranger", Nickname: "x"}, "hi")
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestRoomMessagesNeverExceedCap(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)

	var lastID string
	for i := 0; i < 205; i++ {
		msg, err := engine.Send(ctx, created.RoomID, creator, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
		lastID = msg.ID
	}

	view, err := engine.Fetch(ctx, created.RoomID, "")
	require.NoError(t, err)
	assert.Len(t, view.Messages, DefaultConfig().RoomMaxMessages)
	assert.Equal(t, lastID, view.Messages[len(view.Messages)-1].ID)
}

func TestLeaveIsIdempotent(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)

	require.NoError(t, engine.Leave(ctx, created.RoomID, "u1"))
	require.NoError(t, engine.Leave(ctx, created.RoomID, "u1"))

	view, err := engine.Fetch(ctx, created.RoomID, "")
	require.NoError(t, err)
	assert.Empty(t, view.Users)
	// create + one left message
	assert.Len(t, view.Messages, 2)
}

func TestSweepDeletesEmptyStaleRoom(t *testing.T) {
	start := time.Now()
	engine, _ := newTestRoomEngine(start)
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)
	require.NoError(t, engine.Leave(ctx, created.RoomID, "u1"))

	// another write 25h later sweeps the empty room
	engine.now = func() time.Time { return start.Add(25 * time.Hour) }
	_, err = engine.Create(ctx, models.ChatUser{ID: "u9", Nickname: "zed"}, "")
	require.NoError(t, err)

	_, err = engine.Fetch(ctx, created.RoomID, "")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSweepKeepsOccupiedRoom(t *testing.T) {
	start := time.Now()
	engine, _ := newTestRoomEngine(start)
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)

	engine.now = func() time.Time { return start.Add(25 * time.Hour) }
	_, err = engine.Create(ctx, models.ChatUser{ID: "u9", Nickname: "zed"}, "")
	require.NoError(t, err)

	// the creator idled out long ago, but presence pruning only runs on
	// writes targeting the room itself; the sweep sees a non-empty room
	_, err = engine.Fetch(ctx, created.RoomID, "")
	assert.NoError(t, err)
}

func TestRoomCommandMeAndRoomID(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)

	out, err := engine.Command(ctx, created.RoomID, "u1", "/me waves")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, models.TypeAction, out[0].Type)
	assert.Equal(t, "u1", out[0].UserID)
	assert.Equal(t, "alice", out[0].Nickname)

	out, err = engine.Command(ctx, created.RoomID, "u1", "/roomid")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Message, created.RoomID)

	view, err := engine.Fetch(ctx, created.RoomID, "")
	require.NoError(t, err)
	// create + /me + /roomid all persisted
	assert.Len(t, view.Messages, 3)
}

func TestRoomCommandRequiresMembership(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)

	_, err = engine.Command(ctx, created.RoomID, "stranger", "/help")
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestRoomDeleteMessageOwnership(t *testing.T) {
	engine, _ := newTestRoomEngine(time.Now())
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)

	msg, err := engine.Send(ctx, created.RoomID, creator, "mine")
	require.NoError(t, err)

	assert.ErrorIs(t, engine.DeleteMessage(ctx, created.RoomID, msg.ID, "u2", false), ErrNotOwner)
	require.NoError(t, engine.DeleteMessage(ctx, created.RoomID, msg.ID, "u2", true))
	assert.ErrorIs(t, engine.DeleteMessage(ctx, created.RoomID, msg.ID, "u1", false), ErrMessageNotFound)
}

func TestRoomFetchHeartbeatKeepsUserAlive(t *testing.T) {
	start := time.Now()
	engine, _ := newTestRoomEngine(start)
	ctx := context.Background()

	created, err := engine.Create(ctx, creator, "")
	require.NoError(t, err)

	engine.now = func() time.Time { return start.Add(8 * time.Minute) }
	_, err = engine.Fetch(ctx, created.RoomID, "u1")
	require.NoError(t, err)

	// the heartbeat at +8m keeps u1 inside the 10m TTL at +15m
	engine.now = func() time.Time { return start.Add(15 * time.Minute) }
	view, err := engine.Join(ctx, created.RoomID, models.ChatUser{ID: "u2", Nickname: "bob"}, "")
	require.NoError(t, err)
	assert.NotNil(t, models.FindUser(view.Users, "u1"))
}
