package engine

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	"retrochat-service/internal/models"
	"retrochat-service/internal/observability"
	"retrochat-service/internal/store"
)

// RoomService is the private multi-room engine surface.
type RoomService interface {
	Fetch(ctx context.Context, roomID, userID string) (RoomView, error)
	Create(ctx context.Context, creator models.ChatUser, password string) (RoomView, error)
	Join(ctx context.Context, roomID string, user models.ChatUser, password string) (RoomView, error)
	Leave(ctx context.Context, roomID, userID string) error
	Send(ctx context.Context, roomID string, user models.ChatUser, text string) (models.ChatMessage, error)
	Command(ctx context.Context, roomID string, userID, text string) ([]models.ChatMessage, error)
	SetBan(ctx context.Context, roomID, targetID string, ban bool) error
	DeleteMessage(ctx context.Context, roomID, messageID, userID string, privileged bool) error
}

// RoomView is the action-relevant read of one room.
type RoomView struct {
	RoomID   string               `json:"roomId"`
	Messages []models.ChatMessage `json:"messages"`
	Users    []models.ChatUser    `json:"users"`
}

const roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const roomIDLength = 6

// RoomEngine runs the request cycle for the whole room set, persisted as
// one document under cfg.RoomSetKey. Every write also sweeps empty rooms
// whose last activity is older than cfg.RoomStaleAfter.
type RoomEngine struct {
	docs  store.DocumentStore
	cfg   Config
	locks *KeyLock
	now   func() time.Time
	newID func() string
}

// NewRoomEngine builds a RoomEngine.
func NewRoomEngine(docs store.DocumentStore, cfg Config) *RoomEngine {
	return &RoomEngine{
		docs:  docs,
		cfg:   cfg,
		locks: NewKeyLock(),
		now:   time.Now,
		newID: randomRoomID,
	}
}

func randomRoomID() string {
	buf := make([]byte, roomIDLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("room id entropy: %v", err))
	}
	for i, b := range buf {
		buf[i] = roomIDAlphabet[int(b)%len(roomIDAlphabet)]
	}
	return string(buf)
}

func (e *RoomEngine) load(ctx context.Context) (models.RoomSet, error) {
	set := models.RoomSet{}
	if _, err := e.docs.Load(ctx, e.cfg.RoomSetKey, &set); err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	return set, nil
}

func (e *RoomEngine) save(ctx context.Context, set models.RoomSet) error {
	if err := e.docs.Save(ctx, e.cfg.RoomSetKey, set); err != nil {
		return fmt.Errorf("save rooms: %w", err)
	}
	return nil
}

// sweep deletes rooms that are empty and past the stale window. There is
// no explicit room delete; this is the only way a room dies.
func (e *RoomEngine) sweep(set models.RoomSet, now time.Time) {
	swept := 0
	for id, room := range set {
		if len(room.Users) == 0 && now.Sub(room.LastActivityAt()) > e.cfg.RoomStaleAfter {
			delete(set, id)
			swept++
		}
	}
	observability.AddRoomsSwept(swept)
}

func (e *RoomEngine) prune(room *models.Room, now time.Time) {
	var evicted []models.ChatUser
	room.Users, room.Messages, evicted = PruneInactive(room.Users, room.Messages, e.cfg.RoomTTL, now)
	observability.AddEvictions("room", len(evicted))
}

// Fetch is the polling read for one room. A caller-supplied userID acts
// as a presence heartbeat; eviction itself waits for the next write.
func (e *RoomEngine) Fetch(ctx context.Context, roomID, userID string) (RoomView, error) {
	unlock := e.locks.Lock(e.cfg.RoomSetKey)
	defer unlock()

	set, err := e.load(ctx)
	if err != nil {
		return RoomView{}, err
	}
	room, ok := set[roomID]
	if !ok {
		return RoomView{}, ErrRoomNotFound
	}

	if user := models.FindUser(room.Users, userID); user != nil {
		user.LastActivity = e.now()
		if err := e.save(ctx, set); err != nil {
			return RoomView{}, err
		}
	}
	return roomView(room), nil
}

// Create generates a collision-free 6-char ID and seeds the room with
// its creator and one system message.
func (e *RoomEngine) Create(ctx context.Context, creator models.ChatUser, password string) (RoomView, error) {
	unlock := e.locks.Lock(e.cfg.RoomSetKey)
	defer unlock()

	set, err := e.load(ctx)
	if err != nil {
		return RoomView{}, err
	}

	now := e.now()
	e.sweep(set, now)

	var id string
	for {
		id = e.newID()
		if _, taken := set[id]; !taken {
			break
		}
	}

	creator.Nickname = sanitizeText(creator.Nickname, e.cfg.MaxNicknameLen)
	creator.JoinTime = now
	creator.LastActivity = now

	room := &models.Room{
		ID:        id,
		Password:  password,
		Creator:   creator.ID,
		CreatedAt: now,
		Messages:  []models.ChatMessage{newSystemMessage(fmt.Sprintf("Room created by %s", creator.Nickname), now)},
		Users:     []models.ChatUser{creator},
	}
	set[id] = room

	if err := e.save(ctx, set); err != nil {
		return RoomView{}, err
	}
	observability.IncRoomsCreated()
	return roomView(room), nil
}

// Join gates on password and ban list before touching the room. A rejoin
// by the same ID replaces the user record without a second "joined"
// message.
func (e *RoomEngine) Join(ctx context.Context, roomID string, user models.ChatUser, password string) (RoomView, error) {
	unlock := e.locks.Lock(e.cfg.RoomSetKey)
	defer unlock()

	set, err := e.load(ctx)
	if err != nil {
		return RoomView{}, err
	}

	now := e.now()
	e.sweep(set, now)

	room, ok := set[roomID]
	if !ok {
		return RoomView{}, ErrRoomNotFound
	}
	if room.Password != "" && password != room.Password {
		return RoomView{}, ErrBadPassword
	}
	if room.IsBanned(user.ID) {
		return RoomView{}, ErrBanned
	}

	e.prune(room, now)

	user.Nickname = sanitizeText(user.Nickname, e.cfg.MaxNicknameLen)
	user.JoinTime = now
	user.LastActivity = now

	var existed bool
	room.Users, existed = models.UpsertUser(room.Users, user)
	if !existed {
		room.Messages = append(room.Messages, newSystemMessage(fmt.Sprintf("%s joined", user.Nickname), now))
	}

	room.Messages = Trim(room.Messages, e.cfg.RoomMaxMessages)
	if err := e.save(ctx, set); err != nil {
		return RoomView{}, err
	}
	return roomView(room), nil
}

// Leave removes the user. The room itself lingers until the sweep window
// passes, so a briefly empty room can be rejoined.
func (e *RoomEngine) Leave(ctx context.Context, roomID, userID string) error {
	unlock := e.locks.Lock(e.cfg.RoomSetKey)
	defer unlock()

	set, err := e.load(ctx)
	if err != nil {
		return err
	}

	now := e.now()
	e.sweep(set, now)

	room, ok := set[roomID]
	if !ok {
		return ErrRoomNotFound
	}

	e.prune(room, now)

	if user := models.FindUser(room.Users, userID); user != nil {
		nickname := user.Nickname
		room.Users, _ = models.RemoveUser(room.Users, userID)
		room.Messages = append(room.Messages, newSystemMessage(fmt.Sprintf("%s left", nickname), now))
	}

	room.Messages = Trim(room.Messages, e.cfg.RoomMaxMessages)
	return e.save(ctx, set)
}

// Send appends one user message. Unlike the channel, rooms are gated:
// the sender must have joined and must not be banned.
func (e *RoomEngine) Send(ctx context.Context, roomID string, user models.ChatUser, text string) (models.ChatMessage, error) {
	unlock := e.locks.Lock(e.cfg.RoomSetKey)
	defer unlock()

	set, err := e.load(ctx)
	if err != nil {
		return models.ChatMessage{}, err
	}

	now := e.now()
	e.sweep(set, now)

	room, ok := set[roomID]
	if !ok {
		return models.ChatMessage{}, ErrRoomNotFound
	}
	if room.IsBanned(user.ID) {
		return models.ChatMessage{}, ErrBanned
	}

	e.prune(room, now)

	sender := models.FindUser(room.Users, user.ID)
	if sender == nil {
		return models.ChatMessage{}, ErrNotInRoom
	}
	sender.LastActivity = now

	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    sender.ID,
		Nickname:  sender.Nickname,
		Avatar:    sender.Avatar,
		Message:   sanitizeText(text, e.cfg.MaxMessageLen),
		Timestamp: now,
		Type:      models.TypeMessage,
	}
	room.Messages = append(room.Messages, msg)
	observability.IncMessages("room", models.TypeMessage)

	room.Messages = Trim(room.Messages, e.cfg.RoomMaxMessages)
	if err := e.save(ctx, set); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// Command interprets a leading-/ message for a room member.
func (e *RoomEngine) Command(ctx context.Context, roomID string, userID, text string) ([]models.ChatMessage, error) {
	unlock := e.locks.Lock(e.cfg.RoomSetKey)
	defer unlock()

	set, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	now := e.now()
	e.sweep(set, now)

	room, ok := set[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.IsBanned(userID) {
		return nil, ErrBanned
	}

	e.prune(room, now)

	invoker := models.FindUser(room.Users, userID)
	if invoker == nil {
		return nil, ErrNotInRoom
	}
	invoker.LastActivity = now

	out := Interpret(sanitizeText(text, e.cfg.MaxMessageLen), CommandContext{
		Invoker: *invoker,
		Users:   room.Users,
		RoomID:  roomID,
	}, now)
	room.Messages = append(room.Messages, out...)

	room.Messages = Trim(room.Messages, e.cfg.RoomMaxMessages)
	if err := e.save(ctx, set); err != nil {
		return nil, err
	}
	return out, nil
}

// SetBan toggles ban-list membership. Banning force-removes the target
// from the room; unbanning only clears the list entry and does not
// restore them.
func (e *RoomEngine) SetBan(ctx context.Context, roomID, targetID string, ban bool) error {
	unlock := e.locks.Lock(e.cfg.RoomSetKey)
	defer unlock()

	set, err := e.load(ctx)
	if err != nil {
		return err
	}

	now := e.now()
	e.sweep(set, now)

	room, ok := set[roomID]
	if !ok {
		return ErrRoomNotFound
	}

	if ban {
		if !room.IsBanned(targetID) {
			room.BannedUsers = append(room.BannedUsers, targetID)
		}
		nickname := targetID
		if user := models.FindUser(room.Users, targetID); user != nil {
			nickname = user.Nickname
		}
		room.Users, _ = models.RemoveUser(room.Users, targetID)
		room.Messages = append(room.Messages, newSystemMessage(fmt.Sprintf("%s was banned", nickname), now))
		room.Messages = Trim(room.Messages, e.cfg.RoomMaxMessages)
	} else {
		for i, id := range room.BannedUsers {
			if id == targetID {
				room.BannedUsers = append(room.BannedUsers[:i], room.BannedUsers[i+1:]...)
				break
			}
		}
	}

	return e.save(ctx, set)
}

// DeleteMessage removes one message from a room log. Ownership is
// enforced unless the caller is privileged.
func (e *RoomEngine) DeleteMessage(ctx context.Context, roomID, messageID, userID string, privileged bool) error {
	unlock := e.locks.Lock(e.cfg.RoomSetKey)
	defer unlock()

	set, err := e.load(ctx)
	if err != nil {
		return err
	}

	now := e.now()
	e.sweep(set, now)

	room, ok := set[roomID]
	if !ok {
		return ErrRoomNotFound
	}

	idx := models.FindMessage(room.Messages, messageID)
	if idx < 0 {
		return ErrMessageNotFound
	}
	if !privileged && room.Messages[idx].UserID != userID {
		return ErrNotOwner
	}

	room.Messages = append(room.Messages[:idx], room.Messages[idx+1:]...)
	return e.save(ctx, set)
}

func roomView(room *models.Room) RoomView {
	return RoomView{RoomID: room.ID, Messages: room.Messages, Users: room.Users}
}

var _ RoomService = (*RoomEngine)(nil)
