package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"retrochat-service/internal/models"
	"retrochat-service/internal/observability"
	"retrochat-service/internal/store"
)

// ChannelService is the public channel engine surface.
type ChannelService interface {
	Fetch(ctx context.Context, userID string) (ChannelView, error)
	Join(ctx context.Context, user models.ChatUser) (ChannelView, error)
	Leave(ctx context.Context, userID string) error
	Send(ctx context.Context, user models.ChatUser, text string) (models.ChatMessage, error)
	Command(ctx context.Context, user models.ChatUser, text string) ([]models.ChatMessage, error)
	DeleteMessage(ctx context.Context, messageID, userID string, privileged bool) error
}

// ChannelView is the action-relevant read of the channel.
type ChannelView struct {
	Messages []models.ChatMessage `json:"messages"`
	Users    []models.ChatUser    `json:"users"`
}

// ChannelEngine runs the load -> prune -> act -> trim -> save cycle for
// the single public channel. It is stateless between requests; all state
// lives in the document store under cfg.ChannelKey.
type ChannelEngine struct {
	docs  store.DocumentStore
	cfg   Config
	locks *KeyLock
	now   func() time.Time
}

// NewChannelEngine builds a ChannelEngine.
func NewChannelEngine(docs store.DocumentStore, cfg Config) *ChannelEngine {
	return &ChannelEngine{
		docs:  docs,
		cfg:   cfg,
		locks: NewKeyLock(),
		now:   time.Now,
	}
}

func (e *ChannelEngine) load(ctx context.Context) (models.ChannelSnapshot, error) {
	var snap models.ChannelSnapshot
	found, err := e.docs.Load(ctx, e.cfg.ChannelKey, &snap)
	if err != nil {
		return models.ChannelSnapshot{}, fmt.Errorf("load channel: %w", err)
	}
	if !found {
		snap = e.cfg.DefaultChannel
	}
	return snap, nil
}

func (e *ChannelEngine) save(ctx context.Context, snap models.ChannelSnapshot) error {
	if err := e.docs.Save(ctx, e.cfg.ChannelKey, snap); err != nil {
		return fmt.Errorf("save channel: %w", err)
	}
	return nil
}

func (e *ChannelEngine) prune(snap *models.ChannelSnapshot, now time.Time) {
	var evicted []models.ChatUser
	snap.Users, snap.Messages, evicted = PruneInactive(snap.Users, snap.Messages, e.cfg.ChannelTTL, now)
	observability.AddEvictions("channel", len(evicted))
}

// Fetch is the polling read. It deliberately writes: eviction and
// trimming happen on every GET, and a caller-supplied userID acts as a
// presence heartbeat.
func (e *ChannelEngine) Fetch(ctx context.Context, userID string) (ChannelView, error) {
	unlock := e.locks.Lock(e.cfg.ChannelKey)
	defer unlock()

	snap, err := e.load(ctx)
	if err != nil {
		return ChannelView{}, err
	}

	now := e.now()
	e.prune(&snap, now)
	if user := models.FindUser(snap.Users, userID); user != nil {
		user.LastActivity = now
	}
	snap.Messages = Trim(snap.Messages, e.cfg.ChannelMaxMessages)

	if err := e.save(ctx, snap); err != nil {
		return ChannelView{}, err
	}
	return ChannelView{Messages: snap.Messages, Users: snap.Users}, nil
}

// Join upserts the user; a rejoin by the same ID replaces the record
// without a second "joined" message.
func (e *ChannelEngine) Join(ctx context.Context, user models.ChatUser) (ChannelView, error) {
	unlock := e.locks.Lock(e.cfg.ChannelKey)
	defer unlock()

	snap, err := e.load(ctx)
	if err != nil {
		return ChannelView{}, err
	}

	now := e.now()
	e.prune(&snap, now)

	user.Nickname = sanitizeText(user.Nickname, e.cfg.MaxNicknameLen)
	user.JoinTime = now
	user.LastActivity = now

	var existed bool
	snap.Users, existed = models.UpsertUser(snap.Users, user)
	if !existed {
		snap.Messages = append(snap.Messages, newSystemMessage(fmt.Sprintf("%s joined", user.Nickname), now))
	}

	snap.Messages = Trim(snap.Messages, e.cfg.ChannelMaxMessages)
	if err := e.save(ctx, snap); err != nil {
		return ChannelView{}, err
	}
	return ChannelView{Messages: snap.Messages, Users: snap.Users}, nil
}

// Leave removes the user. Leaving twice is a no-op.
func (e *ChannelEngine) Leave(ctx context.Context, userID string) error {
	unlock := e.locks.Lock(e.cfg.ChannelKey)
	defer unlock()

	snap, err := e.load(ctx)
	if err != nil {
		return err
	}

	now := e.now()
	e.prune(&snap, now)

	if user := models.FindUser(snap.Users, userID); user != nil {
		nickname := user.Nickname
		snap.Users, _ = models.RemoveUser(snap.Users, userID)
		snap.Messages = append(snap.Messages, newSystemMessage(fmt.Sprintf("%s left", nickname), now))
	}

	snap.Messages = Trim(snap.Messages, e.cfg.ChannelMaxMessages)
	return e.save(ctx, snap)
}

// Send appends one user message. A sender the channel has forgotten
// (evicted between polls) is silently re-added without a joined notice.
func (e *ChannelEngine) Send(ctx context.Context, user models.ChatUser, text string) (models.ChatMessage, error) {
	unlock := e.locks.Lock(e.cfg.ChannelKey)
	defer unlock()

	snap, err := e.load(ctx)
	if err != nil {
		return models.ChatMessage{}, err
	}

	now := e.now()
	e.prune(&snap, now)
	sender := e.touchSender(&snap, user, now)

	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    sender.ID,
		Nickname:  sender.Nickname,
		Avatar:    sender.Avatar,
		Message:   sanitizeText(text, e.cfg.MaxMessageLen),
		Timestamp: now,
		Type:      models.TypeMessage,
	}
	snap.Messages = append(snap.Messages, msg)
	observability.IncMessages("channel", models.TypeMessage)

	snap.Messages = Trim(snap.Messages, e.cfg.ChannelMaxMessages)
	if err := e.save(ctx, snap); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// Command interprets a leading-/ message. All output is persisted.
func (e *ChannelEngine) Command(ctx context.Context, user models.ChatUser, text string) ([]models.ChatMessage, error) {
	unlock := e.locks.Lock(e.cfg.ChannelKey)
	defer unlock()

	snap, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	now := e.now()
	e.prune(&snap, now)
	sender := e.touchSender(&snap, user, now)

	out := Interpret(sanitizeText(text, e.cfg.MaxMessageLen), CommandContext{
		Invoker: sender,
		Users:   snap.Users,
	}, now)
	snap.Messages = append(snap.Messages, out...)

	snap.Messages = Trim(snap.Messages, e.cfg.ChannelMaxMessages)
	if err := e.save(ctx, snap); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteMessage removes one message. Ownership is enforced unless the
// caller is privileged.
func (e *ChannelEngine) DeleteMessage(ctx context.Context, messageID, userID string, privileged bool) error {
	unlock := e.locks.Lock(e.cfg.ChannelKey)
	defer unlock()

	snap, err := e.load(ctx)
	if err != nil {
		return err
	}

	idx := models.FindMessage(snap.Messages, messageID)
	if idx < 0 {
		return ErrMessageNotFound
	}
	if !privileged && snap.Messages[idx].UserID != userID {
		return ErrNotOwner
	}

	snap.Messages = append(snap.Messages[:idx], snap.Messages[idx+1:]...)
	return e.save(ctx, snap)
}

// touchSender bumps the sender's activity, re-adding them if absent.
func (e *ChannelEngine) touchSender(snap *models.ChannelSnapshot, user models.ChatUser, now time.Time) models.ChatUser {
	if existing := models.FindUser(snap.Users, user.ID); existing != nil {
		existing.LastActivity = now
		return *existing
	}
	user.Nickname = sanitizeText(user.Nickname, e.cfg.MaxNicknameLen)
	user.JoinTime = now
	user.LastActivity = now
	snap.Users = append(snap.Users, user)
	return user
}

var _ ChannelService = (*ChannelEngine)(nil)
