package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"retrochat-service/internal/engine"
	"retrochat-service/internal/models"
	"retrochat-service/internal/rabbitmq"
	"retrochat-service/internal/store"
	"retrochat-service/internal/telemetry"
)

type ChannelServiceMock struct {
	mock.Mock
}

func (m *ChannelServiceMock) Fetch(ctx context.Context, userID string) (engine.ChannelView, error) {
	args := m.Called(ctx, userID)
	var view engine.ChannelView
	if val := args.Get(0); val != nil {
		view = val.(engine.ChannelView)
	}
	return view, args.Error(1)
}

func (m *ChannelServiceMock) Join(ctx context.Context, user models.ChatUser) (engine.ChannelView, error) {
	args := m.Called(ctx, user)
	var view engine.ChannelView
	if val := args.Get(0); val != nil {
		view = val.(engine.ChannelView)
	}
	return view, args.Error(1)
}

func (m *ChannelServiceMock) Leave(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *ChannelServiceMock) Send(ctx context.Context, user models.ChatUser, text string) (models.ChatMessage, error) {
	args := m.Called(ctx, user, text)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *ChannelServiceMock) Command(ctx context.Context, user models.ChatUser, text string) ([]models.ChatMessage, error) {
	args := m.Called(ctx, user, text)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *ChannelServiceMock) DeleteMessage(ctx context.Context, messageID, userID string, privileged bool) error {
	args := m.Called(ctx, messageID, userID, privileged)
	return args.Error(0)
}

type RoomServiceMock struct {
	mock.Mock
}

func (m *RoomServiceMock) Fetch(ctx context.Context, roomID, userID string) (engine.RoomView, error) {
	args := m.Called(ctx, roomID, userID)
	var view engine.RoomView
	if val := args.Get(0); val != nil {
		view = val.(engine.RoomView)
	}
	return view, args.Error(1)
}

func (m *RoomServiceMock) Create(ctx context.Context, creator models.ChatUser, password string) (engine.RoomView, error) {
	args := m.Called(ctx, creator, password)
	var view engine.RoomView
	if val := args.Get(0); val != nil {
		view = val.(engine.RoomView)
	}
	return view, args.Error(1)
}

func (m *RoomServiceMock) Join(ctx context.Context, roomID string, user models.ChatUser, password string) (engine.RoomView, error) {
	args := m.Called(ctx, roomID, user, password)
	var view engine.RoomView
	if val := args.Get(0); val != nil {
		view = val.(engine.RoomView)
	}
	return view, args.Error(1)
}

func (m *RoomServiceMock) Leave(ctx context.Context, roomID, userID string) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *RoomServiceMock) Send(ctx context.Context, roomID string, user models.ChatUser, text string) (models.ChatMessage, error) {
	args := m.Called(ctx, roomID, user, text)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *RoomServiceMock) Command(ctx context.Context, roomID string, userID, text string) ([]models.ChatMessage, error) {
	args := m.Called(ctx, roomID, userID, text)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *RoomServiceMock) SetBan(ctx context.Context, roomID, targetID string, ban bool) error {
	args := m.Called(ctx, roomID, targetID, ban)
	return args.Error(0)
}

func (m *RoomServiceMock) DeleteMessage(ctx context.Context, roomID, messageID, userID string, privileged bool) error {
	args := m.Called(ctx, roomID, messageID, userID, privileged)
	return args.Error(0)
}

type DocumentStoreMock struct {
	mock.Mock
}

func (m *DocumentStoreMock) Load(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *DocumentStoreMock) Save(ctx context.Context, key string, value any) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ engine.ChannelService = (*ChannelServiceMock)(nil)
var _ engine.RoomService = (*RoomServiceMock)(nil)
var _ store.DocumentStore = (*DocumentStoreMock)(nil)
var _ rabbitmq.Publisher = (*PublisherMock)(nil)
var _ telemetry.Publisher = (*PublisherMock)(nil)
