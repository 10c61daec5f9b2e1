package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"retrochat-service/internal/engine"
	"retrochat-service/internal/middleware"
	"retrochat-service/internal/mocks"
	"retrochat-service/internal/models"
)

func setupRoomRouter(handler *RoomHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/rooms", handler.Get)
	r.POST("/api/rooms", handler.Post)
	r.DELETE("/api/rooms/messages", handler.Delete)
	r.PATCH("/api/rooms/ban", handler.Ban)
	return r
}

func TestRoomGetSuccess(t *testing.T) {
	rooms := new(mocks.RoomServiceMock)
	handler := NewRoomHandler(rooms, nil)
	router := setupRoomRouter(handler)

	rooms.On("Fetch", mock.Anything, "ABC123", "u1").Return(engine.RoomView{RoomID: "ABC123"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/rooms?roomId=ABC123&userId=u1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rooms.AssertExpectations(t)
}

func TestRoomGetUnknownRoom(t *testing.T) {
	rooms := new(mocks.RoomServiceMock)
	handler := NewRoomHandler(rooms, nil)
	router := setupRoomRouter(handler)

	rooms.On("Fetch", mock.Anything, "NOPE01", "").Return(engine.RoomView{}, engine.ErrRoomNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/rooms?roomId=NOPE01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	rooms.AssertExpectations(t)
}

func TestRoomGetMissingRoomID(t *testing.T) {
	handler := NewRoomHandler(new(mocks.RoomServiceMock), nil)
	router := setupRoomRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoomPostCreate(t *testing.T) {
	rooms := new(mocks.RoomServiceMock)
	handler := NewRoomHandler(rooms, nil)
	router := setupRoomRouter(handler)

	rooms.On("Create", mock.Anything, models.ChatUser{ID: "u1", Nickname: "alice"}, "abc").
		Return(engine.RoomView{RoomID: "XYZ789"}, nil).Once()

	body := bytes.NewBufferString(`{"action":"create_room","data":{"userId":"u1","nickname":"alice","password":"abc"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	rooms.AssertExpectations(t)
}

func TestRoomPostJoinWrongPassword(t *testing.T) {
	rooms := new(mocks.RoomServiceMock)
	handler := NewRoomHandler(rooms, nil)
	router := setupRoomRouter(handler)

	rooms.On("Join", mock.Anything, "ABC123", models.ChatUser{ID: "u2", Nickname: "bob"}, "wrong").
		Return(engine.RoomView{}, engine.ErrBadPassword).Once()

	body := bytes.NewBufferString(`{"action":"join_room","data":{"roomId":"ABC123","userId":"u2","nickname":"bob","password":"wrong"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rooms.AssertExpectations(t)
}

func TestRoomPostJoinBanned(t *testing.T) {
	rooms := new(mocks.RoomServiceMock)
	handler := NewRoomHandler(rooms, nil)
	router := setupRoomRouter(handler)

	rooms.On("Join", mock.Anything, "ABC123", models.ChatUser{ID: "u2", Nickname: "bob"}, "").
		Return(engine.RoomView{}, engine.ErrBanned).Once()

	body := bytes.NewBufferString(`{"action":"join_room","data":{"roomId":"ABC123","userId":"u2","nickname":"bob"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	rooms.AssertExpectations(t)
}

func TestRoomPostSendMessage(t *testing.T) {
	rooms := new(mocks.RoomServiceMock)
	handler := NewRoomHandler(rooms, nil)
	router := setupRoomRouter(handler)

	rooms.On("Send", mock.Anything, "ABC123", models.ChatUser{ID: "u1", Nickname: "alice"}, "hi").
		Return(models.ChatMessage{ID: "m1", Message: "hi"}, nil).Once()

	body := bytes.NewBufferString(`{"action":"send_message","data":{"roomId":"ABC123","userId":"u1","nickname":"alice","message":"hi"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	rooms.AssertExpectations(t)
}

func TestRoomPostCommand(t *testing.T) {
	rooms := new(mocks.RoomServiceMock)
	handler := NewRoomHandler(rooms, nil)
	router := setupRoomRouter(handler)

	rooms.On("Command", mock.Anything, "ABC123", "u1", "/roomid").
		Return([]models.ChatMessage{{ID: "m1", Type: models.TypeSystem}}, nil).Once()

	body := bytes.NewBufferString(`{"action":"command","data":{"roomId":"ABC123","userId":"u1","message":"/roomid"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rooms.AssertExpectations(t)
}

func TestRoomPostMissingData(t *testing.T) {
	handler := NewRoomHandler(new(mocks.RoomServiceMock), nil)
	router := setupRoomRouter(handler)

	body := bytes.NewBufferString(`{"action":"create_room"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoomDeleteOwnerMismatch(t *testing.T) {
	rooms := new(mocks.RoomServiceMock)
	handler := NewRoomHandler(rooms, nil)
	router := setupRoomRouter(handler)

	rooms.On("DeleteMessage", mock.Anything, "ABC123", "m1", "u2", false).Return(engine.ErrNotOwner).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/rooms/messages?roomId=ABC123&messageId=m1&userId=u2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	rooms.AssertExpectations(t)
}

func TestRoomBanRequiresAllFields(t *testing.T) {
	handler := NewRoomHandler(new(mocks.RoomServiceMock), nil)
	router := setupRoomRouter(handler)

	body := bytes.NewBufferString(`{"roomId":"ABC123"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/rooms/ban", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoomBanSuccess(t *testing.T) {
	rooms := new(mocks.RoomServiceMock)
	handler := NewRoomHandler(rooms, nil)
	router := setupRoomRouter(handler)

	rooms.On("SetBan", mock.Anything, "ABC123", "u2", true).Return(nil).Once()

	body := bytes.NewBufferString(`{"roomId":"ABC123","userId":"u2","ban":true}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/rooms/ban", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rooms.AssertExpectations(t)
}

func TestRoomBanGateBlocksUnprivileged(t *testing.T) {
	handler := NewRoomHandler(new(mocks.RoomServiceMock), nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.AdminDetect("secret"))
	router.PATCH("/api/rooms/ban", middleware.RequireAdmin(), handler.Ban)

	body := bytes.NewBufferString(`{"roomId":"ABC123","userId":"u2","ban":true}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/rooms/ban", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoomBanGateAllowsAdminToken(t *testing.T) {
	rooms := new(mocks.RoomServiceMock)
	handler := NewRoomHandler(rooms, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.AdminDetect("secret"))
	router.PATCH("/api/rooms/ban", middleware.RequireAdmin(), handler.Ban)

	rooms.On("SetBan", mock.Anything, "ABC123", "u2", false).Return(nil).Once()

	body := bytes.NewBufferString(`{"roomId":"ABC123","userId":"u2","ban":false}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/rooms/ban", body)
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rooms.AssertExpectations(t)
}
