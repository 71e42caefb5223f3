package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"PonyExpress/server/internal/models"
	"PonyExpress/server/internal/services"
	"PonyExpress/server/internal/storage/memory"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

type apiFixture struct {
	store  *memory.Store
	router chi.Router
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	clock := clockwork.NewRealClock()
	users := services.NewUserService(store, clock)
	chats := services.NewChatService(store, clock)
	h := New(users, chats, testSecret, time.Hour)
	return &apiFixture{store: store, router: h.Router()}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target))
}

func (f *apiFixture) registerUser(t *testing.T, username string) *models.User {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		User models.User `json:"user"`
	}
	decode(t, rec, &resp)
	return &resp.User
}

func (f *apiFixture) tokenFor(t *testing.T, userID int) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func (f *apiFixture) seedChat(t *testing.T, name string, ownerID int, memberIDs ...int) *models.Chat {
	t.Helper()
	chat := &models.Chat{Name: name, OwnerID: ownerID, CreatedAt: time.Now()}
	require.NoError(t, f.store.CreateChat(context.Background(), chat))
	for _, id := range memberIDs {
		f.store.SeedMember(chat.ID, id)
	}
	return chat
}

type errorDetail struct {
	Detail struct {
		Type       string `json:"type"`
		EntityName string `json:"entity_name"`
		EntityID   any    `json:"entity_id"`
	} `json:"detail"`
}

func fmtID(chat *models.Chat, rest string) string {
	return "/chats/" + strconv.Itoa(chat.ID) + rest
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAPI(t)

	rec := f.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "ripley",
		"email":    "ripley@example.com",
		"password": "nostromo",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	t.Run("duplicate registration", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/register", "", map[string]string{
			"username": "ripley",
			"email":    "other@example.com",
			"password": "pw",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var detail errorDetail
		decode(t, rec, &detail)
		assert.Equal(t, "duplicate_entity", detail.Detail.Type)
		assert.Equal(t, "User", detail.Detail.EntityName)
		assert.Equal(t, "ripley", detail.Detail.EntityID)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/login", "", map[string]string{
			"email":    "ripley@example.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("login then whoami", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/login", "", map[string]string{
			"email":    "ripley@example.com",
			"password": "nostromo",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var login struct {
			Token string `json:"token"`
		}
		decode(t, rec, &login)
		require.NotEmpty(t, login.Token)

		rec = f.do(t, http.MethodGet, "/users/me", login.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var me struct {
			User models.User `json:"user"`
		}
		decode(t, rec, &me)
		assert.Equal(t, "ripley", me.User.Username)
	})
}

func TestGetUsers_Public(t *testing.T) {
	f := newAPI(t)
	f.registerUser(t, "bravo")
	f.registerUser(t, "alpha")

	rec := f.do(t, http.MethodGet, "/users", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.UserCollection
	decode(t, rec, &resp)
	assert.Equal(t, 2, resp.Meta.Count)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, "bravo", resp.Users[0].Username)
	assert.Equal(t, "alpha", resp.Users[1].Username)
}

func TestGetUser_NotFound(t *testing.T) {
	f := newAPI(t)

	rec := f.do(t, http.MethodGet, "/users/999", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var detail errorDetail
	decode(t, rec, &detail)
	assert.Equal(t, "entity_not_found", detail.Detail.Type)
	assert.Equal(t, "User", detail.Detail.EntityName)
	assert.Equal(t, float64(999), detail.Detail.EntityID)

	t.Run("malformed id", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/users/abc", "", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)

		var detail errorDetail
		decode(t, rec, &detail)
		assert.Equal(t, "abc", detail.Detail.EntityID)
	})
}

func TestChatLifecycle(t *testing.T) {
	f := newAPI(t)
	owner := f.registerUser(t, "owner")
	alice := f.registerUser(t, "alice")
	bob := f.registerUser(t, "bob")
	chat := f.seedChat(t, "sensory apparatus", owner.ID, alice.ID, bob.ID)

	ownerToken := f.tokenFor(t, owner.ID)
	aliceToken := f.tokenFor(t, alice.ID)

	t.Run("member lists chat users", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, fmtID(chat, "/users"), aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp models.UserCollection
		decode(t, rec, &resp)
		assert.Equal(t, 2, resp.Meta.Count)
		require.Len(t, resp.Users, 2)
		assert.Equal(t, alice.ID, resp.Users[0].ID)
		assert.Equal(t, bob.ID, resp.Users[1].ID)
	})

	t.Run("non-owner rename forbidden", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, fmtID(chat, ""), aliceToken, map[string]string{"name": "phenotype"})
		require.Equal(t, http.StatusForbidden, rec.Code)

		var resp struct {
			Error string `json:"error"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, "no_permission", resp.Error)
	})

	t.Run("owner renames", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, fmtID(chat, ""), ownerToken, map[string]string{"name": "phenotype"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = f.do(t, http.MethodGet, fmtID(chat, ""), aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp models.ChatResponse
		decode(t, rec, &resp)
		assert.Equal(t, "phenotype", resp.Chat.Name)
		assert.Equal(t, 2, resp.Meta.UserCount)
		require.NotNil(t, resp.Chat.Owner)
		assert.Equal(t, owner.ID, resp.Chat.Owner.ID)
	})

	t.Run("owner deletes, then 404", func(t *testing.T) {
		rec := f.do(t, http.MethodDelete, fmtID(chat, ""), ownerToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = f.do(t, http.MethodGet, fmtID(chat, ""), aliceToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)

		var detail errorDetail
		decode(t, rec, &detail)
		assert.Equal(t, "entity_not_found", detail.Detail.Type)
		assert.Equal(t, "Chat", detail.Detail.EntityName)
		assert.Equal(t, float64(chat.ID), detail.Detail.EntityID)
	})
}

func TestChatInclude(t *testing.T) {
	f := newAPI(t)
	owner := f.registerUser(t, "owner")
	alice := f.registerUser(t, "alice")
	chat := f.seedChat(t, "commons", owner.ID, alice.ID)
	aliceToken := f.tokenFor(t, alice.ID)

	rec := f.do(t, http.MethodPost, fmtID(chat, "/messages"), aliceToken, map[string]string{"text": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("bare", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, fmtID(chat, ""), aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), `"messages"`)
		assert.NotContains(t, rec.Body.String(), `"users"`)
	})

	t.Run("include both", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, fmtID(chat, "")+"?include=messages,users", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp models.ChatResponse
		decode(t, rec, &resp)
		require.Len(t, resp.Messages, 1)
		assert.Equal(t, "hello", resp.Messages[0].Text)
		require.Len(t, resp.Users, 1)
		assert.Equal(t, alice.ID, resp.Users[0].ID)
	})
}

func TestCreateMessageEndpoint(t *testing.T) {
	f := newAPI(t)
	owner := f.registerUser(t, "owner")
	alice := f.registerUser(t, "alice")
	chat := f.seedChat(t, "commons", owner.ID, alice.ID)

	t.Run("member posts", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, fmtID(chat, "/messages"), f.tokenFor(t, alice.ID), map[string]string{"text": "hi"})
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Message models.Message `json:"message"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, "hi", resp.Message.Text)
		assert.Equal(t, chat.ID, resp.Message.ChatID)
		require.NotNil(t, resp.Message.User)
		assert.Equal(t, alice.ID, resp.Message.User.ID)
	})

	t.Run("non-member forbidden", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, fmtID(chat, "/messages"), f.tokenFor(t, owner.ID), map[string]string{"text": "hi"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, fmtID(chat, "/messages"), "", map[string]string{"text": "hi"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing chat", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/chats/999/messages", f.tokenFor(t, alice.ID), map[string]string{"text": "hi"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, fmtID(chat, "/messages"), f.tokenFor(t, alice.ID), map[string]string{"text": ""})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetUserChats_Public(t *testing.T) {
	f := newAPI(t)
	owner := f.registerUser(t, "owner")
	member := f.registerUser(t, "member")
	f.seedChat(t, "zebra", owner.ID, member.ID)
	f.seedChat(t, "ant", owner.ID, member.ID)
	f.seedChat(t, "unjoined", owner.ID)

	rec := f.do(t, http.MethodGet, "/users/"+strconv.Itoa(member.ID)+"/chats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChatCollection
	decode(t, rec, &resp)
	assert.Equal(t, 2, resp.Meta.Count)
	require.Len(t, resp.Chats, 2)
	assert.Equal(t, "ant", resp.Chats[0].Name)
	assert.Equal(t, "zebra", resp.Chats[1].Name)
}

func TestUpdateAndDeleteSelf(t *testing.T) {
	f := newAPI(t)
	user := f.registerUser(t, "mutable")
	token := f.tokenFor(t, user.ID)

	rec := f.do(t, http.MethodPut, "/users/me", token, map[string]string{"username": "renamed"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User models.User `json:"user"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "renamed", resp.User.Username)

	rec = f.do(t, http.MethodDelete, "/users/me", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// A token for a deleted user no longer authenticates.
	rec = f.do(t, http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejections(t *testing.T) {
	f := newAPI(t)
	user := f.registerUser(t, "someone")

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/chats", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/chats", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": user.ID,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		signed, err := forged.SignedString([]byte("other-secret"))
		require.NoError(t, err)

		rec := f.do(t, http.MethodGet, "/chats", signed, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		stale := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": user.ID,
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})
		signed, err := stale.SignedString(testSecret)
		require.NoError(t, err)

		rec := f.do(t, http.MethodGet, "/chats", signed, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetChats_OnlyMemberships(t *testing.T) {
	f := newAPI(t)
	owner := f.registerUser(t, "owner")
	member := f.registerUser(t, "member")
	f.seedChat(t, "joined", owner.ID, member.ID)
	f.seedChat(t, "unjoined", owner.ID)

	rec := f.do(t, http.MethodGet, "/chats", f.tokenFor(t, member.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChatCollection
	decode(t, rec, &resp)
	assert.Equal(t, 1, resp.Meta.Count)
	require.Len(t, resp.Chats, 1)
	assert.Equal(t, "joined", resp.Chats[0].Name)
}
