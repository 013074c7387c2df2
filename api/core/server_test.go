package core

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anoixa/photo-share/cache"
	"github.com/anoixa/photo-share/config"
	"github.com/anoixa/photo-share/database/dbtest"
	"github.com/anoixa/photo-share/database/repo/accounts"
	"github.com/anoixa/photo-share/database/repo/favorites"
	"github.com/anoixa/photo-share/database/repo/photos"
	"github.com/anoixa/photo-share/internal/auth"
	"github.com/anoixa/photo-share/internal/realtime"
	svcAccounts "github.com/anoixa/photo-share/internal/services/accounts"
	svcFavorites "github.com/anoixa/photo-share/internal/services/favorites"
	svcPhotos "github.com/anoixa/photo-share/internal/services/photos"
	"github.com/anoixa/photo-share/storage"
	cryptopackage "github.com/anoixa/photo-share/utils/crypto"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookie = "photo_share_session"

func newTestServer(t *testing.T) (*httptest.Server, *realtime.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.NewProvider(t)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	c, err := cache.NewProvider("memory", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	sessions, err := auth.NewSessionManager(c, auth.SessionConfig{Secret: []byte("0123456789abcdef0123456789abcdef"), TTL: time.Hour})
	require.NoError(t, err)

	hub := realtime.NewHub(64, 64)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	userRepo := accounts.NewRepository(db)
	photoRepo := photos.NewRepository(db)
	favoriteRepo := favorites.NewRepository(db)
	photoSvc := svcPhotos.NewService(photoRepo, userRepo, store, hub)
	hasher := cryptopackage.NewHasher(cryptopackage.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

	cfg := &config.Config{
		SessionCookieName:   testCookie,
		UploadMaxSizeMB:     1,
		MaxConcurrency:      100,
		RateLimitApiRPS:     1000,
		RateLimitApiBurst:   1000,
		RateLimitAuthRPS:    1000,
		RateLimitAuthBurst:  1000,
		RateLimitExpireTime: time.Minute,
		CORSAllowOrigins:    "http://localhost:3000",
	}

	router, cleanup := NewRouter(&RouterDependencies{
		Config:    cfg,
		DB:        db,
		Cache:     c,
		Storage:   store,
		Sessions:  sessions,
		Accounts:  svcAccounts.NewService(userRepo, photoRepo, favoriteRepo, photoSvc, sessions, hasher),
		Photos:    photoSvc,
		Favorites: svcFavorites.NewService(favoriteRepo),
		Hub:       hub,
	})
	t.Cleanup(cleanup)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, hub
}

type client struct {
	t      *testing.T
	base   string
	cookie *http.Cookie
}

func (cl *client) do(method, path string, body interface{}) *http.Response {
	cl.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(cl.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, cl.base+path, reader)
	require.NoError(cl.t, err)
	req.Header.Set("Content-Type", "application/json")
	if cl.cookie != nil {
		req.AddCookie(cl.cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(cl.t, err)
	cl.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (cl *client) upload(field string, content []byte) *http.Response {
	cl.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "photo.jpg")
	require.NoError(cl.t, err)
	_, err = fw.Write(content)
	require.NoError(cl.t, err)
	require.NoError(cl.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, cl.base+"/photos/new", &buf)
	require.NoError(cl.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cl.cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(cl.t, err)
	cl.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerAndLogin 注册并登录，返回带会话 Cookie 的客户端与用户 ID
func registerAndLogin(t *testing.T, base, loginName string) (*client, string) {
	t.Helper()
	anon := &client{t: t, base: base}

	resp := anon.do(http.MethodPost, "/user", map[string]string{
		"login_name": loginName, "password": "pw", "first_name": loginName, "last_name": "L",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var registered struct {
		ID        string `json:"id"`
		LoginName string `json:"login_name"`
	}
	decode(t, resp, &registered)

	resp = anon.do(http.MethodPost, "/admin/login", map[string]string{"login_name": loginName, "password": "pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == testCookie {
			assert.True(t, cookie.HttpOnly)
			return &client{t: t, base: base, cookie: cookie}, registered.ID
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil, ""
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := (&client{t: t, base: srv.URL}).do(http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, map[string]string{"database": "ok", "cache": "ok", "storage": "ok"}, body.Checks)
}

func TestAuthGate(t *testing.T) {
	srv, _ := newTestServer(t)
	anon := &client{t: t, base: srv.URL}

	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/user/list", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/admin/current", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, anon.do(http.MethodPost, "/admin/logout", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPost, "/photos/like/00000000-0000-0000-0000-000000000000", nil).StatusCode)

	alice, _ := registerAndLogin(t, srv.URL, "alice")
	resp := alice.do(http.MethodGet, "/admin/current", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var current map[string]string
	decode(t, resp, &current)
	assert.Equal(t, "alice", current["login_name"])

	resp = anon.do(http.MethodPost, "/admin/login", map[string]string{"login_name": "alice", "password": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = anon.do(http.MethodPost, "/user", map[string]string{"login_name": "alice", "password": "x", "first_name": "a", "last_name": "b"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "duplicate login names are rejected")

	assert.Equal(t, http.StatusOK, alice.do(http.MethodPost, "/admin/logout", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, alice.do(http.MethodGet, "/user/list", nil).StatusCode)
}

func TestPhotoLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	alice, aliceID := registerAndLogin(t, srv.URL, "alice")
	bob, bobID := registerAndLogin(t, srv.URL, "bob")

	assert.Equal(t, http.StatusBadRequest, alice.upload("wrongfield", []byte("x")).StatusCode)
	assert.Equal(t, http.StatusBadRequest, alice.upload("uploadedphoto", nil).StatusCode)
	assert.Equal(t, http.StatusRequestEntityTooLarge, alice.upload("uploadedphoto", make([]byte, 1<<20+512)).StatusCode)

	resp := alice.upload("uploadedphoto", []byte("jpeg"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var photo struct {
		ID       string `json:"id"`
		FileName string `json:"file_name"`
	}
	decode(t, resp, &photo)

	resp = (&client{t: t, base: srv.URL}).do(http.MethodGet, "/images/"+photo.FileName, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = bob.do(http.MethodPost, "/commentsOfPhoto/"+photo.ID, map[string]string{"comment": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = bob.do(http.MethodPost, "/commentsOfPhoto/"+photo.ID, map[string]string{"comment": "nice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comment struct {
		ID string `json:"id"`
	}
	decode(t, resp, &comment)

	assert.Equal(t, http.StatusForbidden, alice.do(http.MethodDelete, "/comments/"+photo.ID+"/"+comment.ID, nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, bob.do(http.MethodDelete, "/photos/"+photo.ID, nil).StatusCode)

	resp = bob.do(http.MethodGet, "/photosOfUser/"+aliceID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var views []svcPhotos.PhotoView
	decode(t, resp, &views)
	require.Len(t, views, 1)
	require.Len(t, views[0].Comments, 1)
	assert.Equal(t, bobID, views[0].Comments[0].User.ID)

	resp = bob.do(http.MethodGet, "/comments/"+bobID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comments []svcPhotos.UserCommentView
	decode(t, resp, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, photo.ID, comments[0].Photo.ID)

	resp = bob.do(http.MethodGet, "/user/"+aliceID+"/photo-highlights", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var highlights svcPhotos.Highlights
	decode(t, resp, &highlights)
	assert.Equal(t, 1, highlights.MostComments.CommentCount)

	assert.Equal(t, http.StatusOK, bob.do(http.MethodPost, "/favorites", map[string]string{"photo_id": photo.ID}).StatusCode)
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodPost, "/favorites", map[string]string{"photo_id": "00000000-0000-0000-0000-000000000000"}).StatusCode)

	assert.Equal(t, http.StatusOK, alice.do(http.MethodDelete, "/photos/"+photo.ID, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodDelete, "/photos/"+photo.ID, nil).StatusCode)

	resp = bob.do(http.MethodGet, "/favorites", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var favs []map[string]interface{}
	decode(t, resp, &favs)
	assert.Empty(t, favs)
}

func TestUserEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	alice, aliceID := registerAndLogin(t, srv.URL, "alice")

	resp := alice.do(http.MethodGet, "/user/list", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []map[string]interface{}
	decode(t, resp, &users)
	require.Len(t, users, 1)
	assert.Equal(t, aliceID, users[0]["id"])

	resp = alice.do(http.MethodGet, "/user/list/counts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &users)
	assert.EqualValues(t, 0, users[0]["photo_count"])

	assert.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/user/"+aliceID, nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodGet, "/user/not-an-id", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodGet, "/user/00000000-0000-0000-0000-000000000000", nil).StatusCode)
}

func TestLikeBroadcastAndAccountDeletion(t *testing.T) {
	srv, hub := newTestServer(t)
	alice, aliceID := registerAndLogin(t, srv.URL, "alice")
	bob, bobID := registerAndLogin(t, srv.URL, "bob")

	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: bob.cookie.Name, Value: bob.cookie.Value}).String())
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 3*time.Second, 10*time.Millisecond)

	resp := alice.upload("uploadedphoto", []byte("jpeg"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var photo struct {
		ID string `json:"id"`
	}
	decode(t, resp, &photo)

	readUpdate := func() realtime.LikeUpdate {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var frame struct {
			Event string              `json:"event"`
			Data  realtime.LikeUpdate `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&frame))
		assert.Equal(t, realtime.EventLikeUpdate, frame.Event)
		return frame.Data
	}

	assert.Equal(t, http.StatusOK, bob.do(http.MethodPost, "/photos/like/"+photo.ID, nil).StatusCode)
	assert.Equal(t, realtime.LikeUpdate{PhotoID: photo.ID, Likes: []string{bobID}}, readUpdate())

	assert.Equal(t, http.StatusOK, bob.do(http.MethodPost, "/photos/unlike/"+photo.ID, nil).StatusCode)
	assert.Equal(t, realtime.LikeUpdate{PhotoID: photo.ID, Likes: []string{}}, readUpdate())

	assert.Equal(t, http.StatusOK, bob.do(http.MethodPost, "/favorites", map[string]string{"photo_id": photo.ID}).StatusCode)
	assert.Equal(t, http.StatusOK, alice.do(http.MethodDelete, "/user", nil).StatusCode)

	resp = bob.do(http.MethodGet, "/favorites", nil)
	var favs []map[string]interface{}
	decode(t, resp, &favs)
	assert.Empty(t, favs)

	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodPost, "/photos/like/"+photo.ID, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, bob.do(http.MethodGet, "/photosOfUser/"+aliceID, nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, alice.do(http.MethodGet, "/user/list", nil).StatusCode)
}
