package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civicworks/civicconnect/internal/config"
	"github.com/civicworks/civicconnect/internal/repository/memory"
	"github.com/civicworks/civicconnect/internal/service"
	"github.com/civicworks/civicconnect/internal/storage"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Env:            "test",
		JWTSecret:      "test-secret",
		AllowedOrigins: []string{"*"},
		UploadDir:      t.TempDir(),
	}
	authService := service.NewAuthService(memory.NewUserRepo(), memory.NewRevokedTokenRepo(), cfg.JWTSecret)
	postService := service.NewPostService(memory.NewPostRepo(), storage.NewMemStore())
	return NewRouter(cfg, authService, postService)
}

func do(t *testing.T, router http.Handler, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return do(t, router, method, path, token, bytes.NewReader(body), "application/json")
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func registerUser(t *testing.T, router http.Handler, email string) (token string, userID string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/users/register", "", map[string]string{
		"email":     email,
		"firstName": "Alice",
		"lastName":  "Smith",
		"password":  "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode(t, w)
	user := resp["user"].(map[string]any)
	return resp["token"].(string), user["id"].(string)
}

func postForm(t *testing.T, fields map[string]string, images ...[]byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for i, img := range images {
		part, err := mw.CreateFormFile("images", fmt.Sprintf("photo%d.png", i))
		require.NoError(t, err)
		_, err = part.Write(img)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func createPost(t *testing.T, router http.Handler, token string, fields map[string]string) string {
	t.Helper()
	if fields == nil {
		fields = map[string]string{}
	}
	if fields["title"] == "" {
		fields["title"] = "Broken light"
	}
	if fields["description"] == "" {
		fields["description"] = "The street light is out"
	}
	if fields["category"] == "" {
		fields["category"] = "lighting"
	}
	if fields["location"] == "" {
		fields["location"] = "Main St"
	}
	body, contentType := postForm(t, fields)
	w := do(t, router, http.MethodPost, "/posts", token, body, contentType)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}

func TestEndToEndLikeScenario(t *testing.T) {
	router := newTestRouter(t)

	aliceToken, _ := registerUser(t, router, "alice@example.com")
	postID := createPost(t, router, aliceToken, map[string]string{"title": "Broken light"})

	// Fresh post defaults to pending.
	w := do(t, router, http.MethodGet, "/posts/"+postID, "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pending", decode(t, w)["status"])

	bobToken, _ := registerUser(t, router, "bob@example.com")

	w = do(t, router, http.MethodPost, "/posts/"+postID+"/like", bobToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w)["liked"])

	w = do(t, router, http.MethodGet, "/posts/"+postID, "", nil, "")
	require.Len(t, decode(t, w)["likes"], 1)

	w = do(t, router, http.MethodPost, "/posts/"+postID+"/like", bobToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, decode(t, w)["liked"])

	w = do(t, router, http.MethodGet, "/posts/"+postID, "", nil, "")
	require.Empty(t, decode(t, w)["likes"])
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/users/register", "", map[string]string{
		"email":     "alice@example.com",
		"firstName": "Alice",
		"lastName":  "Smith",
		"password":  "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	registerUser(t, router, "alice@example.com")

	w = doJSON(t, router, http.MethodPost, "/users/register", "", map[string]string{
		"email":     "ALICE@example.com",
		"firstName": "Alice",
		"lastName":  "Smith",
		"password":  "password123",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginSetsCookieAndProfileWorks(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/users/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	var sessionCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == "token" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	require.True(t, sessionCookie.HttpOnly)

	// The cookie alone authenticates.
	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	req.AddCookie(sessionCookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	profile := decode(t, rec)
	require.Equal(t, "alice@example.com", profile["email"])
	require.NotContains(t, rec.Body.String(), "password123")
}

func TestLogoutRevokesToken(t *testing.T) {
	router := newTestRouter(t)
	token, _ := registerUser(t, router, "alice@example.com")

	w := do(t, router, http.MethodGet, "/users/profile", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/users/logout", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	// Signature and expiry are still fine; revocation alone rejects it.
	w = do(t, router, http.MethodGet, "/users/profile", token, nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/users/profile", "", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodPost, "/posts", "", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodGet, "/users/profile", "garbage-token", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPrivatePostAccess(t *testing.T) {
	router := newTestRouter(t)

	aliceToken, aliceID := registerUser(t, router, "alice@example.com")
	bobToken, _ := registerUser(t, router, "bob@example.com")

	postID := createPost(t, router, aliceToken, map[string]string{
		"title":    "secret pothole",
		"isPublic": "false",
	})

	w := do(t, router, http.MethodGet, "/posts/"+postID, aliceToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/posts/"+postID, bobToken, nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, http.MethodGet, "/posts/"+postID, "", nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)

	// Hidden from another user's unfiltered listing.
	w = do(t, router, http.MethodGet, "/posts", bobToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(0), decode(t, w)["totalPosts"])

	// Visible when the author filters by their own id.
	w = do(t, router, http.MethodGet, "/posts?author="+aliceID, aliceToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), decode(t, w)["totalPosts"])
}

func TestStatusUpdateAuthorization(t *testing.T) {
	router := newTestRouter(t)

	aliceToken, _ := registerUser(t, router, "alice@example.com")
	bobToken, _ := registerUser(t, router, "bob@example.com")

	postID := createPost(t, router, aliceToken, nil)

	w := doJSON(t, router, http.MethodPatch, "/posts/"+postID+"/status", bobToken, map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, http.MethodGet, "/posts/"+postID, "", nil, "")
	require.Equal(t, "pending", decode(t, w)["status"])

	w = doJSON(t, router, http.MethodPatch, "/posts/"+postID+"/status", aliceToken, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "in_progress", decode(t, w)["status"])

	w = doJSON(t, router, http.MethodPatch, "/posts/"+postID+"/status", aliceToken, map[string]string{"status": "bogus"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAuthorization(t *testing.T) {
	router := newTestRouter(t)

	aliceToken, _ := registerUser(t, router, "alice@example.com")
	bobToken, _ := registerUser(t, router, "bob@example.com")

	postID := createPost(t, router, aliceToken, nil)

	w := do(t, router, http.MethodDelete, "/posts/"+postID, bobToken, nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, http.MethodGet, "/posts/"+postID, "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodDelete, "/posts/"+postID, aliceToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/posts/"+postID, "", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePostWithImagesAndComments(t *testing.T) {
	router := newTestRouter(t)

	aliceToken, _ := registerUser(t, router, "alice@example.com")
	bobToken, _ := registerUser(t, router, "bob@example.com")

	body, contentType := postForm(t, map[string]string{
		"title":       "Broken light",
		"description": "The street light is out",
		"category":    "lighting",
		"location":    "Main St",
		"tags":        "roads,lighting",
	}, pngBytes)
	w := do(t, router, http.MethodPost, "/posts", aliceToken, body, contentType)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	require.Len(t, created["images"], 1)
	postID := created["id"].(string)

	w = doJSON(t, router, http.MethodPost, "/posts/"+postID+"/comments", bobToken, map[string]string{"content": "same on my street"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "same on my street", decode(t, w)["content"])

	w = doJSON(t, router, http.MethodPost, "/posts/"+postID+"/comments", bobToken, map[string]string{"content": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/posts/"+postID, "", nil, "")
	require.Len(t, decode(t, w)["comments"], 1)
}

func TestCreatePostValidation(t *testing.T) {
	router := newTestRouter(t)
	token, _ := registerUser(t, router, "alice@example.com")

	body, contentType := postForm(t, map[string]string{"title": "no description"})
	w := do(t, router, http.MethodPost, "/posts", token, body, contentType)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
