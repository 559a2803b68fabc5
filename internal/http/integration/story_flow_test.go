package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/voyagr/travelstory/internal/auth"
	"github.com/voyagr/travelstory/internal/blob"
	"github.com/voyagr/travelstory/internal/cache"
	"github.com/voyagr/travelstory/internal/config"
	apihttp "github.com/voyagr/travelstory/internal/http"
	"github.com/voyagr/travelstory/internal/repo/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer wires the full router against in-memory stores and a
// disk blob store rooted in a temp dir.
func newTestServer(t *testing.T) (*gin.Engine, string) {
	t.Helper()

	uploadDir := t.TempDir()

	cfg := config.Config{
		Env:          "test",
		JWTSecret:    "integration-secret",
		UploadDir:    uploadDir,
		AssetsDir:    t.TempDir(),
		BaseURL:      "http://localhost:8000",
		CORSOrigins:  []string{"*"},
		MaxBodyBytes: 10 << 20,
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	blobs, err := blob.NewDiskStore(uploadDir, cfg.BaseURL, log, nil)
	require.NoError(t, err)

	r := apihttp.NewRouter(cfg, apihttp.Deps{
		Log:     log,
		Users:   memory.NewUsersRepo(),
		Stories: memory.NewStoriesRepo(),
		Blobs:   blobs,
		Cache:   cache.NewMemory(time.Minute),
		JWT:     auth.NewManager(cfg.JWTSecret, 72*time.Hour),
	})

	return r, uploadDir
}

func jsonReq(t *testing.T, r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func registerAndLogin(t *testing.T, r http.Handler, fullName, email, password string) string {
	t.Helper()

	w := jsonReq(t, r, http.MethodPost, "/create-account", "",
		`{"fullName":"`+fullName+`","email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = jsonReq(t, r, http.MethodPost, "/login", "",
		`{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.AccessToken)

	return resp.AccessToken
}

func uploadPNG(t *testing.T, r http.Handler, token string) string {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "beach.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/image-upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ImageURL string `json:"imageUrl"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.ImageURL)

	return resp.ImageURL
}

type storyPayload struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Story           string   `json:"story"`
	VisitedLocation []string `json:"visitedLocation"`
	ImageURL        string   `json:"imageUrl"`
	IsFavourite     bool     `json:"isFavourite"`
}

type storiesResponse struct {
	Stories []storyPayload `json:"stories"`
}

func TestStoryLifecycle(t *testing.T) {
	r, uploadDir := newTestServer(t)

	token := registerAndLogin(t, r, "Asha", "a@x.com", "pw123")
	imageURL := uploadPNG(t, r, token)

	// the uploaded asset lands on disk under the served prefix
	files, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	// add a story referencing the upload
	w := jsonReq(t, r, http.MethodPost, "/add-travel-story", token, `{
		"title": "Beach",
		"story": "Sunny",
		"visitedLocation": ["Goa"],
		"imageUrl": "`+imageURL+`",
		"visitedDate": 1700000000000
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Story storyPayload `json:"story"`
	}
	decode(t, w, &created)
	require.NotEmpty(t, created.Story.ID)
	require.False(t, created.Story.IsFavourite, "new story must not start as favourite")

	// a second, later story
	w = jsonReq(t, r, http.MethodPost, "/add-travel-story", token, `{
		"title": "Mountains",
		"story": "Cold",
		"visitedLocation": ["Manali"],
		"imageUrl": "`+imageURL+`",
		"visitedDate": 1700100000000
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// flag the first one; the listing must then lead with it
	w = jsonReq(t, r, http.MethodPut, "/update-is-favourite/"+created.Story.ID, token, `{"isFavourite": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = jsonReq(t, r, http.MethodGet, "/get-all-stories", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var listing storiesResponse
	decode(t, w, &listing)
	require.Len(t, listing.Stories, 2)
	require.Equal(t, created.Story.ID, listing.Stories[0].ID)
	require.True(t, listing.Stories[0].IsFavourite)

	// search hits title, story text and locations of the caller only
	w = jsonReq(t, r, http.MethodPost, "/search?query=Goa", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var found storiesResponse
	decode(t, w, &found)
	require.Len(t, found.Stories, 1)
	require.Equal(t, "Beach", found.Stories[0].Title)

	w = jsonReq(t, r, http.MethodPost, "/search?query=Paris", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	found = storiesResponse{}
	decode(t, w, &found)
	require.Empty(t, found.Stories)

	// date filter brackets only the first story
	w = jsonReq(t, r, http.MethodGet, "/travel-stories/filter?startDate=1699999999999&endDate=1700000000001", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	found = storiesResponse{}
	decode(t, w, &found)
	require.Len(t, found.Stories, 1)
	require.Equal(t, "Beach", found.Stories[0].Title)

	// editing without an image reference falls back to the placeholder
	w = jsonReq(t, r, http.MethodPut, "/edit-story/"+created.Story.ID, token, `{
		"title": "Beach sunset",
		"story": "Sunny",
		"visitedLocation": ["Goa"],
		"visitedDate": 1700000000000
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var edited struct {
		Story storyPayload `json:"story"`
	}
	decode(t, w, &edited)
	require.Equal(t, "http://localhost:8000/assets/placeholder.png", edited.Story.ImageURL)
	require.True(t, edited.Story.IsFavourite, "edit must not clear the favourite flag")

	// delete survives the backing file being already gone
	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, os.Remove(filepath.Join(uploadDir, e.Name())))
	}

	w = jsonReq(t, r, http.MethodDelete, "/delete-story/"+created.Story.ID, token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = jsonReq(t, r, http.MethodGet, "/get-all-stories", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	listing = storiesResponse{}
	decode(t, w, &listing)
	require.Len(t, listing.Stories, 1)
	require.Equal(t, "Mountains", listing.Stories[0].Title)
}

func TestStoriesAreOwnerScoped(t *testing.T) {
	r, _ := newTestServer(t)

	tokenA := registerAndLogin(t, r, "Asha", "a@x.com", "pw123")
	tokenB := registerAndLogin(t, r, "Bram", "b@x.com", "pw456")

	w := jsonReq(t, r, http.MethodPost, "/add-travel-story", tokenA, `{
		"title": "Beach",
		"story": "Sunny",
		"visitedLocation": ["Goa"],
		"imageUrl": "http://localhost:8000/uploads/1.png",
		"visitedDate": 1700000000000
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Story storyPayload `json:"story"`
	}
	decode(t, w, &created)

	// the other account cannot see it
	w = jsonReq(t, r, http.MethodGet, "/get-all-stories", tokenB, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var listing storiesResponse
	decode(t, w, &listing)
	require.Empty(t, listing.Stories)

	// nor touch it; a foreign id reads as absent, never as forbidden
	w = jsonReq(t, r, http.MethodPut, "/edit-story/"+created.Story.ID, tokenB, `{
		"title": "Hijack",
		"story": "x",
		"visitedLocation": ["x"],
		"visitedDate": 1700000000000
	}`)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = jsonReq(t, r, http.MethodPut, "/update-is-favourite/"+created.Story.ID, tokenB, `{"isFavourite": true}`)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = jsonReq(t, r, http.MethodDelete, "/delete-story/"+created.Story.ID, tokenB, "")
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	// the owner still has it, untouched
	w = jsonReq(t, r, http.MethodGet, "/get-all-stories", tokenA, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	listing = storiesResponse{}
	decode(t, w, &listing)
	require.Len(t, listing.Stories, 1)
	require.Equal(t, "Beach", listing.Stories[0].Title)
	require.False(t, listing.Stories[0].IsFavourite)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	r, _ := newTestServer(t)

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/get-user"},
		{http.MethodPost, "/add-travel-story"},
		{http.MethodGet, "/get-all-stories"},
		{http.MethodPut, "/edit-story/x"},
		{http.MethodDelete, "/delete-story/x"},
		{http.MethodPut, "/update-is-favourite/x"},
		{http.MethodPost, "/search?query=x"},
		{http.MethodGet, "/travel-stories/filter"},
	}

	for _, route := range protected {
		w := jsonReq(t, r, route.method, route.path, "", `{}`)
		require.Equalf(t, http.StatusUnauthorized, w.Code, "%s %s: %s", route.method, route.path, w.Body.String())
	}
}

// search is a body-less POST; a client sending neither body nor Content-Type
// must still get an answer
func TestSearchWithoutBodyOrContentType(t *testing.T) {
	r, _ := newTestServer(t)

	token := registerAndLogin(t, r, "Asha", "a@x.com", "pw123")

	w := jsonReq(t, r, http.MethodPost, "/add-travel-story", token, `{
		"title": "Beach",
		"story": "Sunny",
		"visitedLocation": ["Goa"],
		"imageUrl": "http://localhost:8000/uploads/1.png",
		"visitedDate": 1700000000000
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/search?query=Goa", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var found storiesResponse
	decode(t, w, &found)
	require.Len(t, found.Stories, 1)

	// and with no query at all the route still answers, as absent
	req = httptest.NewRequest(http.MethodPost, "/search", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestJSONRoutesRejectOtherContentTypes(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/create-account", strings.NewReader("fullName=Asha"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnsupportedMediaType, w.Code, w.Body.String())
}
