package api

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Tephenbaay/imagescribeAI/internal/config"
	"github.com/Tephenbaay/imagescribeAI/internal/domain"
	"github.com/Tephenbaay/imagescribeAI/internal/history"
	"github.com/Tephenbaay/imagescribeAI/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeScribe struct {
	calls int
	err   error
}

func (f *fakeScribe) Process(_ context.Context, req service.ScribeRequest) (*service.ScribeResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &service.ScribeResult{
		Generation: &domain.Generation{
			ID:                "g1",
			Filename:          req.OriginalName,
			Caption:           "a dog on a beach",
			FirstDescription:  "Based on the image caption: a dog on a beach, we can deduce things.",
			SecondDescription: "The dog is happy.",
			Category:          "animals",
		},
		ImageURL:            "/static/uploads/" + req.OriginalName,
		CaptionAudioURL:     "/static/audio/" + req.OriginalName + "_caption.mp3",
		DescriptionAudioURL: "/static/audio/" + req.OriginalName + "_description.mp3",
	}, nil
}

type fakeGenerations struct {
	rows []domain.Generation
}

func (f *fakeGenerations) ListRecent(_ context.Context, limit int) ([]domain.Generation, error) {
	if limit < len(f.rows) {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeGenerations) ListByFilename(_ context.Context, filename string) ([]domain.Generation, error) {
	var rows []domain.Generation
	for _, r := range f.rows {
		if r.Filename == filename {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func (f *fakeGenerations) GetByID(_ context.Context, id string) (*domain.Generation, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeGenerations) CountByStatus(_ context.Context, status domain.GenerationStatus) (int64, error) {
	var n int64
	for _, r := range f.rows {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func newTestRouter(t *testing.T, scribe *fakeScribe, generations *fakeGenerations) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test", MaxUploadBytes: config.MaxUploadBytes, CORS: config.CORSConfig{AllowAllOrigins: true}},
		Paths:  config.PathsConfig{StaticDir: t.TempDir()},
	}
	captions := history.NewStore()
	captions.Set("old.jpg", "an old photo")
	deps := Deps{
		Scribe:       scribe,
		Captions:     captions,
		Descriptions: history.NewStore(),
	}
	if generations != nil {
		deps.Generations = generations
	}
	r, err := SetupRouter(deps, cfg)
	require.NoError(t, err)
	return r
}

func multipartUpload(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/submit", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSubmitWithoutFile(t *testing.T) {
	scribe := &fakeScribe{}
	r := newTestRouter(t, scribe, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "", "", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded.", w.Body.String())
	assert.Zero(t, scribe.calls)
}

func TestSubmitOversize(t *testing.T) {
	scribe := &fakeScribe{}
	r := newTestRouter(t, scribe, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "my_image", "big.jpg", make([]byte, config.MaxUploadBytes+1)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "You can only upload a maximum of 3MB per image.")
	assert.Contains(t, w.Body.String(), "No results.")
	assert.Zero(t, scribe.calls)
}

func TestSubmitRendersResult(t *testing.T) {
	scribe := &fakeScribe{}
	r := newTestRouter(t, scribe, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "my_image", "dog.jpg", []byte("jpeg bytes")))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "a dog on a beach")
	assert.Contains(t, body, "The dog is happy.")
	assert.Contains(t, body, "animals")
	assert.Contains(t, body, `/static/audio/dog.jpg_caption.mp3`)
	assert.Contains(t, body, `action="/download_text"`)
	assert.Equal(t, 1, scribe.calls)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSubmitProcessingFailure(t *testing.T) {
	scribe := &fakeScribe{err: &service.StageError{Stage: domain.StageCaptioned, Err: errors.New("model down")}}
	r := newTestRouter(t, scribe, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "my_image", "dog.jpg", []byte("jpeg bytes")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "model down")
}

func TestIndexAndSubmitGetShowHistory(t *testing.T) {
	r := newTestRouter(t, &fakeScribe{}, nil)

	for _, path := range []string{"/", "/submit"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "an old photo", path)
		assert.NotContains(t, w.Body.String(), "No results.", path)
	}
}

func TestDownloadText(t *testing.T) {
	r := newTestRouter(t, &fakeScribe{}, nil)

	form := url.Values{
		"filename":           {"x.jpg"},
		"caption":            {"c"},
		"first_description":  {"d1"},
		"second_description": {"d2"},
	}
	req := httptest.NewRequest(http.MethodPost, "/download_text", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=captions_and_descriptions.txt", w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "Filename: x.jpg\n\nPredicted Caption: c\n\nPredicted Description:\nd1\nd2\n", w.Body.String())
}

func TestStaticPages(t *testing.T) {
	r := newTestRouter(t, &fakeScribe{}, nil)

	for _, tc := range []struct{ method, path, want string }{
		{http.MethodGet, "/login", "Log in"},
		{http.MethodPost, "/signup", "Create an account"},
		{http.MethodPost, "/home", "Get started"},
		{http.MethodGet, "/contact", "Contact us"},
		{http.MethodGet, "/aboutus", "About us"},
		{http.MethodGet, "/forget", "Reset your password"},
		{http.MethodGet, "/user", "Your account"},
		{http.MethodGet, "/history", "not being recorded"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusOK, w.Code, tc.path)
		assert.Contains(t, w.Body.String(), tc.want, tc.path)
	}
}

func TestHistoryAndAPIWithRepository(t *testing.T) {
	generations := &fakeGenerations{rows: []domain.Generation{
		{ID: "g2", Filename: "cat.jpg", Caption: "a cat", Status: domain.GenerationStatusCompleted, CreatedAt: time.Now()},
		{ID: "g1", Filename: "my_dog.jpg", Status: domain.GenerationStatusFailed, Stage: domain.StageCaptioned, Error: "boom", CreatedAt: time.Now()},
	}}
	r := newTestRouter(t, &fakeScribe{}, generations)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a cat")
	assert.Contains(t, w.Body.String(), "failed at captioned")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/generations?limit=1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/generations?filename=my+dog.jpg", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), `"id":"g1"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/generations/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.JSONEq(t, `{"completed":1,"failed":1}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, &fakeScribe{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

type downPinger struct{}

func (downPinger) PingContext(context.Context) error {
	return errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
}

func TestHealthDegradedHidesError(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Paths:  config.PathsConfig{StaticDir: t.TempDir()},
	}
	r, err := SetupRouter(Deps{
		Scribe:       &fakeScribe{},
		Captions:     history.NewStore(),
		Descriptions: history.NewStore(),
		DB:           downPinger{},
	}, cfg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded"}`, w.Body.String())
}
