package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "spaces", in: "My cool movie.mov", want: "My_cool_movie.mov"},
		{name: "traversal", in: "../../../etc/passwd", want: "etc_passwd"},
		{name: "windows path", in: `C:\Users\me\dog photo.jpg`, want: "C_Users_me_dog_photo.jpg"},
		{name: "umlauts", in: "i contain cool \u00fcml\u00e4uts.txt", want: "i_contain_cool_umlauts.txt"},
		{name: "symbols dropped", in: "cat (1)!.png", want: "cat_1.png"},
		{name: "leading dots", in: "..hidden.jpg", want: "hidden.jpg"},
		{name: "nothing left", in: "\u65e5\u672c.", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SecureFilename(tt.in))
		})
	}
}

func TestSafeFilenameFallsBackToUUID(t *testing.T) {
	assert.Equal(t, "dog.jpg", SafeFilename("dog.jpg"))
	assert.Len(t, SafeFilename("///"), 36)
}

func TestLocalStorageOverwrites(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStorage(root, "/static/")
	require.NoError(t, err)

	require.NoError(t, store.Upload(ctx, "audio/dog.jpg_caption.mp3", strings.NewReader("first"), 5, "audio/mpeg"))
	require.NoError(t, store.Upload(ctx, "audio/dog.jpg_caption.mp3", strings.NewReader("second"), 6, "audio/mpeg"))

	data, err := os.ReadFile(filepath.Join(root, "audio", "dog.jpg_caption.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	assert.Equal(t, "/static/audio/dog.jpg_caption.mp3", store.GetURL("audio/dog.jpg_caption.mp3"))
	assert.Equal(t, "/static/uploads/my%20dog.jpg", store.GetURL("uploads/my dog.jpg"))
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/static")
	require.NoError(t, err)

	for _, key := range []string{"../outside.txt", "/etc/passwd", "uploads/../../x", ""} {
		err := store.Upload(context.Background(), key, strings.NewReader("x"), 1, "text/plain")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

type failingStore struct {
	uploads int
}

func (f *failingStore) Upload(context.Context, string, io.Reader, int64, string) error {
	f.uploads++
	return errors.New("bucket unavailable")
}

func (f *failingStore) GetURL(key string) string {
	return "https://cdn.example.com/" + key
}

func TestMirrorIgnoresReplicaFailure(t *testing.T) {
	root := t.TempDir()
	primary, err := NewLocalStorage(root, "/static")
	require.NoError(t, err)
	replica := &failingStore{}

	m := NewMirror(primary, replica)
	require.NoError(t, m.Upload(context.Background(), "uploads/a.png", bytes.NewReader([]byte("png")), 3, "image/png"))

	assert.Equal(t, 1, replica.uploads)
	data, err := os.ReadFile(filepath.Join(root, "uploads", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "/static/uploads/a.png", m.GetURL("uploads/a.png"))
}

func TestDetectStorageType(t *testing.T) {
	assert.Equal(t, StorageTypeR2, detectStorageType("https://acct.r2.cloudflarestorage.com"))
	assert.Equal(t, StorageTypeS3, detectStorageType("s3.us-east-1.amazonaws.com"))
	assert.Equal(t, StorageTypeS3Compatible, detectStorageType("localhost:9000"))
	assert.Equal(t, "localhost:9000", normalizeEndpoint("http://localhost:9000/bucket"))
}

// fakeBucket is a minimal path-style S3 endpoint that records requests.
type fakeBucket struct {
	mu       sync.Mutex
	headCode int
	requests []string
	objects  map[string]string
}

func newFakeBucket(t *testing.T, headCode int) (*fakeBucket, *httptest.Server) {
	t.Helper()
	fb := &fakeBucket{headCode: headCode, objects: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.requests = append(fb.requests, r.Method+" "+r.URL.Path)

		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(fb.headCode)
		case r.Method == http.MethodPut && strings.Count(r.URL.Path, "/") == 1:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut:
			fb.objects[r.URL.Path] = string(body)
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func newTestS3(t *testing.T, srv *httptest.Server, publicURL string) *S3Storage {
	t.Helper()
	s, err := NewS3Storage(&S3Config{
		Type:      StorageTypeS3Compatible,
		Endpoint:  srv.URL,
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "imagescribe",
		PublicURL: publicURL,
	})
	require.NoError(t, err)
	return s
}

func TestS3EnsureBucketCreatesMissingBucket(t *testing.T) {
	fb, srv := newFakeBucket(t, http.StatusNotFound)
	s := newTestS3(t, srv, "")

	require.NoError(t, s.EnsureBucket(context.Background()))
	assert.Equal(t, []string{"HEAD /imagescribe", "PUT /imagescribe"}, fb.requests)
}

func TestS3EnsureBucketExisting(t *testing.T) {
	fb, srv := newFakeBucket(t, http.StatusOK)
	s := newTestS3(t, srv, "")

	require.NoError(t, s.EnsureBucket(context.Background()))
	assert.Equal(t, []string{"HEAD /imagescribe"}, fb.requests)
}

func TestS3EnsureBucketForbidden(t *testing.T) {
	fb, srv := newFakeBucket(t, http.StatusForbidden)
	s := newTestS3(t, srv, "")

	err := s.EnsureBucket(context.Background())
	assert.ErrorContains(t, err, "failed to check bucket imagescribe")
	assert.Equal(t, []string{"HEAD /imagescribe"}, fb.requests)
}

func TestS3UploadAndURL(t *testing.T) {
	fb, srv := newFakeBucket(t, http.StatusOK)
	s := newTestS3(t, srv, "")

	require.NoError(t, s.Upload(context.Background(), "audio/dog.jpg_caption.mp3",
		bytes.NewReader([]byte("mp3 bytes")), 9, "audio/mpeg"))
	assert.Contains(t, fb.objects["/imagescribe/audio/dog.jpg_caption.mp3"], "mp3 bytes")

	assert.Equal(t, srv.URL+"/imagescribe/uploads/dog.jpg", s.GetURL("uploads/dog.jpg"))
	cdn := newTestS3(t, srv, "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/uploads/dog.jpg", cdn.GetURL("uploads/dog.jpg"))
}

func TestMirrorReplicatesToBucket(t *testing.T) {
	fb, srv := newFakeBucket(t, http.StatusOK)
	primary, err := NewLocalStorage(t.TempDir(), "/static")
	require.NoError(t, err)

	m := NewMirror(primary, newTestS3(t, srv, ""))
	require.NoError(t, m.Upload(context.Background(), "uploads/a.png", strings.NewReader("png"), 3, "image/png"))

	assert.Contains(t, fb.objects["/imagescribe/uploads/a.png"], "png")
	assert.Equal(t, "/static/uploads/a.png", m.GetURL("uploads/a.png"))
}
