package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveUploadsWithPreset(t *testing.T) {
	var gotPreset, gotFilename string
	var gotData []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/obra/image/upload", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotPreset = r.FormValue("upload_preset")
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		gotFilename = hdr.Filename
		gotData, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"secure_url": "https://res.cloudinary.com/obra/image/upload/v1/a.jpg"})
	}))
	defer server.Close()

	store := New(server.URL, "https://res.cloudinary.com", "obra", "bitacora_unsigned", slog.Default())
	url, err := store.Save(context.Background(), "reporte", "image/jpeg", bytes.NewReader([]byte("jpeg bytes")))

	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/obra/image/upload/v1/a.jpg", url)
	assert.Equal(t, "bitacora_unsigned", gotPreset)
	assert.Equal(t, "reporte.jpg", gotFilename)
	assert.Equal(t, []byte("jpeg bytes"), gotData)
}

func TestSaveRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer server.Close()

	store := New(server.URL, "https://res.cloudinary.com", "obra", "missing", slog.Default())
	_, err := store.Save(context.Background(), "reporte", "image/png", bytes.NewReader([]byte("x")))
	assert.Error(t, err)
}

func TestSaveMissingURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store := New(server.URL, "https://res.cloudinary.com", "obra", "p", slog.Default())
	_, err := store.Save(context.Background(), "reporte", "image/png", bytes.NewReader([]byte("x")))
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/obra/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png bytes"))
	}))
	defer server.Close()

	store := New("https://api.cloudinary.com/v1_1", server.URL, "obra", "p", slog.Default())

	rc, mimeType, err := store.Get(context.Background(), server.URL+"/obra/a.png")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, []byte("png bytes"), data)

	_, _, err = store.Get(context.Background(), server.URL+"/obra/missing.jpg")
	assert.Error(t, err)
}

func TestGetRefusesURLsOutsideTheCloud(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path == "/obra/moved.png" {
			http.Redirect(w, r, "/internal/secret", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("secret"))
	}))
	defer server.Close()

	store := New("https://api.cloudinary.com/v1_1", server.URL, "obra", "p", slog.Default())

	for _, u := range []string{
		server.URL + "/internal/secret",
		server.URL + "/obrax/a.png",
		server.URL + "/obra/../internal/secret",
		"http://169.254.169.254/latest/meta-data/",
		"https://res.cloudinary.com/otra/image/upload/a.jpg",
		"not a url",
	} {
		_, _, err := store.Get(context.Background(), u)
		assert.ErrorIs(t, err, ErrForeignURL, u)
	}
	assert.Zero(t, hits)

	_, _, err := store.Get(context.Background(), server.URL+"/obra/moved.png")
	assert.ErrorIs(t, err, ErrForeignURL)
	assert.Equal(t, 1, hits)
}
