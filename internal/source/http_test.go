package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSourceFetchPage(t *testing.T) {
	var gotPath, gotPage, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPage = r.URL.Query().Get("page")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"time":[0,0.5,1],"signals":{"Fp1":[1,2,3]}}`)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/", "EEG", time.Second, nil)
	p, err := src.FetchPage(context.Background(), "abc 1", 3, 1000)
	require.NoError(t, err)

	assert.Equal(t, "/EEG/data/abc 1", gotPath)
	assert.Equal(t, "3", gotPage)
	assert.Equal(t, "1000", gotLimit)
	assert.Equal(t, []float64{0, 0.5, 1}, p.Time)
	assert.Equal(t, []float64{1, 2, 3}, p.Signals["Fp1"])
}

func TestHTTPSourceStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "file not found", http.StatusNotFound)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, "EEG", time.Second, nil)
	_, err := src.FetchPage(context.Background(), "missing", 1, 10)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Contains(t, se.Error(), "/EEG/data/missing")
}

func TestHTTPSourceDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"time":`)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, "", time.Second, nil)
	_, err := src.FetchPage(context.Background(), "f", 1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode page 1")
}

func TestHTTPSourceTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	src := NewHTTPSource(srv.URL, "EEG", time.Second, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := src.FetchPage(ctx, "slow", 1, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUpload(t *testing.T) {
	var gotPath, gotName, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotName, gotBody = hdr.Filename, string(b)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"file_id": "rec-42",
			"features": map[string]interface{}{
				"num_channels": 2,
				"channels":     []string{"Fp1", "Fp2"},
				"num_samples":  5000,
				"duration":     20.0,
			},
			"predictions": map[string]interface{}{"ML_Predictions": "normal"},
		})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "rec.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,Fp1,Fp2\n0,1,2\n"), 0o644))

	src := NewHTTPSource(srv.URL, "EEG", time.Second, nil)
	res, err := src.Upload(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "/EEG", gotPath)
	assert.Equal(t, "rec.csv", gotName)
	assert.Equal(t, "time,Fp1,Fp2\n0,1,2\n", gotBody)
	assert.Equal(t, "rec-42", res.FileID)
	assert.Equal(t, 2, res.Features.NumChannels)
	assert.Equal(t, 20.0, res.Features.Duration)
	assert.Equal(t, "normal", res.Predictions["ML_Predictions"])
}

func TestUploadWithoutFileID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"features":{}}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "rec.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := NewHTTPSource(srv.URL, "ECG", time.Second, nil).Upload(context.Background(), path)
	assert.Error(t, err)
}

func TestUploadPath(t *testing.T) {
	assert.Equal(t, "/EEG", UploadPath("EEG"))
	assert.Equal(t, "/ecg/upload", UploadPath("ecg"))
	assert.Equal(t, "/analysis", UploadPath("Market"))
	assert.Equal(t, "/compare", UploadPath("audio"))
	assert.Equal(t, "/microbiome", UploadPath("/microbiome/"))
}
