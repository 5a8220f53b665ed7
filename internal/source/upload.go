package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// uploadPaths maps a backend domain to its upload route
var uploadPaths = map[string]string{
	"eeg":    "/EEG",
	"ecg":    "/ecg/upload",
	"market": "/analysis",
	"audio":  "/compare",
}

// UploadPath returns the upload route for domain, defaulting to /{domain}
func UploadPath(domain string) string {
	if p, ok := uploadPaths[strings.ToLower(domain)]; ok {
		return p
	}
	return "/" + strings.Trim(domain, "/")
}

// Upload sends a recording to the backend as multipart form field "file"
// and returns the id to page it by, plus the precomputed analysis.
func (s *HTTPSource) Upload(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	u := s.baseURL + UploadPath(s.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: u}
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if result.FileID == "" {
		return nil, fmt.Errorf("upload response carries no file_id")
	}

	s.logger.Info("recording uploaded", "path", path, "file", result.FileID,
		"channels", result.Features.NumChannels, "duration", result.Features.Duration)
	return &result, nil
}
