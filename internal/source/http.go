package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TimelordUK/sigview/internal/series"
)

// maxErrorBody caps how much of a failed response is logged
const maxErrorBody = 512

// HTTPSource pages a recording out of the analysis backend:
// GET {base}/{domain}/data/{fileID}?page=n&limit=m
type HTTPSource struct {
	baseURL string
	domain  string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPSource creates a source for baseURL. timeout bounds each request.
func NewHTTPSource(baseURL, domain string, timeout time.Duration, logger *slog.Logger) *HTTPSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		domain:  strings.Trim(domain, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("component", "http-source"),
	}
}

// BaseURL returns the backend root
func (s *HTTPSource) BaseURL() string {
	return s.baseURL
}

// Domain returns the backend route prefix, e.g. EEG
func (s *HTTPSource) Domain() string {
	return s.domain
}

func (s *HTTPSource) pageURL(fileID string, page, limit int) string {
	var b strings.Builder
	b.WriteString(s.baseURL)
	if s.domain != "" {
		b.WriteString("/")
		b.WriteString(s.domain)
	}
	b.WriteString("/data/")
	b.WriteString(url.PathEscape(fileID))

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	b.WriteString("?")
	b.WriteString(q.Encode())
	return b.String()
}

// FetchPage implements PageSource
func (s *HTTPSource) FetchPage(ctx context.Context, fileID string, page, limit int) (*series.Page, error) {
	u := s.pageURL(fileID, page, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		s.logger.Debug("backend error body", "url", u, "body", string(body))
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: u}
	}

	var p series.Page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}

	s.logger.Debug("page fetched", "file", fileID, "page", page, "samples", p.Len(),
		"elapsed", time.Since(start))
	return &p, nil
}
