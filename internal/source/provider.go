package source

import (
	"context"
	"fmt"

	"github.com/TimelordUK/sigview/internal/series"
)

// PageSource is the core abstraction for paginated time series access.
// The playback controller only interacts with this interface.
type PageSource interface {
	// FetchPage returns page (1-based) of fileID holding at most limit samples.
	// An empty page means there is no more data.
	FetchPage(ctx context.Context, fileID string, page, limit int) (*series.Page, error)
}

// StatusError is returned when the backend answers with a non-success status
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.URL, e.Status)
}

// Features is the metadata the backend computes on upload
type Features struct {
	NumChannels int      `json:"num_channels"`
	Channels    []string `json:"channels"`
	NumSamples  int      `json:"num_samples"`
	Duration    float64  `json:"duration"`
}

// UploadResult identifies an uploaded recording and its precomputed analysis
type UploadResult struct {
	FileID      string                 `json:"file_id"`
	Features    Features               `json:"features"`
	Predictions map[string]interface{} `json:"predictions"`
}
