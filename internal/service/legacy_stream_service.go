package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Legacy streaming failures.
var (
	ErrLegacyDisabled     = errors.New("legacy streaming is not configured")
	ErrLegacyFileNotFound = errors.New("legacy file not found")
)

// LegacyStream is one proxied chunk of a legacy file.
type LegacyStream struct {
	Body          io.ReadCloser
	StatusCode    int
	ContentType   string
	ContentLength string
	ContentRange  string
	AcceptRanges  string
}

// LegacyStreamService proxies byte-range requests for videos that predate
// the managed playback pipeline and still live on the old origin server.
type LegacyStreamService interface {
	Fetch(ctx context.Context, fileID, rangeHeader string) (*LegacyStream, error)
}

type legacyStreamService struct {
	originURL string
	client    *http.Client
	logger    zerolog.Logger
}

// NewLegacyStreamService constructs the legacy origin proxy. An empty origin
// URL disables it.
func NewLegacyStreamService(originURL string, logger zerolog.Logger) LegacyStreamService {
	return &legacyStreamService{
		originURL: strings.TrimRight(originURL, "/"),
		client:    &http.Client{Timeout: 60 * time.Second},
		logger:    logger.With().Str("component", "legacy_stream").Logger(),
	}
}

// Fetch forwards the request to the origin, preserving the Range header so
// partial-content responses pass through untouched. The caller owns Body.
func (s *legacyStreamService) Fetch(ctx context.Context, fileID, rangeHeader string) (*LegacyStream, error) {
	if s.originURL == "" {
		return nil, ErrLegacyDisabled
	}

	target := fmt.Sprintf("%s/files/%s", s.originURL, url.PathEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("legacy origin request: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrLegacyFileNotFound
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		s.logger.Warn().Int("status", resp.StatusCode).Str("file_id", fileID).Msg("legacy origin returned unexpected status")
		return nil, fmt.Errorf("legacy origin returned status %d", resp.StatusCode)
	}

	return &LegacyStream{
		Body:          resp.Body,
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.Header.Get("Content-Length"),
		ContentRange:  resp.Header.Get("Content-Range"),
		AcceptRanges:  resp.Header.Get("Accept-Ranges"),
	}, nil
}
