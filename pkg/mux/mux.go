package mux

import (
	"context"
	"fmt"

	muxgo "github.com/muxinc/mux-go"
	"github.com/rs/zerolog"
)

// Upload statuses reported by the provider for a direct upload.
const (
	UploadStatusWaiting      = "waiting"
	UploadStatusAssetCreated = "asset_created"
	UploadStatusErrored      = "errored"
	UploadStatusCancelled    = "cancelled"
	UploadStatusTimedOut     = "timed_out"
)

// Asset statuses reported by the provider for a transcoding asset.
const (
	AssetStatusPreparing = "preparing"
	AssetStatusReady     = "ready"
	AssetStatusErrored   = "errored"
)

// Config contains credentials required to talk to Mux.
type Config struct {
	TokenID     string
	TokenSecret string
	CORSOrigin  string
}

// Upload is the provider-neutral view of a direct upload.
type Upload struct {
	ID      string
	URL     string
	Status  string
	AssetID string
}

// Asset is the provider-neutral view of a transcoding asset.
type Asset struct {
	ID          string
	Status      string
	PlaybackID  string
	Duration    float64
	AspectRatio string
	ErrorText   string
}

// Service wraps the Mux API client behind a small typed surface.
type Service struct {
	client *muxgo.APIClient
	origin string
	logger zerolog.Logger
}

// New constructs a Mux service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.TokenID == "" || cfg.TokenSecret == "" {
		return nil, fmt.Errorf("mux credentials must be provided")
	}

	client := muxgo.NewAPIClient(muxgo.NewConfiguration(
		muxgo.WithBasicAuth(cfg.TokenID, cfg.TokenSecret),
	))

	return &Service{
		client: client,
		origin: cfg.CORSOrigin,
		logger: logger.With().Str("component", "mux").Logger(),
	}, nil
}

// CreateDirectUpload requests a browser-facing upload URL. The file bytes
// never transit this service; the client PUTs them straight to the returned
// URL.
func (s *Service) CreateDirectUpload(ctx context.Context) (Upload, error) {
	type result struct {
		resp muxgo.UploadResponse
		err  error
	}

	done := make(chan result, 1)
	go func() {
		resp, err := s.client.DirectUploadsApi.CreateDirectUpload(muxgo.CreateUploadRequest{
			Timeout:    3600,
			CorsOrigin: s.origin,
			NewAssetSettings: muxgo.CreateAssetRequest{
				PlaybackPolicy: []muxgo.PlaybackPolicy{muxgo.PUBLIC},
			},
		})
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return Upload{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return Upload{}, fmt.Errorf("failed to create direct upload: %w", r.err)
		}
		s.logger.Info().Str("upload_id", r.resp.Data.Id).Msg("direct upload created")
		return uploadFromResponse(r.resp), nil
	}
}

// GetUpload fetches the current state of a direct upload. The underlying
// SDK call carries no context, so it is raced against ctx; a deadline
// surfaces as ctx.Err rather than blocking the caller.
func (s *Service) GetUpload(ctx context.Context, uploadID string) (Upload, error) {
	type result struct {
		resp muxgo.UploadResponse
		err  error
	}

	done := make(chan result, 1)
	go func() {
		resp, err := s.client.DirectUploadsApi.GetDirectUpload(uploadID)
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return Upload{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return Upload{}, fmt.Errorf("failed to fetch upload %s: %w", uploadID, r.err)
		}
		return uploadFromResponse(r.resp), nil
	}
}

// GetAsset fetches the current state of an asset.
func (s *Service) GetAsset(ctx context.Context, assetID string) (Asset, error) {
	type result struct {
		resp muxgo.AssetResponse
		err  error
	}

	done := make(chan result, 1)
	go func() {
		resp, err := s.client.AssetsApi.GetAsset(assetID)
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return Asset{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return Asset{}, fmt.Errorf("failed to fetch asset %s: %w", assetID, r.err)
		}
		return assetFromMux(r.resp.Data), nil
	}
}

// DeleteAsset removes the remote asset. Callers treat failures as
// best-effort: a video deletion never rolls back because the remote side
// declined.
func (s *Service) DeleteAsset(ctx context.Context, assetID string) error {
	done := make(chan error, 1)
	go func() {
		done <- s.client.AssetsApi.DeleteAsset(assetID)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to delete asset %s: %w", assetID, err)
		}
		return nil
	}
}

func uploadFromResponse(resp muxgo.UploadResponse) Upload {
	return Upload{
		ID:      resp.Data.Id,
		URL:     resp.Data.Url,
		Status:  resp.Data.Status,
		AssetID: resp.Data.AssetId,
	}
}

func assetFromMux(asset muxgo.Asset) Asset {
	out := Asset{
		ID:          asset.Id,
		Status:      asset.Status,
		Duration:    asset.Duration,
		AspectRatio: asset.AspectRatio,
	}
	if len(asset.PlaybackIds) > 0 {
		out.PlaybackID = asset.PlaybackIds[0].Id
	}
	if len(asset.Errors.Messages) > 0 {
		out.ErrorText = asset.Errors.Messages[0]
	}
	return out
}
