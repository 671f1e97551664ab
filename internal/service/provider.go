package service

import (
	"context"

	"github.com/aulavid/aulavid-api/pkg/mux"
)

// VideoProvider abstracts the remote ingest/transcode provider. The
// concrete implementation lives in pkg/mux; tests substitute stubs.
type VideoProvider interface {
	CreateDirectUpload(ctx context.Context) (mux.Upload, error)
	GetUpload(ctx context.Context, uploadID string) (mux.Upload, error)
	GetAsset(ctx context.Context, assetID string) (mux.Asset, error)
	DeleteAsset(ctx context.Context, assetID string) error
}
