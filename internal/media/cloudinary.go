package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// CloudinaryGateway stores assets on Cloudinary.  Asset ids are Cloudinary
// public ids.
type CloudinaryGateway struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryGateway builds a client from the account's cloud name and
// API key pair.
func NewCloudinaryGateway(cloudName, apiKey, apiSecret string) (*CloudinaryGateway, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return &CloudinaryGateway{cld: cld}, nil
}

// Upload sends the file at localPath and removes it afterwards.
func (g *CloudinaryGateway) Upload(ctx context.Context, localPath string, opts UploadOptions) (Asset, error) {
	defer removeLocal(ctx, localPath)

	res, err := g.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{
		Folder:       opts.Folder,
		ResourceType: string(opts.Kind),
	})
	if err != nil {
		return Asset{}, &UpstreamError{Op: "upload", Kind: opts.Kind, Err: err}
	}
	if res.Error.Message != "" {
		return Asset{}, &UpstreamError{Op: "upload", Kind: opts.Kind, Err: errors.New(res.Error.Message)}
	}
	if res.SecureURL == "" || res.PublicID == "" {
		return Asset{}, &UpstreamError{Op: "upload", Kind: opts.Kind, Err: errors.New("empty upload result")}
	}
	return Asset{URL: res.SecureURL, AssetID: res.PublicID, Kind: opts.Kind}, nil
}

// Destroy deletes the asset.  Cloudinary answers "not found" for assets that
// are already gone, which counts as success.
func (g *CloudinaryGateway) Destroy(ctx context.Context, assetID string, kind model.MediaKind) error {
	res, err := g.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     assetID,
		ResourceType: string(kind),
	})
	if err != nil {
		return &UpstreamError{Op: "destroy", Kind: kind, Err: err}
	}
	if err := destroyOutcome(res.Result, res.Error.Message); err != nil {
		return &UpstreamError{Op: "destroy", Kind: kind, Err: err}
	}
	return nil
}

// destroyOutcome interprets Cloudinary's destroy response.
func destroyOutcome(result, errMsg string) error {
	if errMsg != "" {
		return errors.New(errMsg)
	}
	switch result {
	case "ok", "not found":
		return nil
	case "":
		return errors.New("empty destroy result")
	default:
		return fmt.Errorf("destroy result %q", result)
	}
}
