package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/livepeer/video-nft-sdk/models"
)

// PublishService is the upload-side glue: request an upload slot with the
// playback policy attached, push the file, then wait for the transcode
// pipeline to make the asset playable.
type PublishService struct {
	origin        models.MediaOrigin
	metricService models.MetricService
	logger        models.Logger
	pollInterval  time.Duration
	pollTimeout   time.Duration
}

func NewPublishService(origin models.MediaOrigin, metricService models.MetricService, logger models.Logger) *PublishService {
	pollInterval := models.DefaultAssetPollInterval
	if configPollInterval, found := os.LookupEnv("ASSET_POLL_INTERVAL"); found {
		if parsedPollInterval, err := time.ParseDuration(configPollInterval); err == nil {
			pollInterval = parsedPollInterval
		}
	}
	pollTimeout := models.DefaultAssetPollTimeout
	if configPollTimeout, found := os.LookupEnv("ASSET_POLL_TIMEOUT"); found {
		if parsedPollTimeout, err := time.ParseDuration(configPollTimeout); err == nil {
			pollTimeout = parsedPollTimeout
		}
	}
	return &PublishService{origin, metricService, logger, pollInterval, pollTimeout}
}

func (p PublishService) Publish(ctx context.Context, name string, contents io.Reader, policy *models.PlaybackPolicy) (*models.Asset, error) {
	session, err := p.origin.RequestUpload(ctx, &models.UploadRequest{Name: name, PlaybackPolicy: policy})
	if err != nil {
		return nil, fmt.Errorf("publish: upload request failed: %w", err)
	}
	p.metricService.Count(ctx, models.MetricName_UploadRequested, 1)
	p.logger.Infof("publish: uploading %s as asset %s", name, session.Asset.Id)

	if err = p.origin.UploadFile(ctx, session.Url, contents); err != nil {
		return nil, fmt.Errorf("publish: upload failed: %w", err)
	}
	return p.WaitForReady(ctx, session.Asset.Id)
}

// WaitForReady polls the asset until the transcode pipeline reports it
// playable. A failed transcode stops the polling immediately.
func (p PublishService) WaitForReady(ctx context.Context, assetId string) (*models.Asset, error) {
	var asset *models.Asset
	pollBackoff := backoff.NewExponentialBackOff()
	pollBackoff.InitialInterval = p.pollInterval
	pollBackoff.MaxElapsedTime = p.pollTimeout
	err := backoff.Retry(func() error {
		var err error
		if asset, err = p.origin.GetAsset(ctx, assetId); err != nil {
			return err
		}
		if asset.Failed() {
			return backoff.Permanent(fmt.Errorf("transcode failed: %s", asset.Status.ErrorMessage))
		}
		if !asset.Ready() {
			p.logger.Debugf("publish: asset %s in phase %s (%.0f%%)", assetId, asset.Status.Phase, asset.Status.Progress*100)
			return errors.New("asset not ready")
		}
		return nil
	}, backoff.WithContext(pollBackoff, ctx))
	if err != nil {
		return nil, err
	}
	p.metricService.Count(ctx, models.MetricName_AssetReady, 1)
	p.logger.Infof("publish: asset %s ready, playback id %s", assetId, asset.PlaybackId)
	return asset, nil
}
