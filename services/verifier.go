package services

import (
	"context"
	"errors"
	"net/url"

	"github.com/livepeer/video-nft-sdk/models"
)

// VerificationService presents access tokens to the media origin. On success
// the origin has set the scoped session cookie; there is nothing to store on
// this side.
type VerificationService struct {
	origin        models.MediaOrigin
	metricService models.MetricService
	logger        models.Logger
}

func NewVerificationService(origin models.MediaOrigin, metricService models.MetricService, logger models.Logger) *VerificationService {
	return &VerificationService{origin, metricService, logger}
}

func (v VerificationService) Verify(ctx context.Context, playbackUrl *url.URL, playbackId string, token models.AccessToken) error {
	if err := v.origin.VerifyAccessToken(ctx, playbackUrl, playbackId, token); err != nil {
		v.metricService.Count(ctx, models.MetricName_VerificationRejected, 1)
		verificationErr := new(models.VerificationError)
		if errors.As(err, &verificationErr) {
			if verificationErr.Rejected() {
				v.logger.Infof("verify: origin rejected token for %s: %s", playbackId, verificationErr.AllErrors())
			} else {
				v.logger.Warnf("verify: origin unreachable for %s: %v", playbackId, verificationErr.Unwrap())
			}
			return err
		}
		return &models.VerificationError{Err: err}
	}
	v.metricService.Count(ctx, models.MetricName_VerificationAccepted, 1)
	v.logger.Debugf("verify: origin accepted token for %s", playbackId)
	return nil
}
