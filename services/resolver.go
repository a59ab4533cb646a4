package services

import (
	"context"
	"net/url"

	"github.com/livepeer/video-nft-sdk/models"
)

// ResolverService fetches the playback descriptor for a content id. It is
// idempotent and safe to poll; retry/backoff policy belongs to the caller.
type ResolverService struct {
	origin        models.MediaOrigin
	metricService models.MetricService
	logger        models.Logger
}

func NewResolverService(origin models.MediaOrigin, metricService models.MetricService, logger models.Logger) *ResolverService {
	return &ResolverService{origin, metricService, logger}
}

func (r ResolverService) Resolve(ctx context.Context, playbackId string) (*models.PlaybackInfo, error) {
	playbackInfo, err := r.origin.GetPlaybackInfo(ctx, playbackId)
	if err != nil {
		r.metricService.Count(ctx, models.MetricName_PlaybackInfoFailed, 1)
		return nil, &models.PolicyResolutionError{PlaybackId: playbackId, Err: err}
	}
	r.metricService.Count(ctx, models.MetricName_PlaybackInfoResolved, 1)
	r.logger.Debugf("resolve: playback info for %s: policy=%v", playbackId, playbackInfo.Policy())
	return playbackInfo, nil
}

// PlaybackUrl selects the playable HLS URL from a resolved descriptor. A nil
// result means the asset is not ready yet, which the gate tolerates by
// staying unresolved.
func PlaybackUrl(playbackInfo *models.PlaybackInfo) *url.URL {
	return playbackInfo.HlsUrl()
}
