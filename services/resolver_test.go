package services

import (
	"context"
	"errors"
	"testing"

	"github.com/livepeer/video-nft-sdk/common/loggers"
	"github.com/livepeer/video-nft-sdk/models"
)

func TestResolve(t *testing.T) {
	tests := map[string]struct {
		origin      *FakeMediaOrigin
		playbackId  string
		shouldError bool
	}{
		"resolve known playback id": {
			origin:     &FakeMediaOrigin{playbackInfos: map[string]*models.PlaybackInfo{testPlaybackId: gatedPlaybackInfo()}},
			playbackId: testPlaybackId,
		},
		"unknown playback id": {
			origin:      &FakeMediaOrigin{},
			playbackId:  "missing",
			shouldError: true,
		},
		"transport failure": {
			origin:      &FakeMediaOrigin{resolveErr: errors.New("connection refused")},
			playbackId:  testPlaybackId,
			shouldError: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			resolver := NewResolverService(test.origin, &CountingMetricService{}, loggers.NewTestLogger())
			playbackInfo, err := resolver.Resolve(context.Background(), test.playbackId)
			if test.shouldError {
				if err == nil {
					t.Fatalf("should have received error")
				}
				resolutionErr := new(models.PolicyResolutionError)
				if !errors.As(err, &resolutionErr) {
					t.Errorf("expected a policy resolution error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error received %v", err)
			}
			if playbackInfo.Policy() == nil || !playbackInfo.Policy().Gated() {
				t.Errorf("expected gated policy in resolved descriptor")
			}
		})
	}
}

func TestPlaybackUrlSelection(t *testing.T) {
	tests := map[string]struct {
		sources []models.Source
		wantUrl string
	}{
		"first hls source wins": {
			sources: []models.Source{
				{Type: "html5/video/mp4", Url: "https://playback.test/mp4"},
				{Type: models.HlsSourceType, Url: "https://playback.test/hls/a/index.m3u8"},
				{Type: models.HlsSourceType, Url: "https://playback.test/hls/b/index.m3u8"},
			},
			wantUrl: "https://playback.test/hls/a/index.m3u8",
		},
		"no hls source": {
			sources: []models.Source{{Type: "html5/video/mp4", Url: "https://playback.test/mp4"}},
		},
		"unparsable url": {
			sources: []models.Source{{Type: models.HlsSourceType, Url: "://not-a-url"}},
		},
		"empty source list": {},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			playbackInfo := &models.PlaybackInfo{Meta: models.PlaybackMeta{Source: test.sources}}
			playbackUrl := PlaybackUrl(playbackInfo)
			if len(test.wantUrl) == 0 {
				if playbackUrl != nil {
					t.Errorf("expected no playable url, got %s", playbackUrl)
				}
			} else if playbackUrl == nil || playbackUrl.String() != test.wantUrl {
				t.Errorf("expected %s, got %v", test.wantUrl, playbackUrl)
			}
		})
	}
}

func TestConditionChains(t *testing.T) {
	tests := map[string]struct {
		conditions string
		want       []string
	}{
		"single chain":       {conditions: `[{"chain":"ethereum"}]`, want: []string{"ethereum"}},
		"multiple chains":    {conditions: `[{"chain":"ethereum"},{"chain":"polygon"},{"chain":"ethereum"}]`, want: []string{"ethereum", "polygon"}},
		"no chains declared": {conditions: `[{"operator":"and"}]`, want: []string{"ethereum"}},
		"empty conditions":   {conditions: ``, want: []string{"ethereum"}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			policy := &models.PlaybackPolicy{Type: models.PolicyType_LitSigningCondition}
			if len(test.conditions) > 0 {
				policy.UnifiedAccessControlConditions = []byte(test.conditions)
			}
			chains := policy.ConditionChains()
			if len(chains) != len(test.want) {
				t.Fatalf("expected chains %v, got %v", test.want, chains)
			}
			for idx := range chains {
				if chains[idx] != test.want[idx] {
					t.Errorf("expected chains %v, got %v", test.want, chains)
				}
			}
		})
	}
}
