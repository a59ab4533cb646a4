package models

import "time"

type AssetPhase string

const (
	AssetPhase_Waiting    AssetPhase = "waiting"
	AssetPhase_Uploading  AssetPhase = "uploading"
	AssetPhase_Processing AssetPhase = "processing"
	AssetPhase_Ready      AssetPhase = "ready"
	AssetPhase_Failed     AssetPhase = "failed"
)

type AssetStatus struct {
	Phase        AssetPhase `json:"phase"`
	Progress     float64    `json:"progress,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	UpdatedAt    int64      `json:"updatedAt,omitempty"`
}

// Asset is a content item at the media host, tracked from upload through
// transcode. PlaybackId is assigned at ingest and immutable.
type Asset struct {
	Id             string          `json:"id"`
	Name           string          `json:"name"`
	PlaybackId     string          `json:"playbackId"`
	Status         AssetStatus     `json:"status"`
	PlaybackPolicy *PlaybackPolicy `json:"playbackPolicy,omitempty"`
	CreatedAt      int64           `json:"createdAt,omitempty"`
}

func (a *Asset) Ready() bool {
	return a != nil && a.Status.Phase == AssetPhase_Ready
}

func (a *Asset) Failed() bool {
	return a != nil && a.Status.Phase == AssetPhase_Failed
}

// UploadRequest asks the media host for a direct upload slot, optionally
// attaching the playback policy at creation so the asset is gated from the
// moment it becomes playable.
type UploadRequest struct {
	Name           string          `json:"name" validate:"required"`
	PlaybackPolicy *PlaybackPolicy `json:"playbackPolicy,omitempty"`
}

type UploadSession struct {
	Url         string `json:"url"`
	TusEndpoint string `json:"tusEndpoint,omitempty"`
	Asset       Asset  `json:"asset"`
}

const DefaultAssetPollInterval = 5 * time.Second
const DefaultAssetPollTimeout = 15 * time.Minute
