package models

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
)

// PolicyResolver retrieves the playback descriptor for a content id. Safe to
// call repeatedly; the result is keyed purely by the playback id.
type PolicyResolver interface {
	Resolve(ctx context.Context, playbackId string) (*PlaybackInfo, error)
}

// WalletSigner is the external wallet-signing collaborator. It may prompt the
// human and reject.
type WalletSigner interface {
	SignAuthMessage(ctx context.Context, chain string) (*AuthSig, error)
}

// CredentialProvider produces or reuses signed authentication credentials.
// Concurrent requests for the same chain share one in-flight signing prompt,
// and cached credentials are dropped when the identity changes.
type CredentialProvider interface {
	GetCredential(ctx context.Context, chain string) (*AuthSig, error)
	SetIdentity(address string)
}

// AccessNetworkClient talks to the decentralized access-control network.
// Connect is a one-shot handshake that must complete before any exchange;
// a failed handshake is fatal for the session.
type AccessNetworkClient interface {
	Connect(ctx context.Context) error
	Ready() bool
	GetSignedToken(ctx context.Context, conditions json.RawMessage, authSigs AuthSigs, resourceId ResourceId) (AccessToken, error)
}

// OriginVerifier presents an access token to the media origin. On success the
// origin establishes a scoped session cookie for subsequent segment fetches;
// nothing is returned to store.
type OriginVerifier interface {
	Verify(ctx context.Context, playbackUrl *url.URL, playbackId string, token AccessToken) error
}

// MediaOrigin is the media host's HTTP surface consumed by this SDK.
type MediaOrigin interface {
	GetPlaybackInfo(ctx context.Context, playbackId string) (*PlaybackInfo, error)
	VerifyAccessToken(ctx context.Context, playbackUrl *url.URL, playbackId string, token AccessToken) error
	RequestUpload(ctx context.Context, uploadReq *UploadRequest) (*UploadSession, error)
	UploadFile(ctx context.Context, uploadUrl string, contents io.Reader) error
	GetAsset(ctx context.Context, assetId string) (*Asset, error)
}

type Notifier interface {
	SendAlert(title, desc, content string) error
}

type MetricService interface {
	Count(ctx context.Context, name MetricName, val int) error
	Distribution(ctx context.Context, name MetricName, val int) error
	Shutdown(ctx context.Context)
}

type Logger interface {
	Debugf(template string, args ...interface{})
	Debugw(msg string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Infoln(args ...interface{})
	Warnf(template string, args ...interface{})
	Sync() error
}
