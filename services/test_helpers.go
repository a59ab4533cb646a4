package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/livepeer/video-nft-sdk/models"
)

type FakeMediaOrigin struct {
	models.MediaOrigin

	mu            sync.Mutex
	playbackInfos map[string]*models.PlaybackInfo
	resolveErr    error
	verifyErrors  []string
	verifyErr     error
	verifyCalls   int
	uploadSession *models.UploadSession
	assetPhases   []models.AssetPhase
	assetCalls    int
}

func (f *FakeMediaOrigin) GetPlaybackInfo(ctx context.Context, playbackId string) (*models.PlaybackInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	if playbackInfo, found := f.playbackInfos[playbackId]; found {
		return playbackInfo, nil
	}
	return nil, fmt.Errorf("playback info request failed with status 404")
}

func (f *FakeMediaOrigin) VerifyAccessToken(ctx context.Context, playbackUrl *url.URL, playbackId string, token models.AccessToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if f.verifyErr != nil {
		return &models.VerificationError{Err: f.verifyErr}
	}
	if len(f.verifyErrors) > 0 {
		return &models.VerificationError{Errors: f.verifyErrors}
	}
	return nil
}

func (f *FakeMediaOrigin) RequestUpload(ctx context.Context, uploadReq *models.UploadRequest) (*models.UploadSession, error) {
	if f.uploadSession == nil {
		return nil, errors.New("upload unavailable")
	}
	return f.uploadSession, nil
}

func (f *FakeMediaOrigin) UploadFile(ctx context.Context, uploadUrl string, contents io.Reader) error {
	return nil
}

func (f *FakeMediaOrigin) GetAsset(ctx context.Context, assetId string) (*models.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	phase := f.assetPhases[len(f.assetPhases)-1]
	if f.assetCalls < len(f.assetPhases) {
		phase = f.assetPhases[f.assetCalls]
	}
	f.assetCalls++
	return &models.Asset{Id: assetId, PlaybackId: "playback-" + assetId, Status: models.AssetStatus{Phase: phase}}, nil
}

func (f *FakeMediaOrigin) getVerifyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifyCalls
}

type FakeSigner struct {
	mu        sync.Mutex
	authSigs  models.AuthSigs
	signErr   error
	prompts   int
	signStart chan struct{}
	signGate  chan struct{}
}

func (f *FakeSigner) SignAuthMessage(ctx context.Context, chain string) (*models.AuthSig, error) {
	f.mu.Lock()
	f.prompts++
	start, gate := f.signStart, f.signGate
	f.mu.Unlock()
	if start != nil {
		start <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signErr != nil {
		return nil, f.signErr
	}
	if authSig, found := f.authSigs[chain]; found {
		return authSig, nil
	}
	return nil, fmt.Errorf("no signer for chain %s", chain)
}

func (f *FakeSigner) getPrompts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts
}

type FakeNetworkClient struct {
	mu            sync.Mutex
	ready         bool
	token         models.AccessToken
	exchangeErr   error
	exchanges     int
	exchangeStart chan struct{}
	exchangeGate  chan struct{}
}

func (f *FakeNetworkClient) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = true
	return nil
}

func (f *FakeNetworkClient) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *FakeNetworkClient) GetSignedToken(ctx context.Context, conditions json.RawMessage, authSigs models.AuthSigs, resourceId models.ResourceId) (models.AccessToken, error) {
	f.mu.Lock()
	f.exchanges++
	start, gate := f.exchangeStart, f.exchangeGate
	f.mu.Unlock()
	if start != nil {
		start <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exchangeErr != nil {
		return "", &models.ExchangeError{Err: f.exchangeErr}
	}
	return f.token, nil
}

func (f *FakeNetworkClient) getExchanges() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchanges
}

type CountingMetricService struct {
	mu     sync.Mutex
	counts map[models.MetricName]int
}

func (m *CountingMetricService) Count(ctx context.Context, name models.MetricName, val int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[models.MetricName]int)
	}
	m.counts[name] += val
	return nil
}

func (m *CountingMetricService) Distribution(ctx context.Context, name models.MetricName, val int) error {
	return nil
}

func (m *CountingMetricService) Shutdown(ctx context.Context) {}

func (m *CountingMetricService) getCount(name models.MetricName) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

// waitForStatus polls the gate until it reaches the wanted status or the
// deadline passes, and returns the snapshot seen last.
func waitForStatus(gate *GateService, status models.GateStatus, timeout time.Duration) (models.GateSnapshot, bool) {
	deadline := time.Now().Add(timeout)
	for {
		snapshot := gate.Snapshot()
		if snapshot.Status == status {
			return snapshot, true
		}
		if time.Now().After(deadline) {
			return snapshot, false
		}
		time.Sleep(time.Millisecond)
	}
}
