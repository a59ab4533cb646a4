package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/livepeer/video-nft-sdk/common/loggers"
	"github.com/livepeer/video-nft-sdk/models"
)

const testPlaybackId = "abcd1234"
const testTimeout = 2 * time.Second

var testAuthSig = &models.AuthSig{
	Sig:           "0xsig",
	DerivedVia:    "web3.eth.personal.sign",
	SignedMessage: "test message",
	Address:       "0xviewer",
}

func publicPlaybackInfo() *models.PlaybackInfo {
	return &models.PlaybackInfo{
		Type: "vod",
		Meta: models.PlaybackMeta{
			PlaybackPolicy: &models.PlaybackPolicy{Type: models.PolicyType_Public},
			Source: []models.Source{
				{Hrn: "HLS (TS)", Type: models.HlsSourceType, Url: "https://playback.test/hls/" + testPlaybackId + "/index.m3u8"},
			},
		},
	}
}

func gatedPlaybackInfo() *models.PlaybackInfo {
	playbackInfo := publicPlaybackInfo()
	playbackInfo.Meta.PlaybackPolicy = &models.PlaybackPolicy{
		Type:                           models.PolicyType_LitSigningCondition,
		UnifiedAccessControlConditions: json.RawMessage(`[{"chain":"ethereum","method":"balanceOf"}]`),
		ResourceId:                     models.ResourceId{"baseUrl": "playback.test", "path": "/" + testPlaybackId},
	}
	return playbackInfo
}

func gateInputs(playbackInfo *models.PlaybackInfo, identity string, networkReady bool) models.GateInputs {
	return models.GateInputs{
		PlaybackId:   testPlaybackId,
		Identity:     identity,
		PlaybackInfo: playbackInfo,
		StreamUrl:    playbackInfo.HlsUrl(),
		NetworkReady: networkReady,
	}
}

type gateFixture struct {
	gate    *GateService
	signer  *FakeSigner
	network *FakeNetworkClient
	origin  *FakeMediaOrigin
	metrics *CountingMetricService
}

func newGateFixture() *gateFixture {
	logger := loggers.NewTestLogger()
	metrics := &CountingMetricService{}
	signer := &FakeSigner{authSigs: models.AuthSigs{"ethereum": testAuthSig}}
	network := &FakeNetworkClient{ready: true, token: "header.payload.signature"}
	origin := &FakeMediaOrigin{}
	credentials := NewCredentialService(signer, metrics, logger)
	credentials.SetIdentity(testAuthSig.Address)
	verifier := NewVerificationService(origin, metrics, logger)
	gate := NewGateService(credentials, network, verifier, metrics, logger)
	return &gateFixture{gate, signer, network, origin, metrics}
}

func TestGatePublicPolicy(t *testing.T) {
	tests := map[string]*models.PlaybackInfo{
		"public policy": publicPlaybackInfo(),
		"missing policy": {
			Type: "vod",
			Meta: models.PlaybackMeta{
				Source: []models.Source{{Type: models.HlsSourceType, Url: "https://playback.test/hls/pub/index.m3u8"}},
			},
		},
	}
	for name, playbackInfo := range tests {
		t.Run(name, func(t *testing.T) {
			f := newGateFixture()
			f.gate.SetInputs(context.Background(), gateInputs(playbackInfo, testAuthSig.Address, true))

			snapshot := f.gate.Snapshot()
			if snapshot.Status != models.GateStatus_Open {
				t.Errorf("expected open gate, got %s", snapshot.Status)
			}
			if len(snapshot.StreamUrl) == 0 {
				t.Errorf("expected stream url in snapshot")
			}
			if prompts := f.signer.getPrompts(); prompts != 0 {
				t.Errorf("public asset should not prompt for signatures, got %d", prompts)
			}
			if exchanges := f.network.getExchanges(); exchanges != 0 {
				t.Errorf("public asset should not exchange tokens, got %d", exchanges)
			}
			if verifies := f.origin.getVerifyCalls(); verifies != 0 {
				t.Errorf("public asset should not verify tokens, got %d", verifies)
			}
		})
	}
}

func TestGateNoIdentity(t *testing.T) {
	f := newGateFixture()
	f.gate.SetInputs(context.Background(), gateInputs(gatedPlaybackInfo(), "", true))

	// A missing wallet is a precondition, not a denial.
	snapshot := f.gate.Snapshot()
	if snapshot.Status != models.GateStatus_Unresolved {
		t.Errorf("expected unresolved gate without identity, got %s", snapshot.Status)
	}
	if len(snapshot.ErrorDetail) != 0 {
		t.Errorf("expected no error detail, got %q", snapshot.ErrorDetail)
	}
}

func TestGateOpensOnSuccess(t *testing.T) {
	f := newGateFixture()
	f.gate.SetInputs(context.Background(), gateInputs(gatedPlaybackInfo(), testAuthSig.Address, true))

	snapshot, ok := waitForStatus(f.gate, models.GateStatus_Open, testTimeout)
	if !ok {
		t.Fatalf("gate never opened, status %s, detail %q", snapshot.Status, snapshot.ErrorDetail)
	}
	if verifies := f.origin.getVerifyCalls(); verifies != 1 {
		t.Errorf("expected exactly one verification, got %d", verifies)
	}
	if len(snapshot.StreamUrl) == 0 {
		t.Errorf("expected stream url in open snapshot")
	}
}

func TestGateClosesOnVerifyRejection(t *testing.T) {
	f := newGateFixture()
	f.origin.verifyErrors = []string{"insufficient balance"}
	f.gate.SetInputs(context.Background(), gateInputs(gatedPlaybackInfo(), testAuthSig.Address, true))

	snapshot, ok := waitForStatus(f.gate, models.GateStatus_Closed, testTimeout)
	if !ok {
		t.Fatalf("gate never closed, status %s", snapshot.Status)
	}
	if !strings.Contains(snapshot.ErrorDetail, "insufficient balance") {
		t.Errorf("expected origin error in detail, got %q", snapshot.ErrorDetail)
	}
	if !strings.HasPrefix(snapshot.ErrorDetail, "You are not allowed to view this content. Gate error:") {
		t.Errorf("missing viewer-facing wrapper in detail %q", snapshot.ErrorDetail)
	}
}

func TestGateClosesOnSigningRejection(t *testing.T) {
	f := newGateFixture()
	f.signer.signErr = errors.New("user rejected signing")
	f.gate.SetInputs(context.Background(), gateInputs(gatedPlaybackInfo(), testAuthSig.Address, true))

	snapshot, ok := waitForStatus(f.gate, models.GateStatus_Closed, testTimeout)
	if !ok {
		t.Fatalf("gate never closed, status %s", snapshot.Status)
	}
	if !strings.Contains(snapshot.ErrorDetail, "user rejected signing") {
		t.Errorf("expected rejection message in detail, got %q", snapshot.ErrorDetail)
	}
	// A rejected signature is terminal: no exchange or verification happens.
	if exchanges := f.network.getExchanges(); exchanges != 0 {
		t.Errorf("expected no token exchange after rejection, got %d", exchanges)
	}
	if verifies := f.origin.getVerifyCalls(); verifies != 0 {
		t.Errorf("expected no verification after rejection, got %d", verifies)
	}
}

func TestGateNoHlsSource(t *testing.T) {
	playbackInfo := gatedPlaybackInfo()
	playbackInfo.Meta.Source = []models.Source{{Hrn: "MP4", Type: "html5/video/mp4", Url: "https://playback.test/mp4"}}

	f := newGateFixture()
	f.gate.SetInputs(context.Background(), gateInputs(playbackInfo, testAuthSig.Address, true))

	time.Sleep(50 * time.Millisecond)
	snapshot := f.gate.Snapshot()
	if snapshot.Status != models.GateStatus_Unresolved {
		t.Errorf("expected unresolved gate without a playable source, got %s", snapshot.Status)
	}
	if exchanges := f.network.getExchanges(); exchanges != 0 {
		t.Errorf("expected no token exchange without a playable source, got %d", exchanges)
	}
}

func TestGateWaitsForNetwork(t *testing.T) {
	f := newGateFixture()
	f.gate.SetInputs(context.Background(), gateInputs(gatedPlaybackInfo(), testAuthSig.Address, false))

	time.Sleep(50 * time.Millisecond)
	snapshot := f.gate.Snapshot()
	if snapshot.Status != models.GateStatus_Checking {
		t.Errorf("expected checking gate while network is connecting, got %s", snapshot.Status)
	}
	if exchanges := f.network.getExchanges(); exchanges != 0 {
		t.Errorf("expected no token exchange before the network handshake, got %d", exchanges)
	}

	// The handshake completing is an input change that starts the check.
	f.gate.SetInputs(context.Background(), gateInputs(gatedPlaybackInfo(), testAuthSig.Address, true))
	if _, ok := waitForStatus(f.gate, models.GateStatus_Open, testTimeout); !ok {
		t.Fatalf("gate never opened after the network became ready")
	}
}

func TestGateStaleResultSuppression(t *testing.T) {
	f := newGateFixture()
	f.network.exchangeStart = make(chan struct{})
	f.network.exchangeGate = make(chan struct{})

	f.gate.SetInputs(context.Background(), gateInputs(gatedPlaybackInfo(), testAuthSig.Address, true))
	<-f.network.exchangeStart // the check for the old identity is in flight

	// The wallet switches identity while the exchange is pending. The gate
	// may not reuse the old identity's success for the new one.
	f.gate.SetInputs(context.Background(), gateInputs(gatedPlaybackInfo(), "0xother", false))
	close(f.network.exchangeGate)

	time.Sleep(50 * time.Millisecond)
	snapshot := f.gate.Snapshot()
	if snapshot.Status == models.GateStatus_Open {
		t.Fatalf("stale successful check opened the gate for a different identity")
	}
	if staleResults := f.metrics.getCount(models.MetricName_GateStaleResult); staleResults != 1 {
		t.Errorf("expected 1 discarded stale result, got %d", staleResults)
	}
}

func TestGateSingleCheckPerInputs(t *testing.T) {
	f := newGateFixture()
	f.network.exchangeStart = make(chan struct{})
	f.network.exchangeGate = make(chan struct{})

	inputs := gateInputs(gatedPlaybackInfo(), testAuthSig.Address, true)
	f.gate.SetInputs(context.Background(), inputs)
	<-f.network.exchangeStart

	// Re-deriving with identical inputs while a check is in flight must not
	// start a second one.
	f.gate.SetInputs(context.Background(), inputs)
	f.gate.SetInputs(context.Background(), gateInputs(gatedPlaybackInfo(), testAuthSig.Address, true))
	close(f.network.exchangeGate)

	if _, ok := waitForStatus(f.gate, models.GateStatus_Open, testTimeout); !ok {
		t.Fatalf("gate never opened")
	}
	if exchanges := f.network.getExchanges(); exchanges != 1 {
		t.Errorf("expected a single token exchange, got %d", exchanges)
	}
}

func TestGateIdempotentRecomputation(t *testing.T) {
	f := newGateFixture()
	inputs := gateInputs(gatedPlaybackInfo(), testAuthSig.Address, true)
	f.gate.SetInputs(context.Background(), inputs)
	first, ok := waitForStatus(f.gate, models.GateStatus_Open, testTimeout)
	if !ok {
		t.Fatalf("gate never opened")
	}

	// Same inputs, same collaborator responses: the terminal state must not
	// change, and the open gate must not flap back to checking.
	f.gate.SetInputs(context.Background(), inputs)
	second := f.gate.Snapshot()
	if first != second {
		t.Errorf("snapshot changed on identical inputs: %+v != %+v", first, second)
	}
}

func TestGateRetryAfterClose(t *testing.T) {
	f := newGateFixture()
	f.network.exchangeErr = errors.New("conditions not met")
	f.gate.SetInputs(context.Background(), gateInputs(gatedPlaybackInfo(), testAuthSig.Address, true))
	if snapshot, ok := waitForStatus(f.gate, models.GateStatus_Closed, testTimeout); !ok {
		t.Fatalf("gate never closed, status %s", snapshot.Status)
	}

	f.network.mu.Lock()
	f.network.exchangeErr = nil
	f.network.mu.Unlock()
	f.gate.Retry(context.Background())
	if snapshot, ok := waitForStatus(f.gate, models.GateStatus_Open, testTimeout); !ok {
		t.Fatalf("gate never opened after retry, status %s, detail %q", snapshot.Status, snapshot.ErrorDetail)
	}
}

func TestGateResolutionErrorSurfaced(t *testing.T) {
	f := newGateFixture()
	f.gate.SetInputs(context.Background(), models.GateInputs{
		PlaybackId:      testPlaybackId,
		Identity:        testAuthSig.Address,
		ResolutionError: "playback info request failed with status 500",
	})

	snapshot := f.gate.Snapshot()
	if snapshot.Status != models.GateStatus_Unresolved {
		t.Errorf("expected unresolved gate on resolution failure, got %s", snapshot.Status)
	}
	if !strings.Contains(snapshot.ResolutionError, "status 500") {
		t.Errorf("expected resolution error in snapshot, got %q", snapshot.ResolutionError)
	}
	if len(snapshot.ErrorDetail) != 0 {
		t.Errorf("resolution failure is not an access denial, got detail %q", snapshot.ErrorDetail)
	}
}
