package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/livepeer/video-nft-sdk/models"
)

// GateService decides whether playback may begin for a (viewer, content item)
// pairing. It derives a single {unresolved, checking, open, closed} status
// from its input tuple and, for gated policies, runs the check protocol:
// credential signing, token exchange with the access network, then origin
// verification.
//
// The whole snapshot is recomputed from the current inputs on every change,
// never partially mutated. Async check results are tagged with the inputs
// they were started from and discarded if the inputs changed in the meantime,
// so a stale success can never open content for the wrong identity.
type GateService struct {
	credentials   models.CredentialProvider
	network       models.AccessNetworkClient
	verifier      models.OriginVerifier
	metricService models.MetricService
	logger        models.Logger

	mu       sync.Mutex
	inputs   models.GateInputs
	snapshot models.GateSnapshot
	// inflight holds the input tuple of the running check, nil when idle.
	inflight *models.GateInputs
	updates  chan models.GateSnapshot
}

func NewGateService(credentials models.CredentialProvider, network models.AccessNetworkClient, verifier models.OriginVerifier, metricService models.MetricService, logger models.Logger) *GateService {
	return &GateService{
		credentials:   credentials,
		network:       network,
		verifier:      verifier,
		metricService: metricService,
		logger:        logger,
		snapshot:      models.GateSnapshot{Status: models.GateStatus_Unresolved},
		updates:       make(chan models.GateSnapshot, 1),
	}
}

// SetInputs replaces the input tuple and recomputes the gate. Passing inputs
// equal to the current ones is a no-op, which keeps a terminal status and any
// in-flight check undisturbed and makes recomputation idempotent.
func (g *GateService) SetInputs(ctx context.Context, inputs models.GateInputs) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inputs.Equal(inputs) {
		return
	}
	g.inputs = inputs
	g.evaluateLocked(ctx)
}

// Retry resets a terminal status and re-runs the derivation with unchanged
// inputs, e.g. after the viewer fixed their wallet state.
func (g *GateService) Retry(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inflight = nil
	g.evaluateLocked(ctx)
}

func (g *GateService) Snapshot() models.GateSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot
}

// Updates yields the latest snapshot after each recomputation. Only the most
// recent value is retained; a slow consumer sees the newest state, not the
// full history.
func (g *GateService) Updates() <-chan models.GateSnapshot {
	return g.updates
}

func (g *GateService) evaluateLocked(ctx context.Context) {
	in := g.inputs
	snapshot := models.GateSnapshot{
		Status:          models.GateStatus_Unresolved,
		ResolutionError: in.ResolutionError,
	}
	if in.StreamUrl != nil {
		snapshot.StreamUrl = in.StreamUrl.String()
	}

	policy := in.PlaybackInfo.Policy()
	switch {
	case in.PlaybackInfo == nil:
		// Resolution pending or failed: gating requirements are unknown.
	case !policy.Gated():
		// Public assets open immediately, with no wallet or network
		// dependency.
		snapshot.Status = models.GateStatus_Open
	case len(in.Identity) == 0:
		// Connecting a wallet is a precondition, not a denial.
	case in.StreamUrl == nil:
		// No playable source yet; not ready rather than an error.
	default:
		snapshot.Status = models.GateStatus_Checking
		if in.NetworkReady && (g.inflight == nil || !g.inflight.Equal(in)) {
			g.inflight = &in
			go g.runCheck(ctx, in)
		}
	}
	g.setSnapshotLocked(snapshot)
}

func (g *GateService) runCheck(ctx context.Context, in models.GateInputs) {
	checkId := uuid.New()
	g.metricService.Count(ctx, models.MetricName_GateCheckStarted, 1)
	g.logger.Debugf("gate: check %s started for %s as %s", checkId, in.PlaybackId, in.Identity)

	startTime := time.Now()
	err := g.check(ctx, in)
	g.metricService.Distribution(ctx, models.MetricName_GateCheckDurationMs, int(time.Since(startTime).Milliseconds()))

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inflight != nil && g.inflight.Equal(in) {
		g.inflight = nil
	}
	// Staleness check on resolution: the result only applies if the inputs it
	// was captured from still equal the current inputs.
	if !g.inputs.Equal(in) {
		g.metricService.Count(ctx, models.MetricName_GateStaleResult, 1)
		g.logger.Infof("gate: discarding stale check %s for %s as %s", checkId, in.PlaybackId, in.Identity)
		return
	}

	snapshot := models.GateSnapshot{StreamUrl: in.StreamUrl.String()}
	if err != nil {
		snapshot.Status = models.GateStatus_Closed
		snapshot.ErrorDetail = fmt.Sprintf(models.GateErrorFmt, err)
		g.metricService.Count(ctx, models.MetricName_GateClosed, 1)
		g.logger.Infof("gate: check %s closed gate for %s: %v", checkId, in.PlaybackId, err)
	} else {
		snapshot.Status = models.GateStatus_Open
		g.metricService.Count(ctx, models.MetricName_GateOpen, 1)
		g.logger.Infof("gate: check %s opened gate for %s", checkId, in.PlaybackId)
	}
	g.setSnapshotLocked(snapshot)
}

// check runs one end-to-end gating attempt. The three steps are strictly
// sequential; each either completes or fails with no partial progress visible
// to the state machine.
func (g *GateService) check(ctx context.Context, in models.GateInputs) error {
	policy := in.PlaybackInfo.Policy()
	if !policy.Gated() {
		return models.ErrNotGatedAsset
	}

	authSigs := models.AuthSigs{}
	for _, chain := range policy.ConditionChains() {
		authSig, err := g.credentials.GetCredential(ctx, chain)
		if err != nil {
			return err
		}
		authSigs[chain] = authSig
	}

	token, err := g.network.GetSignedToken(ctx, policy.UnifiedAccessControlConditions, authSigs, policy.ResourceId)
	if err != nil {
		g.metricService.Count(ctx, models.MetricName_TokenExchangeFailed, 1)
		return err
	}
	g.metricService.Count(ctx, models.MetricName_TokenExchanged, 1)

	return g.verifier.Verify(ctx, in.StreamUrl, in.PlaybackId, token)
}

func (g *GateService) setSnapshotLocked(snapshot models.GateSnapshot) {
	g.snapshot = snapshot
	select {
	case <-g.updates:
	default:
	}
	g.updates <- snapshot
}
