package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"

	vnft "github.com/livepeer/video-nft-sdk"
	"github.com/livepeer/video-nft-sdk/common/lit"
	"github.com/livepeer/video-nft-sdk/common/loggers"
	"github.com/livepeer/video-nft-sdk/common/metrics"
	"github.com/livepeer/video-nft-sdk/common/notifs"
	"github.com/livepeer/video-nft-sdk/common/studio"
	"github.com/livepeer/video-nft-sdk/common/wallet"
	"github.com/livepeer/video-nft-sdk/models"
	"github.com/livepeer/video-nft-sdk/services"
)

type args struct {
	PlaybackId  string        `arg:"positional,required" help:"playback id of the content item to gate"`
	AuthSigFile string        `arg:"--auth-sig" help:"JSON file with pre-signed auth signatures, keyed by chain"`
	Timeout     time.Duration `arg:"--timeout" default:"2m" help:"overall deadline for the gating flow"`
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env file: %v", err)
	}
	var cliArgs args
	arg.MustParse(&cliArgs)

	logger := loggers.NewLogger()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), cliArgs.Timeout)
	defer cancel()

	metricService, err := metrics.NewMetricService(ctx, logger)
	if err != nil {
		logger.Fatalf("failed to create metric service: %v", err)
	}
	defer metricService.Shutdown(context.Background())

	notifier, err := notifs.NewDiscordHandler(logger)
	if err != nil {
		logger.Fatalf("failed to create notifier: %v", err)
	}

	apiUrl := os.Getenv(vnft.Env_StudioApiUrl)
	if len(apiUrl) == 0 {
		apiUrl = vnft.DefaultStudioApiUrl
	}
	studioClient, err := studio.NewClient(apiUrl, os.Getenv(vnft.Env_StudioApiKey), logger)
	if err != nil {
		logger.Fatalf("failed to create studio client: %v", err)
	}
	litClient := lit.NewClient(os.Getenv(vnft.Env_LitGatewayUrl), logger)

	authSigFile := cliArgs.AuthSigFile
	if len(authSigFile) == 0 {
		authSigFile = os.Getenv(vnft.Env_AuthSigFile)
	}
	signer, err := wallet.NewStaticSignerFromFile(authSigFile)
	if err != nil {
		logger.Fatalf("failed to load auth signatures: %v", err)
	}

	credentials := services.NewCredentialService(signer, metricService, logger)
	credentials.SetIdentity(signer.Address())
	resolver := services.NewResolverService(studioClient, metricService, logger)
	verifier := services.NewVerificationService(studioClient, metricService, logger)
	gate := services.NewGateService(credentials, litClient, verifier, metricService, logger)

	// The network handshake happens once per session. A failure here is fatal:
	// there is no reconnect loop, the viewer has to restart.
	if err = litClient.Connect(ctx); err != nil {
		notifier.SendAlert(models.AlertTitle, models.AlertDesc_LitConnectFailed, err.Error())
		logger.Fatalf(models.AlertFmt_LitConnectFailed, err)
	}
	defer litClient.Close()

	// Poll the playback descriptor and feed every outcome into the gate; the
	// gate itself never retries, the polling layer owns that.
	go pollPlaybackInfo(ctx, cliArgs.PlaybackId, signer.Address(), resolver, litClient, gate, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Fatalf("gate check timed out in status %s", gate.Snapshot().Status)
		case snapshot := <-gate.Updates():
			switch snapshot.Status {
			case models.GateStatus_Open:
				fmt.Printf("gate open, stream at %s\n", snapshot.StreamUrl)
				return
			case models.GateStatus_Closed:
				fmt.Println(snapshot.ErrorDetail)
				litClient.Close()
				os.Exit(1)
			default:
				logger.Infof("gate %s", snapshot.Status)
			}
		}
	}
}

func pollPlaybackInfo(ctx context.Context, playbackId, identity string, resolver *services.ResolverService, litClient *lit.Client, gate *services.GateService, logger models.Logger) {
	pollBackoff := backoff.WithContext(backoff.NewConstantBackOff(vnft.DefaultTick), ctx)
	backoff.Retry(func() error {
		inputs := models.GateInputs{
			PlaybackId:   playbackId,
			Identity:     identity,
			NetworkReady: litClient.Ready(),
		}
		playbackInfo, err := resolver.Resolve(ctx, playbackId)
		if err != nil {
			logger.Warnf("poll: %v", err)
			inputs.ResolutionError = err.Error()
			gate.SetInputs(ctx, inputs)
			return err
		}
		inputs.PlaybackInfo = playbackInfo
		inputs.StreamUrl = services.PlaybackUrl(playbackInfo)
		gate.SetInputs(ctx, inputs)
		if inputs.StreamUrl == nil {
			return fmt.Errorf("no playable source for %s yet", playbackId)
		}
		return nil
	}, pollBackoff)
}
