package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/alexflint/go-arg"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	vnft "github.com/livepeer/video-nft-sdk"
	"github.com/livepeer/video-nft-sdk/common/loggers"
	"github.com/livepeer/video-nft-sdk/common/metrics"
	"github.com/livepeer/video-nft-sdk/common/studio"
	"github.com/livepeer/video-nft-sdk/models"
	"github.com/livepeer/video-nft-sdk/services"
)

type args struct {
	File           string `arg:"positional,required" help:"video file to upload"`
	Name           string `arg:"--name" help:"asset name, defaults to the file name"`
	ConditionsFile string `arg:"--conditions" help:"JSON file with unified access control conditions; omit for a public asset"`
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env file: %v", err)
	}
	var cliArgs args
	arg.MustParse(&cliArgs)

	logger := loggers.NewLogger()
	defer logger.Sync()

	ctx := context.Background()
	metricService, err := metrics.NewMetricService(ctx, logger)
	if err != nil {
		logger.Fatalf("failed to create metric service: %v", err)
	}
	defer metricService.Shutdown(ctx)

	apiUrl := os.Getenv(vnft.Env_StudioApiUrl)
	if len(apiUrl) == 0 {
		apiUrl = vnft.DefaultStudioApiUrl
	}
	studioClient, err := studio.NewClient(apiUrl, os.Getenv(vnft.Env_StudioApiKey), logger)
	if err != nil {
		logger.Fatalf("failed to create studio client: %v", err)
	}

	policy, err := buildPolicy(cliArgs.ConditionsFile)
	if err != nil {
		logger.Fatalf("failed to build playback policy: %v", err)
	}

	name := cliArgs.Name
	if len(name) == 0 {
		name = filepath.Base(cliArgs.File)
	}
	contents, err := os.Open(cliArgs.File)
	if err != nil {
		logger.Fatalf("failed to open %s: %v", cliArgs.File, err)
	}
	defer contents.Close()

	publisher := services.NewPublishService(studioClient, metricService, logger)
	asset, err := publisher.Publish(ctx, name, contents, policy)
	if err != nil {
		logger.Fatalf("failed to publish %s: %v", name, err)
	}
	fmt.Printf("asset %s ready, playback id %s\n", asset.Id, asset.PlaybackId)
}

// buildPolicy attaches the conditions from the given file as a signing
// policy, with a fresh resource id correlating them to the new asset.
func buildPolicy(conditionsFile string) (*models.PlaybackPolicy, error) {
	if len(conditionsFile) == 0 {
		return &models.PlaybackPolicy{Type: models.PolicyType_Public}, nil
	}
	conditions, err := os.ReadFile(conditionsFile)
	if err != nil {
		return nil, err
	}
	if !json.Valid(conditions) {
		return nil, fmt.Errorf("%s does not contain valid JSON conditions", conditionsFile)
	}
	return &models.PlaybackPolicy{
		Type:                           models.PolicyType_LitSigningCondition,
		UnifiedAccessControlConditions: conditions,
		ResourceId: models.ResourceId{
			"baseUrl":   vnft.DefaultStudioApiUrl,
			"path":      "/" + uuid.NewString(),
			"orgId":     "",
			"role":      "",
			"extraData": "",
		},
	}, nil
}
