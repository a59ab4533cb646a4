package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/abevier/tsk/ratelimiter"
	"github.com/go-playground/validator"

	vnft "github.com/livepeer/video-nft-sdk"
	"github.com/livepeer/video-nft-sdk/models"
)

// Client talks to the media host: playback-info reads, access-token
// verification against the playback origin, and the direct-upload flow. The
// underlying HTTP client keeps a cookie jar so the scoped session cookie set
// by a successful verification is retained for subsequent segment fetches.
type Client struct {
	baseUrl     string
	apiKey      string
	client      *http.Client
	infoLimiter *ratelimiter.RateLimiter[string, *models.PlaybackInfo]
	validator   *validator.Validate
	logger      models.Logger
}

func NewClient(baseUrl, apiKey string, logger models.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseUrl:   strings.TrimSuffix(baseUrl, "/"),
		apiKey:    apiKey,
		client:    &http.Client{Jar: jar},
		validator: validator.New(),
		logger:    logger,
	}
	rlOpts := ratelimiter.Opts{
		Limit:             models.DefaultPlaybackInfoRateLimit,
		Burst:             models.DefaultPlaybackInfoRateLimit,
		MaxQueueDepth:     models.DefaultPlaybackInfoQueueDepth,
		FullQueueStrategy: ratelimiter.BlockWhenFull,
	}
	c.infoLimiter = ratelimiter.New(rlOpts, func(ctx context.Context, playbackId string) (*models.PlaybackInfo, error) {
		return c.doGetPlaybackInfo(ctx, playbackId)
	})
	return c, nil
}

func (c *Client) GetPlaybackInfo(ctx context.Context, playbackId string) (*models.PlaybackInfo, error) {
	return c.infoLimiter.Submit(ctx, playbackId)
}

func (c *Client) doGetPlaybackInfo(ctx context.Context, playbackId string) (*models.PlaybackInfo, error) {
	reqCtx, cancel := context.WithTimeout(ctx, vnft.DefaultHttpWaitTime)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "GET", c.baseUrl+"/playback/"+playbackId, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debugf("playbackInfo: error submitting request: %v", err)
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debugf("playbackInfo: error in response: %v, %s", resp.StatusCode, respBody)
		return nil, fmt.Errorf("playback info request failed with status %d: %s", resp.StatusCode, respBody)
	}
	playbackInfo := new(models.PlaybackInfo)
	if err = json.Unmarshal(respBody, playbackInfo); err != nil {
		return nil, err
	}
	return playbackInfo, nil
}

type verifyRequest struct {
	PlaybackId string `json:"playbackId" validate:"required"`
	Jwt        string `json:"jwt" validate:"required"`
}

type verifyErrorResponse struct {
	Errors []string `json:"errors"`
}

// VerifyAccessToken presents the network-issued token to the verification
// endpoint on the playback origin. A 2xx answer means the origin has set the
// session cookie; a structured rejection carries the origin's error list.
func (c *Client) VerifyAccessToken(ctx context.Context, playbackUrl *url.URL, playbackId string, token models.AccessToken) error {
	verifyReq := verifyRequest{PlaybackId: playbackId, Jwt: string(token)}
	if err := c.validator.Struct(&verifyReq); err != nil {
		return &models.VerificationError{Err: err}
	}
	reqBody, err := json.Marshal(&verifyReq)
	if err != nil {
		return &models.VerificationError{Err: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, vnft.DefaultHttpWaitTime)
	defer cancel()

	endpoint := fmt.Sprintf("%s://%s/verify-lit-jwt", playbackUrl.Scheme, playbackUrl.Host)
	req, err := http.NewRequestWithContext(reqCtx, "POST", endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return &models.VerificationError{Err: err}
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debugf("verify: error submitting request: %v", err)
		return &models.VerificationError{Err: err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.VerificationError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debugf("verify: rejected with status %d: %s", resp.StatusCode, respBody)
		errResp := new(verifyErrorResponse)
		if err = json.Unmarshal(respBody, errResp); err == nil && len(errResp.Errors) > 0 {
			return &models.VerificationError{Errors: errResp.Errors}
		}
		return &models.VerificationError{Errors: []string{fmt.Sprintf("verification failed with status %d", resp.StatusCode)}}
	}
	return nil
}

// RequestUpload asks the media host for a direct upload slot, attaching the
// playback policy at creation.
func (c *Client) RequestUpload(ctx context.Context, uploadReq *models.UploadRequest) (*models.UploadSession, error) {
	if err := c.validator.Struct(uploadReq); err != nil {
		return nil, err
	}
	reqBody, err := json.Marshal(uploadReq)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, vnft.DefaultHttpWaitTime)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", c.baseUrl+"/asset/request-upload", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload request failed with status %d: %s", resp.StatusCode, respBody)
	}
	session := new(models.UploadSession)
	if err = json.Unmarshal(respBody, session); err != nil {
		return nil, err
	}
	return session, nil
}

// UploadFile streams the video contents to the upload URL returned by
// RequestUpload. No timeout here, uploads can legitimately take a while.
func (c *Client) UploadFile(ctx context.Context, uploadUrl string, contents io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, "PUT", uploadUrl, contents)
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "video/mp4")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

func (c *Client) GetAsset(ctx context.Context, assetId string) (*models.Asset, error) {
	reqCtx, cancel := context.WithTimeout(ctx, vnft.DefaultHttpWaitTime)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "GET", c.baseUrl+"/asset/"+assetId, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset request failed with status %d: %s", resp.StatusCode, respBody)
	}
	asset := new(models.Asset)
	if err = json.Unmarshal(respBody, asset); err != nil {
		return nil, err
	}
	return asset, nil
}
