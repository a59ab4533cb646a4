package lit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator"

	"github.com/livepeer/video-nft-sdk/models"
)

// Client talks to a Lit access-control network gateway. The connection is a
// one-shot handshake: it is attempted once at the start of a viewing session,
// and a failure is fatal for that session (no reconnect loop).
type Client struct {
	gatewayUrl    string
	client        *http.Client
	connected     atomic.Bool
	networkPubKey string
	validator     *validator.Validate
	logger        models.Logger
}

func NewClient(gatewayUrl string, logger models.Logger) *Client {
	return &Client{
		gatewayUrl: strings.TrimSuffix(gatewayUrl, "/"),
		client:     &http.Client{},
		validator:  validator.New(),
		logger:     logger,
	}
}

type handshakeResponse struct {
	NetworkPublicKey string `json:"networkPublicKey"`
}

// Connect performs the network handshake. Calling it again after a
// successful handshake is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	if c.connected.Load() {
		return nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, models.LitConnectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", c.gatewayUrl+"/web/handshake", nil)
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Errorf("connect: error submitting handshake: %v", err)
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Errorf("connect: error in handshake response: %v, %s", resp.StatusCode, respBody)
		return fmt.Errorf("handshake failed with status %d", resp.StatusCode)
	}
	handshake := new(handshakeResponse)
	if err = json.Unmarshal(respBody, handshake); err != nil {
		return err
	}
	c.networkPubKey = handshake.NetworkPublicKey
	c.connected.Store(true)
	c.logger.Infof("connect: connected to lit network at %s", c.gatewayUrl)
	return nil
}

func (c *Client) Ready() bool {
	return c.connected.Load()
}

// Close tears the session down. The client owner calls this when the viewing
// scope ends; a closed client has to Connect again before exchanging tokens.
func (c *Client) Close() {
	c.connected.Store(false)
	c.client.CloseIdleConnections()
}

type signedTokenRequest struct {
	UnifiedAccessControlConditions json.RawMessage   `json:"unifiedAccessControlConditions" validate:"required"`
	AuthSig                        models.AuthSigs   `json:"authSig" validate:"required"`
	ResourceId                     models.ResourceId `json:"resourceId"`
}

type signedTokenResponse struct {
	Token string `json:"token"`
}

type exchangeErrorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// GetSignedToken exchanges the access conditions, the signed credentials and
// the resource id for a bearer token. A failed exchange is terminal for the
// gating attempt; the network's answer is surfaced verbatim and never
// retried, so an unmet condition is not mistaken for a transient error.
func (c *Client) GetSignedToken(ctx context.Context, conditions json.RawMessage, authSigs models.AuthSigs, resourceId models.ResourceId) (models.AccessToken, error) {
	if !c.Ready() {
		return "", &models.ExchangeError{Err: errors.New("not connected to the lit network")}
	}
	tokenReq := signedTokenRequest{
		UnifiedAccessControlConditions: conditions,
		AuthSig:                        authSigs,
		ResourceId:                     resourceId,
	}
	if err := c.validator.Struct(&tokenReq); err != nil {
		return "", &models.ExchangeError{Err: err}
	}
	reqBody, err := json.Marshal(&tokenReq)
	if err != nil {
		return "", &models.ExchangeError{Err: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, models.LitExchangeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", c.gatewayUrl+"/web/signing-access-control-condition", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", &models.ExchangeError{Err: err}
	}
	req.Header.Add("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debugf("exchange: error submitting request: %v", err)
		return "", &models.ExchangeError{Err: err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.ExchangeError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debugf("exchange: rejected with status %d: %s", resp.StatusCode, respBody)
		errResp := new(exchangeErrorResponse)
		if err = json.Unmarshal(respBody, errResp); err == nil && len(errResp.Message) > 0 {
			return "", &models.ExchangeError{Err: errors.New(errResp.Message)}
		}
		return "", &models.ExchangeError{Err: fmt.Errorf("token exchange failed with status %d", resp.StatusCode)}
	}
	tokenResp := new(signedTokenResponse)
	if err = json.Unmarshal(respBody, tokenResp); err != nil {
		return "", &models.ExchangeError{Err: err}
	}
	if len(tokenResp.Token) == 0 {
		return "", &models.ExchangeError{Err: errors.New("network returned an empty token")}
	}
	token := models.AccessToken(tokenResp.Token)
	if exp, ok := token.ExpiresAt(); ok {
		c.logger.Debugf("exchange: received token expiring at %s", exp)
	}
	return token, nil
}
