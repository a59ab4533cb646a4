package services

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/livepeer/video-nft-sdk/models"
)

// CredentialService produces wallet-signed credentials with single-flight
// discipline: concurrent requests for the same chain share one signing
// prompt. Credentials are cached for the lifetime of the current identity and
// dropped wholesale when the identity changes.
type CredentialService struct {
	signer        models.WalletSigner
	metricService models.MetricService
	logger        models.Logger

	flight singleflight.Group

	mu       sync.Mutex
	identity string
	cache    map[string]*models.AuthSig
}

func NewCredentialService(signer models.WalletSigner, metricService models.MetricService, logger models.Logger) *CredentialService {
	return &CredentialService{
		signer:        signer,
		metricService: metricService,
		logger:        logger,
		cache:         make(map[string]*models.AuthSig),
	}
}

// SetIdentity records the connected wallet address. A change invalidates all
// credentials cached for the previous identity.
func (c *CredentialService) SetIdentity(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == address {
		return
	}
	c.logger.Infof("credentials: identity changed from %q to %q, dropping %d cached credentials", c.identity, address, len(c.cache))
	c.identity = address
	c.cache = make(map[string]*models.AuthSig)
}

func (c *CredentialService) GetCredential(ctx context.Context, chain string) (*models.AuthSig, error) {
	c.mu.Lock()
	identity := c.identity
	if authSig, found := c.cache[chain]; found {
		c.mu.Unlock()
		c.metricService.Count(ctx, models.MetricName_CredentialCacheHit, 1)
		return authSig, nil
	}
	c.mu.Unlock()

	// The flight key includes the identity so a prompt started for a previous
	// identity is never shared with the new one.
	flightKey := identity + "\x00" + chain
	res, err, shared := c.flight.Do(flightKey, func() (interface{}, error) {
		authSig, err := c.signer.SignAuthMessage(ctx, chain)
		if err != nil {
			c.metricService.Count(ctx, models.MetricName_CredentialFailed, 1)
			return nil, &models.CredentialError{Chain: chain, Err: err}
		}
		c.mu.Lock()
		// Do not cache under an identity that changed while signing.
		if c.identity == identity {
			c.cache[chain] = authSig
		}
		c.mu.Unlock()
		c.metricService.Count(ctx, models.MetricName_CredentialSigned, 1)
		return authSig, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.metricService.Count(ctx, models.MetricName_CredentialShared, 1)
	}
	return res.(*models.AuthSig), nil
}
