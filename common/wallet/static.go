package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator"

	"github.com/livepeer/video-nft-sdk/models"
)

// StaticSigner satisfies signing requests from pre-computed auth signatures,
// keyed by chain. It stands in for a browser wallet in non-interactive
// environments; signatures are produced out of band and supplied as JSON.
type StaticSigner struct {
	authSigs models.AuthSigs
}

func NewStaticSigner(authSigs models.AuthSigs) (*StaticSigner, error) {
	validate := validator.New()
	for chain, authSig := range authSigs {
		if err := validate.Struct(authSig); err != nil {
			return nil, fmt.Errorf("invalid auth signature for chain %s: %w", chain, err)
		}
	}
	return &StaticSigner{authSigs: authSigs}, nil
}

// NewStaticSignerFromFile loads signatures from a JSON file holding either a
// chain-keyed map or a single signature (treated as the default chain).
func NewStaticSignerFromFile(path string) (*StaticSigner, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	authSigs := models.AuthSigs{}
	if err = json.Unmarshal(contents, &authSigs); err != nil || len(authSigs) == 0 {
		single := new(models.AuthSig)
		if err = json.Unmarshal(contents, single); err != nil {
			return nil, fmt.Errorf("could not parse auth signature file %s: %w", path, err)
		}
		authSigs = models.AuthSigs{models.DefaultChain: single}
	}
	return NewStaticSigner(authSigs)
}

func (s *StaticSigner) SignAuthMessage(ctx context.Context, chain string) (*models.AuthSig, error) {
	if authSig, found := s.authSigs[chain]; found {
		return authSig, nil
	}
	return nil, fmt.Errorf("no auth signature available for chain %s", chain)
}

// Address returns the identity the signatures were produced by, or empty when
// none are loaded.
func (s *StaticSigner) Address() string {
	for _, authSig := range s.authSigs {
		return authSig.Address
	}
	return ""
}
