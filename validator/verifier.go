package validator

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/utils"
)

var (
	ErrNotEnoughSignatures = fmt.Errorf("%w: not enough signatures", bridgeerr.ErrValidation)
	ErrInvalidSignature    = fmt.Errorf("%w: can't recover signer", bridgeerr.ErrMalformedInput)
	ErrUnknownSigner       = fmt.Errorf("%w: signer is not a validator", bridgeerr.ErrAuthorization)
	ErrDuplicateSigner     = fmt.Errorf("%w: duplicate signer", bridgeerr.ErrReplay)
)

type Verifier struct {
	registry *Registry
}

func NewVerifier(registry *Registry) *Verifier {
	return &Verifier{registry: registry}
}

// Verify checks the signature blob against the encoded relay message. The
// quorum is read when Verify is called; signatures past the first quorum of
// distinct validators are not inspected. It returns the counted signers.
func (v *Verifier) Verify(encoded []byte, blob []byte) ([]common.Address, error) {
	sigs, err := message.DecodeSignatures(blob)
	if err != nil {
		return nil, err
	}
	required, err := v.registry.RequiredSignatures()
	if err != nil {
		return nil, err
	}
	if uint64(len(sigs)) < required {
		return nil, fmt.Errorf("got %d, need %d: %w", len(sigs), required, ErrNotEnoughSignatures)
	}
	hash := message.SigningHash(encoded)
	signers := make([]common.Address, 0, required)
	for i, sig := range sigs {
		signer, err := utils.RecoverAddress(hash.Bytes(), sig.Bytes())
		if err != nil {
			return nil, fmt.Errorf("signature %d: %s: %w", i, err, ErrInvalidSignature)
		}
		ok, err := v.registry.IsValidator(signer)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("signature %d from %s: %w", i, signer, ErrUnknownSigner)
		}
		for _, prev := range signers {
			if prev == signer {
				return nil, fmt.Errorf("signature %d from %s: %w", i, signer, ErrDuplicateSigner)
			}
		}
		signers = append(signers, signer)
		if uint64(len(signers)) >= required {
			return signers, nil
		}
	}
	return nil, ErrNotEnoughSignatures
}
