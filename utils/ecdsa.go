package utils

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// RestoreSignerAddress recovers the signer of an EIP-191 personal message.
func RestoreSignerAddress(data, sig []byte) (common.Address, error) {
	return RecoverAddress(accounts.TextHash(data), sig)
}

// RecoverAddress recovers the signer of a 32 byte digest from a 65 byte
// R || S || V signature. Both 0/1 and 27/28 recovery ids are accepted.
func RecoverAddress(hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(sig))
	}
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	pk, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("can't recover ecdsa signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pk), nil
}
