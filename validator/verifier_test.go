package validator_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/validator"
)

func encodedMessage(t *testing.T) []byte {
	t.Helper()
	msg, err := message.New(
		common.HexToAddress("0x01"),
		big.NewInt(1e18),
		common.HexToHash("0xabcd"),
		common.HexToAddress("0x02"),
	)
	require.NoError(t, err)
	data, err := msg.Encode()
	require.NoError(t, err)
	return data
}

func sign(t *testing.T, v testValidator, data []byte) message.Signature {
	t.Helper()
	raw, err := crypto.Sign(message.SigningHash(data).Bytes(), v.key)
	require.NoError(t, err)
	raw[64] += 27
	sig, err := message.SignatureFromBytes(raw)
	require.NoError(t, err)
	return sig
}

func blob(t *testing.T, sigs ...message.Signature) []byte {
	t.Helper()
	res, err := message.PackSignatures(sigs)
	require.NoError(t, err)
	return res
}

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	vals := newTestValidators(t, 4)
	registry := newRegistry(t, vals[:3], 2)
	verifier := validator.NewVerifier(registry)
	data := encodedMessage(t)

	sigA, sigB, sigC := sign(t, vals[0], data), sign(t, vals[1], data), sign(t, vals[2], data)
	outsider := sign(t, vals[3], data)

	for _, test := range []struct {
		Name    string
		Blob    []byte
		Signers []common.Address
		Err     error
	}{
		{"Quorum of two", blob(t, sigA, sigB), []common.Address{vals[0].address, vals[1].address}, nil},
		{"Extra signatures are not inspected", blob(t, sigC, sigA, outsider), []common.Address{vals[2].address, vals[0].address}, nil},
		{"Not enough signatures", blob(t, sigA), nil, validator.ErrNotEnoughSignatures},
		{"Empty blob", []byte{0}, nil, validator.ErrNotEnoughSignatures},
		{"Unknown signer", blob(t, sigA, outsider), nil, bridgeerr.ErrAuthorization},
		{"Duplicate signature", blob(t, sigA, sigA, sigB), nil, validator.ErrDuplicateSigner},
		{"Malformed blob", blob(t, sigA, sigB)[1:], nil, bridgeerr.ErrMalformedInput},
		{"Invalid recovery id", blob(t, message.Signature{V: 40, R: sigA.R, S: sigA.S}, sigB), nil, validator.ErrInvalidSignature},
	} {
		signers, err := verifier.Verify(data, test.Blob)
		if test.Err == nil {
			require.NoError(t, err, test.Name)
			require.Equal(t, test.Signers, signers, test.Name)
		} else {
			require.ErrorIs(t, err, test.Err, test.Name)
		}
	}
}

func TestVerifier_DuplicateSignerWithDifferentSignature(t *testing.T) {
	t.Parallel()

	vals := newTestValidators(t, 2)
	registry := newRegistry(t, vals, 2)
	verifier := validator.NewVerifier(registry)
	data := encodedMessage(t)

	sigA := sign(t, vals[0], data)
	// (r, n-s) with the flipped recovery id is another valid signature of the same signer.
	n := crypto.S256().Params().N
	malleable := message.Signature{
		V: 27 + (1 - (sigA.V - 27)),
		R: sigA.R,
		S: common.BigToHash(new(big.Int).Sub(n, sigA.S.Big())),
	}
	require.NotEqual(t, sigA, malleable)

	_, err := verifier.Verify(data, blob(t, sigA, malleable))
	require.ErrorIs(t, err, validator.ErrDuplicateSigner)
}

func TestVerifier_QuorumReadAtCallTime(t *testing.T) {
	t.Parallel()

	vals := newTestValidators(t, 3)
	registry := newRegistry(t, vals, 1)
	verifier := validator.NewVerifier(registry)
	data := encodedMessage(t)
	sigA, sigB := sign(t, vals[0], data), sign(t, vals[1], data)

	_, err := verifier.Verify(data, blob(t, sigA))
	require.NoError(t, err)

	require.NoError(t, registry.SetRequiredSignatures(2))
	_, err = verifier.Verify(data, blob(t, sigA))
	require.ErrorIs(t, err, validator.ErrNotEnoughSignatures)
	_, err = verifier.Verify(data, blob(t, sigA, sigB))
	require.NoError(t, err)
}
