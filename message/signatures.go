package message

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/omni/tokenbridge-core/bridgeerr"
)

const SignatureLength = crypto.SignatureLength

var (
	ErrInvalidSignaturesLength = fmt.Errorf("%w: invalid signatures blob length", bridgeerr.ErrMalformedInput)
	ErrInvalidSignatureLength  = fmt.Errorf("%w: invalid signature length", bridgeerr.ErrMalformedInput)
	ErrTooManySignatures       = fmt.Errorf("%w: too many signatures", bridgeerr.ErrMalformedInput)
)

type Signature struct {
	V byte
	R common.Hash
	S common.Hash
}

func SignatureFromBytes(sig []byte) (Signature, error) {
	if len(sig) != SignatureLength {
		return Signature{}, fmt.Errorf("expected %d bytes, got %d: %w", SignatureLength, len(sig), ErrInvalidSignatureLength)
	}
	return Signature{
		V: sig[64],
		R: common.BytesToHash(sig[0:32]),
		S: common.BytesToHash(sig[32:64]),
	}, nil
}

// Bytes returns the signature in the R || S || V layout.
func (s Signature) Bytes() []byte {
	res := make([]byte, 0, SignatureLength)
	res = append(res, s.R.Bytes()...)
	res = append(res, s.S.Bytes()...)
	return append(res, s.V)
}

// DecodeSignatures parses count(1) || v[count] || r[count] || s[count].
func DecodeSignatures(blob []byte) ([]Signature, error) {
	if len(blob) == 0 {
		return nil, ErrInvalidSignaturesLength
	}
	n := int(blob[0])
	expected := 1 + n*(1+32+32)
	if len(blob) != expected {
		return nil, fmt.Errorf("expected %d bytes for %d signatures, got %d: %w", expected, n, len(blob), ErrInvalidSignaturesLength)
	}
	vs := blob[1 : 1+n]
	rs := blob[1+n : 1+n+32*n]
	ss := blob[1+n+32*n:]
	sigs := make([]Signature, n)
	for i := range sigs {
		sigs[i] = Signature{
			V: vs[i],
			R: common.BytesToHash(rs[i*32 : (i+1)*32]),
			S: common.BytesToHash(ss[i*32 : (i+1)*32]),
		}
	}
	return sigs, nil
}

func PackSignatures(sigs []Signature) ([]byte, error) {
	if len(sigs) > 255 {
		return nil, ErrTooManySignatures
	}
	n := len(sigs)
	blob := make([]byte, 1+n*(1+32+32))
	blob[0] = byte(n)
	for i, sig := range sigs {
		blob[1+i] = sig.V
		copy(blob[1+n+i*32:], sig.R.Bytes())
		copy(blob[1+n+32*n+i*32:], sig.S.Bytes())
	}
	return blob, nil
}
