// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package multisig

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"math/big"
	"strconv"
	"strings"

	luxcrypto "github.com/luxfi/crypto"

	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/amount"
)

// Signable carries the transfer fields every validator signs over.
type Signable struct {
	TransferID  string
	SourceChain string
	TargetChain string
	SourceAddr  string
	TargetAddr  string
	TokenSymbol string
	Amount      *big.Rat
	Nonce       uint64
}

// Payload renders the canonical signable byte sequence:
// transfer_id|source|target|source_addr|target_addr|token|amount|nonce.
// Counterparty contracts hash and verify this exact form; do not reorder
// or re-delimit.
func (s Signable) Payload() []byte {
	parts := []string{
		s.TransferID,
		s.SourceChain,
		s.TargetChain,
		s.SourceAddr,
		s.TargetAddr,
		s.TokenSymbol,
		amount.Format(s.Amount),
		strconv.FormatUint(s.Nonce, 10),
	}
	return []byte(strings.Join(parts, "|"))
}

// Digest is the SHA-256 of the canonical payload; this is what validators
// actually sign.
func (s Signable) Digest() []byte {
	sum := sha256.Sum256(s.Payload())
	return sum[:]
}

// VerifyFunc checks a signature over digest against a compressed public
// key. Swappable so adapters can plug chain-specific schemes.
type VerifyFunc func(publicKey, digest, signature []byte) bool

// VerifySecp256k1 is the default verification hook: a 65-byte [R||S||V]
// or 64-byte [R||S] secp256k1 signature over the digest.
func VerifySecp256k1(publicKey, digest, signature []byte) bool {
	if len(signature) == 65 {
		signature = signature[:64]
	}
	if len(signature) != 64 || len(digest) != sha256.Size {
		return false
	}
	return luxcrypto.VerifySignature(publicKey, digest, signature)
}

// SignDigest signs a payload digest with a validator's secp256k1 key.
// Used by validator clients and tests; the collector itself never holds
// private keys.
func SignDigest(digest []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	return luxcrypto.Sign(digest, key)
}

// CompressPubkey returns the 33-byte compressed form stored in the
// validator set.
func CompressPubkey(key *ecdsa.PublicKey) []byte {
	return luxcrypto.CompressPubkey(key)
}

// GenerateKey creates a fresh validator keypair.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return luxcrypto.GenerateKey()
}
