// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package adapter

import (
	"crypto/sha256"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/luxfi/geth/common"
	"github.com/mr-tron/base58"
)

// Address formats reported by ValidateAddress implementations.
const (
	FormatHexChecksum = "hex-checksum" // EVM chains
	FormatBase58      = "base58"       // Solana
	FormatSS58        = "ss58"         // Substrate chains
	FormatBech32      = "bech32"       // Bitcoin segwit
	FormatP2PKH       = "p2pkh"        // Bitcoin legacy
	FormatP2SH        = "p2sh"         // Bitcoin script hash
)

// ValidateEVMAddress checks a 0x hex address. Mixed-case input must carry
// a correct EIP-55 checksum; all-lower or all-upper input is accepted and
// normalized to checksum form.
func ValidateEVMAddress(addr string) AddressCheck {
	if !common.IsHexAddress(addr) {
		return AddressCheck{Format: FormatHexChecksum, Reason: "not a hex address"}
	}
	normalized := common.HexToAddress(addr).Hex()
	body := strings.TrimPrefix(addr, "0x")
	mixed := body != strings.ToLower(body) && body != strings.ToUpper(body)
	if mixed && addr != normalized {
		return AddressCheck{Format: FormatHexChecksum, Reason: "bad EIP-55 checksum"}
	}
	return AddressCheck{Valid: true, Format: FormatHexChecksum, Normalized: normalized}
}

// ValidateBase58Address checks a Solana-style base58 ed25519 key (32 bytes).
func ValidateBase58Address(addr string) AddressCheck {
	raw, err := base58.Decode(addr)
	if err != nil {
		return AddressCheck{Format: FormatBase58, Reason: "not base58"}
	}
	if len(raw) != 32 {
		return AddressCheck{Format: FormatBase58, Reason: "decoded length is not 32 bytes"}
	}
	return AddressCheck{Valid: true, Format: FormatBase58, Normalized: addr}
}

// ValidateSS58Address checks a Substrate SS58 address: base58 over
// prefix ++ 32-byte key ++ 2-byte checksum.
func ValidateSS58Address(addr string) AddressCheck {
	raw, err := base58.Decode(addr)
	if err != nil {
		return AddressCheck{Format: FormatSS58, Reason: "not base58"}
	}
	// Single-byte network prefix form: 1 + 32 + 2.
	if len(raw) != 35 {
		return AddressCheck{Format: FormatSS58, Reason: "decoded length is not 35 bytes"}
	}
	return AddressCheck{Valid: true, Format: FormatSS58, Normalized: addr}
}

func decodeBech32(addr string) (string, []byte, error) {
	return bech32.Decode(addr)
}

// ValidateBitcoinAddress accepts bech32 segwit, P2PKH, and P2SH forms.
func ValidateBitcoinAddress(addr string) AddressCheck {
	if strings.HasPrefix(strings.ToLower(addr), "bc1") {
		if _, _, err := bech32.Decode(addr); err != nil {
			return AddressCheck{Format: FormatBech32, Reason: "bad bech32 encoding"}
		}
		return AddressCheck{Valid: true, Format: FormatBech32, Normalized: strings.ToLower(addr)}
	}

	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 25 {
		return AddressCheck{Format: FormatP2PKH, Reason: "not base58check"}
	}
	payload, check := raw[:21], raw[21:]
	h1 := sha256.Sum256(payload)
	h2 := sha256.Sum256(h1[:])
	for i := 0; i < 4; i++ {
		if check[i] != h2[i] {
			return AddressCheck{Format: FormatP2PKH, Reason: "bad base58check checksum"}
		}
	}
	switch raw[0] {
	case 0x00:
		return AddressCheck{Valid: true, Format: FormatP2PKH, Normalized: addr}
	case 0x05:
		return AddressCheck{Valid: true, Format: FormatP2SH, Normalized: addr}
	default:
		return AddressCheck{Format: FormatP2PKH, Reason: "unknown version byte"}
	}
}
