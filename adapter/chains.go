// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package adapter

import "time"

// Chain ids used across the bridge.
const (
	ChainEthereum  = "ethereum"
	ChainBSC       = "bsc"
	ChainPolygon   = "polygon"
	ChainAvalanche = "avalanche"
	ChainSolana    = "solana"
	ChainPolkadot  = "polkadot"
	ChainBitcoin   = "bitcoin"
	ChainCosmos    = "cosmos"
	ChainAurigraph = "aurigraph"
)

// chainTable is the advertised per-chain profile, including the
// confirmation depth the orchestrator must respect unless overridden.
var chainTable = map[string]ChainInfo{
	ChainEthereum: {
		ChainID:            ChainEthereum,
		Name:               "Ethereum",
		NativeCurrency:     "ETH",
		Decimals:           18,
		BlockTime:          12 * time.Second,
		Consensus:          "proof-of-stake",
		ConfirmationBlocks: 12,
		DynamicFees:        true,
	},
	ChainBSC: {
		ChainID:            ChainBSC,
		Name:               "BNB Smart Chain",
		NativeCurrency:     "BNB",
		Decimals:           18,
		BlockTime:          3 * time.Second,
		Consensus:          "proof-of-staked-authority",
		ConfirmationBlocks: 20,
		DynamicFees:        false,
	},
	ChainPolygon: {
		ChainID:            ChainPolygon,
		Name:               "Polygon PoS",
		NativeCurrency:     "MATIC",
		Decimals:           18,
		BlockTime:          2 * time.Second,
		Consensus:          "proof-of-stake",
		ConfirmationBlocks: 128,
		DynamicFees:        true,
	},
	ChainAvalanche: {
		ChainID:            ChainAvalanche,
		Name:               "Avalanche C-Chain",
		NativeCurrency:     "AVAX",
		Decimals:           18,
		BlockTime:          2 * time.Second,
		Consensus:          "snowman",
		ConfirmationBlocks: 12,
		DynamicFees:        true,
	},
	ChainSolana: {
		ChainID:            ChainSolana,
		Name:               "Solana",
		NativeCurrency:     "SOL",
		Decimals:           9,
		BlockTime:          400 * time.Millisecond,
		Consensus:          "proof-of-history",
		ConfirmationBlocks: 32,
		DynamicFees:        false,
		Extra:              map[string]string{"commitment": "finalized"},
	},
	ChainPolkadot: {
		ChainID:            ChainPolkadot,
		Name:               "Polkadot",
		NativeCurrency:     "DOT",
		Decimals:           10,
		BlockTime:          6 * time.Second,
		Consensus:          "grandpa",
		ConfirmationBlocks: 2,
		DynamicFees:        false,
		Extra:              map[string]string{"finality": "deterministic"},
	},
	ChainBitcoin: {
		ChainID:            ChainBitcoin,
		Name:               "Bitcoin",
		NativeCurrency:     "BTC",
		Decimals:           8,
		BlockTime:          10 * time.Minute,
		Consensus:          "proof-of-work",
		ConfirmationBlocks: 6,
		DynamicFees:        false,
	},
	ChainCosmos: {
		ChainID:            ChainCosmos,
		Name:               "Cosmos Hub",
		NativeCurrency:     "ATOM",
		Decimals:           6,
		BlockTime:          6 * time.Second,
		Consensus:          "tendermint",
		ConfirmationBlocks: 1,
		DynamicFees:        false,
		Extra:              map[string]string{"finality": "instant"},
	},
	ChainAurigraph: {
		ChainID:            ChainAurigraph,
		Name:               "Aurigraph DLT",
		NativeCurrency:     "AUR",
		Decimals:           18,
		BlockTime:          time.Second,
		Consensus:          "dag-hashgraph",
		ConfirmationBlocks: 1,
		DynamicFees:        false,
		Extra:              map[string]string{"finality": "instant"},
	},
}

// KnownChain reports whether the bridge ships a profile for chainID.
func KnownChain(chainID string) bool {
	_, ok := chainTable[chainID]
	return ok
}

// ChainProfile returns the advertised profile for chainID.
func ChainProfile(chainID string) (ChainInfo, bool) {
	info, ok := chainTable[chainID]
	return info, ok
}

// DefaultConfirmations returns the advertised confirmation depth for
// chainID, or 1 for unknown chains.
func DefaultConfirmations(chainID string) int {
	if info, ok := chainTable[chainID]; ok {
		return info.ConfirmationBlocks
	}
	return 1
}

// validatorFor maps a chain to its address validation routine.
func validatorFor(chainID string) func(string) AddressCheck {
	switch chainID {
	case ChainSolana:
		return ValidateBase58Address
	case ChainPolkadot:
		return ValidateSS58Address
	case ChainBitcoin:
		return ValidateBitcoinAddress
	case ChainCosmos:
		// Cosmos addresses are bech32 with an hrp prefix.
		return func(addr string) AddressCheck {
			if _, _, err := decodeBech32(addr); err != nil {
				return AddressCheck{Format: FormatBech32, Reason: "bad bech32 encoding"}
			}
			return AddressCheck{Valid: true, Format: FormatBech32, Normalized: addr}
		}
	default:
		// EVM-compatible chains, including aurigraph.
		return ValidateEVMAddress
	}
}
