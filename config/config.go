// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config types the property keys recognized by the bridge core.
// Loading (files, env, flags) is the embedding process's concern; the core
// only consumes the flat property map it is handed.
package config

import (
	"strconv"
	"strings"
	"time"
)

// Recognized property keys.
const (
	KeyProcessingDelayMin = "bridge.processing.delay.min" // ms
	KeyProcessingDelayMax = "bridge.processing.delay.max" // ms
	KeyAtomicSwapEnabled  = "bridge.atomic.swap.enabled"
	KeyMultiSigEnabled    = "bridge.multi.sig.enabled"
	KeySwapTimeoutHours   = "atomic.swap.timeout.hours"

	// Per-chain confirmation override: atomic.swap.confirm.blocks.<chain>
	keySwapConfirmPrefix = "atomic.swap.confirm.blocks."

	// Per-adapter settings: adapter.<chain>.<key>
	keyAdapterPrefix      = "adapter."
	adapterKeyRPCURL      = "rpc.url"
	adapterKeyWSURL       = "websocket.url"
	adapterKeyChainID     = "chain.id"
	adapterKeyConfBlocks  = "confirmation.blocks"
	adapterKeyMaxRetries  = "max.retries"
	adapterKeyTimeoutSecs = "timeout.seconds"
)

// AdapterConfig carries per-adapter settings.
type AdapterConfig struct {
	RPCURL             string
	WebsocketURL       string
	ChainID            string
	ConfirmationBlocks int
	MaxRetries         int
	Timeout            time.Duration
}

// Config is the typed view of the recognized properties.
type Config struct {
	ProcessingDelayMin time.Duration
	ProcessingDelayMax time.Duration
	AtomicSwapEnabled  bool
	MultiSigEnabled    bool
	SwapTimeout        time.Duration

	// SwapConfirmBlocks overrides the advertised confirmation depth per
	// chain for swap settlement.
	SwapConfirmBlocks map[string]int

	Adapters map[string]AdapterConfig
}

// Default returns the configuration used when no properties are supplied.
func Default() Config {
	return Config{
		ProcessingDelayMin: 100 * time.Millisecond,
		ProcessingDelayMax: 500 * time.Millisecond,
		AtomicSwapEnabled:  true,
		MultiSigEnabled:    true,
		SwapTimeout:        24 * time.Hour,
		SwapConfirmBlocks:  map[string]int{},
		Adapters:           map[string]AdapterConfig{},
	}
}

// FromProperties overlays recognized keys from props onto the defaults.
// Unknown keys and unparsable values are ignored.
func FromProperties(props map[string]string) Config {
	cfg := Default()
	for k, v := range props {
		switch k {
		case KeyProcessingDelayMin:
			if ms, ok := parseInt(v); ok {
				cfg.ProcessingDelayMin = time.Duration(ms) * time.Millisecond
			}
		case KeyProcessingDelayMax:
			if ms, ok := parseInt(v); ok {
				cfg.ProcessingDelayMax = time.Duration(ms) * time.Millisecond
			}
		case KeyAtomicSwapEnabled:
			cfg.AtomicSwapEnabled = parseBool(v, cfg.AtomicSwapEnabled)
		case KeyMultiSigEnabled:
			cfg.MultiSigEnabled = parseBool(v, cfg.MultiSigEnabled)
		case KeySwapTimeoutHours:
			if h, ok := parseInt(v); ok && h >= 0 {
				cfg.SwapTimeout = time.Duration(h) * time.Hour
			}
		default:
			if chain, found := strings.CutPrefix(k, keySwapConfirmPrefix); found {
				if n, ok := parseInt(v); ok && n > 0 {
					cfg.SwapConfirmBlocks[chain] = int(n)
				}
				continue
			}
			if rest, found := strings.CutPrefix(k, keyAdapterPrefix); found {
				chain, key, ok := strings.Cut(rest, ".")
				if !ok {
					continue
				}
				ac := cfg.Adapters[chain]
				applyAdapterKey(&ac, key, v)
				cfg.Adapters[chain] = ac
			}
		}
	}
	if cfg.ProcessingDelayMax < cfg.ProcessingDelayMin {
		cfg.ProcessingDelayMax = cfg.ProcessingDelayMin
	}
	return cfg
}

// AdapterFor returns the adapter settings for chain, defaulted.
func (c Config) AdapterFor(chain string) AdapterConfig {
	ac := c.Adapters[chain]
	if ac.ChainID == "" {
		ac.ChainID = chain
	}
	if ac.MaxRetries == 0 {
		ac.MaxRetries = 3
	}
	if ac.Timeout == 0 {
		ac.Timeout = 30 * time.Second
	}
	return ac
}

func applyAdapterKey(ac *AdapterConfig, key, v string) {
	switch key {
	case adapterKeyRPCURL:
		ac.RPCURL = v
	case adapterKeyWSURL:
		ac.WebsocketURL = v
	case adapterKeyChainID:
		ac.ChainID = v
	case adapterKeyConfBlocks:
		if n, ok := parseInt(v); ok {
			ac.ConfirmationBlocks = int(n)
		}
	case adapterKeyMaxRetries:
		if n, ok := parseInt(v); ok {
			ac.MaxRetries = int(n)
		}
	case adapterKeyTimeoutSecs:
		if n, ok := parseInt(v); ok {
			ac.Timeout = time.Duration(n) * time.Second
		}
	}
}

func parseInt(v string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	return n, err == nil
}

func parseBool(v string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}
