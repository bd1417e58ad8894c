package config

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

// Validate checks the config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.Network {
	case Mainnet, Testnet, Devnet:
	default:
		return fmt.Errorf("network must be %q, %q, or %q", Mainnet, Testnet, Devnet)
	}

	if cfg.Fullnode.Scheme != "http" && cfg.Fullnode.Scheme != "https" {
		return fmt.Errorf("fullnode.scheme must be http or https")
	}
	if cfg.Fullnode.Host == "" {
		return fmt.Errorf("fullnode.host is required")
	}
	if cfg.Fullnode.Port <= 0 || cfg.Fullnode.Port > 65535 {
		return fmt.Errorf("fullnode.port must be in range [1, 65535]")
	}

	if cfg.Operator.FeePercent < 0 || cfg.Operator.FeePercent > 100 {
		return fmt.Errorf("operator.fee must be in range [0, 100]")
	}
	if cfg.Operator.FeePercent > 0 {
		for g, addr := range cfg.Operator.FeeAddresses {
			if !types.IsValidAddress(addr) {
				return fmt.Errorf("operator.fee_addresses[%d] is not a valid address: %q", g, addr)
			}
		}
	}

	if cfg.Bot.ConfirmationsInternal < 0 || cfg.Bot.ConfirmationsExternal < 0 {
		return fmt.Errorf("confirmation depths must not be negative")
	}
	if cfg.Bot.UTXOThreshold < 0 {
		return fmt.Errorf("bot.utxo_threshold must not be negative")
	}
	if cfg.Bot.PollSeconds <= 0 {
		return fmt.Errorf("bot.poll_seconds must be positive")
	}

	if cfg.Tokens.ListURL != "" && cfg.Tokens.RefreshMinutes <= 0 {
		return fmt.Errorf("tokens.refresh_minutes must be positive when tokens.list_url is set")
	}

	return nil
}
