// Package config handles application configuration.
//
// Settings are layered: built-in defaults, then the .conf file, then
// command-line flags. Later layers win.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

// NetworkType identifies which chain the bot serves.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
	// Devnet suppresses live status announcements and explorer links.
	Devnet NetworkType = "devnet"
)

// Config holds the bot's runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Fullnode connection
	Fullnode FullnodeConfig

	// Operator fee and withdrawal policy
	Operator OperatorConfig

	// Chat front-end and transfer behavior
	Bot BotConfig

	// Token list sync
	Tokens TokensConfig

	// Logging
	Log LogConfig
}

// FullnodeConfig holds the fullnode API connection settings.
type FullnodeConfig struct {
	Scheme string `conf:"fullnode.scheme"`
	Host   string `conf:"fullnode.host"`
	Port   int    `conf:"fullnode.port"`
	APIKey string `conf:"fullnode.apikey"`
}

// URL returns the fullnode base URL.
func (f FullnodeConfig) URL() string {
	return fmt.Sprintf("%s://%s:%d", f.Scheme, f.Host, f.Port)
}

// OperatorConfig holds the operator's revenue and policy settings.
type OperatorConfig struct {
	// FeePercent is the cut taken on external withdrawals, whole percent.
	FeePercent int64 `conf:"operator.fee"`
	// FeeAddresses are the collection addresses, one per address group,
	// comma-separated in the config file.
	FeeAddresses [types.NumGroups]string `conf:"operator.fee_addresses"`
	// MinWithdrawal is the smallest allowed external withdrawal, as a
	// decimal native-asset amount. Empty disables the floor.
	MinWithdrawal string `conf:"operator.min_withdrawal"`
}

// BotConfig holds the chat front-end and transfer behavior settings.
type BotConfig struct {
	Token  string  `conf:"bot.token"`
	Admins []int64 `conf:"bot.admins"`

	// Confirmation depths, independent for internal tips and external
	// withdrawals.
	ConfirmationsInternal int `conf:"bot.confirmations.internal"`
	ConfirmationsExternal int `conf:"bot.confirmations.external"`

	// UTXO consolidation policy.
	UTXOThreshold   int  `conf:"bot.utxo_threshold"`
	ConsiderMempool bool `conf:"bot.consider_mempool"`

	// PollSeconds between transaction status queries.
	PollSeconds int `conf:"bot.poll_seconds"`

	// ExplorerURL, when set, links transactions in status messages.
	ExplorerURL string `conf:"bot.explorer"`
}

// TokensConfig holds the token list sync settings.
type TokensConfig struct {
	// ListURL points at a token-list JSON document. Empty disables the
	// refresh loop; the native asset is always available.
	ListURL string `conf:"tokens.list_url"`
	// RefreshMinutes between token list fetches.
	RefreshMinutes int `conf:"tokens.refresh_minutes"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-tipbot
//	macOS:   ~/Library/Application Support/KlingnetTipbot
//	Windows: %APPDATA%\KlingnetTipbot
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-tipbot"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetTipbot")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "KlingnetTipbot")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetTipbot")
	default:
		return filepath.Join(home, ".klingnet-tipbot")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// DBDir returns the user/token database directory.
func (c *Config) DBDir() string {
	return filepath.Join(c.NetworkDataDir(), "db")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "tipbot.conf")
}

// AddressHRP returns the bech32 prefix for the configured network.
func (c *Config) AddressHRP() string {
	if c.Network == Mainnet {
		return types.MainnetHRP
	}
	return types.TestnetHRP
}
