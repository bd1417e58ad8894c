package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	// Fullnode
	case "fullnode.scheme":
		cfg.Fullnode.Scheme = value
	case "fullnode.host":
		cfg.Fullnode.Host = value
	case "fullnode.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Fullnode.Port = port
	case "fullnode.apikey":
		cfg.Fullnode.APIKey = value

	// Operator
	case "operator.fee":
		fee, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Operator.FeePercent = fee
	case "operator.fee_addresses":
		addrs := parseStringList(value)
		if len(addrs) != len(cfg.Operator.FeeAddresses) {
			return fmt.Errorf("expected %d fee addresses, got %d",
				len(cfg.Operator.FeeAddresses), len(addrs))
		}
		copy(cfg.Operator.FeeAddresses[:], addrs)
	case "operator.min_withdrawal":
		cfg.Operator.MinWithdrawal = value

	// Bot
	case "bot.token":
		cfg.Bot.Token = value
	case "bot.admins":
		ids, err := parseInt64List(value)
		if err != nil {
			return err
		}
		cfg.Bot.Admins = ids
	case "bot.confirmations.internal":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Bot.ConfirmationsInternal = n
	case "bot.confirmations.external":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Bot.ConfirmationsExternal = n
	case "bot.utxo_threshold":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Bot.UTXOThreshold = n
	case "bot.consider_mempool":
		cfg.Bot.ConsiderMempool = parseBool(value)
	case "bot.poll_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Bot.PollSeconds = n
	case "bot.explorer":
		cfg.Bot.ExplorerURL = value

	// Tokens
	case "tokens.list_url":
		cfg.Tokens.ListURL = value
	case "tokens.refresh_minutes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Tokens.RefreshMinutes = n

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseStringList parses a comma-separated list.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// parseInt64List parses a comma-separated list of integers.
func parseInt64List(s string) ([]int64, error) {
	parts := parseStringList(s)
	result := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", p)
		}
		result = append(result, n)
	}
	return result, nil
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	content := `# Klingnet Tip Bot Configuration

# Network: mainnet, testnet, or devnet
network = ` + string(network) + `

# Data directory (default: ~/.klingnet-tipbot)
# datadir = ~/.klingnet-tipbot

# ============================================================================
# Fullnode
# ============================================================================

fullnode.scheme = http
fullnode.host = 127.0.0.1
fullnode.port = ` + defaultFullnodePort(network) + `
# fullnode.apikey =

# ============================================================================
# Operator
# ============================================================================

# Fee taken on external withdrawals, whole percent (0 disables)
operator.fee = 0

# Fee collection addresses, one per address group, comma-separated
# operator.fee_addresses = kgx1...,kgx1...,kgx1...,kgx1...

# Smallest allowed withdrawal, decimal KGX (empty disables)
# operator.min_withdrawal = 0.1

# ============================================================================
# Bot
# ============================================================================

# Telegram bot token from @BotFather
# bot.token =

# Admin chat ids, comma-separated
# bot.admins =

bot.confirmations.internal = 1
bot.confirmations.external = 2

# Consolidate a wallet when its UTXO count reaches this threshold
bot.utxo_threshold = 10
bot.consider_mempool = false

# Seconds between transaction status polls
bot.poll_seconds = 1

# Block explorer for transaction links (empty disables)
# bot.explorer = https://explorer.klingnet.io

# ============================================================================
# Tokens
# ============================================================================

# Token list JSON endpoint (empty disables the refresh loop)
# tokens.list_url = https://tokens.klingnet.io/list.json
tokens.refresh_minutes = 60

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}

func defaultFullnodePort(network NetworkType) string {
	if network == Mainnet {
		return "12973"
	}
	return "22973"
}
