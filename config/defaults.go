package config

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Fullnode: FullnodeConfig{
			Scheme: "http",
			Host:   "127.0.0.1",
			Port:   12973,
		},
		Operator: OperatorConfig{
			FeePercent: 0,
		},
		Bot: BotConfig{
			ConfirmationsInternal: 1,
			ConfirmationsExternal: 2,
			UTXOThreshold:         10,
			ConsiderMempool:       false,
			PollSeconds:           1,
			ExplorerURL:           "https://explorer.klingnet.io",
		},
		Tokens: TokensConfig{
			RefreshMinutes: 60,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Fullnode.Port = 22973
	cfg.Bot.ExplorerURL = "https://testnet.explorer.klingnet.io"
	return cfg
}

// DefaultDevnet returns the default configuration for a local devnet.
func DefaultDevnet() *Config {
	cfg := DefaultTestnet()
	cfg.Network = Devnet
	cfg.Bot.ExplorerURL = ""
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	case Devnet:
		return DefaultDevnet()
	default:
		return DefaultMainnet()
	}
}
