package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// Fullnode
	FullnodeHost   string
	FullnodePort   int
	FullnodeAPIKey string

	// Operator
	Fee          int64
	FeeAddresses string

	// Bot
	BotToken      string
	UTXOThreshold int
	Explorer      string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set flags (for zero-value overrides).
	SetFee           bool
	SetUTXOThreshold bool
	SetLogJSON       bool
}

// ParseFlags parses command-line flags.
func ParseFlags() *Flags {
	f := &Flags{}
	fs := flag.NewFlagSet("tipbotd", flag.ContinueOnError)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet, testnet, or devnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// Fullnode
	fs.StringVar(&f.FullnodeHost, "fullnode-host", "", "Fullnode API host")
	fs.IntVar(&f.FullnodePort, "fullnode-port", 0, "Fullnode API port")
	fs.StringVar(&f.FullnodeAPIKey, "fullnode-apikey", "", "Fullnode API key")

	// Operator
	fs.Int64Var(&f.Fee, "fee", 0, "Operator fee on withdrawals, whole percent")
	fs.StringVar(&f.FeeAddresses, "fee-addresses", "", "Fee collection addresses, one per group (comma-separated)")

	// Bot
	fs.StringVar(&f.BotToken, "bot-token", "", "Telegram bot token")
	fs.IntVar(&f.UTXOThreshold, "utxo-threshold", 0, "UTXO count that triggers consolidation")
	fs.StringVar(&f.Explorer, "explorer", "", "Block explorer base URL")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = printUsage

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	f.SetFee = isFlagSet(fs, "fee")
	f.SetUTXOThreshold = isFlagSet(fs, "utxo-threshold")
	f.SetLogJSON = isFlagSet(fs, "log-json")

	f.Args = fs.Args()

	// Detect unparsed flags caused by positional arguments stopping the
	// parser.
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			fmt.Fprintf(os.Stderr, "Error: flag %q was not parsed (positional argument stopped parsing)\n", arg)
			os.Exit(1)
		}
	}

	return f
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(f.Network)
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// Fullnode
	if f.FullnodeHost != "" {
		cfg.Fullnode.Host = f.FullnodeHost
	}
	if f.FullnodePort != 0 {
		cfg.Fullnode.Port = f.FullnodePort
	}
	if f.FullnodeAPIKey != "" {
		cfg.Fullnode.APIKey = f.FullnodeAPIKey
	}

	// Operator
	if f.SetFee {
		cfg.Operator.FeePercent = f.Fee
	}
	if f.FeeAddresses != "" {
		addrs := parseStringList(f.FeeAddresses)
		if len(addrs) == len(cfg.Operator.FeeAddresses) {
			copy(cfg.Operator.FeeAddresses[:], addrs)
		}
	}

	// Bot
	if f.BotToken != "" {
		cfg.Bot.Token = f.BotToken
	}
	if f.SetUTXOThreshold {
		cfg.Bot.UTXOThreshold = f.UTXOThreshold
	}
	if f.Explorer != "" {
		cfg.Bot.ExplorerURL = f.Explorer
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// Load builds the full configuration: defaults, then the config file,
// then command-line flags.
func Load() (*Config, *Flags, error) {
	flags := ParseFlags()

	// Handle help/version
	if flags.Help {
		printUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("tipbotd version 0.1.0")
		os.Exit(0)
	}

	// Determine network first (needed for defaults)
	network := Mainnet
	switch strings.ToLower(flags.Network) {
	case "testnet":
		network = Testnet
	case "devnet":
		network = Devnet
	}

	cfg := Default(network)
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	// Auto-create data directories and default config on first start.
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	// Flags win over everything
	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory structure and a default
// config file if they don't already exist. Idempotent.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.NetworkDataDir(),
		cfg.DBDir(),
		cfg.LogsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Klingnet tip bot daemon

Usage:
  tipbotd [flags]

Flags:
  -h, -help               Show this help
  -v, -version            Show version
  -network <name>         mainnet, testnet, or devnet
  -datadir <path>         Data directory
  -c, -config <path>      Config file path
  -fullnode-host <host>   Fullnode API host
  -fullnode-port <port>   Fullnode API port
  -fullnode-apikey <key>  Fullnode API key
  -fee <percent>          Operator withdrawal fee
  -fee-addresses <list>   Fee addresses, one per group
  -bot-token <token>      Telegram bot token
  -utxo-threshold <n>     Consolidation threshold
  -explorer <url>         Block explorer base URL
  -log-level <level>      debug, info, warn, error
  -log-file <path>        Log file path
  -log-json               JSON log output
`)
}
