// Klingnet tip bot daemon.
//
// Usage:
//
//	tipbotd [-network testnet] [-bot-token ...]  Run the bot
//	tipbotd --help                               Show help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Klingon-tech/klingnet-tipbot/config"
	"github.com/Klingon-tech/klingnet-tipbot/internal/bot"
	"github.com/Klingon-tech/klingnet-tipbot/internal/custody"
	"github.com/Klingon-tech/klingnet-tipbot/internal/log"
	"github.com/Klingon-tech/klingnet-tipbot/internal/node"
	"github.com/Klingon-tech/klingnet-tipbot/internal/storage"
	"github.com/Klingon-tech/klingnet-tipbot/internal/store"
	"github.com/Klingon-tech/klingnet-tipbot/internal/token"
	"github.com/Klingon-tech/klingnet-tipbot/internal/wallet"
	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, _, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Bot.Token == "" {
		return fmt.Errorf("bot.token is required (config file or -bot-token)")
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	types.SetAddressHRP(cfg.AddressHRP())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down")
		cancel()
	}()

	// Storage
	db, err := storage.NewBadger(cfg.DBDir())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	users := store.NewUserStore(storage.NewPrefixDB(db, []byte("users/")))
	tokenStore := token.NewStore(storage.NewPrefixDB(db, []byte("tokens/")))

	// Token registry
	registry, err := token.NewRegistry(tokenStore, cfg.Tokens.ListURL)
	if err != nil {
		return fmt.Errorf("token registry: %w", err)
	}
	if err := registry.EnsureNative(); err != nil {
		return fmt.Errorf("register native token: %w", err)
	}
	if cfg.Tokens.ListURL != "" {
		if err := registry.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("initial token list fetch failed")
		}
		go registry.RefreshLoop(ctx, time.Duration(cfg.Tokens.RefreshMinutes)*time.Minute)
	}

	// Fullnode
	ledger := node.New(cfg.Fullnode.URL(), cfg.Fullnode.APIKey)
	if err := ledger.Ready(ctx); err != nil {
		return fmt.Errorf("fullnode %s: %w", cfg.Fullnode.URL(), err)
	}
	log.Info().Str("url", cfg.Fullnode.URL()).Msg("fullnode ready")

	// Wallets
	dir := wallet.NewDirectory(wallet.FileMnemonicReader())
	if _, err := dir.KeyFor(0); err != nil {
		return fmt.Errorf("master mnemonic: %w", err)
	}

	// Custody engine
	engine, err := custody.NewClient(ledger, dir, users, registry, custody.Config{
		FeePercent:            cfg.Operator.FeePercent,
		FeeAddresses:          cfg.Operator.FeeAddresses,
		ConfirmationsInternal: cfg.Bot.ConfirmationsInternal,
		ConfirmationsExternal: cfg.Bot.ConfirmationsExternal,
		UTXOThreshold:         cfg.Bot.UTXOThreshold,
		ConsiderMempool:       cfg.Bot.ConsiderMempool,
		PollInterval:          time.Duration(cfg.Bot.PollSeconds) * time.Second,
		Devnet:                cfg.Network == config.Devnet,
		ExplorerURL:           cfg.Bot.ExplorerURL,
	})
	if err != nil {
		return err
	}

	// Telegram
	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("telegram init: %w", err)
	}
	api.Debug = false

	n, err := users.Count()
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	log.Info().Str("bot", api.Self.UserName).Str("network", string(cfg.Network)).
		Int("users", n).Msg("tip bot started")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	handler := bot.NewHandler(api, engine, registry, cfg)
	handler.Run(ctx, updates)

	api.StopReceivingUpdates()
	return nil
}
