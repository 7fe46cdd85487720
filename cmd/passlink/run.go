package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ericfisherdev/passlink/internal/adapter/driven/accounts"
	"github.com/ericfisherdev/passlink/internal/adapter/driven/cachestore"
	"github.com/ericfisherdev/passlink/internal/adapter/driven/nzcp"
	"github.com/ericfisherdev/passlink/internal/adapter/driven/qrscan"
	"github.com/ericfisherdev/passlink/internal/adapter/driven/smtp"
	"github.com/ericfisherdev/passlink/internal/adapter/driven/telegram"
	"github.com/ericfisherdev/passlink/internal/adapter/driving/bot"
	"github.com/ericfisherdev/passlink/internal/adapter/driving/bot/bottext"
	httphandler "github.com/ericfisherdev/passlink/internal/adapter/driving/http"
	"github.com/ericfisherdev/passlink/internal/application"
	"github.com/ericfisherdev/passlink/internal/config"
	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

func run(ctx context.Context, cmd *cli.Command) error {
	// 1. Load configuration (fail fast on anything that cannot work).
	cfg := config.NewFromCLI(cmd)
	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	logger.Info("config loaded",
		"listen_addr", cfg.Server.ListenAddr,
		"hostname", cfg.Server.Hostname,
		"store", cfg.Store.Backend,
		"timezone", loc.String(),
	)

	if err := bottext.Init(); err != nil {
		return err
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the link and poll store.
	cache, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	accountStore, err := accounts.Load(cfg.Accounts.File)
	if err != nil {
		return err
	}

	// 4. Wire driven adapters.
	passRepo := cachestore.NewPassRepo(cache, cfg.Store.KeyPrefix)
	pollRepo := cachestore.NewPollRepo(cache, cfg.Store.KeyPrefix, cfg.Poll.Retention)
	verifier := nzcp.NewVerifier(nzcp.NewDIDResolver(cfg.Verifier.HTTPTimeout), cfg.Verifier.TrustedIssuers)
	decoder := qrscan.NewDecoder()

	tg, err := telegram.New(cfg.Telegram.BotToken, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return err
	}
	username := cfg.Telegram.BotUsername
	if username == "" {
		username = tg.Username()
	}
	logger.Info("bot api connected", "username", username)

	var mailer driven.Mailer
	if cfg.SMTPEnabled() {
		m, err := smtp.NewMailer(smtp.Settings{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			TLS:      cfg.SMTP.TLS,
		})
		if err != nil {
			return err
		}
		mailer = m
	} else {
		logger.Info("smtp not configured, contact form disabled")
	}

	// 5. Create application services.
	accountSvc := application.NewAccountService(accountStore)
	linkerSvc := application.NewLinkerService(passRepo, verifier, accountSvc)
	pollSvc := application.NewPollService(pollRepo)
	contactSvc := application.NewContactService(mailer, cfg.Contact.From, cfg.Contact.To)
	healthSvc := application.NewHealthService(cache, cfg.Store.KeyPrefix)

	secret := []byte(cfg.Link.CodeSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generate link code secret: %w", err)
		}
		logger.Warn("no link code secret configured, pending link codes will not survive a restart")
	}

	// 6. Wire bot modules in dispatch order.
	settings := bot.Settings{
		BotUsername: username,
		Hostname:    cfg.Server.Hostname,
		Location:    loc,
	}
	poll := bot.NewPollModule(linkerSvc, pollSvc, tg, settings)
	modules := []bot.Module{
		bot.NewRevokeModule(linkerSvc, tg),
		poll,
		bot.NewLinkModule(linkerSvc, decoder, tg, model.NewLinkCodec(secret), settings),
		bot.NewNotariseModule(linkerSvc, accountSvc, tg, settings),
		bot.NewHelpModule(accountSvc, tg, settings),
	}
	modules = append(modules, bot.NewInlineResultsModule(tg, bot.InlineProducers(modules...)...))
	dispatcher := bot.NewDispatcher(logger, modules...)

	// 7. Create HTTP handler and start the server.
	apiHandler := httphandler.NewHandler(telegram.DecodeUpdate, dispatcher, cfg.Telegram.APIToken, contactSvc, healthSvc, logger)

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 8. Register the webhook and command list with the platform.
	if cfg.Telegram.RegisterWebhook {
		if err := tg.RegisterWebhook(ctx, cfg.Server.Hostname+"/api/webhook/receive/"+cfg.Telegram.APIToken); err != nil {
			logger.Error("webhook registration failed", "error", err)
		} else {
			logger.Info("webhook registered", "hostname", cfg.Server.Hostname)
		}
	}
	if err := tg.SetCommands(ctx, bot.Commands(ctx)); err != nil {
		logger.Warn("failed to set bot commands", "error", err)
	}

	logger.Info("passlink started", "listen_addr", cfg.Server.ListenAddr, "bot", username)

	// 9. Block until shutdown signal or server failure.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("http server error", "error", err)
	}

	// 10. Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.Telegram.RegisterWebhook {
		if err := tg.DeleteWebhook(shutdownCtx); err != nil {
			logger.Error("webhook removal failed", "error", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	logger.Info("passlink stopped")
	return nil
}
