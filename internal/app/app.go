// Package app wires kasabot together and owns its lifecycle: startup
// checks, the knowledge refresh scheduler, the health server, and
// signal-driven graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/knamoah/kasabot/internal/bot"
	"github.com/knamoah/kasabot/internal/config"
	"github.com/knamoah/kasabot/internal/knowledge"
	"github.com/knamoah/kasabot/internal/llm"
	"github.com/knamoah/kasabot/internal/prompt"
	"github.com/knamoah/kasabot/internal/retry"
	"github.com/knamoah/kasabot/internal/server"
)

// completionTimeout bounds a single completion attempt.
const completionTimeout = 60 * time.Second

// Credentials are the secrets read from the environment, never from the
// config file.
type Credentials struct {
	TelegramToken string
	OpenAIKey     string
}

// refresher lets tests substitute the knowledge refresher.
type refresher interface {
	Refresh(ctx context.Context) error
}

// App is the assembled service.
type App struct {
	cfg        *config.Config
	logger     zerolog.Logger
	store      *knowledge.Store
	refresher  refresher
	dispatcher *bot.Dispatcher
	server     *server.Server
	telegram   *bot.Telegram
	startedAt  time.Time

	// refreshInterval is split out from cfg so tests can shrink it.
	refreshInterval time.Duration
}

// New validates the configuration and credentials and builds the service.
// Missing credentials are a fatal configuration error.
func New(cfg *config.Config, creds Credentials, logger zerolog.Logger) (*App, error) {
	if creds.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_TOKEN environment variable is not set")
	}
	if creds.OpenAIKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is not set")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store := knowledge.NewStore()

	fetchPolicy := retry.Policy{
		MaxAttempts:     cfg.Knowledge.MaxFetchAttempts,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
	}
	ref := knowledge.NewRefresher(store, buildSources(cfg.Knowledge), fetchPolicy, cfg.Knowledge.FetchTimeout(), logger)

	provider := llm.NewOpenAIProvider(creds.OpenAIKey, cfg.Model)
	completer := llm.NewClient(provider, retry.DefaultPolicy(), completionTimeout, logger)

	telegram := bot.NewTelegram(creds.TelegramToken, cfg.Telegram.SendRatePerSecond, logger)

	dispatcher := bot.NewDispatcher(
		telegram,
		completer,
		&prompt.Builder{Budget: cfg.PromptBudget},
		store,
		bot.NewHistory(cfg.HistoryLimit),
		bot.Options{
			Model:         cfg.Model,
			MaxTokens:     cfg.MaxTokens,
			Temperature:   cfg.Temperature,
			FallbackReply: cfg.Telegram.FallbackReply,
			MainBotURL:    cfg.Telegram.MainBotURL,
			PollTimeout:   cfg.Telegram.PollTimeoutSeconds,
		},
		logger,
	)

	a := &App{
		cfg:             cfg,
		logger:          logger.With().Str("component", "app").Logger(),
		store:           store,
		refresher:       ref,
		dispatcher:      dispatcher,
		telegram:        telegram,
		refreshInterval: cfg.Knowledge.RefreshInterval(),
	}
	a.server = server.New(server.Config{Port: cfg.Server.Port}, a.status, logger)
	return a, nil
}

// buildSources turns the knowledge config into fetchable sources, docs
// first, website last.
func buildSources(cfg config.KnowledgeConfig) []knowledge.Source {
	var sources []knowledge.Source
	for _, id := range cfg.DocIDs {
		sources = append(sources, &knowledge.GoogleDocSource{DocID: id})
	}
	if cfg.WebsiteURL != "" {
		sources = append(sources, &knowledge.WebsiteSource{URL: cfg.WebsiteURL})
	}
	return sources
}

// status derives the readiness report. Nothing here is cached: every
// health request observes the live dispatcher and store state.
func (a *App) status() server.Status {
	snap := a.store.Current()
	return server.Status{
		Ready:       a.dispatcher.Ready(),
		LastRefresh: snap.RefreshedAt,
		Uptime:      time.Since(a.startedAt).Round(time.Second).String(),
		Documents:   len(snap.Documents),
	}
}

// Run starts the service and blocks until a termination signal arrives
// and shutdown completes. A second signal during shutdown terminates the
// process immediately through default signal handling.
func (a *App) Run(ctx context.Context) error {
	a.startedAt = time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		// Unregister so a second signal falls through to the default
		// handler and kills the process.
		stop()
		cancel()
	}()

	// Confirm the bot token before accepting work.
	checkCtx, checkCancel := context.WithTimeout(ctx, 15*time.Second)
	me, err := a.telegram.GetMe(checkCtx)
	checkCancel()
	if err != nil {
		return fmt.Errorf("verifying bot token: %w", err)
	}
	a.logger.Info().Str("bot", me.Username).Msg("authenticated with Telegram")

	srvErr := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	refreshDone := make(chan struct{})
	go func() {
		a.refreshLoop(ctx)
		close(refreshDone)
	}()

	loopDone := make(chan struct{})
	go func() {
		a.dispatcher.Run(ctx)
		close(loopDone)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutdown requested")
	case err := <-srvErr:
		runErr = fmt.Errorf("health server: %w", err)
		cancel()
	}

	// Shutdown sequence: stop intake, drain in-flight work within the
	// grace period, then take the health server down last.
	<-loopDone
	deadline := time.Now().Add(a.cfg.Server.ShutdownGrace())

	if err := a.dispatcher.Drain(a.cfg.Server.ShutdownGrace()); err != nil {
		a.logger.Warn().Err(err).Msg("some in-flight messages were abandoned")
	}

	select {
	case <-refreshDone:
	case <-time.After(time.Until(deadline)):
		a.logger.Warn().Msg("refresh still running at exit")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn().Err(err).Msg("health server shutdown failed")
	}

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

// refreshLoop refreshes the knowledge base immediately, then on the
// configured interval until ctx is cancelled. Refreshes run one at a
// time; ticks that fire mid-refresh are skipped, never queued.
func (a *App) refreshLoop(ctx context.Context) {
	a.runRefresh(ctx)

	ticker := time.NewTicker(a.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runRefresh(ctx)
		}
	}
}

// runRefresh executes one refresh cycle. The cycle gets its own detached
// deadline so a shutdown signal does not abort a refresh already in
// progress, while a wedged refresh can never outlive its interval.
func (a *App) runRefresh(ctx context.Context) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.refreshInterval)
	defer cancel()

	start := time.Now()
	if err := a.refresher.Refresh(rctx); err != nil {
		a.logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("knowledge refresh failed, keeping previous contents")
		return
	}
	snap := a.store.Current()
	a.logger.Info().
		Int("documents", len(snap.Documents)).
		Int("chars", snap.TotalChars()).
		Dur("elapsed", time.Since(start)).
		Msg("knowledge refreshed")
}
