package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"

	"github.com/guarzo/dotastats/common"
	"github.com/guarzo/dotastats/modules/cache"
	"github.com/guarzo/dotastats/modules/opendota"
	"github.com/guarzo/dotastats/modules/stats"
	"github.com/guarzo/dotastats/modules/web"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := common.LoadConfig()
	if err != nil {
		log.Error("configuration failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *common.Config, log *slog.Logger) error {
	httpClient := common.NewDotaHttpClient(cfg.UserAgent, &http.Client{}, cfg.ThrottleBackoff)

	// A corrupt snapshot is fatal on purpose: silently starting empty
	// would throw away thousands of fetches without anyone noticing.
	responseCache, err := cache.Open(cfg.CacheFile, cfg.Freshness, httpClient, log)
	if err != nil {
		return err
	}
	log.Info("cache loaded", "path", cfg.CacheFile, "entries", responseCache.Len())

	client := opendota.NewClient(cfg.APIBaseURL, responseCache, httpClient, log)

	startup, cancelStartup := context.WithTimeout(context.Background(), 5*time.Minute)
	heroes, err := opendota.LoadHeroDirectory(startup, client)
	cancelStartup()
	if err != nil {
		return err
	}

	players := opendota.NewPlayerDirectory(client)
	engine := stats.NewEngine(client, heroes, log)
	server := web.NewServer(engine, heroes, players, client, cfg.AccountIDs, log)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	if cfg.OpenBrowser {
		go func() {
			time.Sleep(time.Second)
			if err := browser.OpenURL("http://" + cfg.ListenAddr); err != nil {
				log.Warn("failed to open browser", "error", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", "error", err)
		}
	}

	// Last chance for unsaved fetches to reach disk.
	if err := responseCache.Flush(); err != nil {
		log.Error("final flush failed", "error", err)
	}
	return nil
}
