package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"xenios/compat/internal/app"
	"xenios/compat/internal/config"
	"xenios/compat/internal/games"
	"xenios/compat/internal/interaction"
	"xenios/compat/internal/issues"
	"xenios/compat/internal/mirror"
	"xenios/compat/internal/notify"
	"xenios/compat/internal/session"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.GitHubToken == "" {
		log.Fatalf("GITHUB_TOKEN is required")
	}

	publicKey, err := interaction.ParseKey(cfg.DiscordPublicKey)
	if err != nil {
		log.Fatalf("DISCORD_PUBLIC_KEY invalid: %v", err)
	}

	// One authenticated client serves both the document store and the
	// issue tracker; they live in the same repository.
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken})
	githubClient := github.NewClient(oauth2.NewClient(ctx, tokenSource))

	store := games.NewStoreWithClient(githubClient, games.StoreConfig{
		Owner:  cfg.GitHubOwner,
		Repo:   cfg.GitHubRepo,
		Path:   cfg.CompatPath,
		Branch: cfg.CompatBranch,
	})
	threader := issues.New(githubClient, issues.Config{
		Owner: cfg.GitHubOwner,
		Repo:  cfg.GitHubRepo,
	})

	discord, err := notify.NewDiscord(cfg.DiscordWebhookURL, cfg.DiscordBoardMessage, cfg.SiteBaseURL)
	if err != nil {
		log.Fatalf("discord webhook setup failed: %v", err)
	}

	sessions, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer sessions.Close()

	var attachments *mirror.Service
	if strings.TrimSpace(cfg.MirrorEndpoint) != "" {
		attachments, err = mirror.New(mirror.Config{
			Endpoint:      cfg.MirrorEndpoint,
			AccessKey:     cfg.MirrorAccessKey,
			SecretKey:     cfg.MirrorSecretKey,
			Bucket:        cfg.MirrorBucket,
			PublicBaseURL: cfg.MirrorPublicURL,
			UseSSL:        cfg.MirrorUseSSL,
		})
		if err != nil {
			log.Fatalf("attachment mirror setup failed: %v", err)
		}
		log.Printf("Mirroring report screenshots to %s", cfg.MirrorEndpoint)
	}

	followup, err := interaction.NewFollowup()
	if err != nil {
		log.Fatalf("discord followup setup failed: %v", err)
	}

	var service *app.Service
	if attachments != nil {
		service = app.New(cfg, store, threader, discord, sessions, attachments, followup)
	} else {
		service = app.New(cfg, store, threader, discord, sessions, nil, followup)
	}

	httpServer := app.NewHTTPServer(service, cfg.APIKey, publicKey, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("XeniOS compat API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	// Drain pipelines spawned from deferred Discord acknowledgements.
	service.Wait()
}
