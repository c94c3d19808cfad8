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

	"github.com/shouni/gemini-jewelry-studio/internal/auth"
	"github.com/shouni/gemini-jewelry-studio/internal/blobstore"
	"github.com/shouni/gemini-jewelry-studio/internal/config"
	"github.com/shouni/gemini-jewelry-studio/internal/history"
	"github.com/shouni/gemini-jewelry-studio/internal/httpapi"
	"github.com/shouni/gemini-jewelry-studio/internal/metrics"
	"github.com/shouni/gemini-jewelry-studio/pkg/generator"
	"github.com/shouni/gemini-jewelry-studio/pkg/prompt"
	"github.com/shouni/gemini-jewelry-studio/pkg/studio"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("設定の読み込みに失敗しました", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("サーバーが異常終了しました", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if !cfg.Generator.Configured() {
		slog.Warn("GEMINI_API_KEY が未設定です。生成リクエストは設定エラーになります")
	}

	obs := metrics.New()
	gen := generator.NewGeminiGenerator(cfg.Generator, nil)
	builder := prompt.NewBuilder()

	opts := httpapi.Options{
		AllowedOrigins:     cfg.AllowedOrigins,
		ProviderConfigured: cfg.Generator.Configured(),
		Persistence:        string(config.PersistenceDegraded),
		DefaultLanguage:    cfg.DefaultLanguage,
		Resolver:           auth.Anonymous{},
		Metrics:            obs.Handler(),
	}

	var recorder studio.HistoryRecorder
	if cfg.Persistence() == config.PersistenceConfigured {
		pool, err := history.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("履歴ストアに接続できません。デモモードで起動します", "error", err)
		} else {
			defer pool.Close()
			store := history.NewStore(pool)
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}

			var blobs *blobstore.Store
			if cfg.Blob.Enabled() {
				blobs, err = blobstore.New(ctx, blobstore.Options{
					Endpoint:        cfg.Blob.Endpoint,
					Bucket:          cfg.Blob.Bucket,
					AccessKeyID:     cfg.Blob.AccessKeyID,
					SecretAccessKey: cfg.Blob.SecretAccessKey,
					Region:          cfg.Blob.Region,
					URLTTL:          cfg.Blob.URLTTL,
				})
				if err != nil {
					return err
				}
				opts.Signer = blobs
			}

			if blobs != nil {
				recorder = history.NewRecorder(store, blobs, cfg.ThumbnailEdge)
			} else {
				recorder = history.NewRecorder(store, nil, cfg.ThumbnailEdge)
			}
			opts.History = store
			opts.Resolver = auth.NewSupabaseResolver(cfg.SupabaseURL, cfg.SupabaseAnonKey, nil)
			opts.Persistence = string(config.PersistenceConfigured)
		}
	} else {
		slog.Warn("Supabase または DATABASE_URL が未設定です。履歴を保存しないデモモードで起動します")
	}

	opts.NewStudio = func() *studio.Studio {
		studioOpts := []studio.Option{studio.WithObserver(obs)}
		if recorder != nil {
			studioOpts = append(studioOpts, studio.WithRecorder(recorder))
		}
		return studio.New(builder, gen, studioOpts...)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.New(opts).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API を起動しました", "addr", cfg.Addr, "persistence", opts.Persistence)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("サーバーを停止しました")
	return nil
}
