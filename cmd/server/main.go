package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"curator/internal/config"
	"curator/internal/db"
	"curator/internal/logger"
	"curator/internal/router"
	"curator/internal/services"
	"curator/internal/utils"
)

func main() {
	cfg := config.MustLoad()
	gin.SetMode(cfg.GinMode)

	log, err := logger.Init(cfg.LogLevel, cfg.GinMode == gin.ReleaseMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	gdb, err := db.Init(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := db.SeedAdmin(gdb, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	}

	cache, err := utils.NewCache(128)
	if err != nil {
		return err
	}

	var store services.CommentStore
	var counter services.CommentCounter
	switch cfg.CommentsBackend {
	case config.CommentsBackendBaaS:
		store = services.NewBaaSCommentStore(cfg.BaaSURL, cfg.BaaSKey, cfg.HTTPTimeout)
	default:
		dbStore := services.NewDBCommentStore(gdb)
		store, counter = dbStore, dbStore
	}

	crawler := services.NewCrawler(cfg.HTTPTimeout)
	fetcher := services.NewFeedFetcher(gdb, crawler, cfg.RSSHubInstance)

	engine, err := router.New(router.Deps{
		DB:            gdb,
		Logger:        log,
		Articles:      services.NewArticleService(gdb, counter, cfg.PerPage),
		Sources:       services.NewSourceService(gdb, fetcher, cache),
		Comments:      services.NewCommentService(store),
		SessionSecret: cfg.SessionSecret,
		TemplatesDir:  cfg.TemplatesDir,
	})
	if err != nil {
		return err
	}

	scheduler := services.NewScheduler(fetcher, cfg.FetchSchedule, cfg.CleanupSchedule, cfg.RetentionDays)
	if err := scheduler.RegisterJobs(); err != nil {
		return err
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Curator server starting", zap.String("addr", srv.Addr), zap.String("comments_backend", cfg.CommentsBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		<-scheduler.Stop().Done()
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("Scheduled jobs still running at shutdown")
	}
	return nil
}
