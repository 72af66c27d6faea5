package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	refreshTimeout = 20 * time.Minute
	cleanupTimeout = 5 * time.Minute
)

// Scheduler 定时刷新订阅源并清理过期文章
type Scheduler struct {
	engine        *cron.Cron
	fetcher       *FeedFetcher
	fetchSpec     string
	cleanupSpec   string
	retentionDays int
}

func NewScheduler(fetcher *FeedFetcher, fetchSpec, cleanupSpec string, retentionDays int) *Scheduler {
	return &Scheduler{
		engine:        cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		fetcher:       fetcher,
		fetchSpec:     fetchSpec,
		cleanupSpec:   cleanupSpec,
		retentionDays: retentionDays,
	}
}

// RegisterJobs 注册定时任务，表达式非法时返回错误
func (s *Scheduler) RegisterJobs() error {
	if _, err := s.engine.AddFunc(s.fetchSpec, s.refresh); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", s.fetchSpec, err)
	}
	if _, err := s.engine.AddFunc(s.cleanupSpec, s.cleanup); err != nil {
		return fmt.Errorf("schedule cleanup %q: %w", s.cleanupSpec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	zap.S().Info("Cron scheduler started")
	s.engine.Start()
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() context.Context {
	zap.S().Info("Cron scheduler stopping")
	return s.engine.Stop()
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	zap.S().Info("Scheduled source refresh started")
	s.fetcher.RefreshAll(ctx)
}

func (s *Scheduler) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if _, err := s.fetcher.CleanupOldArticles(ctx, s.retentionDays); err != nil {
		zap.S().Errorf("Scheduled cleanup failed: %v", err)
	}
}
