package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"curator/internal/metrics"
	"curator/internal/models"
)

// FeedFetcher 拉取订阅源并把新条目存为待审核文章
type FeedFetcher struct {
	db             *gorm.DB
	parser         *gofeed.Parser
	crawler        *Crawler
	rsshubInstance string
}

func NewFeedFetcher(db *gorm.DB, crawler *Crawler, rsshubInstance string) *FeedFetcher {
	parser := gofeed.NewParser()
	parser.Client = crawler.HTTPClient()
	parser.UserAgent = browserUserAgent

	return &FeedFetcher{
		db:             db,
		parser:         parser,
		crawler:        crawler,
		rsshubInstance: strings.TrimSuffix(rsshubInstance, "/"),
	}
}

// NormalizeURL 把 rsshub:// 前缀替换为配置的 RSSHub 实例地址
func (f *FeedFetcher) NormalizeURL(rssURL string) string {
	if path, ok := strings.CutPrefix(rssURL, "rsshub://"); ok {
		return f.rsshubInstance + "/" + path
	}
	return rssURL
}

// Discover 解析订阅源获取标题和图标，不写数据库
func (f *FeedFetcher) Discover(ctx context.Context, rssURL string) (*models.Source, error) {
	feed, err := f.parser.ParseURLWithContext(f.NormalizeURL(rssURL), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	iconURL := ""
	if feed.Image != nil {
		iconURL = feed.Image.URL
	}

	return &models.Source{
		Name:    strings.TrimSpace(feed.Title),
		URL:     rssURL,
		IconURL: iconURL,
	}, nil
}

// Fetch 抓取单个订阅源，返回新增文章数。无论成功与否都会记录抓取时间和错误信息。
func (f *FeedFetcher) Fetch(ctx context.Context, src *models.Source) (int, error) {
	added, fetchErr := f.fetch(ctx, src)

	now := time.Now()
	lastError := ""
	if fetchErr != nil {
		lastError = fetchErr.Error()
		metrics.FeedFetchFailures.WithLabelValues(src.Name).Inc()
	}
	err := f.db.WithContext(ctx).Model(&models.Source{}).Where("id = ?", src.ID).
		Updates(map[string]any{"last_fetch_at": &now, "last_error": lastError}).Error
	if err != nil {
		zap.S().Errorf("Failed to record fetch result for source %d: %v", src.ID, err)
	}
	src.LastFetchAt = &now
	src.LastError = lastError

	if added > 0 {
		metrics.ArticlesIngested.WithLabelValues(src.Name).Add(float64(added))
	}
	return added, fetchErr
}

func (f *FeedFetcher) fetch(ctx context.Context, src *models.Source) (int, error) {
	feed, err := f.parser.ParseURLWithContext(f.NormalizeURL(src.URL), ctx)
	if err != nil {
		return 0, fmt.Errorf("parse feed: %w", err)
	}

	added := 0
	for _, item := range feed.Items {
		if ctx.Err() != nil {
			return added, ctx.Err()
		}

		guid := item.GUID
		if guid == "" {
			guid = item.Link // 没有 GUID 时使用 Link 作为唯一标识
		}
		if guid == "" {
			continue
		}

		var exists int64
		f.db.WithContext(ctx).Model(&models.Article{}).Where("guid = ?", guid).Count(&exists)
		if exists > 0 {
			continue
		}

		article := f.articleFromItem(ctx, src, guid, item)
		if err := f.db.WithContext(ctx).Omit("Source").Create(&article).Error; err != nil {
			zap.S().Warnf("Failed to store item %s of source %d: %v", guid, src.ID, err)
			continue
		}
		added++
	}
	return added, nil
}

func (f *FeedFetcher) articleFromItem(ctx context.Context, src *models.Source, guid string, item *gofeed.Item) models.Article {
	publishedAt := time.Now()
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		publishedAt = *item.UpdatedParsed
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = item.Link
	}

	content := item.Content
	if src.Mode == models.SourceModeFullText && item.Link != "" {
		full, err := f.crawler.FetchArticleContent(ctx, item.Link)
		if err != nil {
			zap.S().Debugf("Full text fetch failed for %s: %v", item.Link, err)
		} else if full != "" {
			content = full
		}
	}

	return models.Article{
		SourceID:    src.ID,
		GUID:        guid,
		Title:       title,
		Link:        item.Link,
		Summary:     item.Description,
		Content:     content,
		Status:      models.ArticleStatusPending,
		PublishedAt: publishedAt,
	}
}

// RefreshAll 刷新所有未暂停的订阅源
func (f *FeedFetcher) RefreshAll(ctx context.Context) {
	var sources []models.Source
	if err := f.db.WithContext(ctx).Where("mode <> ?", models.SourceModePaused).Find(&sources).Error; err != nil {
		zap.S().Errorf("Failed to load sources: %v", err)
		return
	}

	total := 0
	for i := range sources {
		if ctx.Err() != nil {
			return
		}
		added, err := f.Fetch(ctx, &sources[i])
		if err != nil {
			zap.S().Warnf("Failed to refresh source %s: %v", sources[i].Name, err)
			continue
		}
		total += added
	}
	zap.S().Infof("Refreshed %d sources, %d new articles", len(sources), total)
}

// CleanupOldArticles 删除发布时间早于 retentionDays 天且未通过审核的文章
func (f *FeedFetcher) CleanupOldArticles(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays < 1 {
		return 0, errors.New("retention days must be positive")
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var deleted int64
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&models.Article{}).Select("id").
			Where("published_at < ? AND status <> ?", cutoff, models.ArticleStatusApproved)

		if err := tx.Where("article_id IN (?)", stale).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("published_at < ? AND status <> ?", cutoff, models.ArticleStatusApproved).Delete(&models.Article{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("cleanup articles: %w", err)
	}

	metrics.ArticlesCleanedUp.Add(float64(deleted))
	zap.S().Infof("Removed %d articles older than %d days", deleted, retentionDays)
	return deleted, nil
}
