package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"curator/internal/models"
	"curator/internal/utils"
)

const (
	sourceListCacheKey = "sources:list"
	sourceListCacheTTL = time.Minute
)

// SourceInput 新建或修改订阅源的表单
type SourceInput struct {
	Name    string            `form:"name" json:"name" binding:"max=200"`
	URL     string            `form:"url" json:"url" binding:"required,max=1000"`
	IconURL string            `form:"icon_url" json:"icon_url" binding:"omitempty,url,max=1000"`
	Mode    models.SourceMode `form:"mode" json:"mode" binding:"omitempty,oneof=rss fulltext paused"`
}

type SourceService struct {
	db      *gorm.DB
	fetcher *FeedFetcher
	cache   *utils.Cache
}

func NewSourceService(db *gorm.DB, fetcher *FeedFetcher, cache *utils.Cache) *SourceService {
	return &SourceService{db: db, fetcher: fetcher, cache: cache}
}

// List 返回所有订阅源及其文章数，结果缓存一分钟
func (s *SourceService) List(ctx context.Context) ([]models.Source, error) {
	if cached, ok := s.cache.Get(sourceListCacheKey).([]models.Source); ok {
		return cached, nil
	}

	var sources []models.Source
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	type result struct {
		SourceID uint
		Count    int
	}
	var results []result
	err := s.db.WithContext(ctx).Model(&models.Article{}).
		Select("source_id, count(*) as count").
		Group("source_id").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("count articles per source: %w", err)
	}
	counts := make(map[uint]int, len(results))
	for _, r := range results {
		counts[r.SourceID] = r.Count
	}
	for i := range sources {
		sources[i].ArticleCount = counts[sources[i].ID]
	}

	s.cache.Set(sourceListCacheKey, sources, sourceListCacheTTL)
	return sources, nil
}

func (s *SourceService) Get(ctx context.Context, id uint) (*models.Source, error) {
	var src models.Source
	if err := s.db.WithContext(ctx).First(&src, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get source: %w", err)
	}
	return &src, nil
}

// Create 新建订阅源。名称为空时从订阅源标题中获取。
func (s *SourceService) Create(ctx context.Context, in SourceInput) (*models.Source, error) {
	const op = "create source"

	if err := validateSourceInput(&in); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueURL(ctx, in.URL, 0); err != nil {
		return nil, err
	}

	src := &models.Source{Name: in.Name, URL: in.URL, IconURL: in.IconURL, Mode: in.Mode}
	if src.Name == "" || src.IconURL == "" {
		discovered, err := s.fetcher.Discover(ctx, in.URL)
		if err != nil {
			if src.Name == "" {
				return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
		} else {
			if src.Name == "" {
				src.Name = discovered.Name
			}
			if src.IconURL == "" {
				src.IconURL = discovered.IconURL
			}
		}
	}
	if src.Name == "" {
		src.Name = in.URL
	}

	if err := s.db.WithContext(ctx).Create(src).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cache.Delete(sourceListCacheKey)
	return src, nil
}

func (s *SourceService) Update(ctx context.Context, id uint, in SourceInput) (*models.Source, error) {
	const op = "update source"

	if err := validateSourceInput(&in); err != nil {
		return nil, err
	}
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueURL(ctx, in.URL, id); err != nil {
		return nil, err
	}

	changes := map[string]any{"url": in.URL, "mode": in.Mode, "icon_url": in.IconURL}
	if in.Name != "" {
		changes["name"] = in.Name
	}
	if err := s.db.WithContext(ctx).Model(src).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.cache.Delete(sourceListCacheKey)
	return s.Get(ctx, id)
}

// Delete 删除订阅源及其全部文章和本地评论
func (s *SourceService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		articles := tx.Model(&models.Article{}).Select("id").Where("source_id = ?", id)
		if err := tx.Where("article_id IN (?)", articles).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("source_id = ?", id).Delete(&models.Article{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Source{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	s.cache.Delete(sourceListCacheKey)
	return nil
}

// Refresh 立即抓取一个订阅源（暂停状态的也会抓取），返回新增文章数
func (s *SourceService) Refresh(ctx context.Context, id uint) (int, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	added, err := s.fetcher.Fetch(ctx, src)
	s.cache.Delete(sourceListCacheKey)
	if err != nil {
		return 0, fmt.Errorf("refresh source: %w", err)
	}
	return added, nil
}

func (s *SourceService) ensureUniqueURL(ctx context.Context, rawURL string, exceptID uint) error {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.Source{}).Where("url = ?", rawURL)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check source url: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: source %s", ErrDuplicate, rawURL)
	}
	return nil
}

func validateSourceInput(in *SourceInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	in.IconURL = strings.TrimSpace(in.IconURL)

	if in.Mode == "" {
		in.Mode = models.SourceModeRSS
	}
	if !in.Mode.Valid() {
		return fmt.Errorf("%w: mode %q", ErrInvalidInput, in.Mode)
	}

	if strings.HasPrefix(in.URL, "rsshub://") {
		if len(in.URL) == len("rsshub://") {
			return fmt.Errorf("%w: empty rsshub route", ErrInvalidInput)
		}
		return nil
	}
	u, err := url.Parse(in.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be http(s) or rsshub://", ErrInvalidInput)
	}
	return nil
}
