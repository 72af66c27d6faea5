package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/internal/models"
)

func newSourceService(t *testing.T) *SourceService {
	gdb := openDB(t)
	fetcher := NewFeedFetcher(gdb, NewCrawler(5*time.Second), "https://rsshub.example")
	return NewSourceService(gdb, fetcher, newCache(t))
}

func TestSourceServiceCreate(t *testing.T) {
	ctx := context.Background()
	srv := newFeedServer(t, rssFeed("Discovered Title"))
	svc := newSourceService(t)

	src, err := svc.Create(ctx, SourceInput{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "Discovered Title", src.Name)
	assert.Equal(t, "https://example.com/icon.png", src.IconURL)
	assert.Equal(t, models.SourceModeRSS, src.Mode)

	_, err = svc.Create(ctx, SourceInput{URL: srv.URL, Name: "again"})
	assert.ErrorIs(t, err, ErrDuplicate)

	for _, bad := range []SourceInput{
		{URL: "ftp://example.com/feed"},
		{URL: "not a url"},
		{URL: "rsshub://"},
		{URL: "https://example.com/x", Name: "x", Mode: "scrape"},
	} {
		_, err := svc.Create(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad.URL)
	}
}

func TestSourceServiceCreateWithoutDiscovery(t *testing.T) {
	ctx := context.Background()
	down := newFeedServer(t, "")
	down.code = 503
	svc := newSourceService(t)

	// 名称已提供时抓取失败不影响创建
	src, err := svc.Create(ctx, SourceInput{URL: down.URL, Name: "Named", Mode: models.SourceModePaused})
	require.NoError(t, err)
	assert.Equal(t, "Named", src.Name)
	assert.Equal(t, models.SourceModePaused, src.Mode)

	_, err = svc.Create(ctx, SourceInput{URL: down.URL + "/other"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSourceServiceListUpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc := newSourceService(t)

	a := newSource(t, svc.db, "alpha")
	b := newSource(t, svc.db, "beta")
	art := newArticle(t, svc.db, a, "one")
	newArticle(t, svc.db, a, "two")
	require.NoError(t, svc.db.Create(&models.Comment{ArticleID: art.ID, UserID: "u", Body: "c"}).Error)

	sources, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "alpha", sources[0].Name)
	assert.Equal(t, 2, sources[0].ArticleCount)
	assert.Equal(t, 0, sources[1].ArticleCount)

	updated, err := svc.Update(ctx, b.ID, SourceInput{Name: "gamma", URL: "rsshub://telegram/channel/go", Mode: models.SourceModeFullText})
	require.NoError(t, err)
	assert.Equal(t, "gamma", updated.Name)
	assert.Equal(t, models.SourceModeFullText, updated.Mode)

	// 修改后缓存失效
	sources, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gamma", sources[1].Name)

	_, err = svc.Update(ctx, b.ID, SourceInput{URL: a.URL})
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = svc.Update(ctx, 999, SourceInput{URL: "https://example.com/new"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, a.ID))
	var articles, comments int64
	svc.db.Model(&models.Article{}).Count(&articles)
	svc.db.Model(&models.Comment{}).Count(&comments)
	assert.Zero(t, articles)
	assert.Zero(t, comments)

	sources, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 1)

	assert.ErrorIs(t, svc.Delete(ctx, a.ID), ErrNotFound)
}

func TestSourceServiceRefresh(t *testing.T) {
	ctx := context.Background()
	srv := newFeedServer(t, rssFeed("Feed", rssItem("r-1", "One", "https://example.com/1", "")))
	svc := newSourceService(t)

	src := &models.Source{Name: "paused", URL: srv.URL, Mode: models.SourceModePaused}
	require.NoError(t, svc.db.Create(src).Error)

	added, err := svc.Refresh(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	sources, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sources[0].ArticleCount)
	assert.NotNil(t, sources[0].LastFetchAt)

	_, err = svc.Refresh(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
