package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"curator/internal/db/dbtest"
	"curator/internal/models"
	"curator/internal/utils"
)

func newSource(t *testing.T, gdb *gorm.DB, name string) *models.Source {
	t.Helper()
	src := &models.Source{Name: name, URL: "https://example.com/" + name + ".xml", Mode: models.SourceModeRSS}
	require.NoError(t, gdb.Create(src).Error)
	return src
}

type articleOpt func(*models.Article)

func withStatus(s models.ArticleStatus) articleOpt { return func(a *models.Article) { a.Status = s } }
func featured() articleOpt                         { return func(a *models.Article) { a.IsFeatured = true } }
func hidden() articleOpt                           { return func(a *models.Article) { a.IsHidden = true } }
func publishedAt(t time.Time) articleOpt           { return func(a *models.Article) { a.PublishedAt = t } }

func newArticle(t *testing.T, gdb *gorm.DB, src *models.Source, title string, opts ...articleOpt) *models.Article {
	t.Helper()
	a := &models.Article{
		SourceID:    src.ID,
		GUID:        fmt.Sprintf("%d-%s", src.ID, title),
		Title:       title,
		Link:        "https://example.com/" + strings.ReplaceAll(title, " ", "-"),
		Status:      models.ArticleStatusPending,
		PublishedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}
	require.NoError(t, gdb.Omit("Source").Create(a).Error)
	return a
}

func newCache(t *testing.T) *utils.Cache {
	t.Helper()
	c, err := utils.NewCache(16)
	require.NoError(t, err)
	return c
}

// feedServer 提供一个可修改内容的 RSS 订阅源
type feedServer struct {
	*httptest.Server
	body string
	code int
}

func newFeedServer(t *testing.T, body string) *feedServer {
	t.Helper()
	fs := &feedServer{body: body, code: http.StatusOK}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fs.code != http.StatusOK {
			w.WriteHeader(fs.code)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		fmt.Fprint(w, fs.body)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func rssFeed(title string, items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>` + title + `</title>
<link>https://example.com</link>
<description>test feed</description>
<image><url>https://example.com/icon.png</url><title>icon</title><link>https://example.com</link></image>
` + strings.Join(items, "\n") + `
</channel></rss>`
}

func rssItem(guid, title, link, pubDate string) string {
	s := "<item><title>" + title + "</title><link>" + link + "</link><description>summary of " + title + "</description>"
	if guid != "" {
		s += "<guid>" + guid + "</guid>"
	}
	if pubDate != "" {
		s += "<pubDate>" + pubDate + "</pubDate>"
	}
	return s + "</item>"
}

func openDB(t *testing.T) *gorm.DB {
	return dbtest.Open(t)
}
