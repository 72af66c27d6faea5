package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Crawler 抓取原文页面并提取正文
type Crawler struct {
	client    *resty.Client
	sanitizer *bluemonday.Policy
}

func NewCrawler(timeout time.Duration) *Crawler {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", browserUserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	return &Crawler{
		client:    client,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// HTTPClient 返回底层的 http.Client，订阅源解析共用同一个连接池
func (s *Crawler) HTTPClient() *http.Client {
	return s.client.GetClient()
}

// FetchArticleContent 用 go-readability 提取正文，再用 bluemonday 清洗
func (s *Crawler) FetchArticleContent(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("invalid article url %q", pageURL)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", pageURL, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("request %s: status %d", pageURL, resp.StatusCode())
	}

	article, err := readability.FromReader(body, parsed)
	if err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}

	return s.sanitizer.Sanitize(article.Content), nil
}
