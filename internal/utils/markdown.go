package utils

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	// 评论只支持轻量 Markdown，不开放图片
	commentMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	commentPolicy = bluemonday.UGCPolicy()
	articlePolicy = bluemonday.UGCPolicy()
)

func init() {
	commentPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	commentPolicy.RequireNoReferrerOnLinks(true)

	articlePolicy.AllowImages()
	articlePolicy.AddTargetBlankToFullyQualifiedLinks(true)
	articlePolicy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown 渲染评论正文
func RenderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := commentMarkdown.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(commentPolicy.SanitizeBytes(buf.Bytes()))
}

// SanitizeArticleHTML 清洗抓取到的文章 HTML 并增强图片属性
func SanitizeArticleHTML(raw string) template.HTML {
	return EnhanceHTMLContent(articlePolicy.Sanitize(raw))
}
