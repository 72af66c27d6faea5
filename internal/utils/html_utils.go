package utils

import (
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent 为文章中的图片增加懒加载和防盗链属性，并移除空段落
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})

	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" && s.Find("img").Length() == 0 {
			s.Remove()
		}
	})

	// goquery 会补全 html/body，只取 body 内容
	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}

	return template.HTML(html)
}

// PlainText 提取 HTML 的纯文本，超过 limit 个字符时截断并加省略号
func PlainText(htmlStr string, limit int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		runes := []rune(text)
		text = string(runes[:limit]) + "..."
	}
	return text
}
