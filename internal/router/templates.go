package router

import (
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/gin-contrib/multitemplate"

	"curator/internal/utils"
)

var funcMap = template.FuncMap{
	"dict": func(values ...any) (map[string]any, error) {
		if len(values)%2 != 0 {
			return nil, fmt.Errorf("invalid dict call")
		}
		dict := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict keys must be strings")
			}
			dict[key] = values[i+1]
		}
		return dict, nil
	},
	"add": func(a, b int) int {
		return a + b
	},
	"timeAgo":   timeAgo,
	"date":      func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
	"markdown":  utils.RenderMarkdown,
	"plainText": utils.PlainText,
}

func timeAgo(t time.Time) string {
	seconds := int(time.Since(t).Seconds())
	switch {
	case seconds < 60:
		return "刚刚"
	case seconds < 3600:
		return fmt.Sprintf("%d分钟前", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%d小时前", seconds/3600)
	case seconds < 2592000:
		return fmt.Sprintf("%d天前", seconds/86400)
	case seconds < 31536000:
		return fmt.Sprintf("%d个月前", seconds/2592000)
	}
	return fmt.Sprintf("%d年前", seconds/31536000)
}

// views 页面模板，键与 handler 中使用的名称一致
var views = []string{
	"auth/login.html",
	"article/list.html",
	"article/detail.html",
	"source/list.html",
	"error.html",
}

func loadTemplates(templatesDir string) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	var shared []string
	for _, dir := range []string{"layouts", "includes", "components"} {
		files, err := filepath.Glob(filepath.Join(templatesDir, dir, "*.html"))
		if err != nil {
			return nil, err
		}
		shared = append(shared, files...)
	}
	if len(shared) == 0 {
		return nil, fmt.Errorf("no layout templates found in %s", templatesDir)
	}

	for _, view := range views {
		files := append(append([]string{}, shared...), filepath.Join(templatesDir, "views", view))
		tmpl, err := template.New(filepath.Base(files[0])).Funcs(funcMap).ParseFiles(files...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", view, err)
		}
		r.Add(view, tmpl)
	}
	return r, nil
}
