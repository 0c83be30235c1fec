// Package web 内嵌提交页和看板页模板
package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templatesFS embed.FS

var funcs = template.FuncMap{
	"pct": func(v float64) string {
		return fmt.Sprintf("%.0f%%", v)
	},
	"score": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"join": func(items []string) string {
		return strings.Join(items, ", ")
	},
	"selected": func(list []string, v string) bool {
		for _, item := range list {
			if item == v {
				return true
			}
		}
		return false
	},
}

// Templates 解析全部页面模板，模板名为文件名（如 submit.html）
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
