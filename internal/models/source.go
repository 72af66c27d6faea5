package models

import (
	"time"
)

// SourceMode 订阅源的采集方式
type SourceMode string

const (
	SourceModeRSS      SourceMode = "rss"      // 只保存 RSS 条目自带的摘要/正文
	SourceModeFullText SourceMode = "fulltext" // 额外抓取原文页面提取正文
	SourceModePaused   SourceMode = "paused"   // 定时刷新时跳过
)

var SourceModes = []SourceMode{SourceModeRSS, SourceModeFullText, SourceModePaused}

func (m SourceMode) Valid() bool {
	switch m {
	case SourceModeRSS, SourceModeFullText, SourceModePaused:
		return true
	}
	return false
}

// Source RSS 订阅源
type Source struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	URL         string     `gorm:"uniqueIndex;not null" json:"url"` // 可能带 rsshub:// 前缀，按原样保存
	IconURL     string     `json:"icon_url"`
	Mode        SourceMode `gorm:"type:varchar(20);not null;default:'rss'" json:"mode"`
	LastFetchAt *time.Time `json:"last_fetch_at"`
	LastError   string     `gorm:"type:text" json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	ArticleCount int `gorm:"-" json:"article_count"`
}
