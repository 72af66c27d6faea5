package models

import (
	"time"
)

type ArticleStatus string

const (
	ArticleStatusPending  ArticleStatus = "pending"
	ArticleStatusApproved ArticleStatus = "approved"
	ArticleStatusRejected ArticleStatus = "rejected"
)

// ArticleStatuses 按展示顺序列出所有审核状态
var ArticleStatuses = []ArticleStatus{ArticleStatusPending, ArticleStatusApproved, ArticleStatusRejected}

func (s ArticleStatus) Valid() bool {
	switch s {
	case ArticleStatusPending, ArticleStatusApproved, ArticleStatusRejected:
		return true
	}
	return false
}

// Article 抓取到的文章，由管理员审核
type Article struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	SourceID     uint          `gorm:"not null;index" json:"source_id"`
	Source       Source        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"source"`
	GUID         string        `gorm:"uniqueIndex;not null" json:"guid"` // 订阅源条目唯一标识
	Title        string        `gorm:"not null" json:"title"`
	Link         string        `gorm:"not null" json:"link"`
	Summary      string        `gorm:"type:text" json:"summary"`
	Content      string        `gorm:"type:text" json:"content"` // 全文模式下抓取的正文 HTML
	Status       ArticleStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IsFeatured   bool          `gorm:"default:false;index" json:"is_featured"`
	IsHidden     bool          `gorm:"default:false;index" json:"is_hidden"`
	AdminComment string        `gorm:"type:text" json:"admin_comment"` // 编辑备注，仅后台可见
	PublishedAt  time.Time     `gorm:"not null;index" json:"published_at"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	// 非数据库字段，用于查询时填充
	CommentCount int `gorm:"-" json:"comment_count"`
}
