package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Comment 文章详情页下的评论。ParentCommentID 为空表示根评论。
type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ArticleID       uint      `gorm:"not null;index" json:"article_id"`
	ParentCommentID *uint     `gorm:"index" json:"parent_comment_id"`
	UserID          string    `gorm:"size:64;not null;index" json:"user_id"`
	Body            string    `gorm:"column:comment;type:text;not null" json:"comment"`
	IsDeleted       bool      `gorm:"default:false" json:"is_deleted"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (c *Comment) IsRoot() bool {
	return c.ParentCommentID == nil
}

// CommentRecord 是远端接口返回的原始评论结构：
// id 可能是数字也可能是字符串，时间戳是字符串且不保证格式正确。
type CommentRecord struct {
	ID              json.RawMessage `json:"id"`
	ArticleID       json.RawMessage `json:"article_id"`
	ParentCommentID json.RawMessage `json:"parent_comment_id"`
	UserID          json.RawMessage `json:"user_id"`
	Comment         string          `json:"comment"`
	IsDeleted       bool            `json:"is_deleted"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

var ErrMalformedRecord = errors.New("malformed comment record")

// Normalize 把原始记录转换成 Comment。id 不合法时返回 ErrMalformedRecord，
// 无法解析的时间戳按 Unix 纪元处理。
func (r CommentRecord) Normalize() (Comment, error) {
	id, ok, err := parseRawID(r.ID)
	if err != nil || !ok || id == 0 {
		return Comment{}, fmt.Errorf("%w: id %s", ErrMalformedRecord, string(r.ID))
	}

	articleID, _, err := parseRawID(r.ArticleID)
	if err != nil {
		return Comment{}, fmt.Errorf("%w: article_id %s", ErrMalformedRecord, string(r.ArticleID))
	}

	var parentID *uint
	pid, ok, err := parseRawID(r.ParentCommentID)
	if err != nil {
		return Comment{}, fmt.Errorf("%w: parent_comment_id %s", ErrMalformedRecord, string(r.ParentCommentID))
	}
	if ok {
		parentID = &pid
	}

	return Comment{
		ID:              id,
		ArticleID:       articleID,
		ParentCommentID: parentID,
		UserID:          rawString(r.UserID),
		Body:            r.Comment,
		IsDeleted:       r.IsDeleted,
		CreatedAt:       ParseTimestamp(r.CreatedAt),
		UpdatedAt:       ParseTimestamp(r.UpdatedAt),
	}, nil
}

// parseRawID 接受 JSON 数字或数字字符串，null/缺省返回 ok=false
func parseRawID(raw json.RawMessage) (uint, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false, nil
		}
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return uint(n), true, nil
}

func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp 解析 ISO-8601 风格的时间，失败时返回 Unix 纪元，保证排序总是可比较
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Unix(0, 0).UTC()
}
