package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"curator/internal/models"
)

// CommentStore 是评论的数据来源。List 返回某篇文章的全部评论（含已删除），
// 不保证顺序。
type CommentStore interface {
	List(ctx context.Context, articleID uint) ([]models.Comment, error)
	Get(ctx context.Context, id uint) (*models.Comment, error)
	Create(ctx context.Context, c *models.Comment) error
	UpdateBody(ctx context.Context, id uint, body string) error
	SoftDelete(ctx context.Context, id uint) error
}

// DBCommentStore 评论保存在本地数据库
type DBCommentStore struct {
	db *gorm.DB
}

func NewDBCommentStore(db *gorm.DB) *DBCommentStore {
	return &DBCommentStore{db: db}
}

func (s *DBCommentStore) List(ctx context.Context, articleID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *DBCommentStore) Get(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (s *DBCommentStore) Create(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *DBCommentStore) UpdateBody(ctx context.Context, id uint, body string) error {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("comment", body)
	if res.Error != nil {
		return fmt.Errorf("update comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DBCommentStore) SoftDelete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("is_deleted", true)
	if res.Error != nil {
		return fmt.Errorf("delete comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

const commentsPath = "/rest/v1/comments"

// BaaSCommentStore 通过托管后端的 REST 接口 (PostgREST 风格) 读写评论
type BaaSCommentStore struct {
	client *resty.Client
}

func NewBaaSCommentStore(baseURL, apiKey string, timeout time.Duration) *BaaSCommentStore {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("apikey", apiKey)
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &BaaSCommentStore{client: client}
}

func (s *BaaSCommentStore) List(ctx context.Context, articleID uint) ([]models.Comment, error) {
	var recs []models.CommentRecord
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"article_id": "eq." + strconv.FormatUint(uint64(articleID), 10),
			"order":      "created_at.asc",
		}).
		SetResult(&recs).
		Get(commentsPath)
	if err := checkResponse("list comments", resp, err); err != nil {
		return nil, err
	}
	return normalizeRecords(recs), nil
}

func (s *BaaSCommentStore) Get(ctx context.Context, id uint) (*models.Comment, error) {
	var recs []models.CommentRecord
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+strconv.FormatUint(uint64(id), 10)).
		SetResult(&recs).
		Get(commentsPath)
	if err := checkResponse("get comment", resp, err); err != nil {
		return nil, err
	}

	comments := normalizeRecords(recs)
	if len(comments) == 0 {
		return nil, ErrNotFound
	}
	return &comments[0], nil
}

type commentPayload struct {
	ArticleID       uint   `json:"article_id"`
	ParentCommentID *uint  `json:"parent_comment_id"`
	UserID          string `json:"user_id"`
	Comment         string `json:"comment"`
}

func (s *BaaSCommentStore) Create(ctx context.Context, c *models.Comment) error {
	var recs []models.CommentRecord
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody([]commentPayload{{
			ArticleID:       c.ArticleID,
			ParentCommentID: c.ParentCommentID,
			UserID:          c.UserID,
			Comment:         c.Body,
		}}).
		SetResult(&recs).
		Post(commentsPath)
	if err := checkResponse("create comment", resp, err); err != nil {
		return err
	}
	if len(recs) == 0 {
		return errors.New("create comment: empty response")
	}

	created, err := recs[0].Normalize()
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	*c = created
	return nil
}

func (s *BaaSCommentStore) UpdateBody(ctx context.Context, id uint, body string) error {
	return s.patch(ctx, "update comment", id, map[string]any{
		"comment":    body,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *BaaSCommentStore) SoftDelete(ctx context.Context, id uint) error {
	return s.patch(ctx, "delete comment", id, map[string]any{
		"is_deleted": true,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *BaaSCommentStore) patch(ctx context.Context, op string, id uint, fields map[string]any) error {
	var recs []models.CommentRecord
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+strconv.FormatUint(uint64(id), 10)).
		SetBody(fields).
		SetResult(&recs).
		Patch(commentsPath)
	if err := checkResponse(op, resp, err); err != nil {
		return err
	}
	if len(recs) == 0 {
		return ErrNotFound
	}
	return nil
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode(), resp.String())
	}
	return nil
}

// normalizeRecords 丢弃 id 不合法的记录
func normalizeRecords(recs []models.CommentRecord) []models.Comment {
	comments := make([]models.Comment, 0, len(recs))
	for _, rec := range recs {
		c, err := rec.Normalize()
		if err != nil {
			zap.S().Warnf("Skipping comment record: %v", err)
			continue
		}
		comments = append(comments, c)
	}
	return comments
}

// CommentCounter 由能批量统计评论数的数据源实现
type CommentCounter interface {
	CountByArticle(ctx context.Context, articleIDs []uint) (map[uint]int, error)
}

// CountByArticle 统计每篇文章未删除的评论数
func (s *DBCommentStore) CountByArticle(ctx context.Context, articleIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(articleIDs))
	if len(articleIDs) == 0 {
		return counts, nil
	}

	type result struct {
		ArticleID uint
		Count     int
	}
	var results []result
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("article_id, count(*) as count").
		Where("article_id IN ? AND is_deleted = ?", articleIDs, false).
		Group("article_id").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	for _, r := range results {
		counts[r.ArticleID] = r.Count
	}
	return counts, nil
}
