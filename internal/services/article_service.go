package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"curator/internal/models"
	"curator/internal/utils"
)

// ArticleFilter 文章列表的筛选、排序和分页参数，同时用于表单和查询串绑定
type ArticleFilter struct {
	Status   string `form:"status" json:"status" binding:"omitempty,oneof=pending approved rejected"`
	SourceID uint   `form:"source_id" json:"source_id"`
	Featured string `form:"featured" json:"featured" binding:"omitempty,oneof=true false"`
	Hidden   string `form:"hidden" json:"hidden" binding:"omitempty,oneof=true false"`
	Query    string `form:"q" json:"q" binding:"max=200"`
	Sort     string `form:"sort" json:"sort" binding:"omitempty,oneof=published_at created_at title"`
	Order    string `form:"order" json:"order" binding:"omitempty,oneof=asc desc"`
	Page     int    `form:"page" json:"page" binding:"omitempty,min=1"`
	PerPage  int    `form:"per_page" json:"per_page" binding:"omitempty,min=1,max=200"`
}

// Values 把筛选条件编码为查询串（不含 page），用于分页链接
func (f ArticleFilter) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("status", f.Status)
	if f.SourceID != 0 {
		v.Set("source_id", strconv.FormatUint(uint64(f.SourceID), 10))
	}
	set("featured", f.Featured)
	set("hidden", f.Hidden)
	set("q", f.Query)
	set("sort", f.Sort)
	set("order", f.Order)
	if f.PerPage != 0 {
		v.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return v
}

// PageURL 返回指定页码的列表查询串
func (f ArticleFilter) PageURL(page int) string {
	v := f.Values()
	v.Set("page", strconv.Itoa(page))
	return "?" + v.Encode()
}

// ArticleUpdate 为空的字段不修改
type ArticleUpdate struct {
	Title        *string               `json:"title" binding:"omitempty,min=1,max=500"`
	Status       *models.ArticleStatus `json:"status" binding:"omitempty,oneof=pending approved rejected"`
	IsFeatured   *bool                 `json:"is_featured"`
	IsHidden     *bool                 `json:"is_hidden"`
	AdminComment *string               `json:"admin_comment" binding:"omitempty,max=2000"`
}

func (u ArticleUpdate) changes() (map[string]any, error) {
	m := make(map[string]any)
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is empty", ErrInvalidInput)
		}
		m["title"] = title
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, *u.Status)
		}
		m["status"] = *u.Status
	}
	if u.IsFeatured != nil {
		m["is_featured"] = *u.IsFeatured
	}
	if u.IsHidden != nil {
		m["is_hidden"] = *u.IsHidden
	}
	if u.AdminComment != nil {
		m["admin_comment"] = strings.TrimSpace(*u.AdminComment)
	}
	return m, nil
}

var sortColumns = map[string]string{
	"published_at": "articles.published_at",
	"created_at":   "articles.created_at",
	"title":        "articles.title",
}

type ArticleService struct {
	db             *gorm.DB
	counter        CommentCounter
	defaultPerPage int
}

// NewArticleService counter 可以为 nil，此时不统计评论数
func NewArticleService(db *gorm.DB, counter CommentCounter, defaultPerPage int) *ArticleService {
	if defaultPerPage < 1 {
		defaultPerPage = 30
	}
	return &ArticleService{db: db, counter: counter, defaultPerPage: defaultPerPage}
}

func (s *ArticleService) filtered(ctx context.Context, f ArticleFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Article{})
	if f.Status != "" {
		q = q.Where("articles.status = ?", f.Status)
	}
	if f.SourceID != 0 {
		q = q.Where("articles.source_id = ?", f.SourceID)
	}
	if f.Featured != "" {
		q = q.Where("articles.is_featured = ?", f.Featured == "true")
	}
	if f.Hidden != "" {
		q = q.Where("articles.is_hidden = ?", f.Hidden == "true")
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Query)); kw != "" {
		like := "%" + kw + "%"
		q = q.Where("(LOWER(articles.title) LIKE ? OR LOWER(articles.summary) LIKE ?)", like, like)
	}
	return q
}

// List 返回一页文章及分页信息
func (s *ArticleService) List(ctx context.Context, f ArticleFilter) ([]models.Article, utils.Pagination, error) {
	const op = "list articles"

	var total int64
	if err := s.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("%s: %w", op, err)
	}

	perPage := f.PerPage
	if perPage == 0 {
		perPage = s.defaultPerPage
	}
	page := utils.Paginate(total, f.Page, perPage)

	column, ok := sortColumns[f.Sort]
	if !ok {
		column = sortColumns["published_at"]
	}
	direction := "DESC"
	if f.Order == "asc" {
		direction = "ASC"
	}

	var articles []models.Article
	err := s.filtered(ctx, f).
		Preload("Source").
		Order(column + " " + direction).
		Order("articles.id " + direction).
		Offset(page.Offset).
		Limit(page.PerPage).
		Find(&articles).Error
	if err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.fillCommentCounts(ctx, articles); err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("%s: %w", op, err)
	}
	return articles, page, nil
}

func (s *ArticleService) fillCommentCounts(ctx context.Context, articles []models.Article) error {
	if s.counter == nil || len(articles) == 0 {
		return nil
	}

	ids := make([]uint, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}
	counts, err := s.counter.CountByArticle(ctx, ids)
	if err != nil {
		return err
	}
	for i := range articles {
		articles[i].CommentCount = counts[articles[i].ID]
	}
	return nil
}

func (s *ArticleService) Get(ctx context.Context, id uint) (*models.Article, error) {
	var a models.Article
	if err := s.db.WithContext(ctx).Preload("Source").First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &a, nil
}

// Update 修改审核状态、标记和备注，返回更新后的文章
func (s *ArticleService) Update(ctx context.Context, id uint, u ArticleUpdate) (*models.Article, error) {
	changes, err := u.changes()
	if err != nil {
		return nil, err
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		err := s.db.WithContext(ctx).Model(&models.Article{}).Where("id = ?", id).Updates(changes).Error
		if err != nil {
			return nil, fmt.Errorf("update article: %w", err)
		}
	}
	return s.Get(ctx, id)
}

// BulkSetStatus 批量修改审核状态，返回受影响的行数
func (s *ArticleService) BulkSetStatus(ctx context.Context, ids []uint, status models.ArticleStatus) (int64, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Model(&models.Article{}).Where("id IN ?", ids).Update("status", status)
	if res.Error != nil {
		return 0, fmt.Errorf("bulk set status: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete 删除文章及其本地评论
func (s *ArticleService) Delete(ctx context.Context, ids ...uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Article{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("delete articles: %w", err)
	}
	return deleted, nil
}

// StatusCounts 各审核状态下的文章数，没有文章的状态计为 0
func (s *ArticleService) StatusCounts(ctx context.Context) (map[models.ArticleStatus]int64, error) {
	type row struct {
		Status models.ArticleStatus
		Count  int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&models.Article{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count articles by status: %w", err)
	}

	counts := make(map[models.ArticleStatus]int64, len(models.ArticleStatuses))
	for _, st := range models.ArticleStatuses {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
