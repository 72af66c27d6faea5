package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"curator/internal/commenttree"
	"curator/internal/metrics"
	"curator/internal/models"
)

// Actor 发起评论操作的用户
type Actor struct {
	UserID  string
	IsAdmin bool
}

func (a Actor) canModify(c *models.Comment) bool {
	return a.IsAdmin || (a.UserID != "" && a.UserID == c.UserID)
}

const maxCommentLength = 10000

type CommentService struct {
	store CommentStore
}

func NewCommentService(store CommentStore) *CommentService {
	return &CommentService{store: store}
}

// Tree 读取文章的全部评论并整理成两层结构
func (s *CommentService) Tree(ctx context.Context, articleID uint) ([]commenttree.Node, error) {
	const op = "comment tree"

	comments, err := s.store.List(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	nodes := commenttree.Build(comments)
	metrics.CommentTreeSize.Observe(float64(len(comments)))
	return nodes, nil
}

// Post 发表评论。parentID 不为空时必须指向同一篇文章下的评论。
func (s *CommentService) Post(ctx context.Context, actor Actor, articleID uint, parentID *uint, body string) (*models.Comment, error) {
	const op = "post comment"

	body, err := cleanBody(body)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := s.store.Get(ctx, *parentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if parent.ArticleID != articleID {
			return nil, ErrParentNotFound
		}
	}

	c := &models.Comment{
		ArticleID:       articleID,
		ParentCommentID: parentID,
		UserID:          actor.UserID,
		Body:            body,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// Edit 修改评论内容，仅作者或管理员可操作
func (s *CommentService) Edit(ctx context.Context, actor Actor, id uint, body string) (*models.Comment, error) {
	const op = "edit comment"

	body, err := cleanBody(body)
	if err != nil {
		return nil, err
	}

	c, err := s.modifiable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateBody(ctx, id, body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.Body = body
	return c, nil
}

// Delete 软删除评论，回复保留
func (s *CommentService) Delete(ctx context.Context, actor Actor, id uint) (*models.Comment, error) {
	const op = "delete comment"

	c, err := s.modifiable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.SoftDelete(ctx, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.IsDeleted = true
	return c, nil
}

func (s *CommentService) modifiable(ctx context.Context, actor Actor, id uint) (*models.Comment, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted {
		return nil, ErrNotFound
	}
	if !actor.canModify(c) {
		return nil, ErrForbidden
	}
	return c, nil
}

func cleanBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmptyComment
	}
	if len([]rune(body)) > maxCommentLength {
		return "", fmt.Errorf("%w: comment longer than %d characters", ErrInvalidInput, maxCommentLength)
	}
	return body, nil
}
