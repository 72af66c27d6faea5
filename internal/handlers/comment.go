package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"curator/internal/services"
	"curator/internal/utils"
)

type CommentHandler struct {
	comments *services.CommentService
	articles *services.ArticleService
}

func NewCommentHandler(comments *services.CommentService, articles *services.ArticleService) *CommentHandler {
	return &CommentHandler{comments: comments, articles: articles}
}

// Create 发表评论或回复，成功后重新加载整个评论区
func (h *CommentHandler) Create(c *gin.Context) {
	articleID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.articles.Get(ctx, articleID); err != nil {
		fail(c, err)
		return
	}

	var parentID *uint
	if raw := strings.TrimSpace(c.PostForm("parent_comment_id")); raw != "" {
		pid, ok := utils.ParseID(raw)
		if !ok {
			fail(c, services.ErrParentNotFound)
			return
		}
		parentID = &pid
	}

	comment, err := h.comments.Post(ctx, actorOf(c), articleID, parentID, c.PostForm("comment"))
	if err != nil {
		fail(c, err)
		return
	}

	h.reload(c, articleID, fmt.Sprintf("#comment-%d", comment.ID))
}

// Edit 修改评论内容
func (h *CommentHandler) Edit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	comment, err := h.comments.Edit(c.Request.Context(), actorOf(c), id, c.PostForm("comment"))
	if err != nil {
		fail(c, err)
		return
	}

	h.reload(c, comment.ArticleID, fmt.Sprintf("#comment-%d", comment.ID))
}

// Delete 软删除评论
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	comment, err := h.comments.Delete(c.Request.Context(), actorOf(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	toastSuccess(c, "评论已删除")
	h.reload(c, comment.ArticleID, "#comments")
}

func (h *CommentHandler) reload(c *gin.Context, articleID uint, anchor string) {
	if isHTMX(c) {
		c.Header("HX-Refresh", "true")
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/articles/%d%s", articleID, anchor))
}
