package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"curator/internal/models"
	"curator/internal/services"
	"curator/internal/utils"
)

type ArticleHandler struct {
	articles *services.ArticleService
	sources  *services.SourceService
	comments *services.CommentService
}

func NewArticleHandler(articles *services.ArticleService, sources *services.SourceService, comments *services.CommentService) *ArticleHandler {
	return &ArticleHandler{articles: articles, sources: sources, comments: comments}
}

// List 文章审核列表
func (h *ArticleHandler) List(c *gin.Context) {
	var filter services.ArticleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		fail(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	articles, page, err := h.articles.List(ctx, filter)
	if err != nil {
		fail(c, err)
		return
	}
	counts, err := h.articles.StatusCounts(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	sources, err := h.sources.List(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	Render(c, http.StatusOK, "article/list.html", gin.H{
		"Title":        "文章审核",
		"Articles":     articles,
		"Pagination":   page,
		"Filter":       filter,
		"StatusCounts": counts,
		"Statuses":     models.ArticleStatuses,
		"Sources":      sources,
	})
}

// Detail 文章详情及评论
func (h *ArticleHandler) Detail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	article, err := h.articles.Get(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	tree, err := h.comments.Tree(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}

	content := article.Content
	if content == "" {
		content = article.Summary
	}

	Render(c, http.StatusOK, "article/detail.html", gin.H{
		"Title":    article.Title,
		"Article":  article,
		"Content":  utils.SanitizeArticleHTML(content),
		"Comments": tree,
		"Statuses": models.ArticleStatuses,
	})
}

type articleForm struct {
	Status       string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	IsFeatured   string `form:"is_featured" binding:"omitempty,oneof=true false on"`
	IsHidden     string `form:"is_hidden" binding:"omitempty,oneof=true false on"`
	AdminComment string `form:"admin_comment" binding:"max=2000"`
}

// Update 页面表单修改文章，只提交了的字段会被修改
func (h *ArticleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var form articleForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, bindError(err))
		return
	}

	var update services.ArticleUpdate
	if form.Status != "" {
		status := models.ArticleStatus(form.Status)
		update.Status = &status
	}
	if form.IsFeatured != "" {
		v := form.IsFeatured != "false"
		update.IsFeatured = &v
	}
	if form.IsHidden != "" {
		v := form.IsHidden != "false"
		update.IsHidden = &v
	}
	if _, present := c.GetPostForm("admin_comment"); present {
		update.AdminComment = &form.AdminComment
	}

	if _, err := h.articles.Update(c.Request.Context(), id, update); err != nil {
		fail(c, err)
		return
	}

	if isHTMX(c) {
		toastSuccess(c, "已保存")
		c.Header("HX-Refresh", "true")
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/articles/%d", id))
}

// BulkStatus 批量修改选中文章的审核状态
func (h *ArticleHandler) BulkStatus(c *gin.Context) {
	status := models.ArticleStatus(c.PostForm("status"))
	ids := utils.ParseIDs(c.PostFormArray("ids"))
	if len(ids) == 0 {
		fail(c, fmt.Errorf("%w: no articles selected", services.ErrInvalidInput))
		return
	}

	n, err := h.articles.BulkSetStatus(c.Request.Context(), ids, status)
	if err != nil {
		fail(c, err)
		return
	}

	toastSuccess(c, fmt.Sprintf("已更新 %d 篇文章", n))
	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// Delete 删除文章及其评论
func (h *ArticleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	n, err := h.articles.Delete(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if n == 0 {
		fail(c, services.ErrNotFound)
		return
	}

	HtmxRedirect(c, "/")
}

// APIList GET /api/articles
func (h *ArticleHandler) APIList(c *gin.Context) {
	var filter services.ArticleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		fail(c, bindError(err))
		return
	}

	articles, page, err := h.articles.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}
	c.JSON(http.StatusOK, gin.H{"data": articles, "pagination": page})
}

// APIGet GET /api/articles/:id
func (h *ArticleHandler) APIGet(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	article, err := h.articles.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": article})
}

// APIUpdate PATCH /api/articles/:id
func (h *ArticleHandler) APIUpdate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var update services.ArticleUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		fail(c, bindError(err))
		return
	}

	article, err := h.articles.Update(c.Request.Context(), id, update)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": article})
}

// APIComments GET /api/articles/:id/comments
func (h *ArticleHandler) APIComments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.articles.Get(ctx, id); err != nil {
		fail(c, err)
		return
	}
	tree, err := h.comments.Tree(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tree})
}
