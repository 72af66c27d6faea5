package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"curator/internal/models"
	"curator/internal/services"
)

type SourceHandler struct {
	sources *services.SourceService
	// 新建订阅源后在后台执行首次抓取
	initialFetch func(id uint)
}

func NewSourceHandler(sources *services.SourceService) *SourceHandler {
	h := &SourceHandler{sources: sources}
	h.initialFetch = func(id uint) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := sources.Refresh(ctx, id); err != nil {
				zap.S().Warnf("Initial fetch of source %d failed: %v", id, err)
			}
		}()
	}
	return h
}

func (h *SourceHandler) List(c *gin.Context) {
	sources, err := h.sources.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	Render(c, http.StatusOK, "source/list.html", gin.H{
		"Title":   "订阅源",
		"Sources": sources,
		"Modes":   models.SourceModes,
	})
}

func (h *SourceHandler) Create(c *gin.Context) {
	var in services.SourceInput
	if err := c.ShouldBind(&in); err != nil {
		fail(c, bindError(err))
		return
	}

	src, err := h.sources.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	if src.Mode != models.SourceModePaused {
		h.initialFetch(src.ID)
	}

	toastSuccess(c, fmt.Sprintf("已添加订阅源 %s", src.Name))
	if isHTMX(c) {
		c.Header("HX-Refresh", "true")
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusFound, "/sources")
}

func (h *SourceHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var in services.SourceInput
	if err := c.ShouldBind(&in); err != nil {
		fail(c, bindError(err))
		return
	}

	if _, err := h.sources.Update(c.Request.Context(), id, in); err != nil {
		fail(c, err)
		return
	}

	toastSuccess(c, "已保存")
	if isHTMX(c) {
		c.Header("HX-Refresh", "true")
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusFound, "/sources")
}

func (h *SourceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.sources.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	toastSuccess(c, "已删除订阅源")
	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// Refresh 手动刷新订阅源
func (h *SourceHandler) Refresh(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	added, err := h.sources.Refresh(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	toastSuccess(c, fmt.Sprintf("新增 %d 篇文章", added))
	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}
