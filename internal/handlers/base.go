package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"curator/internal/middleware"
	"curator/internal/services"
	"curator/internal/utils"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// RenderError 渲染错误页
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Title": http.StatusText(code), "Error": message})
}

// HtmxRedirect helper
func HtmxRedirect(c *gin.Context, path string) {
	c.Header("HX-Redirect", path)
	c.Status(http.StatusOK)
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// trigger 通过 HX-Trigger 头让前端弹出提示
func trigger(c *gin.Context, event, message string) {
	payload := map[string]any{event: map[string]string{"message": message}}
	if jsonBytes, err := json.Marshal(payload); err == nil {
		c.Header("HX-Trigger", url.PathEscape(string(jsonBytes)))
	}
}

func toastError(c *gin.Context, code int, message string) {
	trigger(c, "show-error", message)
	c.String(code, "")
}

func toastSuccess(c *gin.Context, message string) {
	trigger(c, "show-success", message)
}

// statusOf 把服务层错误映射为 HTTP 状态码和可展示的提示
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "内容不存在"
	case errors.Is(err, services.ErrParentNotFound):
		return http.StatusUnprocessableEntity, "回复的评论不存在"
	case errors.Is(err, services.ErrEmptyComment):
		return http.StatusUnprocessableEntity, "评论内容不能为空"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "没有权限"
	case errors.Is(err, services.ErrDuplicate):
		return http.StatusConflict, "已存在"
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")
	}
	return http.StatusInternalServerError, "服务器错误"
}

// fail 根据请求类型返回错误：API 返回 JSON，HTMX 返回提示，普通页面渲染错误页
func fail(c *gin.Context, err error) {
	code, message := statusOf(err)
	if code == http.StatusInternalServerError {
		zap.S().Errorw("Request failed", "path", c.Request.URL.Path, "request_id", c.GetString(middleware.RequestIDKey), "error", err)
	}
	_ = c.Error(err)

	switch {
	case strings.HasPrefix(c.Request.URL.Path, "/api/"):
		c.AbortWithStatusJSON(code, gin.H{"error": message})
	case isHTMX(c):
		toastError(c, code, message)
		c.Abort()
	default:
		RenderError(c, code, message)
		c.Abort()
	}
}

// bindError 翻译参数校验错误
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return fmt.Errorf("%w: %s", services.ErrInvalidInput, strings.Join(msgs, "; "))
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		fail(c, fmt.Errorf("%w: invalid %s", services.ErrInvalidInput, name))
	}
	return id, ok
}

func actorOf(c *gin.Context) services.Actor {
	user := middleware.CurrentUser(c)
	if user == nil {
		return services.Actor{}
	}
	return services.Actor{UserID: user.Username, IsAdmin: user.IsAdmin()}
}
