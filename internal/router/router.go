package router

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"curator/internal/handlers"
	"curator/internal/middleware"
	"curator/internal/services"
)

const sessionName = "curator_session"

// Deps 构建路由所需的依赖
type Deps struct {
	DB            *gorm.DB
	Logger        *zap.Logger
	Articles      *services.ArticleService
	Sources       *services.SourceService
	Comments      *services.CommentService
	SessionSecret string
	TemplatesDir  string
}

// New 创建 gin 引擎并注册全部路由
func New(d Deps) (*gin.Engine, error) {
	r := gin.New()

	renderer, err := loadTemplates(d.TemplatesDir)
	if err != nil {
		return nil, err
	}
	r.HTMLRender = renderer

	store := cookie.NewStore([]byte(d.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode})

	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		gin.Recovery(),
		middleware.Metrics(),
		sessions.Sessions(sessionName, store),
		middleware.LoadUser(d.DB),
	)

	RegisterRoutes(r, d)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	authHandler := handlers.NewAuthHandler(d.DB)
	articleHandler := handlers.NewArticleHandler(d.Articles, d.Sources, d.Comments)
	sourceHandler := handlers.NewSourceHandler(d.Sources)
	commentHandler := handlers.NewCommentHandler(d.Comments, d.Articles)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/login", authHandler.ShowLogin)   // 登录页面
	r.POST("/login", authHandler.Login)      // 提交登录
	r.GET("/logout", authHandler.Logout)     // 退出登录
	r.POST("/logout", authHandler.Logout)

	// 后台页面 (Dashboard)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/", articleHandler.List)                     // 文章审核列表
		authorized.GET("/articles/:id", articleHandler.Detail)       // 文章详情及评论
		authorized.POST("/articles/:id", articleHandler.Update)      // 修改状态/标记/备注
		authorized.POST("/bulk/articles", articleHandler.BulkStatus)  // 批量修改状态

		authorized.POST("/articles/:id/comments", commentHandler.Create) // 发表评论
		authorized.POST("/comments/:id/edit", commentHandler.Edit)       // 修改评论
		authorized.DELETE("/comments/:id", commentHandler.Delete)        // 删除评论

		authorized.GET("/sources", sourceHandler.List)                // 订阅源列表
		authorized.POST("/sources", sourceHandler.Create)             // 添加订阅源
		authorized.POST("/sources/:id", sourceHandler.Update)         // 修改订阅源
		authorized.POST("/sources/:id/refresh", sourceHandler.Refresh) // 手动刷新
	}

	admin := r.Group("/")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.DELETE("/articles/:id", articleHandler.Delete) // 删除文章
		admin.DELETE("/sources/:id", sourceHandler.Delete)   // 删除订阅源及其文章
	}

	// JSON API
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	{
		api.GET("/articles", articleHandler.APIList)
		api.GET("/articles/:id", articleHandler.APIGet)
		api.PATCH("/articles/:id", articleHandler.APIUpdate)
		api.GET("/articles/:id/comments", articleHandler.APIComments)
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		handlers.RenderError(c, http.StatusNotFound, "页面不存在")
	})
}
