package core

import (
	"net/http"

	"github.com/anoixa/photo-share/api/common"
	handlerAccounts "github.com/anoixa/photo-share/api/handler/accounts"
	handlerFavorites "github.com/anoixa/photo-share/api/handler/favorites"
	handlerPhotos "github.com/anoixa/photo-share/api/handler/photos"
	handlerRealtime "github.com/anoixa/photo-share/api/handler/realtime"
	"github.com/anoixa/photo-share/api/middleware"
	"github.com/anoixa/photo-share/cache"
	"github.com/anoixa/photo-share/config"
	"github.com/anoixa/photo-share/database"
	"github.com/anoixa/photo-share/internal/auth"
	"github.com/anoixa/photo-share/internal/realtime"
	svcAccounts "github.com/anoixa/photo-share/internal/services/accounts"
	svcFavorites "github.com/anoixa/photo-share/internal/services/favorites"
	svcPhotos "github.com/anoixa/photo-share/internal/services/photos"
	"github.com/anoixa/photo-share/storage"
	"github.com/gin-gonic/gin"
)

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Config    *config.Config
	DB        database.Provider
	Cache     cache.Provider
	Storage   storage.Provider
	Sessions  *auth.SessionManager
	Accounts  *svcAccounts.Service
	Photos    *svcPhotos.Service
	Favorites *svcFavorites.Service
	Hub       *realtime.Hub

	AuthRateLimiter  *middleware.IPRateLimiter
	APIRateLimiter   *middleware.IPRateLimiter
	ImageRateLimiter *middleware.IPRateLimiter
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	registerBasicRoutes(router, deps)
	registerAppRoutes(router, deps)
}

// registerBasicRoutes 注册运维路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	router.GET("/health", healthHandler(deps))

	router.GET("/version", func(context *gin.Context) {
		context.JSON(http.StatusOK, common.Response{
			Status: "success",
			Data: gin.H{
				"version": config.Version,
				"commit":  config.CommitHash,
			},
		})
	})

	router.GET("/metrics", func(context *gin.Context) {
		context.JSON(http.StatusOK, middleware.GetMetrics())
	})
}

// registerAppRoutes 注册业务路由
func registerAppRoutes(router *gin.Engine, deps *RouterDependencies) {
	cfg := deps.Config
	cookie := middleware.SessionCookie{
		Name:   cfg.SessionCookieName,
		Secure: config.IsProduction(),
	}
	if cookie.Name == "" {
		cookie.Name = "photo_share_session"
	}

	accountHandler := handlerAccounts.NewHandler(deps.Accounts, cookie)
	photoHandler := handlerPhotos.NewHandler(deps.Photos, cfg.UploadMaxSizeMB)
	favoriteHandler := handlerFavorites.NewHandler(deps.Favorites)
	wsHandler := handlerRealtime.NewHandler(deps.Hub, cfg.AllowOrigins())

	// 照片文件公开访问
	imagesGroup := router.Group("/images")
	imagesGroup.Use(deps.ImageRateLimiter.Middleware())
	{
		imagesGroup.GET("/:file_name", photoHandler.ImageHandler) // GET /images/{file_name}
	}

	app := router.Group("")
	app.Use(func(context *gin.Context) {
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	app.Use(middleware.LoadSession(deps.Sessions, cookie))

	// 无需登录
	authGroup := app.Group("")
	authGroup.Use(deps.AuthRateLimiter.Middleware())
	{
		authGroup.POST("/admin/login", accountHandler.LoginHandler) // POST /admin/login
		authGroup.POST("/user", accountHandler.RegisterHandler)     // POST /user
	}
	app.GET("/admin/current", accountHandler.CurrentHandler) // GET /admin/current
	app.POST("/admin/logout", accountHandler.LogoutHandler)  // POST /admin/logout

	session := app.Group("")
	session.Use(deps.APIRateLimiter.Middleware())
	session.Use(middleware.RequireSession(deps.Accounts))
	{
		session.GET("/ws", wsHandler.ServeWS) // GET /ws

		session.GET("/user/list", accountHandler.ListUsersHandler)                // GET /user/list
		session.GET("/user/list/counts", accountHandler.ListUserCountsHandler)    // GET /user/list/counts
		session.GET("/user/:id", accountHandler.GetUserHandler)                   // GET /user/{id}
		session.GET("/user/:id/photo-highlights", photoHandler.HighlightsHandler) // GET /user/{id}/photo-highlights
		session.DELETE("/user", accountHandler.DeleteAccountHandler)              // DELETE /user

		session.GET("/photosOfUser/:id", photoHandler.PhotosOfUserHandler) // GET /photosOfUser/{id}
		session.POST("/photos/new", photoHandler.UploadHandler)            // POST /photos/new
		session.DELETE("/photos/:id", photoHandler.DeletePhotoHandler)     // DELETE /photos/{id}
		session.POST("/photos/like/:id", photoHandler.LikeHandler)         // POST /photos/like/{id}
		session.POST("/photos/unlike/:id", photoHandler.UnlikeHandler)     // POST /photos/unlike/{id}

		session.POST("/commentsOfPhoto/:photo_id", photoHandler.AddCommentHandler)     // POST /commentsOfPhoto/{photo_id}
		session.GET("/comments/:id", photoHandler.CommentsOfUserHandler)               // GET /comments/{user_id}
		session.DELETE("/comments/:id/:comment_id", photoHandler.DeleteCommentHandler) // DELETE /comments/{photo_id}/{comment_id}

		session.POST("/favorites", favoriteHandler.AddFavoriteHandler)                // POST /favorites
		session.GET("/favorites", favoriteHandler.ListFavoritesHandler)               // GET /favorites
		session.DELETE("/favorites/:photo_id", favoriteHandler.RemoveFavoriteHandler) // DELETE /favorites/{photo_id}
	}
}
