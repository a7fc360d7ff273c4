package router

import (
	"agora/internal/handlers"
	"agora/internal/middleware"
	"agora/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services groups what the HTTP layer depends on.
type Services struct {
	DB            *gorm.DB
	Votes         *services.VoteService
	Feeds         *services.FeedService
	Places        *services.PlaceDirectory
	Subscriptions *services.SubscriptionService
}

// Sessions is the cookie session configuration. Issuing sessions is done elsewhere;
// this server only verifies them.
type Sessions struct {
	Name   string
	Secret string
}

// New builds the engine with middleware and all routes.
func New(svc Services, sess Sessions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	store := cookie.NewStore([]byte(sess.Secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 86400 * 30})
	r.Use(sessions.Sessions(sess.Name, store))
	r.Use(middleware.LoadUser(svc.DB))

	RegisterRoutes(r, svc)
	return r
}

func RegisterRoutes(r *gin.Engine, svc Services) {
	// Handlers
	voteHandler := handlers.NewVoteHandler(svc.Votes)
	feedHandler := handlers.NewFeedHandler(svc.Feeds)
	placeHandler := handlers.NewPlaceHandler(svc.Places, svc.Subscriptions)

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	api.GET("/posts", feedHandler.List)                     // 全站帖子，?sort=top 为热门
	api.GET("/posts/:id", feedHandler.Detail)               // 帖子详情
	api.GET("/posts/:id/vote", voteHandler.State)           // 分数与当前用户的投票
	api.GET("/places", placeHandler.ListPlaces)             // 所有社区
	api.GET("/places/:slug/posts", feedHandler.ByPlace)     // 社区下的帖子
	api.GET("/domains/:domain/posts", feedHandler.ByDomain) // 同一域名的帖子
	api.GET("/home", feedHandler.Home)                      // 订阅的社区，匿名为空

	// 受保护路由 (Protected Routes)
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/vote", voteHandler.Vote)                                     // 投票/切换/取消
		authorized.POST("/places/:slug/subscription", placeHandler.ToggleSubscription) // 订阅/取消订阅
		authorized.POST("/me/default-subscriptions", placeHandler.SubscribeDefaults)   // 订阅默认社区
		authorized.GET("/me/posts", feedHandler.Mine)                                  // 我的帖子
	}
}
