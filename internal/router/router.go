package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/handler"
)

// SetupRouter 는 세션 미들웨어와 API 라우트를 구성한다.
func SetupRouter(api *handler.API, sessionSecret, uploadDir, uploadURLPath string) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions("mindpause_session", store))

	r.Static(uploadURLPath, uploadDir)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", api.Register)
		auth.POST("/login", api.Login)
		auth.POST("/logout", api.Logout)
		auth.GET("/me", api.Me)
	}

	authed := r.Group("/api")
	authed.Use(api.AuthRequired())
	{
		authed.GET("/dashboard", api.GetDashboard)

		authed.POST("/emotions", api.CreateEmotionLog)
		authed.GET("/emotions", api.ListEmotionLogs)
		authed.GET("/emotions/today", api.GetTodayEmotionLog)
		authed.GET("/emotions/stats", api.GetEmotionStats)
		authed.GET("/emotions/chart", api.GetEmotionChart)
		authed.DELETE("/emotions/:id", api.DeleteEmotionLog)

		authed.GET("/challenges/templates", api.ListChallengeTemplates)
		authed.GET("/challenges", api.ListChallenges)
		authed.POST("/challenges", api.CreateChallenge)
		authed.GET("/challenges/mine", api.ListMyChallenges)
		authed.POST("/challenges/:id/join", api.JoinChallenge)
		authed.POST("/challenges/:id/checkin", api.CheckInChallenge)
		authed.POST("/challenges/:id/giveup", api.GiveUpChallenge)

		authed.GET("/tokens/summary", api.GetTokenSummary)
		authed.GET("/tokens/history", api.ListTokenHistory)
		authed.GET("/tokens/daily", api.GetTokenDailyBreakdown)

		authed.GET("/posts", api.ListPosts)
		authed.POST("/posts", api.CreatePost)
		authed.GET("/posts/:id", api.GetPost)
		authed.PUT("/posts/:id", api.UpdatePost)
		authed.DELETE("/posts/:id", api.DeletePost)
		authed.POST("/posts/:id/like", api.ToggleLike)
		authed.POST("/posts/:id/comments", api.CreateComment)
		authed.DELETE("/comments/:commentId", api.DeleteComment)

		authed.GET("/chat/conversations", api.ListConversations)
		authed.GET("/chat/conversations/:id", api.GetConversation)
		authed.POST("/chat/messages", api.SendChatMessage)
		authed.DELETE("/chat/conversations/:id", api.DeleteConversation)

		authed.GET("/notifications", api.ListNotifications)
		authed.POST("/notifications/:id/read", api.MarkNotificationRead)
		authed.POST("/notifications/read-all", api.MarkAllNotificationsRead)

		authed.PUT("/profile", api.UpdateProfile)
		authed.POST("/profile/password", api.ChangePassword)
		authed.GET("/profile/badges", api.ListMyBadges)

		authed.POST("/upload/image", api.UploadImage)
	}

	admin := r.Group("/api/admin")
	admin.Use(api.AdminRequired())
	{
		admin.GET("/users", api.AdminListUsers)
		admin.PUT("/users/:id/tier", api.AdminSetUserTier)
		admin.POST("/users/:id/bonus-tokens", api.AdminAddBonusTokens)

		admin.GET("/challenges/pending", api.AdminListPendingChallenges)
		admin.POST("/challenges/:id/approve", api.AdminApproveChallenge)
		admin.POST("/challenges/:id/reject", api.AdminRejectChallenge)

		admin.POST("/announce", api.AdminAnnounce)

		admin.GET("/settings", api.AdminGetSystemSettings)
		admin.PUT("/settings", api.AdminUpdateSystemSettings)
	}

	return r
}
