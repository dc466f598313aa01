package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/neocare-api/internal/middleware"
	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/utils"
)

type RouterConfig struct {
	CORSOrigins []string
	Tokens      *utils.TokenIssuer
	Log         zerolog.Logger
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// NewRouter wires every route. Role-scoped groups verify the bearer token and the
// role; admin business routes also pass through the tenant gate.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestIDMiddleware(),
		middleware.Logger(cfg.Log),
		middleware.Recovery(cfg.Log),
		cors.New(corsConfig(cfg.CORSOrigins)),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := middleware.AuthMiddleware(cfg.Tokens)

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/register/hospital", h.RegisterHospital)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/forgot-password", h.ForgotPassword)
		authRoutes.POST("/reset-password", h.ResetPassword)
		authRoutes.GET("/me", authed, h.Me)
	}

	// The password route stays outside the tenant gate so a suspended hospital can
	// still rotate its credentials.
	admin := api.Group("/admin", authed, middleware.RequireRole(models.RoleAdmin))
	admin.PUT("/password", h.ChangePassword)

	tenant := admin.Group("", middleware.TenantGate(h.Hospitals, cfg.Log))
	{
		tenant.GET("/profile", h.AdminProfile)
		tenant.PUT("/profile", h.UpdateAdminProfile)

		tenant.GET("/doctors", h.ListDoctors)
		tenant.POST("/doctors", h.CreateDoctor)
		tenant.GET("/doctors/:id", h.GetDoctor)
		tenant.PUT("/doctors/:id/status", h.SetDoctorStatus)
		tenant.PUT("/doctors/:id/review", h.ReviewDoctor)
		tenant.DELETE("/doctors/:id", h.DeleteDoctor)

		tenant.GET("/parents", h.ListParents)
		tenant.POST("/parents", h.CreateParent)
		tenant.GET("/parents/:id", h.GetParent)
		tenant.DELETE("/parents/:id", h.DeleteParent)
		tenant.PUT("/parents/:id/assign-team", h.AssignParentTeam)
		tenant.PUT("/parents/:id/assign-doctor", h.AssignParentDoctor)

		tenant.GET("/teams", h.ListTeams)
		tenant.POST("/team", h.CreateTeam)
		tenant.POST("/team/:id/members", h.AddTeamMember)
		tenant.DELETE("/team/:id/members/:doctorId", h.RemoveTeamMember)
		tenant.DELETE("/team/:id", h.DeleteTeam)
	}

	doctor := api.Group("/doctor", authed, middleware.RequireRole(models.RoleDoctor))
	{
		doctor.GET("/profile", h.DoctorProfile)
		doctor.PUT("/profile", h.UpdateDoctorProfile)
		doctor.PUT("/password", h.ChangePassword)
		doctor.GET("/hospital", h.DoctorHospital)
		doctor.GET("/parents", h.DoctorParents)
		doctor.POST("/parents", h.ReferParent)
		doctor.GET("/parents/:id/timeline", h.DoctorParentTimeline)
	}

	parent := api.Group("/parent", authed, middleware.RequireRole(models.RoleParent))
	{
		parent.GET("/profile", h.ParentProfile)
		parent.PUT("/profile", h.UpdateParentProfile)
		parent.PUT("/password", h.ChangePassword)
		parent.POST("/join-hospital", h.JoinHospital)
		parent.GET("/care-team", h.CareTeam)
		parent.GET("/timeline", h.GetTimeline)
		parent.PUT("/timeline", h.ReplaceTimeline)
		parent.PATCH("/timeline/tasks/:taskId", h.SetTaskCompleted)
	}

	superadmin := api.Group("/superadmin", authed, middleware.RequireRole(models.RoleSuperadmin))
	{
		superadmin.GET("/profile", h.SuperadminProfile)
		superadmin.PUT("/password", h.ChangePassword)
		superadmin.GET("/hospitals", h.ListHospitals)
		superadmin.GET("/hospitals/:id", h.GetHospital)
		superadmin.PUT("/hospitals/:id", h.SetHospitalStatus)
	}

	messages := api.Group("/messages", authed)
	{
		messages.POST("", h.SendMessage)
		messages.GET("/unread-count", h.UnreadCount)
		messages.GET("/:otherId", h.GetConversation)
		messages.PUT("/:otherId/read", h.MarkConversationRead)
	}

	return r
}
