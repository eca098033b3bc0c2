// Package router assembles the gin engine: middleware chain and route table.
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/medportal/medportalbackend/controllers"
	"github.com/medportal/medportalbackend/middleware"
	"github.com/medportal/medportalbackend/models"
	"github.com/medportal/medportalbackend/services"
	"github.com/rs/zerolog"
)

// Deps are the handlers' dependencies. An empty AllowedOrigins allows every
// origin without credentials.
type Deps struct {
	Auth           *services.AuthService
	Documents      *services.DocumentService
	Sessions       middleware.SessionResolver
	Hospitals      controllers.HospitalFinder
	Cookie         controllers.CookieOptions
	AllowedOrigins []string
	MaxUploadBytes int64
	Log            zerolog.Logger
}

func Setup(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(cors.New(corsConfig(d.AllowedOrigins)))
	r.Use(middleware.LoadSession(d.Sessions, d.Cookie.Name, d.Log))

	r.GET("/", controllers.Root())
	r.GET("/ping", controllers.Ping())

	r.POST("/signup", controllers.Signup(d.Auth, d.Log))
	r.POST("/login", controllers.Login(d.Auth, d.Cookie, d.Log))

	api := r.Group("/api")
	{
		api.GET("/session", controllers.Session(d.Auth, d.Log))
		api.GET("/documents/:aadhaarNumber", controllers.GetDocuments(d.Documents, d.Log))
		api.POST("/upload", controllers.UploadDocuments(d.Documents, d.Log))
		api.POST("/upload/files",
			middleware.RequireRole(models.RoleUser),
			controllers.UploadFiles(d.Documents, uploadRequestLimit(d.MaxUploadBytes), d.Log))
		api.GET("/nearest-hospitals", controllers.NearestHospitals(d.Hospitals, d.Log))
	}

	return r
}

// corsConfig grants credentialed CORS to the listed origins only. With no
// list every origin is allowed, but without credentials, so the session
// cookie never travels cross-origin.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}

	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	cfg.AllowOriginFunc = func(origin string) bool {
		return allowed[origin]
	}
	cfg.AllowCredentials = true
	return cfg
}

// uploadRequestLimit bounds a whole multipart request: every file at its
// maximum size plus room for form overhead.
func uploadRequestLimit(maxFileBytes int64) int64 {
	return maxFileBytes*services.MaxFilesPerUpload + 1<<20
}
