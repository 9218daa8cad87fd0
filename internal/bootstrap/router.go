package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/openterra/reproject-backend/internal/api/http"
	"github.com/openterra/reproject-backend/internal/api/http/middleware"
	reprojectapi "github.com/openterra/reproject-backend/internal/api/http/reproject"
	"github.com/openterra/reproject-backend/internal/logger"
	reprojectservice "github.com/openterra/reproject-backend/internal/reproject/service"
	transferservice "github.com/openterra/reproject-backend/internal/transfer/service"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	Engine         *reprojectservice.Engine
	Transfers      *transferservice.Service
	ScratchRoot    string
	MaxUploadBytes int64
	AllowedOrigins []string
	RatePerMinute  int
	Log            *logger.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(dep.Log))
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Transfers)
	healthHandler.RegisterRoutes(r)

	h := reprojectapi.NewHandler(dep.Engine, dep.Transfers, dep.ScratchRoot, dep.Log)
	h.Register(r, reprojectapi.Options{
		RatePerMinute:  dep.RatePerMinute,
		MaxUploadBytes: dep.MaxUploadBytes,
	})

	return r
}

// SetGinMode puts gin into release mode outside development.
func SetGinMode(env string) {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
