package internal

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	docs "github.com/grad-lab/capstone-backend/docs"
	"github.com/grad-lab/capstone-backend/internal/handler"
	"github.com/grad-lab/capstone-backend/internal/middleware"
	"github.com/grad-lab/capstone-backend/pkg/monitor"
)

type Backend struct {
	R *gin.Engine
}

func Register(conf *handler.RegisterConfig) *Backend {
	s := new(Backend)
	s.R = gin.Default()

	// Health check for the deployment probe
	s.R.GET("/v1/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ok",
		})
	})

	// Prometheus scrape endpoint backed by live DB counts
	s.R.GET("/metrics", gin.WrapH(monitor.Handler(conf.DB)))

	// Register custom routes
	s.RegisterService(conf)

	// Swagger
	docs.SwaggerInfo.BasePath = "/"
	s.R.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return s
}

func (b *Backend) RegisterService(conf *handler.RegisterConfig) {
	// Enable CORS for http://localhost:XXXX in debug mode
	if gin.Mode() == gin.DebugMode {
		fe := os.Getenv("CAPSTONE_FE_PORT")
		if fe != "" {
			url := "http://localhost:" + fe
			corsConf := cors.DefaultConfig()
			corsConf.AllowOrigins = []string{url}
			corsConf.AllowHeaders = append(corsConf.AllowHeaders, "Authorization")
			b.R.Use(cors.New(corsConf))
		}
	}

	///////////////////////////////////////
	//// Public routers, no need login ////
	///////////////////////////////////////

	publicRouter := b.R.Group("/v1")

	///////////////////////////////////////
	//// Protected routers, need login ////
	///////////////////////////////////////

	protectedRouter := b.R.Group("/v1")
	protectedRouter.Use(middleware.AuthProtected())

	///////////////////////////////////////
	//// Admin routers, need admin role ///
	///////////////////////////////////////

	adminRouter := b.R.Group("/v1/admin")
	adminRouter.Use(middleware.AuthProtected(), middleware.AuthAdmin())

	// Each handler file registers its constructor in init(); every manager
	// gets a sub-group named after itself on all three routers.
	for _, register := range handler.Registers {
		mgr := register(conf)
		mgr.RegisterPublic(publicRouter.Group(mgr.GetName()))
		mgr.RegisterProtected(protectedRouter.Group(mgr.GetName()))
		mgr.RegisterAdmin(adminRouter.Group(mgr.GetName()))
	}
}
