package bootstrap

import (
	"net/http"

	"cloud.google.com/go/firestore"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/taskflow-app/taskflow-sync/internal/api/http"
	apimiddleware "github.com/taskflow-app/taskflow-sync/internal/api/http/middleware"
	"github.com/taskflow-app/taskflow-sync/internal/auth"
	authmiddleware "github.com/taskflow-app/taskflow-sync/internal/auth/middleware"
	"github.com/taskflow-app/taskflow-sync/internal/notify"
	projhttp "github.com/taskflow-app/taskflow-sync/internal/projects/http"
	projservice "github.com/taskflow-app/taskflow-sync/internal/projects/service"
	taskhttp "github.com/taskflow-app/taskflow-sync/internal/tasks/http"
	taskservice "github.com/taskflow-app/taskflow-sync/internal/tasks/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	AuthClient  *fbauth.Client
	Redis       *redis.Client
	Firestore   *firestore.Client
	Projects    *projservice.Registry
	Tasks       *taskservice.Registry
	Toasts      *notify.ToastCenter
}

// BuildRouter wires the HTTP facade. The returned task handler owns the
// active task subscription and must be closed on shutdown.
func BuildRouter(dep RouterDeps) (*gin.Engine, *taskhttp.Handler) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apimiddleware.RequestIDMiddleware())
	r.Use(corsMiddleware(dep.CORSOrigins))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Redis, dep.Firestore)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(authmiddleware.FirebaseAuthMiddleware(dep.AuthClient))

	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, auth.UserProfile(c))
	})

	taskHandler := taskhttp.NewHandler(dep.Tasks)
	taskHandler.Register(api)

	projHandler := projhttp.NewHandler(dep.Projects, dep.Tasks)
	projHandler.Register(api)

	streamHandler := httpapi.NewStreamHandler(dep.Toasts)
	streamHandler.RegisterRoutes(api)

	return r, taskHandler
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
