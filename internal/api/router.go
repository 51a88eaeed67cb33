package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eflash24/eflash-store/internal/accounts"
	"github.com/eflash24/eflash-store/internal/auth"
	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/gin-gonic/gin"
)

// Options configures NewRouter.
type Options struct {
	// BasePath prefixes the collection routes, e.g. "/api/data".
	BasePath string
	// Accounts and Tokens enable the /auth routes when both are set.
	Accounts *accounts.Service
	Tokens   *auth.TokenManager
	Now      func() time.Time
}

// NewRouter builds the gateway's gin engine.
func NewRouter(store engine.Store, opts Options) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), RequestLogger(), CORS())

	r.NoMethod(func(c *gin.Context) {
		abortWithError(c, http.StatusMethodNotAllowed, c.Request.Method+" is not supported")
	})
	r.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "route not found")
	})

	h := &Handler{Store: store, Now: opts.Now}
	data := r.Group(opts.BasePath)
	{
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
			data.Handle(method, "/", h.MissingCollection)
			if opts.BasePath != "" && opts.BasePath != "/" {
				data.Handle(method, "", h.MissingCollection)
			}
		}
		data.GET("/:collection", h.List)
		data.POST("/:collection", h.Create)
		data.PUT("/:collection", h.MissingID)
		data.DELETE("/:collection", h.MissingID)
		data.GET("/:collection/:id", h.Get)
		data.PUT("/:collection/:id", h.Update)
		data.DELETE("/:collection/:id", h.Delete)
	}

	if opts.Accounts != nil && opts.Tokens != nil {
		ah := &AuthHandler{Accounts: opts.Accounts, Tokens: opts.Tokens}
		authGroup := r.Group("/auth")
		{
			authGroup.POST("/register", ah.Register)
			authGroup.POST("/login", ah.Login)
			authGroup.GET("/session", ah.Session)
			authGroup.DELETE("/users/:email", ah.DeleteUser)
		}
	}

	return r
}

// CORS allows any origin. Preflight requests end here with 204.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestLogger emits one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
