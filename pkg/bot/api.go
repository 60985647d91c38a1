package bot

import (
	"context"
	"errors"
	"lifeline/pkg/logger"
	"lifeline/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

const (
	requestIDHeader   = "X-Request-ID"
	defaultListLimit  = 20
	maxListLimit      = 200
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// SessionLister exposes the live driver sessions.
type SessionLister interface {
	Sessions() []SessionInfo
}

func NewRouter(svc service.IServiceManager, sessions SessionLister, log logger.ILogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.GET("/sessions", func(c *gin.Context) {
			c.JSON(http.StatusOK, sessions.Sessions())
		})

		api.GET("/bookings", func(c *gin.Context) {
			receipts, err := svc.RecentBookings(c.Request.Context(), listLimit(c))
			if err != nil {
				log.Error("failed to list bookings", logger.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, receipts)
		})

		api.GET("/emergencies/active", func(c *gin.Context) {
			list, err := svc.ActiveEmergencies(c.Request.Context())
			if err != nil {
				log.Warning("dispatch server unavailable", logger.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, list)
		})
	}

	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func listLimit(c *gin.Context) int {
	limit, err := cast.ToIntE(c.DefaultQuery("limit", ""))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// RunServer serves handler on addr until ctx is cancelled.
func RunServer(ctx context.Context, addr string, handler http.Handler, log logger.ILogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("status API listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
