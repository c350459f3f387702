package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkv93/contravault/internal/auth"
	"github.com/sandeepkv93/contravault/internal/tasks"
)

type Options struct {
	// Google enables the /auth/google routes when set.
	Google   *auth.Google
	Location *time.Location
	Now      func() time.Time
	Logger   *log.Logger
}

// Server is the HTTP JSON API over the task engine.
type Server struct {
	engine   *tasks.Engine
	resolver *auth.Resolver
	router   *gin.Engine
	loc      *time.Location
	now      func() time.Time
	logger   *log.Logger
}

func NewServer(engine *tasks.Engine, resolver *auth.Resolver, opts Options) *Server {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	s := &Server{
		engine:   engine,
		resolver: resolver,
		router:   router,
		loc:      opts.Location,
		now:      opts.Now,
		logger:   opts.Logger,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.Default()
	}

	router.GET("/healthz", s.handleHealth)

	if opts.Google != nil {
		authGroup := router.Group("/auth/google")
		{
			authGroup.GET("/login", opts.Google.Login)
			authGroup.GET("/callback", opts.Google.Callback)
		}
	}

	api := router.Group("/api", resolver.Middleware())
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleCreateTask)
		api.POST("/tasks/batch", s.handleBatch)
		api.POST("/tasks/quick", s.handleQuick)
		api.GET("/tasks/:id", s.handleGetTask)
		api.PUT("/tasks/:id", s.handleUpdateTask)
		api.PATCH("/tasks/:id", s.handleUpdateStatus)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.GET("/tasks/:id/subtasks", s.handleSubtasks)
		api.POST("/tasks/:id/snooze", s.handleSnooze)
		api.POST("/tasks/:id/comments", s.handleAddComment)
		api.POST("/tasks/:id/time", s.handleLogTime)
		api.GET("/views/:view", s.handleView)
		api.GET("/stats", s.handleStats)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// for up to shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
