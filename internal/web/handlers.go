package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkv93/contravault/internal/auth"
	"github.com/sandeepkv93/contravault/internal/commands"
	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/tasks"
	"github.com/sandeepkv93/contravault/internal/views"
)

type statusRequest struct {
	Status model.Status `json:"status" binding:"required"`
}

type snoozeRequest struct {
	Until time.Time `json:"until" binding:"required"`
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

type timeRequest struct {
	Minutes int `json:"minutes" binding:"required"`
}

type quickRequest struct {
	Command string `json:"command" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"status": "ok"}})
}

func (s *Server) handleListTasks(c *gin.Context) {
	list, err := s.queryTasks(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// queryTasks lists the caller's tasks, switching to FilterTasks when any
// filter parameter is present.
func (s *Server) queryTasks(c *gin.Context) ([]model.Task, error) {
	userID := auth.UserID(c)
	filter, err := s.filterFromQuery(c)
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return s.engine.ListTasks(c.Request.Context(), userID)
	}
	return s.engine.FilterTasks(c.Request.Context(), userID, filter)
}

func (s *Server) filterFromQuery(c *gin.Context) (tasks.Filter, error) {
	f := tasks.Filter{
		Tags:        listParam(c, "tag", "tags"),
		ProjectID:   c.Query("projectId"),
		WorkspaceID: c.Query("workspaceId"),
		Context:     c.Query("context"),
		Search:      c.Query("search"),
	}
	for _, p := range listParam(c, "priority", "priorities") {
		f.Priorities = append(f.Priorities, model.Priority(strings.ToLower(p)))
	}
	for _, st := range listParam(c, "status", "statuses") {
		f.Statuses = append(f.Statuses, model.Status(strings.ToLower(st)))
	}
	if raw := c.Query("from"); raw != "" {
		from, err := parseBound(raw, s.loc, false)
		if err != nil {
			return tasks.Filter{}, err
		}
		f.DeadlineFrom = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := parseBound(raw, s.loc, true)
		if err != nil {
			return tasks.Filter{}, err
		}
		f.DeadlineTo = &to
	}
	return f, nil
}

// listParam accepts repeated singular keys and comma separated plural keys.
func listParam(c *gin.Context, single, plural string) []string {
	var out []string
	for _, raw := range append(c.QueryArray(single), c.QueryArray(plural)...) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseBound reads an RFC3339 time or a bare date. A bare upper bound covers
// the whole day.
func parseBound(raw string, loc *time.Location, upper bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", tasks.ErrValidation, raw)
	}
	if upper {
		return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return day, nil
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var in model.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	task, err := s.engine.CreateTask(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, task)
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.engine.GetTask(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var patch model.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	task, err := s.engine.UpdateTask(c.Request.Context(), c.Param("id"), auth.UserID(c), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, task)
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	task, err := s.engine.UpdateStatus(c.Request.Context(), c.Param("id"), auth.UserID(c), req.Status)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	deleted, err := s.engine.DeleteTask(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !deleted {
		s.fail(c, tasks.ErrNotFound)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": c.Param("id"), "deleted": true})
}

func (s *Server) handleSubtasks(c *gin.Context) {
	list, err := s.engine.Subtasks(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

func (s *Server) handleSnooze(c *gin.Context) {
	var req snoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	task, err := s.engine.SnoozeTask(c.Request.Context(), c.Param("id"), auth.UserID(c), req.Until)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, task)
}

func (s *Server) handleAddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	task, err := s.engine.AddComment(c.Request.Context(), c.Param("id"), auth.UserID(c), req.Content)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, task)
}

func (s *Server) handleLogTime(c *gin.Context) {
	var req timeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	task, err := s.engine.LogTime(c.Request.Context(), c.Param("id"), auth.UserID(c), req.Minutes)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, task)
}

func (s *Server) handleBatch(c *gin.Context) {
	var req tasks.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	count, err := s.engine.Batch(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"count": count})
}

func (s *Server) handleQuick(c *gin.Context) {
	var req quickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	env := commands.Env{Service: s.engine, UserID: auth.UserID(c), Now: s.now, Location: s.loc}
	res, err := env.Run(c.Request.Context(), req.Command)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": res.Message, "result": res.Data})
}

func (s *Server) handleView(c *gin.Context) {
	view, err := views.ParseView(c.Param("view"))
	if err != nil {
		fail(c, http.StatusNotFound, err.Error())
		return
	}
	list, err := s.queryTasks(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	opts := views.Options{Now: s.now(), Location: s.loc}
	if raw := c.Query("month"); raw != "" {
		month, err := time.ParseInLocation("2006-01", raw, s.loc)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid month %q", raw))
			return
		}
		opts.Month = month
	}
	if view == views.ViewDashboard {
		if opts.Stats, err = s.engine.GetUserStats(c.Request.Context(), auth.UserID(c)); err != nil {
			s.fail(c, err)
			return
		}
	}
	projection, err := views.Build(view, list, opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, projection)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.engine.GetUserStats(c.Request.Context(), auth.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}
