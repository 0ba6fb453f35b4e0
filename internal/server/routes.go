package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/replan/internal/depgraph"
	"github.com/zulandar/replan/internal/models"
	"github.com/zulandar/replan/internal/notify"
	"github.com/zulandar/replan/internal/reschedule"
	"github.com/zulandar/replan/internal/workload"
	"gorm.io/gorm"
)

// dateLayout is the wire format for all date fields.
const dateLayout = "2006-01-02"

type handlers struct {
	db         *gorm.DB
	engine     *reschedule.Engine
	notifier   notify.Notifier
	thresholds workload.Thresholds
}

// writeError maps engine errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	var verr *reschedule.ValidationError
	var cerr *depgraph.CycleError
	switch {
	case errors.Is(err, reschedule.ErrNotFound), errors.Is(err, depgraph.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &verr), errors.As(err, &cerr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type rescheduleRequest struct {
	RescheduleType string `json:"rescheduleType"`
	DelayDays      int    `json:"delayDays"`
}

// rescheduleProject runs a bulk reschedule for one project.
func (h *handlers) rescheduleProject(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	strategy, err := reschedule.ParseStrategy(req.RescheduleType)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.engine.BulkReschedule(c.Param("id"), strategy, req.DelayDays)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.notifier != nil {
		_ = h.notifier.Notify(c.Request.Context(), notify.BulkEvent(c.Param("id"), res))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"rescheduleType":    res.Strategy,
		"affectedTasks":     res.AffectedTasks,
		"newProjectEndDate": res.NewProjectEnd.Format(dateLayout),
		"delayDays":         res.DelayDays,
	})
}

type completeRequest struct {
	ActualFinishDate string `json:"actualFinishDate"`
}

// completeTask marks a task done and propagates the schedule impact.
func (h *handlers) completeTask(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	actual := time.Now()
	if req.ActualFinishDate != "" {
		parsed, err := time.Parse(dateLayout, req.ActualFinishDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "actualFinishDate must be YYYY-MM-DD"})
			return
		}
		actual = parsed
	}

	res, err := h.engine.CompleteTask(c.Param("id"), actual)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.notifier != nil {
		_ = h.notifier.Notify(c.Request.Context(), notify.CompletionEvent(res))
	}

	c.JSON(http.StatusOK, gin.H{
		"taskId":            res.Task.ID,
		"updatedTask":       res.Task,
		"affectedTasks":     res.AffectedTasks,
		"scheduleChanges":   res.Changes,
		"strategyUsed":      res.PolicyUsed,
		"visualizationData": res.Viz,
	})
}

// projectWorkload returns per-user samples and the bottleneck verdict for
// one day.
func (h *handlers) projectWorkload(c *gin.Context) {
	date := time.Now()
	if q := c.Query("date"); q != "" {
		parsed, err := time.Parse(dateLayout, q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	tasks, users, err := h.loadProjectState(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":       date.Format(dateLayout),
		"samples":    workload.Daily(date, tasks, users),
		"bottleneck": workload.DetectBottleneck(date, tasks, users, h.thresholds),
	})
}

// projectReport returns the aggregated workload report for a date range.
func (h *handlers) projectReport(c *gin.Context) {
	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not precede start"})
		return
	}

	tasks, users, err := h.loadProjectState(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, workload.GenerateReport(start, end, tasks, users, h.thresholds))
}

// projectGraph returns the dependency graph's validation state and
// visualization data.
func (h *handlers) projectGraph(c *gin.Context) {
	projectID := c.Param("id")
	if err := h.projectExists(projectID); err != nil {
		writeError(c, err)
		return
	}

	g, err := depgraph.LoadProject(h.db, projectID)
	if err != nil {
		writeError(c, err)
		return
	}

	cycles := g.Validate()
	paths := make([][]string, 0, len(cycles))
	for _, cyc := range cycles {
		paths = append(paths, cyc.Path)
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":         len(cycles) == 0,
		"cycles":        paths,
		"visualization": g.Visualization(),
	})
}

// loadProjectState loads a project's tasks and all users, failing with
// ErrRecordNotFound for unknown projects.
func (h *handlers) loadProjectState(projectID string) ([]models.Task, []models.User, error) {
	if err := h.projectExists(projectID); err != nil {
		return nil, nil, err
	}

	var tasks []models.Task
	if err := h.db.Where("project_id = ?", projectID).Find(&tasks).Error; err != nil {
		return nil, nil, err
	}
	var users []models.User
	if err := h.db.Find(&users).Error; err != nil {
		return nil, nil, err
	}
	return tasks, users, nil
}

func (h *handlers) projectExists(projectID string) error {
	var project models.Project
	return h.db.First(&project, "id = ?", projectID).Error
}
