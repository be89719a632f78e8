package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "harvestq.com/harvestq/internal/errors"
	"harvestq.com/harvestq/internal/http/validators"
	model "harvestq.com/harvestq/internal/models"
	"harvestq.com/harvestq/internal/services"
)

type Handler struct {
	taskService *services.TaskService
}

func NewHandler(taskService *services.TaskService) *Handler {
	return &Handler{
		taskService: taskService,
	}
}

// asHTTPError maps engine errors onto their HTTP status; anything
// unclassified is a 500.
func asHTTPError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	return echo.NewHTTPError(apperrors.StatusCode(err), err.Error())
}

func taskID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ErrTaskIDRequired
	}
	return id, nil
}

func intQuery(c echo.Context, name string, defaultVal int) int {
	if raw := c.QueryParam(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return defaultVal
}

func (h *Handler) Register(c echo.Context) error {
	var req validators.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateRegisterRequest(&req); err != nil {
		return err
	}

	task, created, err := h.taskService.Register(c.Request().Context(), model.NewTask{
		URL:      req.URL,
		Title:    req.Title,
		Duration: req.Duration,
	})
	if err != nil {
		return asHTTPError(err)
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	return c.JSON(status, task)
}

func (h *Handler) RegisterBatch(c echo.Context) error {
	var req validators.BatchRegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateBatchRegisterRequest(&req); err != nil {
		return err
	}

	entries := make([]model.NewTask, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = model.NewTask{URL: e.URL, Title: e.Title, Duration: e.Duration}
	}

	ids, err := h.taskService.RegisterBatch(c.Request().Context(), entries)
	if err != nil {
		return asHTTPError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"accepted": len(ids),
		"skipped":  len(entries) - len(ids),
		"ids":      ids,
	})
}

func (h *Handler) Claim(c echo.Context) error {
	max := intQuery(c, "max", 10)

	tasks, err := h.taskService.Claim(c.Request().Context(), max)
	if err != nil {
		return asHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *Handler) GetTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return asHTTPError(err)
	}

	task, err := h.taskService.Get(c.Request().Context(), id)
	if err != nil {
		return asHTTPError(err)
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) ListTasks(c echo.Context) error {
	status, ok := model.ParseStatus(c.QueryParam("status"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	max := intQuery(c, "max", 100)

	tasks, err := h.taskService.ListByStatus(c.Request().Context(), status, max)
	if err != nil {
		return asHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *Handler) ListDeleted(c echo.Context) error {
	max := intQuery(c, "max", 100)

	tasks, err := h.taskService.ListDeleted(c.Request().Context(), max)
	if err != nil {
		return asHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *Handler) ListRecent(c echo.Context) error {
	hours := intQuery(c, "hours", 24)
	max := intQuery(c, "max", 100)

	tasks, err := h.taskService.ListRecent(c.Request().Context(), hours, max)
	if err != nil {
		return asHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return asHTTPError(err)
	}

	var req struct {
		DownloadType int    `json:"download_type"`
		Log          string `json:"log"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	ok, err := h.taskService.Complete(c.Request().Context(), id, req.DownloadType, req.Log)
	if err != nil {
		return asHTTPError(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

func (h *Handler) Fail(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return asHTTPError(err)
	}

	var req struct {
		Log string `json:"log"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if req.Log == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "log is required")
	}

	ok, err := h.taskService.Fail(c.Request().Context(), id, req.Log)
	if err != nil {
		return asHTTPError(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return asHTTPError(err)
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if req.Reason == "" {
		req.Reason = "deleted by operator"
	}

	ok, err := h.taskService.Delete(c.Request().Context(), id, req.Reason)
	if err != nil {
		return asHTTPError(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}

func (h *Handler) DeleteBatch(c echo.Context) error {
	var req struct {
		IDs    []int64 `json:"ids"`
		Reason string  `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids must not be empty")
	}
	if req.Reason == "" {
		req.Reason = "deleted by operator"
	}

	deleted, err := h.taskService.DeleteBatch(c.Request().Context(), req.IDs, req.Reason)
	if err != nil {
		return asHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"deleted": deleted})
}

func (h *Handler) Restore(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return asHTTPError(err)
	}

	ok, err := h.taskService.Restore(c.Request().Context(), id)
	if err != nil {
		return asHTTPError(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "task does not exist or is not deleted")
	}

	return c.JSON(http.StatusOK, echo.Map{"restored": true})
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.taskService.Stats(c.Request().Context())
	if err != nil {
		return asHTTPError(err)
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Purge(c echo.Context) error {
	var req struct {
		Days int `json:"days"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if req.Days <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "days must be positive")
	}

	purged, err := h.taskService.Purge(c.Request().Context(), req.Days)
	if err != nil {
		return asHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"purged": purged})
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.taskService.Ping(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
