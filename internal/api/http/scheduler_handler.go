// internal/api/http/scheduler_handler.go
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"cronwell/internal/domain"
	"cronwell/internal/metrics"
	"cronwell/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SchedulerHandler serves the management API over scheduler definitions.
type SchedulerHandler struct {
	service  *usecase.SchedulerService
	logger   *slog.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

// NewSchedulerHandler creates the handler and its validator.
func NewSchedulerHandler(service *usecase.SchedulerService, logger *slog.Logger) *SchedulerHandler {
	validate := validator.New()

	_ = validate.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		_, err := parser.Parse(fl.Field().String())
		return err == nil
	})

	return &SchedulerHandler{
		service:  service,
		logger:   logger.With("component", "scheduler-handler"),
		validate: validate,
		tracer:   otel.Tracer("cronwell-api"),
	}
}

// A helper struct to capture the status code
type instrumentedResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *instrumentedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// RegisterRoutes registers the management routes on the mux.
func (h *SchedulerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/schedulers/", h.instrument("/schedulers", http.HandlerFunc(h.handleSchedulers)))
	mux.Handle("/schedulers", h.instrument("/schedulers", http.HandlerFunc(h.handleSchedulers)))
	mux.Handle("/task-types", h.instrument("/task-types", http.HandlerFunc(h.handleTaskTypes)))
}

func (h *SchedulerHandler) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "HTTP "+r.Method+" "+route, trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		))
		defer span.End()

		r = r.WithContext(ctx)

		iw := &instrumentedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(iw, r)

		metrics.HttpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(iw.statusCode)).Inc()

		span.SetAttributes(attribute.Int("http.status_code", iw.statusCode))
		if iw.statusCode >= 500 {
			span.SetStatus(codes.Error, "Server Error")
		}
	})
}

// handleSchedulers dispatches on the /schedulers/{id}/{action} shape.
func (h *SchedulerHandler) handleSchedulers(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 1 || pathParts[0] != "schedulers" {
		http.NotFound(w, r)
		return
	}

	var id, action string
	if len(pathParts) > 1 {
		id = pathParts[1]
	}
	if len(pathParts) > 2 {
		action = pathParts[2]
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		h.handleList(w, r)
	case r.Method == http.MethodGet && action == "":
		h.handleGet(w, r, id)
	case r.Method == http.MethodGet && action == "history":
		h.handleHistory(w, r, id)
	case r.Method == http.MethodGet && action == "stats":
		h.handleStats(w, r, id)
	case r.Method == http.MethodPost && id == "":
		// Definitions are born from catalog reconciliation, not the API.
		h.writeError(w, h.service.Create(r.Context()))
	case r.Method == http.MethodDelete && id != "" && action == "":
		h.writeError(w, h.service.Delete(r.Context(), id))
	case (r.Method == http.MethodPatch || r.Method == http.MethodPut) && id != "" && action == "":
		h.handleUpdate(w, r, id)
	case r.Method == http.MethodPost && action == "toggle":
		h.handleToggle(w, r, id)
	case r.Method == http.MethodPost && action == "run":
		h.handleRunNow(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func (h *SchedulerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	filter := domain.DefinitionFilter{
		TaskType: r.URL.Query().Get("task_type"),
		Search:   r.URL.Query().Get("search"),
	}
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err == nil {
			filter.IsActive = &active
		}
	}

	defs, total, err := h.service.List(r.Context(), page, limit, filter)
	if err != nil {
		h.logger.Error("error listing schedulers", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, PageResponse{Items: defs, Total: total, Page: page, Limit: limit})
}

func (h *SchedulerHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	def, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, def)
}

func (h *SchedulerHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req UpdateSchedulerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var details []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, verr := range verrs {
				details = append(details, "Field '"+verr.Field()+"' failed on the '"+verr.Tag()+"' tag.")
			}
		}
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Details: details})
		return
	}

	def, err := h.service.Update(r.Context(), id, req.ToUpdate())
	if err != nil {
		h.logger.Warn("error updating scheduler", "scheduler_id", id, "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, def)
}

func (h *SchedulerHandler) handleToggle(w http.ResponseWriter, r *http.Request, id string) {
	def, err := h.service.ToggleActive(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, def)
}

func (h *SchedulerHandler) handleRunNow(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.RunNow(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *SchedulerHandler) handleHistory(w http.ResponseWriter, r *http.Request, id string) {
	page, limit := pagination(r)

	recs, total, err := h.service.History(r.Context(), id, page, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, PageResponse{Items: recs, Total: total, Page: page, Limit: limit})
}

func (h *SchedulerHandler) handleStats(w http.ResponseWriter, r *http.Request, id string) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	stats, err := h.service.Stats(r.Context(), id, days)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *SchedulerHandler) handleTaskTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, h.service.TaskTypes(r.Context()))
}

func (h *SchedulerHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto structured HTTP failure responses.
func (h *SchedulerHandler) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrSchedulerNotFound), errors.Is(err, domain.ErrExecutionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrProtectedField), errors.Is(err, domain.ErrSchedulerManaged):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidCronExpression):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyRunning), errors.Is(err, domain.ErrSchedulerInactive):
		status = http.StatusConflict
	default:
		h.logger.Error("internal error", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	h.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
