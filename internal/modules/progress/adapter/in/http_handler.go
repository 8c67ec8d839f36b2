package in

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	hclog "github.com/hashicorp/go-hclog"

	"mathbot/internal/modules/progress/dto"
	progressin "mathbot/internal/modules/progress/port/in"
	apperrors "mathbot/internal/platform/errors"
	"mathbot/internal/platform/httpapi"
)

type HTTPHandler struct {
	usecase progressin.Usecase
	logger  hclog.Logger
}

func NewHTTPHandler(usecase progressin.Usecase, logger hclog.Logger) HTTPHandler {
	return HTTPHandler{usecase: usecase, logger: logger}
}

type completeBody struct {
	Completed *bool  `json:"completed"`
	Timestamp string `json:"timestamp"`
	Force     bool   `json:"force"`
}

func (h HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/snapshot", h.snapshot)
	r.Get("/activity", h.activity)
	r.Get("/lessons/{id}", h.lessonStatus)
	r.Post("/lessons/{id}/open", h.open)
	r.Post("/lessons/{id}/complete", h.complete)
	r.Post("/lessons/{id}/toggle", h.toggle)
	r.Post("/signals", h.signal)
	r.Post("/report", h.report)
	return r
}

func (h HTTPHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	httpapi.RespondJSON(w, http.StatusOK, h.usecase.Snapshot(r.Context()))
}

func (h HTTPHandler) activity(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpapi.HandleError(w, h.logger, apperrors.ErrInvalidInput)
			return
		}
		days = parsed
	}
	values, err := h.usecase.RecentActivity(r.Context(), days)
	if err != nil {
		httpapi.HandleError(w, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, values)
}

func (h HTTPHandler) lessonStatus(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "id")
	done, err := h.usecase.IsCompleted(r.Context(), lessonID)
	if err != nil {
		httpapi.HandleError(w, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, map[string]any{"lessonId": lessonID, "completed": done})
}

func (h HTTPHandler) open(w http.ResponseWriter, r *http.Request) {
	h.respondChange(w, func() (dto.ChangeOutput, error) {
		return h.usecase.Open(r.Context(), chi.URLParam(r, "id"))
	})
}

func (h HTTPHandler) complete(w http.ResponseWriter, r *http.Request) {
	var body completeBody
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.HandleError(w, h.logger, err)
		return
	}
	h.respondChange(w, func() (dto.ChangeOutput, error) {
		return h.usecase.Complete(r.Context(), dto.MarkInput{
			LessonID:  chi.URLParam(r, "id"),
			Completed: body.Completed,
			Timestamp: body.Timestamp,
			Force:     body.Force,
		})
	})
}

func (h HTTPHandler) toggle(w http.ResponseWriter, r *http.Request) {
	h.respondChange(w, func() (dto.ChangeOutput, error) {
		return h.usecase.Toggle(r.Context(), chi.URLParam(r, "id"))
	})
}

func (h HTTPHandler) signal(w http.ResponseWriter, r *http.Request) {
	var input dto.SignalInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		httpapi.HandleError(w, h.logger, err)
		return
	}
	h.respondChange(w, func() (dto.ChangeOutput, error) {
		return h.usecase.HandleSignal(r.Context(), input)
	})
}

func (h HTTPHandler) report(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.WriteReport(r.Context())
	if err != nil {
		httpapi.HandleError(w, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, out)
}

func (h HTTPHandler) respondChange(w http.ResponseWriter, fn func() (dto.ChangeOutput, error)) {
	out, err := fn()
	if err != nil {
		httpapi.HandleError(w, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, out)
}
