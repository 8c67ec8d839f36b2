package in

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	hclog "github.com/hashicorp/go-hclog"

	"mathbot/internal/modules/catalog/dto"
	catalogin "mathbot/internal/modules/catalog/port/in"
	"mathbot/internal/platform/httpapi"
)

const maxHydrateBytes = 32 << 20

type HTTPHandler struct {
	usecase catalogin.Usecase
	logger  hclog.Logger
}

func NewHTTPHandler(usecase catalogin.Usecase, logger hclog.Logger) HTTPHandler {
	return HTTPHandler{usecase: usecase, logger: logger}
}

// Routes serves the catalog under the router it is mounted on.
func (h HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/lessons", h.listLessons)
	r.Get("/lessons/{id}", h.getLesson)
	r.Get("/units", h.listUnits)
	r.Get("/units/{id}", h.getUnit)
	r.Get("/areas", h.listAreas)
	r.Get("/search", h.search)
	r.Get("/status", h.status)
	r.Post("/refresh", h.refresh)
	r.Post("/hydrate", h.hydrate)
	return r
}

func (h HTTPHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if _, err := h.usecase.Ready(r.Context()); err != nil {
		httpapi.HandleError(w, h.logger, err)
		return false
	}
	return true
}

func (h HTTPHandler) listLessons(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, h.usecase.ListLessons(r.Context()))
}

func (h HTTPHandler) getLesson(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	lesson, err := h.usecase.GetLesson(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.HandleError(w, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, lesson)
}

func (h HTTPHandler) listUnits(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	if area, ok := r.URL.Query()["area"]; ok {
		httpapi.RespondJSON(w, http.StatusOK, h.usecase.UnitsByArea(r.Context(), area[0]))
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, h.usecase.ListUnits(r.Context()))
}

func (h HTTPHandler) getUnit(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	unit, err := h.usecase.GetUnit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.HandleError(w, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, unit)
}

func (h HTTPHandler) listAreas(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, h.usecase.AreaSummary(r.Context()))
}

func (h HTTPHandler) search(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	lessons, err := h.usecase.Search(r.Context(), dto.SearchInput{Query: r.URL.Query().Get("q"), Limit: limit})
	if err != nil {
		httpapi.HandleError(w, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, lessons)
}

func (h HTTPHandler) status(w http.ResponseWriter, r *http.Request) {
	httpapi.RespondJSON(w, http.StatusOK, h.usecase.Status(r.Context()))
}

func (h HTTPHandler) refresh(w http.ResponseWriter, r *http.Request) {
	index, err := h.usecase.Refresh(r.Context())
	if err != nil {
		httpapi.HandleError(w, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, index)
}

func (h HTTPHandler) hydrate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxHydrateBytes))
	if err != nil {
		httpapi.HandleError(w, h.logger, err)
		return
	}
	index, err := h.usecase.Hydrate(r.Context(), dto.HydrateInput{Units: body})
	if err != nil {
		httpapi.HandleError(w, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, index.Totals)
}
