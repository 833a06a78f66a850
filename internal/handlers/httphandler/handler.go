package httphandler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"WooWithSupplier/internal/database"
	"WooWithSupplier/internal/mapping"
	"WooWithSupplier/internal/sync"
	"WooWithSupplier/internal/version"
	"WooWithSupplier/pkg/logging"

	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
)

var errNoReference = errors.New("reference и woo_id обязательны")

// Handler - HTTP-слой управления синхронизацией.
// Управляющие ручки пишут только SyncState.Requested, прогресс пишет
// исключительно оркестратор, поэтому гонок за строку состояния нет.
type Handler struct {
	db           *sqlx.DB
	orchestrator *sync.Orchestrator
	scheduler    *sync.Scheduler
	mapper       *mapping.Mapper
}

func NewHandler(db *sqlx.DB, orchestrator *sync.Orchestrator, scheduler *sync.Scheduler, mapper *mapping.Mapper) *Handler {
	return &Handler{
		db:           db,
		orchestrator: orchestrator,
		scheduler:    scheduler,
		mapper:       mapper,
	}
}

func (h *Handler) Router() *httprouter.Router {
	router := httprouter.New()

	router.GET("/", h.Index)

	router.POST("/sync/start", h.SyncStart)
	router.POST("/sync/pause", h.SyncPause)
	router.POST("/sync/resume", h.SyncResume)
	router.POST("/sync/cancel", h.SyncCancel)
	router.GET("/sync/status", h.SyncStatus)
	router.GET("/sync/history", h.SyncHistory)
	router.GET("/sync/logs", h.SyncLogs)

	router.GET("/profiles", h.ProfileList)
	router.POST("/profiles", h.ProfileSave)
	router.DELETE("/profiles/:slug", h.ProfileDelete)

	router.GET("/mappings", h.MappingList)
	router.POST("/mappings", h.MappingSave)
	router.DELETE("/mappings/:reference", h.MappingDelete)

	return router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.GetLogger().Errorf("Ошибка при записи ответа: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeOk(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "WooWithSupplier",
		"version": version.GetVersion().String(),
	})
}

func (h *Handler) SyncStart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := logging.GetLogger()
	logger.Info("Start SyncStart")
	defer logger.Info("End SyncStart")

	profile := r.URL.Query().Get("profile")
	if err := h.orchestrator.Start(profile); err != nil {
		logger.Errorf("Ошибка при запуске синхронизации: %v", err)
		writeError(w, http.StatusConflict, err)
		return
	}
	writeOk(w)
}

func (h *Handler) SyncPause(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := sync.RequestPause(h.db); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeOk(w)
}

func (h *Handler) SyncResume(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := sync.RequestResume(h.db); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeOk(w)
}

func (h *Handler) SyncCancel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := sync.RequestStop(h.db); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeOk(w)
}

func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	state, err := sync.GetState(h.db)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) SyncHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := sync.HistoryList(h.db, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *Handler) SyncLogs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	perPage, _ := strconv.Atoi(query.Get("per_page"))

	filter := sync.LogFilter{
		Level:     query.Get("level"),
		Reference: query.Get("reference"),
		BatchID:   query.Get("batch_id"),
		Page:      page,
		PerPage:   perPage,
	}
	logs, err := sync.LogList(h.db, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *Handler) ProfileList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	profiles, err := database.ProfileList(h.db)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *Handler) ProfileSave(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := logging.GetLogger()
	logger.Info("Start ProfileSave")
	defer logger.Info("End ProfileSave")

	var profile database.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := database.SaveProfile(h.db, &profile); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	// расписание могло измениться
	if err := h.scheduler.Reload(); err != nil {
		logger.Errorf("Ошибка при перезагрузке расписания: %v", err)
	}
	writeOk(w)
}

func (h *Handler) ProfileDelete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	logger := logging.GetLogger()

	if err := database.DeleteProfile(h.db, params.ByName("slug")); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.scheduler.Reload(); err != nil {
		logger.Errorf("Ошибка при перезагрузке расписания: %v", err)
	}
	writeOk(w)
}

func (h *Handler) MappingList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	mappings, err := h.mapper.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, mappings)
}

type mappingRequest struct {
	Reference string `json:"reference"`
	WooID     int    `json:"woo_id"`
}

func (h *Handler) MappingSave(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request mappingRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if request.Reference == "" || request.WooID == 0 {
		writeError(w, http.StatusBadRequest, errNoReference)
		return
	}
	if err := h.mapper.SetManual(request.Reference, request.WooID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeOk(w)
}

func (h *Handler) MappingDelete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if err := h.mapper.DeleteManual(params.ByName("reference")); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeOk(w)
}
