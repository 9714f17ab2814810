package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dvkit/transfer/internal/repository"
	"github.com/dvkit/transfer/internal/transform"
)

type Handler struct {
	service *Service
}

func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/preview"):
		h.handlePreview(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/import"):
		h.handleImport(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/export"):
		h.handleExport(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/query"):
		h.handleQueries(w, r)
	case r.Method == http.MethodPost:
		h.handleSave(w, r)
	case r.Method == http.MethodGet:
		if name := configName(r.URL.Path); name != "" {
			h.handleGet(w, r, name)
			return
		}
		h.handleList(w, r)
	case r.Method == http.MethodDelete:
		h.handleDelete(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// configName extracts the {name} segment from /api/configs/{name}[/...].
func configName(path string) string {
	trimmed := strings.Trim(path, "/")
	parts := strings.Split(trimmed, "/")
	for i, part := range parts {
		if part == "configs" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var cfg transform.TransferConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	stored, err := h.service.SaveConfig(r.Context(), cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, name string) {
	stored, err := h.service.GetConfig(r.Context(), name)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	configs, err := h.service.ListConfigs(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("list configs: %v", err), http.StatusInternalServerError)
		return
	}
	if configs == nil {
		configs = []repository.StoredTransferConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := configName(r.URL.Path)
	if name == "" {
		http.Error(w, "config name is required", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteConfig(r.Context(), name); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	query := r.URL.Query()
	name := strings.TrimSpace(query.Get("name"))
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("read payload: %v", err), http.StatusBadRequest)
		return
	}
	if len(payload) == 0 {
		http.Error(w, "workbook payload is empty", http.StatusBadRequest)
		return
	}
	stored, err := h.service.ImportMapping(r.Context(), name, query.Get("sourceEnv"), query.Get("targetEnv"), payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	name := configName(r.URL.Path)
	if name == "" {
		http.Error(w, "config name is required", http.StatusBadRequest)
		return
	}
	payload, err := h.service.ExportMapping(r.Context(), name)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
	_, _ = w.Write(payload)
}

func (h *Handler) handleQueries(w http.ResponseWriter, r *http.Request) {
	name := configName(r.URL.Path)
	if name == "" {
		http.Error(w, "config name is required", http.StatusBadRequest)
		return
	}
	queries, err := h.service.Queries(r.Context(), name)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queries)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	resolved, err := h.service.Preview(r.Context(), req)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
