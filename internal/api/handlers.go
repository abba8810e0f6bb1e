package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"wismass.com/chatlog-combiner/internal/core"
	"wismass.com/chatlog-combiner/internal/store"
)

// HistoryLister reads past deliveries. A nil lister disables the history
// route.
type HistoryLister interface {
	Recent(ctx context.Context, limit int) ([]store.Delivery, error)
}

type APIHandler struct {
	svc     *core.Service
	history HistoryLister
	log     zerolog.Logger
}

func NewAPIHandler(svc *core.Service, history HistoryLister, log zerolog.Logger) *APIHandler {
	return &APIHandler{svc: svc, history: history, log: log}
}

// ChatView is a chat as shown to front ends. The dates mirror the global
// range and cannot be set per chat.
type ChatView struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

type TemplateView struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	Content      string `json:"content"`
	EnabledChats []bool `json:"enabled_chats"`
}

type ConfigResponse struct {
	Chats           []ChatView     `json:"chats"`
	Templates       []TemplateView `json:"custom_templates"`
	CurrentTemplate int            `json:"current_template"`
	GlobalDateFrom  string         `json:"global_date_from"`
	GlobalDateTo    string         `json:"global_date_to"`
}

func newConfigResponse(cfg *store.AppConfig) ConfigResponse {
	resp := ConfigResponse{
		Chats:           make([]ChatView, len(cfg.Chats)),
		Templates:       make([]TemplateView, len(cfg.Templates)),
		CurrentTemplate: cfg.CurrentTemplate,
		GlobalDateFrom:  cfg.GlobalDateFrom,
		GlobalDateTo:    cfg.GlobalDateTo,
	}
	for i, c := range cfg.Chats {
		resp.Chats[i] = ChatView{Index: i, Name: c.Name, DateFrom: cfg.GlobalDateFrom, DateTo: cfg.GlobalDateTo}
	}
	for i, t := range cfg.Templates {
		resp.Templates[i] = TemplateView{Index: i, Name: t.Name, Content: t.Content, EnabledChats: t.EnabledChats}
	}
	return resp
}

func (h *APIHandler) GetConfigHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newConfigResponse(h.svc.Workspace().Snapshot()))
}

// ChatRequest names a chat. An empty name is allowed and stored as is.
type ChatRequest struct {
	Name string `json:"name"`
}

func (h *APIHandler) AddChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	index := h.svc.Workspace().AddChat(req.Name)
	writeJSON(w, http.StatusCreated, map[string]int{"index": index})
}

func (h *APIHandler) RenameChatHandler(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.Workspace().RenameChat(index, req.Name); err != nil {
		h.editError(w, "rename chat", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) RemoveChatHandler(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	if err := h.svc.Workspace().RemoveChat(index); err != nil {
		h.editError(w, "remove chat", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type TemplateRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (h *APIHandler) AddTemplateHandler(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	index := h.svc.Workspace().AddTemplate(req.Name, req.Content)
	writeJSON(w, http.StatusCreated, map[string]int{"index": index})
}

func (h *APIHandler) UpdateTemplateHandler(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	var req TemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.Workspace().UpdateTemplate(index, req.Name, req.Content); err != nil {
		h.editError(w, "update template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) RemoveTemplateHandler(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	if err := h.svc.Workspace().RemoveTemplate(index); err != nil {
		h.editError(w, "remove template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type EnableRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *APIHandler) SetChatEnabledHandler(w http.ResponseWriter, r *http.Request) {
	tpl, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	chat, ok := pathIndex(w, r, "chat")
	if !ok {
		return
	}
	var req EnableRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		http.Error(w, "enabled is required", http.StatusBadRequest)
		return
	}
	if err := h.svc.Workspace().SetChatEnabled(tpl, chat, *req.Enabled); err != nil {
		h.editError(w, "set chat enabled", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type SelectionRequest struct {
	Index *int `json:"index"`
}

func (h *APIHandler) SelectTemplateHandler(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Index == nil {
		http.Error(w, "index is required", http.StatusBadRequest)
		return
	}
	if err := h.svc.Workspace().SelectTemplate(*req.Index); err != nil {
		h.editError(w, "select template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type DatesRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *APIHandler) SetDatesHandler(w http.ResponseWriter, r *http.Request) {
	var req DatesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.Workspace().SetDateRange(req.From, req.To); err != nil {
		h.editError(w, "set dates", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) SaveHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Save(); err != nil {
		h.log.Error().Err(err).Msg("save via API failed")
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Preview(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("preview failed")
		http.Error(w, "Failed to combine document", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(doc.Text))
}

type DeliverResponse struct {
	Template string   `json:"template"`
	Chats    []string `json:"chats"`
	Errors   int      `json:"errors"`
	Bytes    int      `json:"bytes"`
}

func (h *APIHandler) DeliverHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.CombineAndDeliver(r.Context())
	if err != nil {
		if errors.Is(err, core.ErrBusy) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.log.Error().Err(err).Msg("delivery via API failed")
		http.Error(w, "Failed to deliver document", http.StatusInternalServerError)
		return
	}
	chats := doc.Chats
	if chats == nil {
		chats = []string{}
	}
	writeJSON(w, http.StatusOK, DeliverResponse{
		Template: doc.Template,
		Chats:    chats,
		Errors:   doc.Errors,
		Bytes:    len(doc.Text),
	})
}

func (h *APIHandler) ListDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		http.Error(w, "Delivery history is disabled", http.StatusNotFound)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	deliveries, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("listing deliveries failed")
		http.Error(w, "Failed to list deliveries", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, deliveries)
}

// editError maps a rejected workspace edit to a status code. Every rejected
// edit has left the workspace unchanged.
func (h *APIHandler) editError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrIndexOutOfRange):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrLastChat), errors.Is(err, core.ErrLastTemplate):
		status = http.StatusConflict
	case errors.Is(err, core.ErrInvalidDate):
		status = http.StatusBadRequest
	}
	h.log.Warn().Err(err).Str("op", op).Msg("edit rejected")
	http.Error(w, err.Error(), status)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func pathIndex(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		http.Error(w, "Invalid "+name+": must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
