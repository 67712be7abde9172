package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/model"
	"github.com/ClipsonBusiness/tracking-system-sub001/storage"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// ClientHandler serves the administrative client/campaign CRUD.
type ClientHandler struct {
	clients      storage.ClientStore
	queryTimeout time.Duration
}

func NewClientHandler(clients storage.ClientStore, queryTimeout time.Duration) *ClientHandler {
	return &ClientHandler{clients: clients, queryTimeout: queryTimeout}
}

type CreateClientRequest struct {
	Name string `json:"name"`
}

// CreateClient handles POST /admin/clients
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if req.Name == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("name is required"), "")
		return
	}

	client := &model.Client{Name: req.Name}
	if err := h.clients.CreateClient(ctx, client); err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to create client")
		return
	}

	SendJSONSuccess(w, http.StatusCreated, client)
}

// ListClients handles GET /admin/clients
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	clients, err := h.clients.Clients(ctx)
	if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "")
		return
	}
	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{"clients": clients, "total": len(clients)})
}

// DeleteClient handles DELETE /admin/clients/{id}. Links cascade with the
// client; click history stays.
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, errors.New("invalid client id"), "")
		return
	}

	if err := h.clients.DeleteClient(ctx, uint(id)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			SendJSONError(w, http.StatusNotFound, errors.New("client not found"), "")
			return
		}
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to delete client")
		return
	}

	log.Info().Uint64("client_id", id).Msg("Client deleted")
	SendJSONSuccess(w, http.StatusOK, map[string]string{"message": "Client deleted"})
}

type CreateCampaignRequest struct {
	ClientID       uint   `json:"clientId"`
	Name           string `json:"name"`
	DestinationURL string `json:"destinationUrl,omitempty"`
}

// CreateCampaign handles POST /admin/campaigns
func (h *ClientHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if req.ClientID == 0 || req.Name == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("clientId and name are required"), "")
		return
	}
	if _, err := h.clients.ClientByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			SendJSONError(w, http.StatusBadRequest, errors.New("unknown client"), "")
			return
		}
		SendJSONError(w, http.StatusInternalServerError, err, "")
		return
	}

	campaign := &model.Campaign{
		ClientID:       req.ClientID,
		Name:           req.Name,
		DestinationURL: req.DestinationURL,
	}
	if err := h.clients.CreateCampaign(ctx, campaign); err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to create campaign")
		return
	}

	SendJSONSuccess(w, http.StatusCreated, campaign)
}
