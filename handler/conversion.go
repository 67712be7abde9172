package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/attribution"
	"github.com/ClipsonBusiness/tracking-system-sub001/model"
	"github.com/ClipsonBusiness/tracking-system-sub001/storage"

	"github.com/rs/zerolog/log"
)

// ConversionHandler serves orphan reconciliation, manual fixes, and the
// webhook ingestion that produces Conversion rows in the first place.
type ConversionHandler struct {
	matcher      *attribution.Matcher
	conversions  storage.ConversionStore
	links        storage.LinkStore
	batchWindow  time.Duration
	manualWindow time.Duration
	lookback     time.Duration
	queryTimeout time.Duration
}

func NewConversionHandler(matcher *attribution.Matcher, conversions storage.ConversionStore, links storage.LinkStore, batchWindow, manualWindow, lookback, queryTimeout time.Duration) *ConversionHandler {
	return &ConversionHandler{
		matcher:      matcher,
		conversions:  conversions,
		links:        links,
		batchWindow:  batchWindow,
		manualWindow: manualWindow,
		lookback:     lookback,
		queryTimeout: queryTimeout,
	}
}

// ReconcileResponse is the tally of one reconciliation pass.
type ReconcileResponse struct {
	Success bool `json:"success"`
	Fixed   int  `json:"fixed"`
	Failed  int  `json:"failed"`
	Total   int  `json:"total"`
}

// ReconcileOrphans handles POST /admin/attribution/reconcile
// @Summary Reattach orphan conversions to their originating clicks
// @Tags Attribution
// @Produce json
// @Success 200 {object} ReconcileResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/attribution/reconcile [post]
func (h *ConversionHandler) ReconcileOrphans(w http.ResponseWriter, r *http.Request) {
	// Batch passes scan a week of conversions; no per-query timeout here,
	// the pass runs as long as the request allows.
	result, err := h.matcher.ReconcileBatch(r.Context(), h.lookback, h.batchWindow)
	if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Reconciliation pass failed")
		return
	}

	SendJSONSuccess(w, http.StatusOK, ReconcileResponse{
		Success: true,
		Fixed:   result.Fixed,
		Failed:  result.Failed,
		Total:   result.Total,
	})
}

type FixConversionRequest struct {
	ConversionID uint  `json:"conversionId"`
	LinkID       *uint `json:"linkId,omitempty"` // explicit target; matched automatically when absent
}

// FixConversion handles POST /admin/attribution/fix — the single-conversion
// manual tool. With an explicit linkId the assignment is direct; without
// one the matcher runs with the (tighter) manual window.
// @Summary Manually fix one conversion's attribution
// @Tags Attribution
// @Accept json
// @Produce json
// @Param request body FixConversionRequest true "Fix request"
// @Success 200 {object} model.Conversion
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Unknown conversion or link"
// @Failure 409 {object} ErrorResponse "Conversion already linked"
// @Router /admin/attribution/fix [post]
func (h *ConversionHandler) FixConversion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	var req FixConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if req.ConversionID == 0 {
		SendJSONError(w, http.StatusBadRequest, errors.New("conversionId is required"), "")
		return
	}

	conv, err := h.conversions.ByID(ctx, req.ConversionID)
	if errors.Is(err, storage.ErrNotFound) {
		SendJSONError(w, http.StatusNotFound, errors.New("conversion not found"), "")
		return
	}
	if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "")
		return
	}
	if conv.Linked() {
		SendJSONError(w, http.StatusConflict, errors.New("conversion already has a link"), "")
		return
	}

	if req.LinkID != nil {
		if _, err := h.links.ByID(ctx, *req.LinkID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				SendJSONError(w, http.StatusNotFound, errors.New("link not found"), "")
				return
			}
			SendJSONError(w, http.StatusInternalServerError, err, "")
			return
		}

		assigned, err := h.conversions.AssignLink(ctx, conv.ID, *req.LinkID)
		if err != nil {
			SendJSONError(w, http.StatusInternalServerError, err, "Failed to assign link")
			return
		}
		if !assigned {
			SendJSONError(w, http.StatusConflict, errors.New("conversion already has a link"), "")
			return
		}
		conv.LinkID = req.LinkID
	} else {
		linkID, err := h.matcher.Reconcile(ctx, conv, h.manualWindow)
		if err != nil {
			SendJSONError(w, http.StatusInternalServerError, err, "Failed to match conversion")
			return
		}
		if linkID == nil {
			SendJSONError(w, http.StatusNotFound, errors.New("no matching click for this conversion"), "")
			return
		}
		conv.LinkID = linkID
	}

	log.Info().Uint("conversion_id", conv.ID).Uint("link_id", *conv.LinkID).Msg("Conversion manually fixed")
	SendJSONSuccess(w, http.StatusOK, conv)
}

type StripeWebhookRequest struct {
	ClientID      uint    `json:"clientId"`
	LinkID        *uint   `json:"linkId,omitempty"`
	AmountPaid    float64 `json:"amountPaid"`
	Currency      string  `json:"currency"`
	PaidAt        string  `json:"paidAt"` // RFC3339
	InvoiceID     string  `json:"invoiceId"`
	AffiliateCode string  `json:"affiliateCode,omitempty"`
}

// StripeWebhook handles POST /webhooks/stripe — minimal conversion
// ingestion. The unique constraint on the invoice id makes duplicate
// deliveries a no-op.
func (h *ConversionHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	var req StripeWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if req.ClientID == 0 || req.InvoiceID == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("clientId and invoiceId are required"), "")
		return
	}

	paidAt := time.Now()
	if req.PaidAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			SendJSONError(w, http.StatusBadRequest, err, "Invalid paidAt (use RFC3339)")
			return
		}
		paidAt = parsed
	}

	conv := &model.Conversion{
		ClientID:        req.ClientID,
		LinkID:          req.LinkID,
		AmountPaid:      req.AmountPaid,
		Currency:        req.Currency,
		PaidAt:          paidAt,
		StripeInvoiceID: req.InvoiceID,
		AffiliateCode:   req.AffiliateCode,
	}

	if err := h.conversions.Create(ctx, conv); err != nil {
		if storage.IsDuplicateKey(err) {
			log.Info().Str("invoice_id", req.InvoiceID).Msg("Duplicate webhook delivery ignored")
			SendJSONSuccess(w, http.StatusOK, map[string]string{"status": "already processed"})
			return
		}
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to store conversion")
		return
	}

	SendJSONSuccess(w, http.StatusCreated, conv)
}
