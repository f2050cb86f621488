package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aryan0dhankhar/storefront/internal/featureflags"
	"github.com/aryan0dhankhar/storefront/internal/tenant"
)

// TenantHandler serves the storefront configuration of the session tenant
type TenantHandler struct {
	logger *slog.Logger
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(logger *slog.Logger) *TenantHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantHandler{logger: logger}
}

// Current handles GET /api/tenant
func (h *TenantHandler) Current(w http.ResponseWriter, r *http.Request) {
	t, ok := sessionTenant(r)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "tenant not resolved")
		return
	}

	source := ""
	if s := tenant.FromContext(r.Context()); s != nil {
		source = string(s.Source())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tenant": t,
		"source": source,
	})
}

// Features handles GET /api/tenant/features
func (h *TenantHandler) Features(w http.ResponseWriter, r *http.Request) {
	t, ok := sessionTenant(r)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "tenant not resolved")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tenantId": t.ID,
		"features": featureflags.Resolve(t),
	})
}

// ShippingQuote handles GET /api/shipping/quote?subtotal=&express=
func (h *TenantHandler) ShippingQuote(w http.ResponseWriter, r *http.Request) {
	t, ok := sessionTenant(r)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "tenant not resolved")
		return
	}

	q := r.URL.Query()
	subtotal, err := strconv.ParseFloat(q.Get("subtotal"), 64)
	if err != nil || subtotal < 0 {
		writeError(w, http.StatusBadRequest, "subtotal must be a non-negative number")
		return
	}
	express := false
	if v := q.Get("express"); v != "" {
		express, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "express must be a boolean")
			return
		}
	}

	fee := t.ShippingFee(subtotal, express)
	h.logger.Debug("shipping quote",
		slog.String("tenant_id", t.ID),
		slog.Float64("subtotal", subtotal),
		slog.Bool("express", express),
		slog.Float64("fee", fee),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"tenantId": t.ID,
		"subtotal": subtotal,
		"express":  express,
		"fee":      fee,
		"total":    subtotal + fee,
		"currency": t.Currency,
	})
}

// PaymentMethods handles GET /api/payment-methods
func (h *TenantHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	t, ok := sessionTenant(r)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "tenant not resolved")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tenantId": t.ID,
		"methods":  t.PaymentMethods(),
	})
}
