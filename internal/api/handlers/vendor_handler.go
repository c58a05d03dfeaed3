package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/easymo/marketplace-core/internal/api/dto"
	"github.com/easymo/marketplace-core/internal/domain/intent"
	"github.com/easymo/marketplace-core/internal/domain/quote"
	"github.com/easymo/marketplace-core/internal/domain/vendor"
	"github.com/easymo/marketplace-core/internal/service/entitlement"
	"github.com/easymo/marketplace-core/internal/service/idempotency"
	apperrors "github.com/easymo/marketplace-core/pkg/errors"
	"github.com/easymo/marketplace-core/pkg/logger"
	"github.com/easymo/marketplace-core/pkg/websocket"
)

// GetEntitlement handles GET /v1/vendors/:id/entitlements
func (h *Handlers) GetEntitlement(c *gin.Context) {
	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vendor ID"})
		return
	}

	tenantID, err := uuid.Parse(c.Query("tenantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing tenantId"})
		return
	}

	ent, err := h.Entitlement.GetEntitlement(c.Request.Context(), tenantID, vendorID)
	if err != nil {
		h.respondEntitlementError(c, err)
		return
	}

	if h.Monitor != nil {
		h.Monitor.RecordFreeQuotaRemaining(float64(ent.FreeRemaining))
	}

	c.JSON(http.StatusOK, dto.EntitlementResponse{
		FreeRemaining: ent.FreeRemaining,
		Subscribed:    ent.Subscribed,
		Allowed:       ent.Allowed,
		WindowStart:   ent.WindowStart,
	})
}

// CreateQuote handles POST /v1/vendors/:id/quotes
func (h *Handlers) CreateQuote(c *gin.Context) {
	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vendor ID"})
		return
	}

	var req dto.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	tenantID, _ := uuid.Parse(req.TenantID)
	intentID, _ := uuid.Parse(req.IntentID)

	// Replays of the same Idempotency-Key return the original quote
	// instead of inserting a second one.
	idemKey := c.GetHeader("Idempotency-Key")
	if idemKey != "" && h.Idempotency != nil {
		existing, fresh, err := h.Idempotency.Reserve(c.Request.Context(), idemKey)
		if err != nil {
			if errors.Is(err, idempotency.ErrRequestInFlight) {
				respondAppError(c, apperrors.ErrDuplicateRequest)
				return
			}
			h.Logger.Error("Idempotency reservation failed", logger.Err(err))
			respondAppError(c, apperrors.Internal("Failed to create quote", err))
			return
		}
		if !fresh {
			h.replayQuote(c, existing)
			return
		}
	}

	q, err := h.Entitlement.CreateQuote(c.Request.Context(), entitlement.CreateQuoteInput{
		TenantID:   tenantID,
		VendorID:   vendorID,
		IntentID:   intentID,
		Price:      req.Price,
		Currency:   req.Currency,
		ETAMinutes: req.ETAMinutes,
	})
	if err != nil {
		if idemKey != "" && h.Idempotency != nil {
			// Free the key so the caller can retry after fixing the request
			if relErr := h.Idempotency.Release(c.Request.Context(), idemKey); relErr != nil {
				h.Logger.Warn("Failed to release idempotency key", logger.Err(relErr))
			}
		}
		h.respondQuoteError(c, err, vendorID)
		return
	}

	if idemKey != "" && h.Idempotency != nil {
		if err := h.Idempotency.Complete(c.Request.Context(), idemKey, q.ID.String()); err != nil {
			h.Logger.Warn("Failed to store idempotency result", logger.Err(err))
		}
	}

	if h.Monitor != nil {
		h.Monitor.RecordQuoteCreated(vendorID.String(), q.Price, q.Currency)
	}

	// Notify connected dashboards and the vendor's own subscribers
	if h.Hub != nil {
		event := websocket.Message{
			Type: "quote_created",
			Data: map[string]interface{}{
				"quote_id":  q.ID.String(),
				"vendor_id": q.VendorID.String(),
				"intent_id": q.IntentID.String(),
				"price":     q.Price,
				"currency":  q.Currency,
				"status":    string(q.Status),
			},
		}
		h.Hub.BroadcastToType("dashboard", event)
		h.Hub.BroadcastToVendor(q.VendorID.String(), event)
	}

	c.JSON(http.StatusCreated, quoteResponse(q))
}

// replayQuote serves an idempotent replay from the stored quote ID
func (h *Handlers) replayQuote(c *gin.Context, quoteID string) {
	var q quote.Quote
	var status string
	var eta sql.NullInt64

	err := h.DB.QueryRowContext(c.Request.Context(), `
		SELECT id, tenant_id, vendor_id, intent_id, price, currency, eta_minutes, status, created_at
		FROM quotes
		WHERE id = $1
	`, quoteID).Scan(
		&q.ID, &q.TenantID, &q.VendorID, &q.IntentID,
		&q.Price, &q.Currency, &eta, &status, &q.CreatedAt,
	)
	if err != nil {
		h.Logger.Error("Failed to load quote for idempotent replay",
			logger.String("quote_id", quoteID),
			logger.Err(err),
		)
		respondAppError(c, apperrors.Internal("Failed to create quote", err))
		return
	}

	q.Status = quote.Status(status)
	if eta.Valid {
		v := int(eta.Int64)
		q.ETAMinutes = &v
	}

	c.JSON(http.StatusOK, quoteResponse(&q))
}

func (h *Handlers) respondEntitlementError(c *gin.Context, err error) {
	if errors.Is(err, vendor.ErrVendorNotFound) {
		respondAppError(c, apperrors.ErrVendorNotFound)
		return
	}
	h.Logger.Error("Failed to compute entitlement", logger.Err(err))
	respondAppError(c, apperrors.Internal("Failed to compute entitlement", err))
}

func (h *Handlers) respondQuoteError(c *gin.Context, err error, vendorID uuid.UUID) {
	switch {
	case errors.Is(err, entitlement.ErrSubscriptionRequired):
		if h.Monitor != nil {
			h.Monitor.RecordEntitlementDenied(vendorID.String())
		}
		respondAppError(c, apperrors.ErrSubscriptionRequired)
	case errors.Is(err, vendor.ErrVendorNotFound):
		respondAppError(c, apperrors.ErrVendorNotFound)
	case errors.Is(err, intent.ErrIntentNotFound):
		respondAppError(c, apperrors.ErrIntentNotFound)
	case errors.Is(err, quote.ErrInvalidPrice):
		respondAppError(c, apperrors.BadRequest(err.Error(), err))
	default:
		h.Logger.Error("Failed to create quote", logger.Err(err))
		respondAppError(c, apperrors.Internal("Failed to create quote", err))
	}
}

func respondAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

func quoteResponse(q *quote.Quote) dto.QuoteResponse {
	return dto.QuoteResponse{
		ID:         q.ID,
		TenantID:   q.TenantID,
		VendorID:   q.VendorID,
		IntentID:   q.IntentID,
		Price:      q.Price,
		Currency:   q.Currency,
		ETAMinutes: q.ETAMinutes,
		Status:     string(q.Status),
		CreatedAt:  q.CreatedAt,
	}
}
