package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/orderdesk/backoffice/internal/domain/errors"
	"github.com/orderdesk/backoffice/internal/domain/model"
	"github.com/orderdesk/backoffice/internal/server/http/dto"
)

const dateLayout = "2006-01-02"

// SettlementHandler manages settlement endpoints.
type SettlementHandler struct {
	facade SettlementFacade
}

// NewSettlementHandler constructs SettlementHandler.
func NewSettlementHandler(facade SettlementFacade) *SettlementHandler {
	return &SettlementHandler{facade: facade}
}

// Compute handles POST /api/settlements/compute.
func (h *SettlementHandler) Compute(c *gin.Context) {
	var req dto.SettlementComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	start, err := time.Parse(dateLayout, req.PeriodStart)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	end, err := time.Parse(dateLayout, req.PeriodEnd)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	counterparty := model.CounterpartyRef{
		Kind: model.CounterpartyKind(req.CounterpartyKind),
		Key:  req.CounterpartyKey,
	}
	opts := model.SettlementOptions{PerOrderShippingFee: req.PerOrderShippingFee}

	summary, err := h.facade.ComputeSettlement(c.Request.Context(), req.OwnerCompany, counterparty, start, end, opts)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidPeriod), errors.Is(err, domainErrors.ErrInvalidInput):
			c.Status(http.StatusUnprocessableEntity)
		case errors.Is(err, domainErrors.ErrUnknownCounterparty):
			c.Status(http.StatusNotFound)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, toSettlementResponse(summary))
}

// Get handles GET /api/settlements.
func (h *SettlementHandler) Get(c *gin.Context) {
	start, err := time.Parse(dateLayout, c.Query("periodStart"))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	end, err := time.Parse(dateLayout, c.Query("periodEnd"))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	counterparty := model.CounterpartyRef{
		Kind: model.CounterpartyKind(c.Query("counterpartyKind")),
		Key:  c.Query("counterpartyKey"),
	}

	summary, err := h.facade.Settlement(c.Request.Context(), c.Query("ownerCompany"), counterparty, start, end)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, toSettlementResponse(summary))
}

func toSettlementResponse(summary *model.SettlementSummary) dto.SettlementResponse {
	lines := make([]dto.SettlementLineResponse, 0, len(summary.Lines))
	for _, l := range summary.Lines {
		lines = append(lines, dto.SettlementLineResponse{
			MappingCode:    l.MappingCode,
			ProductName:    l.ProductName,
			BillType:       string(l.BillType),
			OrderQuantity:  l.OrderQuantity,
			OrderAmount:    l.OrderAmount,
			CancelQuantity: l.CancelQuantity,
			CancelAmount:   l.CancelAmount,
		})
	}
	return dto.SettlementResponse{
		OwnerCompany:        summary.OwnerCompany,
		CounterpartyKind:    string(summary.Counterparty.Kind),
		CounterpartyKey:     summary.Counterparty.Key,
		PeriodStart:         summary.PeriodStart.Format(dateLayout),
		PeriodEnd:           summary.PeriodEnd.Format(dateLayout),
		PerOrderShippingFee: summary.Options.PerOrderShippingFee,
		OrderQuantity:       summary.OrderQuantity,
		OrderAmount:         summary.OrderAmount,
		CancelQuantity:      summary.CancelQuantity,
		CancelAmount:        summary.CancelAmount,
		NetAmount:           summary.NetAmount,
		TaxableAmount:       summary.TaxableAmount,
		TaxFreeAmount:       summary.TaxFreeAmount,
		TotalAmount:         summary.TotalAmount,
		Lines:               lines,
	}
}
