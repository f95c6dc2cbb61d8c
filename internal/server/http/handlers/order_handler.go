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

// OrderHandler exposes ingested order rows.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Ingest handles POST /api/orders.
func (h *OrderHandler) Ingest(c *gin.Context) {
	var req dto.OrderIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	payloads := make([]model.RowPayload, 0, len(req.Rows))
	for _, row := range req.Rows {
		payloads = append(payloads, model.RowPayload(row))
	}

	ids, err := h.facade.IngestRows(c.Request.Context(), req.OwnerCompany, payloads)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidInput) {
			c.Status(http.StatusUnprocessableEntity)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, dto.OrderIngestResponse{RowIDs: ids})
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
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
	excludeCancelled := c.Query("excludeCancelled") == "true"

	rows, err := h.facade.Rows(c.Request.Context(), c.Query("ownerCompany"), counterparty, start, end, excludeCancelled)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(rows) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.OrderRowResponse, 0, len(rows))
	for _, row := range rows {
		response = append(response, dto.OrderRowResponse{
			ID:           row.ID,
			VendorName:   row.VendorName,
			MappingCode:  row.MappingCode,
			Quantity:     row.Quantity,
			Status:       row.Status,
			InternalCode: row.InternalCode,
			IngestedAt:   row.IngestedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}
