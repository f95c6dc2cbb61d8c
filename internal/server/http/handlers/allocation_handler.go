package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/orderdesk/backoffice/internal/domain/errors"
	"github.com/orderdesk/backoffice/internal/server/http/dto"
)

// AllocationHandler manages internal code allocation endpoints.
type AllocationHandler struct {
	facade AllocationFacade
}

// NewAllocationHandler constructs AllocationHandler.
func NewAllocationHandler(facade AllocationFacade) *AllocationHandler {
	return &AllocationHandler{facade: facade}
}

// Allocate handles POST /api/allocations.
func (h *AllocationHandler) Allocate(c *gin.Context) {
	var req dto.AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if len(req.RowIDs) > 0 && len(req.RowIDs) != len(req.VendorNames) {
		c.Status(http.StatusBadRequest)
		return
	}

	codes, err := h.facade.AllocateCodes(c.Request.Context(), req.OwnerCompany, req.VendorNames)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidInput):
			c.Status(http.StatusUnprocessableEntity)
		case errors.Is(err, domainErrors.ErrCodeCollision), errors.Is(err, domainErrors.ErrNamespaceExhausted):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	if len(req.RowIDs) > 0 {
		assignments := make(map[int64]string, len(req.RowIDs))
		for i, id := range req.RowIDs {
			assignments[id] = codes[i]
		}
		if err := h.facade.AssignCodes(c.Request.Context(), req.OwnerCompany, assignments); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
	}

	c.JSON(http.StatusCreated, dto.AllocationResponse{Codes: codes})
}
