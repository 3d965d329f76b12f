package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	revenuedomain "github.com/smallbiznis/agencydesk/internal/revenue/domain"
)

type recordRevenueRequest struct {
	Source          string           `json:"source"`
	Amount          *decimal.Decimal `json:"amount"`
	OccurredAt      *flexibleTime    `json:"occurred_at"`
	PropertyAddress string           `json:"property_address"`
	ClientName      string           `json:"client_name"`
	Notes           string           `json:"notes"`
}

func (s *Server) ListRevenue(c *gin.Context) {
	from, err := parseOptionalTime(c.Query("from"))
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_time", "from must be a date or RFC3339 timestamp"))
		return
	}
	to, err := parseOptionalTime(c.Query("to"))
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_time", "to must be a date or RFC3339 timestamp"))
		return
	}

	ctx := c.Request.Context()
	agentID := c.Param("agent_id")

	records, err := s.revenueSvc.List(ctx, agentID, from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	totals, err := s.revenueSvc.Totals(ctx, agentID, from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records, "totals": totals})
}

func (s *Server) RecordRevenue(c *gin.Context) {
	var req recordRevenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	amount, err := requiredDecimal("amount", req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.revenueSvc.Record(c.Request.Context(), c.Param("agent_id"), revenuedomain.RecordRequest{
		Source:          revenuedomain.Source(strings.TrimSpace(req.Source)),
		Amount:          amount,
		OccurredAt:      req.OccurredAt.ptr(),
		PropertyAddress: req.PropertyAddress,
		ClientName:      req.ClientName,
		Notes:           req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
