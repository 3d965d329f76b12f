package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	agentdomain "github.com/smallbiznis/agencydesk/internal/agentcommission/domain"
	"github.com/smallbiznis/agencydesk/internal/statement"
)

type assignCommissionRequest struct {
	PackID    string        `json:"pack_id"`
	StartDate *flexibleTime `json:"start_date"`
	EndDate   *flexibleTime `json:"end_date"`
}

type simulateAgentRequest struct {
	AdditionalAmount *decimal.Decimal `json:"additional_amount"`
}

func (s *Server) GetAgentCommission(c *gin.Context) {
	resp, err := s.agentCommissionSvc.Get(c.Request.Context(), c.Param("agent_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AssignAgentCommission(c *gin.Context) {
	var req assignCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.agentCommissionSvc.Assign(c.Request.Context(), c.Param("agent_id"), agentdomain.AssignRequest{
		PackID:    strings.TrimSpace(req.PackID),
		StartDate: req.StartDate.ptr(),
		EndDate:   req.EndDate.ptr(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecomputeAgentCommission(c *gin.Context) {
	resp, err := s.agentCommissionSvc.Recompute(c.Request.Context(), c.Param("agent_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SimulateAgentCommission(c *gin.Context) {
	var req simulateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	additional, err := requiredDecimal("additional_amount", req.AdditionalAmount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.agentCommissionSvc.Simulate(c.Request.Context(), c.Param("agent_id"), additional)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DownloadCommissionStatement(c *gin.Context) {
	doc, err := s.statementSvc.Generate(c.Request.Context(), c.Param("agent_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Header("Content-Length", strconv.Itoa(len(doc.Content)))
	c.Data(http.StatusOK, statement.ContentType, doc.Content)
}
