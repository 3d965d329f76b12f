package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
)

type createPackRequest struct {
	Name          string                  `json:"name"`
	Year          int                     `json:"year"`
	IsActive      *bool                   `json:"is_active"`
	MonthlyFeeHT  *decimal.Decimal        `json:"monthly_fee_ht"`
	MonthlyFeeTTC *decimal.Decimal        `json:"monthly_fee_ttc"`
	ReferralRate  *decimal.Decimal        `json:"referral_rate"`
	Ranges        []packdomain.RangeInput `json:"ranges"`
	Metadata      map[string]any          `json:"metadata"`
}

type setPackActiveRequest struct {
	Active *bool `json:"active"`
}

type resolveRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type simulateRequest struct {
	CurrentAmount    *decimal.Decimal `json:"current_amount"`
	AdditionalAmount *decimal.Decimal `json:"additional_amount"`
}

func (s *Server) ListCommissionPacks(c *gin.Context) {
	year, err := parseOptionalInt(c.Query("year"))
	if err != nil {
		AbortWithError(c, packdomain.ErrInvalidYear)
		return
	}

	resp, err := s.packSvc.ListActive(c.Request.Context(), year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateCommissionPack(c *gin.Context) {
	var req createPackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.packSvc.Create(c.Request.Context(), packdomain.CreateRequest{
		Name:          strings.TrimSpace(req.Name),
		Year:          req.Year,
		IsActive:      req.IsActive,
		MonthlyFeeHT:  req.MonthlyFeeHT,
		MonthlyFeeTTC: req.MonthlyFeeTTC,
		ReferralRate:  req.ReferralRate,
		Ranges:        req.Ranges,
		Metadata:      req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetCommissionPack(c *gin.Context) {
	resp, err := s.packSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetCommissionPackActive(c *gin.Context) {
	var req setPackActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		AbortWithError(c, newValidationError("active", "required", "active is required"))
		return
	}

	resp, err := s.packSvc.SetActive(c.Request.Context(), strings.TrimSpace(c.Param("id")), *req.Active)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ResolveCommission(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	amount, err := requiredDecimal("amount", req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.commissionSvc.Resolve(c.Request.Context(), strings.TrimSpace(c.Param("id")), amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SimulateCommission(c *gin.Context) {
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	current, err := requiredDecimal("current_amount", req.CurrentAmount)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	additional, err := requiredDecimal("additional_amount", req.AdditionalAmount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.commissionSvc.Simulate(c.Request.Context(), strings.TrimSpace(c.Param("id")), current, additional)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
