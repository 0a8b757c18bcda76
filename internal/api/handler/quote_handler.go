package handler

import (
	"carrent/internal/constants"
	"carrent/internal/service"
	"carrent/pkg/logger"

	"github.com/gin-gonic/gin"
)

// QuoteHandler 报价处理器
type QuoteHandler struct {
	pricingService *service.PricingService
	logger         *logger.Logger
}

// NewQuoteHandler 创建报价处理器实例
func NewQuoteHandler(pricingService *service.PricingService, logger *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		pricingService: pricingService,
		logger:         logger,
	}
}

// SearchQuotes 检索可用车型报价
// @Summary 报价检索
// @Description 按取车时间和位置检索可用车型，生成限时报价
// @Tags 报价
// @Router /api/v1/quotes/search [get]
func (h *QuoteHandler) SearchQuotes(c *gin.Context) {
	var req service.SearchQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respond(c, 400, constants.ErrInvalidParams, nil)
		return
	}
	quotes, err := h.pricingService.SearchQuotes(c.Request.Context(), tenantID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessGet, quotes)
}

// GetQuoteDetail 获取报价详情
func (h *QuoteHandler) GetQuoteDetail(c *gin.Context) {
	quoteID := c.Param("id")
	if quoteID == "" {
		respond(c, 400, constants.ErrInvalidParams, nil)
		return
	}
	quote, err := h.pricingService.GetQuoteDetail(c.Request.Context(), tenantID(c), quoteID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, 200, constants.SuccessGet, quote)
}
