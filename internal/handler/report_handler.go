package handler

import (
	"net/http"

	"github.com/tjappo/simple-books/internal/middleware"
	"github.com/tjappo/simple-books/internal/service"
	"github.com/tjappo/simple-books/pkg/pagination"
	"github.com/tjappo/simple-books/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	auditService  service.AuditService
}

func NewReportHandler(reportService service.ReportService, auditService service.AuditService) *ReportHandler {
	return &ReportHandler{reportService: reportService, auditService: auditService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports", middleware.RequireAuth())
	{
		reports.GET("/profit-loss", h.ProfitLoss)
		reports.GET("/balance-sheet", h.BalanceSheet)
		reports.GET("/audit-log", h.AuditLog)
	}
}

// ProfitLoss returns the profit and loss statement over a date range
// @Summary      Profit and loss report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query  string  true  "Range start (YYYY-MM-DD)"
// @Param        end_date    query  string  true  "Range end (YYYY-MM-DD)"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/reports/profit-loss [get]
func (h *ReportHandler) ProfitLoss(c *gin.Context) {
	report, err := h.reportService.ProfitLoss(c.Request.Context(), middleware.UserID(c),
		c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// BalanceSheet returns the balance sheet snapshot as of a date
// @Summary      Balance sheet report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        as_of  query  string  false  "Reference date (YYYY-MM-DD, default today)"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/reports/balance-sheet [get]
func (h *ReportHandler) BalanceSheet(c *gin.Context) {
	report, err := h.reportService.BalanceSheet(c.Request.Context(), middleware.UserID(c), c.Query("as_of"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// AuditLog returns the paginated audit trail
// @Summary      Audit log
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default: 1)"
// @Param        limit  query  int  false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/reports/audit-log [get]
func (h *ReportHandler) AuditLog(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.List(c.Request.Context(), middleware.UserID(c), params.Page, params.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, params.Page, params.Limit, total))
}
