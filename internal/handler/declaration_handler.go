package handler

import (
	"net/http"

	"github.com/tjappo/simple-books/internal/middleware"
	"github.com/tjappo/simple-books/internal/pdf"
	"github.com/tjappo/simple-books/internal/service"
	"github.com/tjappo/simple-books/pkg/response"

	"github.com/gin-gonic/gin"
)

type DeclarationHandler struct {
	declarationService service.DeclarationService
	userService        service.UserService
}

func NewDeclarationHandler(declarationService service.DeclarationService, userService service.UserService) *DeclarationHandler {
	return &DeclarationHandler{declarationService: declarationService, userService: userService}
}

func (h *DeclarationHandler) RegisterRoutes(router *gin.RouterGroup) {
	declarations := router.Group("/api/declarations", middleware.RequireAuth())
	{
		declarations.GET("", h.ListDeclarations)
		declarations.GET("/periods", h.GetAvailablePeriods)
		declarations.POST("/calculate", h.Calculate)
		declarations.POST("/draft", h.SaveDraft)
		declarations.POST("/finalize", h.Finalize)
		declarations.GET("/period/:period", h.GetByPeriod)
		declarations.GET("/:id", h.GetDeclaration)
		declarations.PATCH("/:id", h.UpdateDeclaration)
		declarations.GET("/:id/pdf", h.DownloadDeclarationPDF)
		declarations.GET("/:id/boxes/:box/invoices", h.GetInvoicesForBox)
	}
}

// ListDeclarations returns all declarations, newest period first
// @Summary      List declarations
// @Tags         declarations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/declarations [get]
func (h *DeclarationHandler) ListDeclarations(c *gin.Context) {
	declarations, err := h.declarationService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, declarations))
}

// GetAvailablePeriods lists selectable declaration periods
// @Summary      List available periods
// @Tags         declarations
// @Security     BearerAuth
// @Produce      json
// @Param        period_type  query  string  true  "MONTHLY or QUARTERLY"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/declarations/periods [get]
func (h *DeclarationHandler) GetAvailablePeriods(c *gin.Context) {
	periodType := c.DefaultQuery("period_type", "QUARTERLY")

	periods, err := h.declarationService.GetAvailablePeriods(c.Request.Context(), middleware.UserID(c), periodType)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, periods))
}

// Calculate previews the declaration for a period without persisting anything
// @Summary      Calculate declaration preview
// @Tags         declarations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CalculateDeclarationRequest  true  "Period payload"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/declarations/calculate [post]
func (h *DeclarationHandler) Calculate(c *gin.Context) {
	var req service.CalculateDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	preview, err := h.declarationService.Calculate(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, preview))
}

// SaveDraft recalculates and persists a DRAFT declaration for a period
// @Summary      Save declaration draft
// @Tags         declarations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CalculateDeclarationRequest  true  "Period payload"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/declarations/draft [post]
func (h *DeclarationHandler) SaveDraft(c *gin.Context) {
	var req service.CalculateDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	declaration, err := h.declarationService.SaveDraft(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, declaration))
}

// Finalize atomically finalizes the declaration and attributes its invoices
// @Summary      Finalize declaration
// @Tags         declarations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CalculateDeclarationRequest  true  "Period payload"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/declarations/finalize [post]
func (h *DeclarationHandler) Finalize(c *gin.Context) {
	var req service.CalculateDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	declaration, err := h.declarationService.Finalize(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, declaration))
}

// GetByPeriod returns the declaration covering a period
// @Summary      Get declaration by period
// @Tags         declarations
// @Security     BearerAuth
// @Produce      json
// @Param        period  path  string  true  "Period, e.g. 2025-Q1 or 2025-01"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/declarations/period/{period} [get]
func (h *DeclarationHandler) GetByPeriod(c *gin.Context) {
	declaration, err := h.declarationService.GetByPeriod(c.Request.Context(), middleware.UserID(c), c.Param("period"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, declaration))
}

// GetDeclaration returns one declaration by id
// @Summary      Get declaration
// @Tags         declarations
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Declaration ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/declarations/{id} [get]
func (h *DeclarationHandler) GetDeclaration(c *gin.Context) {
	declaration, err := h.declarationService.GetByID(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, declaration))
}

// UpdateDeclaration edits a DRAFT declaration (notes, manual box overrides)
// @Summary      Update declaration
// @Tags         declarations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                            true  "Declaration ID"
// @Param        payload  body  service.UpdateDeclarationRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/declarations/{id} [patch]
func (h *DeclarationHandler) UpdateDeclaration(c *gin.Context) {
	var req service.UpdateDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	declaration, err := h.declarationService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, declaration))
}

// DownloadDeclarationPDF renders the declaration form as a PDF document
// @Summary      Download declaration PDF
// @Tags         declarations
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        id  path  string  true  "Declaration ID"
// @Success      200  {file}  binary
// @Failure      404  {object}  response.Response
// @Router       /api/declarations/{id}/pdf [get]
func (h *DeclarationHandler) DownloadDeclarationPDF(c *gin.Context) {
	userID := middleware.UserID(c)

	declaration, err := h.declarationService.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	company, err := h.userService.GetCompany(c.Request.Context(), userID)
	if err != nil {
		company = nil
	}

	doc, err := pdf.RenderDeclaration(declaration, company)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="btw-aangifte-`+declaration.Period+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}

// GetInvoicesForBox returns the invoice lines that produced one box value
// @Summary      Get invoices behind a box
// @Tags         declarations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Declaration ID or period"
// @Param        box  path  string  true  "Box id, e.g. 1a, 4b"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/declarations/{id}/boxes/{box}/invoices [get]
func (h *DeclarationHandler) GetInvoicesForBox(c *gin.Context) {
	invoices, err := h.declarationService.GetInvoicesForBox(c.Request.Context(), middleware.UserID(c),
		c.Param("id"), c.Param("box"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoices))
}
