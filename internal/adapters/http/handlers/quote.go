package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/domain"
)

// exportFilename is the attachment name of GET /quotes/export.
const exportFilename = "quotes.json"

// QuoteService is what the quote endpoints need from the application layer.
type QuoteService interface {
	List(ctx context.Context, category string) ([]domain.Quote, string, error)
	Get(ctx context.Context, id int64) (domain.Quote, error)
	Add(ctx context.Context, text, category string) (domain.Quote, error)
	Import(ctx context.Context, payload []byte, policy string) (app.ImportResult, error)
	Export(ctx context.Context) ([]byte, error)
	Random(ctx context.Context, category string) (domain.Quote, error)
	LastViewed(ctx context.Context) (domain.Quote, error)
	Categories(ctx context.Context) []string
	SelectedCategory(ctx context.Context) (string, error)
	SetSelectedCategory(ctx context.Context, category string) (string, error)
}

// QuoteHandler handles the quote, category and preference endpoints.
type QuoteHandler struct {
	service QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// ListQuotes handles GET /api/v1/quotes.
// Without a category the persisted selection applies. Results are paged
// with an opaque cursor.
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.RespondBindError(c, err)
		return
	}

	cursor, err := req.DecodeCursor()
	if err != nil && !errors.Is(err, dto.ErrNoCursor) {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	quotes, category, err := h.service.List(c.Request.Context(), req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	page, err := dto.Paginate(dto.NewQuoteResponses(quotes), func(q dto.QuoteResponse) int64 { return q.ID },
		category, cursor, req.GetLimit())
	if err != nil {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.QuoteListResponse{Category: category, PaginatedResponse: page})
}

// CreateQuote handles POST /api/v1/quotes.
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondBindError(c, err)
		return
	}

	quote, err := h.service.Add(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Location", c.FullPath()+"/"+quote.IDString())
	c.JSON(http.StatusCreated, dto.NewQuoteResponse(quote))
}

// GetQuote handles GET /api/v1/quotes/:id.
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, "quote id must be an integer")
		return
	}

	quote, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// RandomQuote handles GET /api/v1/quotes/random. The pick is remembered for
// GET /quotes/last.
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	quote, err := h.service.Random(c.Request.Context(), c.Query("category"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// LastQuote handles GET /api/v1/quotes/last.
func (h *QuoteHandler) LastQuote(c *gin.Context) {
	quote, err := h.service.LastViewed(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// ExportQuotes handles GET /api/v1/quotes/export as a file download.
func (h *QuoteHandler) ExportQuotes(c *gin.Context) {
	data, err := h.service.Export(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// ImportQuotes handles POST /api/v1/quotes/import. The raw body is the JSON
// array; ?policy= picks the duplicate id policy.
func (h *QuoteHandler) ImportQuotes(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, "reading request body: "+err.Error())
		return
	}

	result, err := h.service.Import(c.Request.Context(), payload, c.Query("policy"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListCategories handles GET /api/v1/categories.
func (h *QuoteHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CategoriesResponse{Categories: h.service.Categories(c.Request.Context())})
}

// GetCategoryPreference handles GET /api/v1/preferences/category.
func (h *QuoteHandler) GetCategoryPreference(c *gin.Context) {
	category, err := h.service.SelectedCategory(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CategoryPreference{Category: category})
}

// SetCategoryPreference handles PUT /api/v1/preferences/category.
func (h *QuoteHandler) SetCategoryPreference(c *gin.Context) {
	var req dto.CategoryPreference
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondBindError(c, err)
		return
	}

	category, err := h.service.SetSelectedCategory(c.Request.Context(), req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CategoryPreference{Category: category})
}

// RegisterReadRoutes registers the endpoints that never change state.
// /quotes/random and /quotes/last write only session state.
func (h *QuoteHandler) RegisterReadRoutes(rg *gin.RouterGroup) {
	rg.GET("/quotes", h.ListQuotes)
	rg.GET("/quotes/random", h.RandomQuote)
	rg.GET("/quotes/last", h.LastQuote)
	rg.GET("/quotes/export", h.ExportQuotes)
	rg.GET("/quotes/:id", h.GetQuote)
	rg.GET("/categories", h.ListCategories)
	rg.GET("/preferences/category", h.GetCategoryPreference)
}

// RegisterWriteRoutes registers the endpoints that change one quote or the
// persisted preference. The caller guards rg with auth as configured.
func (h *QuoteHandler) RegisterWriteRoutes(rg *gin.RouterGroup) {
	rg.POST("/quotes", h.CreateQuote)
	rg.PUT("/preferences/category", h.SetCategoryPreference)
}

// RegisterAdminRoutes registers bulk import.
func (h *QuoteHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/quotes/import", h.ImportQuotes)
}
