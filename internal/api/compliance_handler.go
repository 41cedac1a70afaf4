package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/banking/aml-compliance/internal/domain"
	"github.com/banking/aml-compliance/internal/engine"
)

type ComplianceHandler struct {
	engine *engine.Engine
}

func NewComplianceHandler(eng *engine.Engine) *ComplianceHandler {
	return &ComplianceHandler{engine: eng}
}

// IdentifyCustomer handles POST /compliance/customers
func (h *ComplianceHandler) IdentifyCustomer(c echo.Context) error {
	var data domain.CustomerData
	if err := c.Bind(&data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid customer payload"})
	}

	result := h.engine.IdentifyCustomer(c.Request().Context(), &data)
	if result.Error != "" {
		return c.JSON(http.StatusInternalServerError, result)
	}
	return c.JSON(http.StatusOK, result)
}

// MonitorTransaction handles POST /compliance/transactions/monitor
func (h *ComplianceHandler) MonitorTransaction(c echo.Context) error {
	var tx domain.Transaction
	if err := c.Bind(&tx); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid transaction payload"})
	}

	result := h.engine.MonitorTransaction(c.Request().Context(), &tx)
	if result.Error == domain.ErrMissingCustomerID.Error() {
		return c.JSON(http.StatusBadRequest, result)
	}
	if result.Error != "" {
		return c.JSON(http.StatusInternalServerError, result)
	}
	return c.JSON(http.StatusOK, result)
}

// EvaluateCTR handles POST /compliance/transactions/ctr
func (h *ComplianceHandler) EvaluateCTR(c echo.Context) error {
	var tx domain.Transaction
	if err := c.Bind(&tx); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid transaction payload"})
	}

	result := h.engine.EvaluateCTR(c.Request().Context(), &tx)
	if result.Error != "" {
		return c.JSON(http.StatusInternalServerError, result)
	}
	return c.JSON(http.StatusOK, result)
}

// ScreenEntity handles POST /compliance/screenings
func (h *ComplianceHandler) ScreenEntity(c echo.Context) error {
	var subject domain.ScreeningSubject
	if err := c.Bind(&subject); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid screening payload"})
	}

	result := h.engine.ScreenEntity(c.Request().Context(), &subject)
	if result.Error != "" {
		return c.JSON(http.StatusInternalServerError, result)
	}
	return c.JSON(http.StatusOK, result)
}

// GenerateReport handles GET /compliance/reports?start=...&end=...
// Dates accept RFC 3339 timestamps or plain YYYY-MM-DD dates.
func (h *ComplianceHandler) GenerateReport(c echo.Context) error {
	start, err := parseDate(c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid or missing 'start' parameter"})
	}
	end, err := parseDate(c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid or missing 'end' parameter"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "'end' precedes 'start'"})
	}

	report := h.engine.GenerateComplianceReport(c.Request().Context(), start, end)
	if report.Error != "" {
		return c.JSON(http.StatusInternalServerError, report)
	}
	return c.JSON(http.StatusOK, report)
}

// SearchSARs handles GET /compliance/sars/search?q=...&from=0&size=20
func (h *ComplianceHandler) SearchSARs(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing 'q' parameter"})
	}

	from := 0
	if v := c.QueryParam("from"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid 'from' parameter"})
		}
		from = n
	}
	size := 20
	if v := c.QueryParam("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid 'size' parameter"})
		}
		size = n
	}

	results, total, err := h.engine.SearchSARs(c.Request().Context(), query, from, size)
	if errors.Is(err, domain.ErrSearchUnavailable) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total":   total,
		"from":    from,
		"size":    size,
		"results": results,
	})
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// RegisterRoutes registers the compliance API routes
func (h *ComplianceHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/customers", h.IdentifyCustomer)
	g.POST("/transactions/monitor", h.MonitorTransaction)
	g.POST("/transactions/ctr", h.EvaluateCTR)
	g.POST("/screenings", h.ScreenEntity)
	g.GET("/sars/search", h.SearchSARs)
	g.GET("/reports", h.GenerateReport)
}
