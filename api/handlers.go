package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dbxquery/dbxquery/core"
	"github.com/dbxquery/dbxquery/core/format"
	"github.com/dbxquery/dbxquery/querybuild"
)

const (
	ServiceName = "dbxquery"

	// HeaderCallID carries the id of the call that served the request.
	HeaderCallID = "X-Call-ID"

	csvFilename = "query_results.csv"
)

var _ Routes = (*Handler)(nil)

type Handler struct {
	conn          *core.Connection
	warehouseType string

	registry *prometheus.Registry
	metrics  *metrics
	logger   *zap.Logger
}

// New returns the REST handler for conn. warehouseType is only reported by
// the health check.
func New(conn *core.Connection, warehouseType string, logger *zap.Logger) *Handler {
	reg := prometheus.NewRegistry()

	return &Handler{
		conn:          conn,
		warehouseType: warehouseType,
		registry:      reg,
		metrics:       newMetrics(reg, conn),
		logger:        logger.Named("api"),
	}
}

func (h *Handler) Register(e *echo.Echo) {
	// routes are served both under /api and at the root
	for _, g := range []*echo.Group{e.Group("/api"), e.Group("")} {
		g.GET("/health", h.Health)
		g.GET("/test-connection", h.TestConnection)
		g.POST("/query", h.Query)
		g.GET("/schema/:table", h.Schema)
		g.GET("/preview/:table", h.Preview)
		g.POST("/timeseries", h.Timeseries)
		g.POST("/period-over-period", h.PeriodOverPeriod)
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))
}

// Health reports liveness and the configured identity mode. It does not
// contact the warehouse.
func (h *Handler) Health(c echo.Context) error {
	resp := HealthResponse{
		Status:        StatusOK,
		Service:       ServiceName,
		WarehouseType: h.warehouseType,
		AuthMode:      h.conn.AuthMode(),
	}
	if resp.AuthMode == core.AuthModeProfile {
		resp.Profile = h.conn.Profile()
	}

	return c.JSON(http.StatusOK, resp)
}

// TestConnection opens a session and runs the ping statement.
func (h *Handler) TestConnection(c echo.Context) error {
	if err := h.conn.Ping(c.Request().Context()); err != nil {
		h.logger.Error("connection test failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err.Error()))
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Status:  StatusSuccess,
		Message: "Database connection successful",
	})
}

// Query runs the posted statement verbatim. With ?format=csv the result is
// returned as a CSV attachment.
func (h *Handler) Query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MessageQueryRequired)
	}
	if err := c.Validate(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, MessageQueryRequired)
	}

	call, err := h.conn.Execute(c.Request().Context(), req.Query)
	if err := h.finish(c, "query", call, err); err != nil {
		return err
	}

	if c.QueryParam("format") == "csv" {
		return h.writeCSV(c, call.GetResult())
	}

	return c.JSON(http.StatusOK, newQueryResponse(call.GetResult(), ""))
}

// Schema describes a table.
func (h *Handler) Schema(c echo.Context) error {
	table := c.Param("table")

	call, err := h.conn.Describe(c.Request().Context(), table)
	if err := h.finish(c, "schema", call, err); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SchemaResponse{
		Status: StatusSuccess,
		Table:  table,
		Schema: call.GetResult().Records(),
	})
}

// Preview returns the first rows of a table, ?limit defaults to 100.
func (h *Handler) Preview(c echo.Context) error {
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
	}

	query, err := querybuild.Preview(c.Param("table"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return h.generated(c, "preview", query)
}

func (h *Handler) Timeseries(c echo.Context) error {
	var req querybuild.TimeseriesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid timeseries request")
	}

	query, err := querybuild.Timeseries(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return h.generated(c, "timeseries", query)
}

func (h *Handler) PeriodOverPeriod(c echo.Context) error {
	var req querybuild.PeriodOverPeriodRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid period over period request")
	}

	query, err := querybuild.PeriodOverPeriod(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return h.generated(c, "period_over_period", query)
}

// generated runs a server built statement and echoes it back in the response.
func (h *Handler) generated(c echo.Context, route, query string) error {
	call, err := h.conn.Execute(c.Request().Context(), query)
	if err := h.finish(c, route, call, err); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newQueryResponse(call.GetResult(), query))
}

// finish records the call and passes err through for the error handler.
func (h *Handler) finish(c echo.Context, route string, call *core.Call, err error) error {
	c.Response().Header().Set(HeaderCallID, string(call.GetID()))
	h.metrics.observe(route, call)

	fields := []zap.Field{
		zap.String("call_id", string(call.GetID())),
		zap.String("route", route),
		zap.String("state", call.GetState().String()),
		zap.Duration("took", call.GetTimeTaken()),
	}

	if err != nil {
		h.logger.Error("call failed", append(fields, zap.Error(err))...)
		return err
	}

	h.logger.Debug("call succeeded", append(fields, zap.Int("rows", call.GetResult().Len()))...)
	return nil
}

func (h *Handler) writeCSV(c echo.Context, result *core.Result) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+csvFilename)
	c.Response().WriteHeader(http.StatusOK)

	return result.Format(format.NewCSV(), c.Response())
}
