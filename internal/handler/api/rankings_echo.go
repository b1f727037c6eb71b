package api

import (
	"errors"

	models "RankPulse/internal/domain/models"
	"RankPulse/internal/usecase"
	xhttp "RankPulse/pkg/http"
	xlogger "RankPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RankingsHandler serves the ranking, pattern and alert query endpoints.
type RankingsHandler struct {
	logger  *xlogger.Logger
	queries *usecase.QueryService
}

func NewRankingsHandler(logger *xlogger.Logger, queries *usecase.QueryService) *RankingsHandler {
	return &RankingsHandler{logger: logger, queries: queries}
}

func (h *RankingsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/rankings/price-change", h.PriceRanking)
	g.GET("/rankings/volatility", h.VolatilityRanking)
	g.GET("/highlow", h.HighLow)
	g.GET("/limits", h.Limits)
	g.GET("/streaks", h.Streaks)
	g.GET("/gaps", h.Gaps)
	g.GET("/alerts", h.Alerts)
	g.GET("/summary", h.Summary)
	g.GET("/quote/:code", h.Quote)
}

// respond maps usecase errors onto the response envelope. ErrNoCycle means
// the server is up but has not committed a cycle yet.
func respond(c echo.Context, data interface{}, err error) error {
	if err != nil {
		if errors.Is(err, usecase.ErrNoCycle) {
			return xhttp.AppErrorResponse(c, xhttp.NewAppError(
				"ERR_NOT_READY", "", "no market data collected yet", 503))
		}
		if errors.Is(err, usecase.ErrUnknownCode) {
			return xhttp.AppErrorResponse(c, xhttp.NewAppError(
				"ERR_UNKNOWN_CODE", "", "instrument is not in the scanned universe", 404))
		}
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, data)
}

func (h *RankingsHandler) PriceRanking(c echo.Context) error {
	req := &models.PriceRankingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.PriceRanking(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("price ranking query error", xlogger.Error(err))
	}
	return respond(c, res, err)
}

func (h *RankingsHandler) VolatilityRanking(c echo.Context) error {
	req := &models.VolatilityRankingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.VolatilityRanking(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("volatility ranking query error", xlogger.Error(err))
	}
	return respond(c, res, err)
}

func (h *RankingsHandler) HighLow(c echo.Context) error {
	req := &models.HighLowRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.HighLow(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("highlow query error", xlogger.Error(err))
	}
	return respond(c, res, err)
}

func (h *RankingsHandler) Limits(c echo.Context) error {
	req := &models.LimitStocksRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.Limits(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("limits query error", xlogger.Error(err))
	}
	return respond(c, res, err)
}

func (h *RankingsHandler) Streaks(c echo.Context) error {
	req := &models.StreakRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.Streaks(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("streaks query error", xlogger.Error(err))
	}
	return respond(c, res, err)
}

func (h *RankingsHandler) Gaps(c echo.Context) error {
	req := &models.GapRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.Gaps(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("gaps query error", xlogger.Error(err))
	}
	return respond(c, res, err)
}

func (h *RankingsHandler) Summary(c echo.Context) error {
	req := &models.MarketSummaryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.Summary(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("summary query error", xlogger.Error(err))
	}
	return respond(c, res, err)
}

func (h *RankingsHandler) Quote(c echo.Context) error {
	code := c.Param("code")
	if len(code) != 6 {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_LEN",
			Field:   "code",
			Message: "code must be a 6-character instrument code",
		}})
	}

	res, err := h.queries.Quote(c.Request().Context(), code)
	if err != nil && !errors.Is(err, usecase.ErrUnknownCode) {
		h.logger.Error("quote query error", xlogger.Error(err))
	}
	return respond(c, res, err)
}

func (h *RankingsHandler) Alerts(c echo.Context) error {
	req := &models.AlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.Alerts(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("alerts query error", xlogger.Error(err))
	}
	return respond(c, res, err)
}
