package handler

import (
	"currency-widget/internal/chart"
	"currency-widget/internal/country"
	"currency-widget/internal/model"
	"currency-widget/internal/session"
	"currency-widget/internal/widget"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WidgetHandler exposes one converter view per session id. Widget-level
// errors (bad amount, failed conversion) are part of the returned view and
// answered with 200.
type WidgetHandler struct {
	sessions  *session.Registry
	countries country.Table
	chart     chart.Renderer
	logger    *zap.Logger
}

func NewWidgetHandler(sessions *session.Registry, countries country.Table, renderer chart.Renderer, logger *zap.Logger) *WidgetHandler {
	return &WidgetHandler{
		sessions:  sessions,
		countries: countries,
		chart:     renderer,
		logger:    logger,
	}
}

func (h *WidgetHandler) Create(c *gin.Context) {
	id, w, err := h.sessions.Create()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Error:   "Cannot create widget",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, h.view(id, w))
}

func (h *WidgetHandler) Get(c *gin.Context) {
	w, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.view(c.Param("id"), w))
}

func (h *WidgetHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.notFound(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WidgetHandler) SetAmount(c *gin.Context) {
	w, ok := h.lookup(c)
	if !ok {
		return
	}
	var req model.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	w.SetAmount(req.Amount)
	c.JSON(http.StatusOK, h.view(c.Param("id"), w))
}

func (h *WidgetHandler) SetFrom(c *gin.Context) {
	h.setCountry(c, (*widget.Widget).SetFromCountry)
}

func (h *WidgetHandler) SetTo(c *gin.Context) {
	h.setCountry(c, (*widget.Widget).SetToCountry)
}

func (h *WidgetHandler) setCountry(c *gin.Context, set func(*widget.Widget, string) error) {
	w, ok := h.lookup(c)
	if !ok {
		return
	}
	var req model.CountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := set(w, req.Country); err != nil {
		h.badRequest(c, fmt.Errorf("%w: %q", err, req.Country))
		return
	}
	c.JSON(http.StatusOK, h.view(c.Param("id"), w))
}

func (h *WidgetHandler) Convert(c *gin.Context) {
	w, ok := h.lookup(c)
	if !ok {
		return
	}
	h.respondAction(c, w, w.Convert(c.Request.Context()))
}

func (h *WidgetHandler) Swap(c *gin.Context) {
	w, ok := h.lookup(c)
	if !ok {
		return
	}
	h.respondAction(c, w, w.Swap(c.Request.Context()))
}

func (h *WidgetHandler) ToggleChart(c *gin.Context) {
	w, ok := h.lookup(c)
	if !ok {
		return
	}
	h.respondAction(c, w, w.ToggleChart())
}

func (h *WidgetHandler) respondAction(c *gin.Context, w *widget.Widget, err error) {
	if errors.Is(err, widget.ErrConversionInFlight) {
		c.JSON(http.StatusConflict, model.ErrorResponse{
			Error:   "Conversion in progress",
			Details: err.Error(),
		})
		return
	}
	if err != nil {
		h.logger.Debug("Widget action finished with error",
			zap.String("session_id", c.Param("id")),
			zap.Error(err),
		)
	}
	c.JSON(http.StatusOK, h.view(c.Param("id"), w))
}

func (h *WidgetHandler) lookup(c *gin.Context) (*widget.Widget, bool) {
	w, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.notFound(c, err)
		return nil, false
	}
	return w, true
}

func (h *WidgetHandler) notFound(c *gin.Context, err error) {
	c.JSON(http.StatusNotFound, model.ErrorResponse{
		Error:   "Widget not found",
		Details: err.Error(),
	})
}

func (h *WidgetHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Error:   "Invalid request",
		Details: err.Error(),
	})
}

func (h *WidgetHandler) view(id string, w *widget.Widget) model.WidgetView {
	snap := w.Snapshot()
	state := snap.State

	v := model.WidgetView{
		ID:           id,
		State:        state,
		FromCurrency: snap.FromCurrency,
		ToCurrency:   snap.ToCurrency,
		FromFlag:     h.countries.Flag(state.FromCountry),
		ToFlag:       h.countries.Flag(state.ToCountry),
		ConvertLabel: "Convert",
		ChartLabel:   "Show Rate Trend",
	}
	if state.Loading {
		v.ConvertLabel = "Converting..."
	}
	if state.ShowChart {
		v.ChartLabel = "Hide Rate Trend"
	}
	if state.Result != nil && state.Error == "" {
		v.ResultLine = fmt.Sprintf("%s %s = %s %s",
			strings.TrimSpace(state.Amount), snap.FromCurrency, state.Result.String(), snap.ToCurrency)
	}
	if snap.ChartVisible {
		trend := h.chart.Render(snap.ChartBase, snap.ChartTarget)
		v.Chart = &trend
	}
	return v
}
