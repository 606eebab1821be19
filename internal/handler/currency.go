package handler

import (
	"currency-widget/internal/country"
	"currency-widget/internal/metrics"
	"currency-widget/internal/model"
	"currency-widget/internal/service"
	"currency-widget/internal/widget"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrUnsupportedCurrency rejects codes no country in the table uses.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// CurrencyHandler serves the stateless endpoints: the country list and a
// one-shot conversion for clients that keep their own view state.
type CurrencyHandler struct {
	currencyService service.CurrencyServiceInterface
	countries       country.Table
	metrics         *metrics.ConverterMetrics
	logger          *zap.Logger
}

func NewCurrencyHandler(currencyService service.CurrencyServiceInterface, countries country.Table, m *metrics.ConverterMetrics, logger *zap.Logger) *CurrencyHandler {
	return &CurrencyHandler{
		currencyService: currencyService,
		countries:       countries,
		metrics:         m,
		logger:          logger,
	}
}

func (h *CurrencyHandler) Countries(c *gin.Context) {
	names := h.countries.Names()
	out := make([]model.CountryResponse, 0, len(names))
	for _, name := range names {
		code, _ := h.countries.Currency(name)
		out = append(out, model.CountryResponse{
			Name:     name,
			Currency: code,
			Flag:     h.countries.Flag(name),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *CurrencyHandler) Convert(c *gin.Context) {
	var req model.ConvertRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "Invalid request",
			Details: err.Error(),
		})
		return
	}

	from := strings.ToUpper(req.From)
	to := strings.ToUpper(req.To)
	for _, code := range []string{from, to} {
		if !h.countries.SupportsCurrency(code) {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Error:   "Invalid request",
				Details: fmt.Sprintf("%v: %q", ErrUnsupportedCurrency, code),
			})
			return
		}
	}

	amount, err := widget.ParseAmount(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "Invalid request",
			Message: widget.Message(err),
			Details: err.Error(),
		})
		return
	}

	if from == to {
		h.metrics.SameCurrencyTotal.Inc()
		c.JSON(http.StatusOK, model.ConvertResponse{
			From:   from,
			To:     to,
			Amount: amount,
			Result: amount,
		})
		return
	}

	conv, err := h.currencyService.Convert(c.Request.Context(), from, to, amount)
	if err != nil {
		h.logger.Debug("Stateless conversion failed",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, model.ErrorResponse{
			Error:   "Conversion failed",
			Message: widget.Message(err),
			Details: err.Error(),
		})
		return
	}
	rate := conv.Rate
	c.JSON(http.StatusOK, model.ConvertResponse{
		From:   from,
		To:     to,
		Amount: amount,
		Rate:   &rate,
		Result: conv.Result,
	})
}
