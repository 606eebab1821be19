package service

import (
	"context"
	"currency-widget/internal/config"
	"currency-widget/internal/metrics"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrConversionFailed means the provider answered but did not report success
	// (bad key, unsupported code, quota reached).
	ErrConversionFailed = errors.New("conversion failed")
	// ErrUnavailable means no usable answer came back: transport error,
	// cancelled request or an unreadable body.
	ErrUnavailable = errors.New("exchange rate provider unavailable")
)

// CurrencyServiceInterface is what the widget and the handlers depend on.
type CurrencyServiceInterface interface {
	Convert(ctx context.Context, from, to string, amount decimal.Decimal) (*Conversion, error)
}

type Conversion struct {
	From   string
	To     string
	Amount decimal.Decimal
	Rate   decimal.Decimal
	Result decimal.Decimal
}

type CurrencyService struct {
	config     config.APIConfig
	logger     *zap.Logger
	metrics    *metrics.ConverterMetrics
	httpClient *http.Client
}

func NewCurrencyService(cfg config.APIConfig, m *metrics.ConverterMetrics, logger *zap.Logger) *CurrencyService {
	return &CurrencyService{
		config:  cfg,
		logger:  logger,
		metrics: m,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// pairResponse is the body of GET /v6/{key}/pair/{from}/{to}/{amount}.
type pairResponse struct {
	Result           string          `json:"result"`
	ErrorType        string          `json:"error-type"`
	BaseCode         string          `json:"base_code"`
	TargetCode       string          `json:"target_code"`
	ConversionRate   decimal.Decimal `json:"conversion_rate"`
	ConversionResult decimal.Decimal `json:"conversion_result"`
}

func (s *CurrencyService) pairURL(from, to string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s/v6/%s/pair/%s/%s/%s",
		s.config.ExchangeAPIURL,
		s.config.ExchangeAPIKey,
		from,
		to,
		amount.String(),
	)
}

func (s *CurrencyService) maskURL(u string) string {
	if s.config.ExchangeAPIKey == "" {
		return u
	}
	return strings.Replace(u, s.config.ExchangeAPIKey, "***", 1)
}

// Convert sends exactly one pair request. There is no retry and no cache.
func (s *CurrencyService) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (*Conversion, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	apiURL := s.pairURL(from, to, amount)

	s.logger.Debug("Fetching conversion from ExchangeRate-API",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("amount", amount.String()),
		zap.String("url", s.maskURL(apiURL)),
	)

	start := time.Now()
	resp, err := s.fetch(ctx, apiURL, from, to)
	outcome := metrics.OutcomeSuccess
	switch {
	case errors.Is(err, ErrConversionFailed):
		outcome = metrics.OutcomeFailed
	case err != nil:
		outcome = metrics.OutcomeUnavailable
	}
	s.metrics.ConversionsTotal.WithLabelValues(from, to, outcome).Inc()
	s.metrics.UpstreamDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	conversion := &Conversion{
		From:   from,
		To:     to,
		Amount: amount,
		Rate:   resp.ConversionRate,
		Result: resp.ConversionResult,
	}
	s.logger.Info("Currency conversion completed",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("amount", amount.String()),
		zap.String("rate", conversion.Rate.String()),
		zap.String("result", conversion.Result.String()),
	)
	return conversion, nil
}

func (s *CurrencyService) fetch(ctx context.Context, apiURL, from, to string) (*pairResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		s.logger.Error("Failed to create HTTP request",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			s.logger.Debug("API request canceled",
				zap.String("from", from),
				zap.String("to", to),
			)
			return nil, fmt.Errorf("%w: request canceled: %w", ErrUnavailable, ctx.Err())
		}
		s.logger.Error("API request failed",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error("Failed to read API response",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	// The provider reports failures (invalid key, unsupported code) as JSON
	// with a non-2xx status, so the body is decoded before the status is judged.
	var body pairResponse
	if err := json.Unmarshal(data, &body); err != nil {
		s.logger.Error("Invalid JSON from ExchangeRate-API",
			zap.String("from", from),
			zap.String("to", to),
			zap.Int("status_code", resp.StatusCode),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: invalid JSON response (status %d): %w", ErrUnavailable, resp.StatusCode, err)
	}

	if body.Result != "success" {
		s.logger.Warn("ExchangeRate-API returned error",
			zap.String("from", from),
			zap.String("to", to),
			zap.Int("status_code", resp.StatusCode),
			zap.String("result", body.Result),
			zap.String("error_type", body.ErrorType),
		)
		return nil, fmt.Errorf("%w: %s", ErrConversionFailed, describe(body))
	}

	return &body, nil
}

func describe(body pairResponse) string {
	if body.ErrorType != "" {
		return body.ErrorType
	}
	if body.Result != "" {
		return body.Result
	}
	return "empty result"
}

var _ CurrencyServiceInterface = (*CurrencyService)(nil)
