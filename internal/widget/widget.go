// Package widget implements the converter view: selections, amount, result,
// error line, loading flag and the rate-trend toggle.
//
// A view is driven by one user but its actions may arrive concurrently (a
// swap while a conversion is still pending). The last started conversion
// wins: starting a new one, or changing any input, cancels the pending
// request and its response is dropped.
package widget

import (
	"context"
	"currency-widget/internal/country"
	"currency-widget/internal/metrics"
	"currency-widget/internal/service"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultFromCountry = "USA"
	DefaultToCountry   = "France"
)

type State struct {
	FromCountry string           `json:"from_country"`
	ToCountry   string           `json:"to_country"`
	Amount      string           `json:"amount"`
	Result      *decimal.Decimal `json:"result"`
	Error       string           `json:"error"`
	Loading     bool             `json:"loading"`
	ShowChart   bool             `json:"show_chart"`
}

type Widget struct {
	mu     sync.Mutex
	state  State
	seq    uint64
	cancel context.CancelFunc

	countries country.Table
	converter service.CurrencyServiceInterface
	metrics   *metrics.ConverterMetrics
	logger    *zap.Logger
}

type pending struct {
	seq    uint64
	ctx    context.Context
	from   string
	to     string
	amount decimal.Decimal
}

func New(countries country.Table, converter service.CurrencyServiceInterface, m *metrics.ConverterMetrics, logger *zap.Logger) *Widget {
	from, to := DefaultFromCountry, DefaultToCountry
	if _, ok := countries[from]; !ok {
		from = countries.Names()[0]
	}
	if _, ok := countries[to]; !ok {
		to = from
	}
	return &Widget{
		state: State{
			FromCountry: from,
			ToCountry:   to,
		},
		countries: countries,
		converter: converter,
		metrics:   m,
		logger:    logger,
	}
}

// State returns a copy of the current view state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.state
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}

func (w *Widget) currenciesLocked() (string, string) {
	from, _ := w.countries.Currency(w.state.FromCountry)
	to, _ := w.countries.Currency(w.state.ToCountry)
	return from, to
}

func (w *Widget) SetAmount(raw string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Amount = raw
	w.invalidateLocked()
}

func (w *Widget) SetFromCountry(name string) error {
	if _, ok := w.countries[name]; !ok {
		return ErrUnknownCountry
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.FromCountry = name
	w.invalidateLocked()
	return nil
}

func (w *Widget) SetToCountry(name string) error {
	if _, ok := w.countries[name]; !ok {
		return ErrUnknownCountry
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.ToCountry = name
	w.invalidateLocked()
	return nil
}

// Convert runs one conversion for the current inputs. It blocks until the
// provider answers, ctx is done, or a newer action supersedes it.
func (w *Widget) Convert(ctx context.Context) error {
	w.mu.Lock()
	if w.state.Loading {
		w.mu.Unlock()
		return ErrConversionInFlight
	}
	p, err := w.beginLocked(ctx)
	w.mu.Unlock()
	if p == nil {
		return err
	}
	return w.await(p)
}

// Swap exchanges the two selections and, when the amount is a valid
// non-negative number, converts again in the new orientation.
func (w *Widget) Swap(ctx context.Context) error {
	w.mu.Lock()
	w.state.FromCountry, w.state.ToCountry = w.state.ToCountry, w.state.FromCountry
	w.invalidateLocked()
	if _, err := ParseAmount(w.state.Amount); err != nil {
		w.mu.Unlock()
		return nil
	}
	p, err := w.beginLocked(ctx)
	w.mu.Unlock()
	if p == nil {
		return err
	}
	return w.await(p)
}

// ToggleChart flips the trend view. It refuses when both selections share a
// currency and leaves the toggle unchanged.
func (w *Widget) ToggleChart() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	from, to := w.currenciesLocked()
	if from == to {
		w.state.Result = nil
		w.state.Error = MsgSameCurrency
		return ErrSameCurrency
	}
	w.state.Error = ""
	w.state.ShowChart = !w.state.ShowChart
	return nil
}

// Snapshot is the state together with everything derived from it, read
// under one lock so a concurrent swap cannot split it.
type Snapshot struct {
	State        State
	FromCurrency string
	ToCurrency   string
	ChartBase    string
	ChartTarget  string
	ChartVisible bool
}

func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Snapshot{State: w.state}
	if s.State.Result != nil {
		r := *s.State.Result
		s.State.Result = &r
	}
	s.FromCurrency, s.ToCurrency = w.currenciesLocked()
	if s.State.ShowChart && s.FromCurrency != s.ToCurrency {
		s.ChartVisible = true
		s.ChartBase = strings.ToLower(s.FromCurrency)
		s.ChartTarget = strings.ToLower(s.ToCurrency)
	}
	return s
}

// ChartPair returns the lowercase codes for the chart collaborator. ok is
// false unless the toggle is on and the currencies differ.
func (w *Widget) ChartPair() (base, target string, ok bool) {
	s := w.Snapshot()
	return s.ChartBase, s.ChartTarget, s.ChartVisible
}

// Close abandons any pending conversion. The widget stays usable.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.abandonLocked()
}

// invalidateLocked applies an input change: the shown result and error go
// away and any pending conversion is abandoned.
func (w *Widget) invalidateLocked() {
	w.state.Result = nil
	w.state.Error = ""
	w.abandonLocked()
}

func (w *Widget) abandonLocked() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.seq++
	w.state.Loading = false
}

// beginLocked validates and either settles the action locally (validation
// error, same currency) or returns the request to send.
func (w *Widget) beginLocked(ctx context.Context) (*pending, error) {
	w.state.Error = ""
	w.state.Result = nil

	amount, err := ParseAmount(w.state.Amount)
	if err != nil {
		w.state.Error = Message(err)
		return nil, err
	}

	from, to := w.currenciesLocked()
	if from == to {
		w.metrics.SameCurrencyTotal.Inc()
		w.state.Result = &amount
		return nil, nil
	}

	w.abandonLocked()
	reqCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.state.Loading = true
	return &pending{
		seq:    w.seq,
		ctx:    reqCtx,
		from:   from,
		to:     to,
		amount: amount,
	}, nil
}

func (w *Widget) await(p *pending) error {
	conv, err := w.converter.Convert(p.ctx, p.from, p.to, p.amount)

	w.mu.Lock()
	defer w.mu.Unlock()
	if p.seq != w.seq {
		w.metrics.SupersededTotal.Inc()
		w.logger.Debug("Dropping superseded conversion",
			zap.String("from", p.from),
			zap.String("to", p.to),
			zap.Error(err),
		)
		return ErrSuperseded
	}

	w.cancel()
	w.cancel = nil
	w.state.Loading = false
	if err != nil {
		w.state.Error = Message(err)
		return err
	}
	result := conv.Result
	w.state.Result = &result
	return nil
}
