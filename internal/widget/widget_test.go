package widget

import (
	"context"
	"currency-widget/internal/country"
	"currency-widget/internal/metrics"
	"currency-widget/internal/service"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockConverter struct {
	mock.Mock
}

func (m *MockConverter) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (*service.Conversion, error) {
	args := m.Called(ctx, from, to, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Conversion), args.Error(1)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// amountEq matches a decimal argument by value rather than representation.
func amountEq(s string) interface{} {
	want := dec(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func setupWidget(t *testing.T) (*Widget, *MockConverter) {
	t.Helper()
	conv := new(MockConverter)
	w := New(country.Default, conv, metrics.NewNop(), zap.NewNop())
	return w, conv
}

func TestNew_Defaults(t *testing.T) {
	w, _ := setupWidget(t)
	s := w.State()
	assert.Equal(t, "USA", s.FromCountry)
	assert.Equal(t, "France", s.ToCountry)
	assert.Empty(t, s.Amount)
	assert.Nil(t, s.Result)
	assert.Empty(t, s.Error)
	assert.False(t, s.Loading)
	assert.False(t, s.ShowChart)
}

func TestConvert_InvalidAmount(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "12abc", "1,000", "--1"} {
		t.Run(fmt.Sprintf("%q", raw), func(t *testing.T) {
			w, conv := setupWidget(t)
			w.SetAmount(raw)

			err := w.Convert(context.Background())

			assert.ErrorIs(t, err, ErrInvalidAmount)
			s := w.State()
			assert.Equal(t, MsgInvalidAmount, s.Error)
			assert.Nil(t, s.Result)
			assert.False(t, s.Loading)
			conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestConvert_NegativeAmount(t *testing.T) {
	for _, raw := range []string{"-1", "-0.01", "-1e3"} {
		t.Run(raw, func(t *testing.T) {
			w, conv := setupWidget(t)
			w.SetAmount(raw)

			err := w.Convert(context.Background())

			assert.ErrorIs(t, err, ErrNegativeAmount)
			assert.Equal(t, MsgNegativeAmount, w.State().Error)
			conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestConvert_SameCurrencyShortcut(t *testing.T) {
	for _, pair := range [][2]string{{"USA", "USA"}, {"France", "Germany"}} {
		t.Run(pair[0]+"->"+pair[1], func(t *testing.T) {
			w, conv := setupWidget(t)
			require.NoError(t, w.SetFromCountry(pair[0]))
			require.NoError(t, w.SetToCountry(pair[1]))
			w.SetAmount("123.456")

			require.NoError(t, w.Convert(context.Background()))

			s := w.State()
			require.NotNil(t, s.Result)
			assert.True(t, s.Result.Equal(dec("123.456")))
			assert.Equal(t, "123.456", s.Result.String())
			assert.Empty(t, s.Error)
			conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestConvert_Success(t *testing.T) {
	w, conv := setupWidget(t)
	w.SetAmount("100")
	conv.On("Convert", mock.Anything, "USD", "EUR", amountEq("100")).
		Return(&service.Conversion{Result: dec("85.23"), Rate: dec("0.8523")}, nil).Once()

	require.NoError(t, w.Convert(context.Background()))

	s := w.State()
	require.NotNil(t, s.Result)
	assert.True(t, s.Result.Equal(dec("85.23")))
	assert.Empty(t, s.Error)
	assert.False(t, s.Loading)
	conv.AssertExpectations(t)
}

func TestConvert_ZeroAmountIsAllowed(t *testing.T) {
	w, conv := setupWidget(t)
	w.SetAmount("0")
	conv.On("Convert", mock.Anything, "USD", "EUR", amountEq("0")).
		Return(&service.Conversion{Result: decimal.Zero}, nil).Once()

	require.NoError(t, w.Convert(context.Background()))
	require.NotNil(t, w.State().Result)
	conv.AssertExpectations(t)
}

func TestConvert_ProviderFailure(t *testing.T) {
	w, conv := setupWidget(t)
	w.SetAmount("100")
	conv.On("Convert", mock.Anything, "USD", "EUR", mock.Anything).
		Return(nil, fmt.Errorf("%w: invalid-key", service.ErrConversionFailed)).Once()

	err := w.Convert(context.Background())

	assert.ErrorIs(t, err, service.ErrConversionFailed)
	s := w.State()
	assert.Nil(t, s.Result)
	assert.Equal(t, MsgConversionFailed, s.Error)
	assert.False(t, s.Loading)
}

func TestConvert_TransportFailure(t *testing.T) {
	w, conv := setupWidget(t)
	w.SetAmount("100")
	conv.On("Convert", mock.Anything, "USD", "EUR", mock.Anything).
		Return(nil, fmt.Errorf("%w: connection refused", service.ErrUnavailable)).Once()

	err := w.Convert(context.Background())

	assert.ErrorIs(t, err, service.ErrUnavailable)
	s := w.State()
	assert.Nil(t, s.Result)
	assert.Equal(t, MsgFetchFailed, s.Error)
}

func TestConvert_ClearsPreviousError(t *testing.T) {
	w, conv := setupWidget(t)
	w.SetAmount("abc")
	_ = w.Convert(context.Background())
	require.Equal(t, MsgInvalidAmount, w.State().Error)

	w.SetAmount("10")
	assert.Empty(t, w.State().Error, "input change clears the error line")

	conv.On("Convert", mock.Anything, "USD", "EUR", mock.Anything).
		Return(&service.Conversion{Result: dec("9")}, nil).Once()
	require.NoError(t, w.Convert(context.Background()))
	assert.Empty(t, w.State().Error)
}

func TestInputChangeClearsResult(t *testing.T) {
	changes := map[string]func(w *Widget){
		"amount": func(w *Widget) { w.SetAmount("20") },
		"from":   func(w *Widget) { _ = w.SetFromCountry("UK") },
		"to":     func(w *Widget) { _ = w.SetToCountry("Japan") },
	}
	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			w, conv := setupWidget(t)
			w.SetAmount("10")
			conv.On("Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(&service.Conversion{Result: dec("9")}, nil).Once()
			require.NoError(t, w.Convert(context.Background()))
			require.NotNil(t, w.State().Result)

			change(w)

			assert.Nil(t, w.State().Result)
		})
	}
}

func TestSetCountry_Unknown(t *testing.T) {
	w, _ := setupWidget(t)
	assert.ErrorIs(t, w.SetFromCountry("Atlantis"), ErrUnknownCountry)
	assert.ErrorIs(t, w.SetToCountry("Atlantis"), ErrUnknownCountry)
	s := w.State()
	assert.Equal(t, "USA", s.FromCountry)
	assert.Equal(t, "France", s.ToCountry)
}

func TestSwap_ValidAmountTriggersOneConversion(t *testing.T) {
	w, conv := setupWidget(t)
	w.SetAmount("50")
	conv.On("Convert", mock.Anything, "EUR", "USD", amountEq("50")).
		Return(&service.Conversion{Result: dec("54.1")}, nil).Once()

	require.NoError(t, w.Swap(context.Background()))

	s := w.State()
	assert.Equal(t, "France", s.FromCountry)
	assert.Equal(t, "USA", s.ToCountry)
	require.NotNil(t, s.Result)
	assert.True(t, s.Result.Equal(dec("54.1")))
	conv.AssertExpectations(t)
	conv.AssertNumberOfCalls(t, "Convert", 1)
}

func TestSwap_InvalidAmountOnlySwaps(t *testing.T) {
	for _, raw := range []string{"", "abc", "-5"} {
		t.Run(fmt.Sprintf("%q", raw), func(t *testing.T) {
			w, conv := setupWidget(t)
			w.SetAmount(raw)

			require.NoError(t, w.Swap(context.Background()))

			s := w.State()
			assert.Equal(t, "France", s.FromCountry)
			assert.Equal(t, "USA", s.ToCountry)
			assert.Empty(t, s.Error)
			assert.Nil(t, s.Result)
			conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestToggleChart_SameCurrency(t *testing.T) {
	w, _ := setupWidget(t)
	require.NoError(t, w.SetToCountry("USA"))

	err := w.ToggleChart()

	assert.ErrorIs(t, err, ErrSameCurrency)
	s := w.State()
	assert.False(t, s.ShowChart)
	assert.Equal(t, MsgSameCurrency, s.Error)
	_, _, ok := w.ChartPair()
	assert.False(t, ok)
}

func TestToggleChart_DifferentCurrencies(t *testing.T) {
	w, _ := setupWidget(t)
	w.SetAmount("x")
	_ = w.Convert(context.Background())
	require.NotEmpty(t, w.State().Error)

	require.NoError(t, w.ToggleChart())
	s := w.State()
	assert.True(t, s.ShowChart)
	assert.Empty(t, s.Error)

	base, target, ok := w.ChartPair()
	require.True(t, ok)
	assert.Equal(t, "usd", base)
	assert.Equal(t, "eur", target)

	require.NoError(t, w.ToggleChart())
	assert.False(t, w.State().ShowChart)
}

func TestChartPair_HiddenWhenCurrenciesConverge(t *testing.T) {
	w, _ := setupWidget(t)
	require.NoError(t, w.ToggleChart())
	require.NoError(t, w.SetToCountry("USA"))

	_, _, ok := w.ChartPair()
	assert.False(t, ok)
	assert.True(t, w.State().ShowChart, "toggle itself is untouched")
}

// gatedConverter blocks each call until the test releases it.
type gatedConverter struct {
	started chan string
	release chan struct{}
}

func newGatedConverter() *gatedConverter {
	return &gatedConverter{
		started: make(chan string, 4),
		release: make(chan struct{}),
	}
}

func (g *gatedConverter) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (*service.Conversion, error) {
	g.started <- from + to
	select {
	case <-g.release:
		return &service.Conversion{Result: dec("1")}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", service.ErrUnavailable, ctx.Err())
	}
}

func waitStarted(t *testing.T, g *gatedConverter) string {
	t.Helper()
	select {
	case pair := <-g.started:
		return pair
	case <-time.After(2 * time.Second):
		t.Fatal("conversion was not started")
		return ""
	}
}

func TestConvert_RejectedWhileLoading(t *testing.T) {
	g := newGatedConverter()
	w := New(country.Default, g, metrics.NewNop(), zap.NewNop())
	w.SetAmount("10")

	done := make(chan error, 1)
	go func() { done <- w.Convert(context.Background()) }()
	waitStarted(t, g)
	assert.True(t, w.State().Loading)

	assert.ErrorIs(t, w.Convert(context.Background()), ErrConversionInFlight)

	close(g.release)
	require.NoError(t, <-done)
	assert.False(t, w.State().Loading)
}

func TestSwap_SupersedesPendingConversion(t *testing.T) {
	g := newGatedConverter()
	w := New(country.Default, g, metrics.NewNop(), zap.NewNop())
	w.SetAmount("10")

	first := make(chan error, 1)
	go func() { first <- w.Convert(context.Background()) }()
	assert.Equal(t, "USDEUR", waitStarted(t, g))

	second := make(chan error, 1)
	go func() { second <- w.Swap(context.Background()) }()
	assert.Equal(t, "EURUSD", waitStarted(t, g))

	// The first request is cancelled by the swap and its answer dropped.
	assert.ErrorIs(t, <-first, ErrSuperseded)
	assert.True(t, w.State().Loading)

	close(g.release)
	require.NoError(t, <-second)
	s := w.State()
	assert.False(t, s.Loading)
	require.NotNil(t, s.Result)
	assert.Empty(t, s.Error)
}

func TestSnapshot_CodesMatchState(t *testing.T) {
	w, _ := setupWidget(t)
	require.NoError(t, w.ToggleChart())

	s := w.Snapshot()
	assert.Equal(t, "USA", s.State.FromCountry)
	assert.Equal(t, "USD", s.FromCurrency)
	assert.Equal(t, "EUR", s.ToCurrency)
	assert.True(t, s.ChartVisible)
	assert.Equal(t, "usd", s.ChartBase)
	assert.Equal(t, "eur", s.ChartTarget)

	require.NoError(t, w.Swap(context.Background()))
	s = w.Snapshot()
	assert.Equal(t, "France", s.State.FromCountry)
	assert.Equal(t, "EUR", s.FromCurrency)
	assert.Equal(t, "eur", s.ChartBase)
}

func TestClose_AbandonsPendingConversion(t *testing.T) {
	g := newGatedConverter()
	w := New(country.Default, g, metrics.NewNop(), zap.NewNop())
	w.SetAmount("10")

	done := make(chan error, 1)
	go func() { done <- w.Convert(context.Background()) }()
	waitStarted(t, g)

	w.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("pending conversion was not cancelled")
	}
	assert.False(t, w.State().Loading)
}

func TestInputChange_AbandonsPendingConversion(t *testing.T) {
	g := newGatedConverter()
	w := New(country.Default, g, metrics.NewNop(), zap.NewNop())
	w.SetAmount("10")

	done := make(chan error, 1)
	go func() { done <- w.Convert(context.Background()) }()
	waitStarted(t, g)

	w.SetAmount("11")

	err := <-done
	assert.True(t, errors.Is(err, ErrSuperseded))
	s := w.State()
	assert.False(t, s.Loading)
	assert.Nil(t, s.Result)
	assert.Empty(t, s.Error)
}
