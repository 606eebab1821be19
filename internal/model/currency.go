package model

import (
	"currency-widget/internal/chart"
	"currency-widget/internal/widget"

	"github.com/shopspring/decimal"
)

// ConvertRequest is the query of the stateless convert endpoint.
// Amount stays a string so the widget's own validation decides what is valid.
type ConvertRequest struct {
	From   string `form:"from" binding:"required,len=3,alpha"`
	To     string `form:"to" binding:"required,len=3,alpha"`
	Amount string `form:"amount" binding:"required"`
}

type ConvertResponse struct {
	From   string           `json:"from"`
	To     string           `json:"to"`
	Amount decimal.Decimal  `json:"amount"`
	Rate   *decimal.Decimal `json:"rate,omitempty"`
	Result decimal.Decimal  `json:"result"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

type CountryResponse struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Flag     string `json:"flag"`
}

type AmountRequest struct {
	Amount string `json:"amount"`
}

type CountryRequest struct {
	Country string `json:"country" binding:"required"`
}

// WidgetView is everything the client needs to draw one converter view.
type WidgetView struct {
	ID           string       `json:"id"`
	State        widget.State `json:"state"`
	FromCurrency string       `json:"from_currency"`
	ToCurrency   string       `json:"to_currency"`
	FromFlag     string       `json:"from_flag"`
	ToFlag       string       `json:"to_flag"`
	ResultLine   string       `json:"result_line,omitempty"`
	ConvertLabel string       `json:"convert_label"`
	ChartLabel   string       `json:"chart_label"`
	Chart        *chart.Trend `json:"chart,omitempty"`
}
