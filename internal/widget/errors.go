package widget

import (
	"currency-widget/internal/service"
	"errors"
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("negative amount")
	ErrSameCurrency       = errors.New("select two different countries")
	ErrUnknownCountry     = errors.New("unknown country")
	ErrConversionInFlight = errors.New("conversion already in progress")
	ErrSuperseded         = errors.New("conversion superseded by a newer request")
)

// User-facing messages shown in the error line of the widget.
const (
	MsgInvalidAmount    = "Please enter a valid amount."
	MsgNegativeAmount   = "Amount cannot be negative."
	MsgSameCurrency     = "Please select two different countries to view rate trends."
	MsgConversionFailed = "Conversion failed. Please check your API key or try again."
	MsgFetchFailed      = "Error fetching conversion rate."
)

// Message maps an error from a widget action to the text the user sees.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAmount):
		return MsgInvalidAmount
	case errors.Is(err, ErrNegativeAmount):
		return MsgNegativeAmount
	case errors.Is(err, ErrSameCurrency):
		return MsgSameCurrency
	case errors.Is(err, service.ErrConversionFailed):
		return MsgConversionFailed
	default:
		return MsgFetchFailed
	}
}
