// Package country holds the static country→currency table used by the
// selection dropdowns and by request construction, plus flag decoration.
package country

import (
	"sort"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

type Country struct {
	Name     string
	Region   language.Region
	Currency currency.Unit
}

// Table maps a country name to its region and currency.
type Table map[string]Country

func entry(name, region, code string) Country {
	return Country{
		Name:     name,
		Region:   language.MustParseRegion(region),
		Currency: currency.MustParseISO(code),
	}
}

// Default is the table the widget ships with.
var Default = newTable(
	entry("USA", "US", "USD"),
	entry("Canada", "CA", "CAD"),
	entry("Mexico", "MX", "MXN"),
	entry("Brazil", "BR", "BRL"),
	entry("Argentina", "AR", "ARS"),
	entry("Chile", "CL", "CLP"),
	entry("Colombia", "CO", "COP"),
	entry("UK", "GB", "GBP"),
	entry("France", "FR", "EUR"),
	entry("Germany", "DE", "EUR"),
	entry("Italy", "IT", "EUR"),
	entry("Spain", "ES", "EUR"),
	entry("Netherlands", "NL", "EUR"),
	entry("Ireland", "IE", "EUR"),
	entry("Portugal", "PT", "EUR"),
	entry("Switzerland", "CH", "CHF"),
	entry("Sweden", "SE", "SEK"),
	entry("Norway", "NO", "NOK"),
	entry("Denmark", "DK", "DKK"),
	entry("Poland", "PL", "PLN"),
	entry("Czech Republic", "CZ", "CZK"),
	entry("Hungary", "HU", "HUF"),
	entry("Turkey", "TR", "TRY"),
	entry("Russia", "RU", "RUB"),
	entry("Ukraine", "UA", "UAH"),
	entry("Israel", "IL", "ILS"),
	entry("UAE", "AE", "AED"),
	entry("Saudi Arabia", "SA", "SAR"),
	entry("Egypt", "EG", "EGP"),
	entry("Nigeria", "NG", "NGN"),
	entry("Kenya", "KE", "KES"),
	entry("South Africa", "ZA", "ZAR"),
	entry("India", "IN", "INR"),
	entry("Pakistan", "PK", "PKR"),
	entry("Bangladesh", "BD", "BDT"),
	entry("China", "CN", "CNY"),
	entry("Japan", "JP", "JPY"),
	entry("South Korea", "KR", "KRW"),
	entry("Singapore", "SG", "SGD"),
	entry("Hong Kong", "HK", "HKD"),
	entry("Thailand", "TH", "THB"),
	entry("Indonesia", "ID", "IDR"),
	entry("Malaysia", "MY", "MYR"),
	entry("Philippines", "PH", "PHP"),
	entry("Vietnam", "VN", "VND"),
	entry("Australia", "AU", "AUD"),
	entry("New Zealand", "NZ", "NZD"),
)

func newTable(countries ...Country) Table {
	t := make(Table, len(countries))
	for _, c := range countries {
		t[c.Name] = c
	}
	return t
}

// Currency resolves a country name to its ISO 4217 code.
func (t Table) Currency(name string) (string, bool) {
	c, ok := t[name]
	if !ok {
		return "", false
	}
	return c.Currency.String(), true
}

// SupportsCurrency reports whether code is a recognized ISO 4217 code used by
// at least one country in the table. Case is ignored.
func (t Table) SupportsCurrency(code string) bool {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return false
	}
	for _, c := range t {
		if c.Currency == unit {
			return true
		}
	}
	return false
}

// Names returns every country name in dropdown order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Flag returns the flag emoji for a country name, or "" when the name is unknown.
func (t Table) Flag(name string) string {
	c, ok := t[name]
	if !ok {
		return ""
	}
	return FlagEmoji(c.Region)
}

// FlagEmoji builds the pair of regional indicator symbols for a two-letter region.
func FlagEmoji(r language.Region) string {
	code := r.String()
	if len(code) != 2 {
		return ""
	}
	out := make([]rune, 0, 2)
	for _, ch := range code {
		if ch < 'A' || ch > 'Z' {
			return ""
		}
		out = append(out, 0x1F1E6+(ch-'A'))
	}
	return string(out)
}
