// Package chart describes the rate-trend collaborator. The widget only hands it
// two lowercase currency codes; drawing happens on the client.
package chart

import (
	"fmt"
	"strings"
	"time"
)

type Renderer interface {
	Render(base, target string) Trend
}

type Point struct {
	Date   string `json:"date"`
	Source string `json:"source"`
}

// Trend tells the client where to read one daily snapshot per point and which
// target code to pick out of each snapshot.
type Trend struct {
	Base   string  `json:"base"`
	Target string  `json:"target"`
	Points []Point `json:"points"`
}

// HistoryRenderer points at a daily currency-history feed laid out as
// {url}@{YYYY-MM-DD}/v1/currencies/{base}.json.
type HistoryRenderer struct {
	URL  string
	Days int
	Now  func() time.Time
}

func NewHistoryRenderer(url string, days int) *HistoryRenderer {
	if days <= 0 {
		days = 30
	}
	return &HistoryRenderer{
		URL:  strings.TrimRight(url, "/"),
		Days: days,
		Now:  time.Now,
	}
}

// Render lists points oldest first, ending yesterday (UTC); today's file is
// usually not published yet.
func (h *HistoryRenderer) Render(base, target string) Trend {
	base = strings.ToLower(base)
	target = strings.ToLower(target)
	end := h.Now().UTC().AddDate(0, 0, -1)

	points := make([]Point, 0, h.Days)
	for i := h.Days - 1; i >= 0; i-- {
		day := end.AddDate(0, 0, -i).Format(time.DateOnly)
		points = append(points, Point{
			Date:   day,
			Source: fmt.Sprintf("%s@%s/v1/currencies/%s.json", h.URL, day, base),
		})
	}
	return Trend{Base: base, Target: target, Points: points}
}
