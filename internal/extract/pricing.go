package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Matches "$20/mo", "$ 25 / month" and similar.
var monthlyPriceRe = regexp.MustCompile(`\$\s?(\d+(?:\.\d{2})?)\s*/\s*(?:mo|month)\b`)

// Pricing is a sparse best-effort projection of a pricing page. It enriches
// a snapshot but is never required for change detection.
type Pricing struct {
	Title         string   `json:"title,omitempty"`
	MonthlyPrices []string `json:"monthly_prices,omitempty"`
}

// FromHTML extracts the page title and any monthly price figures from raw
// HTML. Returns nil when nothing useful was found or the page can't be parsed.
func FromHTML(html string) *Pricing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	p := &Pricing{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	seen := make(map[string]bool)
	for _, match := range monthlyPriceRe.FindAllStringSubmatch(doc.Text(), -1) {
		price := match[1]
		if !seen[price] {
			seen[price] = true
			p.MonthlyPrices = append(p.MonthlyPrices, price)
		}
	}

	if p.Title == "" && len(p.MonthlyPrices) == 0 {
		return nil
	}
	return p
}

// JSON marshals the extraction for storage alongside the snapshot.
func (p *Pricing) JSON() []byte {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return data
}
