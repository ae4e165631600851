package backend

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/lead-scraper/internal/types"
)

// FullPageCards is the card count at which a listing page is assumed to have a successor.
const FullPageCards = 30

// EstimatePages estimates directory pagination from the numeric texts of a paging
// widget. Non-numeric texts ("Next", "...") are ignored.
func EstimatePages(linkTexts []string, currentPage, cardCount int) types.SearchMeta {
	if currentPage < 1 {
		currentPage = 1
	}
	total := 1
	for _, text := range linkTexts {
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || n < 1 {
			continue
		}
		if n > total {
			total = n
		}
	}
	return types.SearchMeta{
		CurrentPage:        currentPage,
		TotalPagesEstimate: total,
		HasNext:            currentPage < total || cardCount >= FullPageCards,
	}
}

// EstimateFromDocument reads the ".pagination" widget of a listing page.
func EstimateFromDocument(doc *goquery.Document, currentPage, cardCount int) types.SearchMeta {
	var texts []string
	if doc != nil {
		doc.Find(".pagination a").Each(func(_ int, s *goquery.Selection) {
			texts = append(texts, s.Text())
		})
	}
	return EstimatePages(texts, currentPage, cardCount)
}
