package steam

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wormwood/cardbase/plugins/cards"
)

// Listing is one scraped search row: just a title and a display price.
type Listing struct {
	Title string
	Price string
}

// fetchSearchPage scrapes the top-sellers search page. The selectors track
// the live page structure and will rot if it changes; when they stop
// matching, the whole fetch fails rather than guessing.
func (p *SteamPlugin) fetchSearchPage() ([]Listing, error) {
	u := p.c.Get("steam.searchurl", "https://store.steampowered.com/search/?filter=topsellers")
	client := http.Client{}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, cards.Fetchf(cards.FetchDownload, "search page", err)
	}
	req.Header.Set("User-Agent", p.c.Get("url.useragent", "cardbase/1.0"))
	resp, err := client.Do(req)
	if err != nil {
		return nil, cards.Fetchf(cards.FetchDownload, "search page", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode > 299 {
		return nil, cards.Fetchf(cards.FetchStatus, "search page", fmt.Errorf("status %d", resp.StatusCode))
	}
	return parseSearch(resp.Body)
}

func parseSearch(body io.Reader) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, cards.Fetchf(cards.FetchParse, "search page", err)
	}

	listings := []Listing{}
	doc.Find(".search_result_row").EachWithBreak(func(i int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find(".title").First().Text())
		if title == "" {
			return true
		}
		price := strings.TrimSpace(s.Find(".discount_final_price").First().Text())
		if price == "" {
			price = strings.TrimSpace(s.Find(".search_price").First().Text())
		}
		if price == "" {
			price = "N/A"
		}
		listings = append(listings, Listing{Title: title, Price: price})
		return len(listings) < maxGames
	})

	if len(listings) == 0 {
		return nil, cards.Fetchf(cards.FetchParse, "search page", fmt.Errorf("no rows matched the selectors"))
	}
	return listings, nil
}
