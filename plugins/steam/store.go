package steam

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/wormwood/cardbase/plugins/cards"
)

// Game is one top-seller entry normalized for the card. Cover is nil when
// the artwork could not be fetched; the row renders without it.
type Game struct {
	AppID       int
	Name        string
	Final       string
	Original    string
	DiscountPct int
	Free        bool
	ReleaseDate string
	Developer   string
	Description string
	Cover       image.Image
}

type featuredResponse struct {
	TopSellers struct {
		Items []struct {
			ID int `json:"id"`
		} `json:"items"`
	} `json:"top_sellers"`
}

type appDetail struct {
	Success bool    `json:"success"`
	Data    appData `json:"data"`
}

type appData struct {
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	HeaderImage      string   `json:"header_image"`
	Developers       []string `json:"developers"`
	IsFree           bool     `json:"is_free"`
	PriceOverview    *struct {
		InitialFormatted string `json:"initial_formatted"`
		FinalFormatted   string `json:"final_formatted"`
		DiscountPercent  int    `json:"discount_percent"`
	} `json:"price_overview"`
	ReleaseDate struct {
		Date string `json:"date"`
	} `json:"release_date"`
}

func (p *SteamPlugin) storeAPI() string {
	return p.c.Get("steam.storeapi", "https://store.steampowered.com/api")
}

// fetchTopSellers is the two-stage storefront fetch: the featured list for
// the top ten IDs, then one detail call per app, in sequence. A failed
// detail call drops that item only.
func (p *SteamPlugin) fetchTopSellers() ([]Game, error) {
	ids, err := p.fetchTopIDs()
	if err != nil {
		return nil, err
	}

	games := []Game{}
	for _, id := range ids {
		g, err := p.fetchApp(id)
		if err != nil {
			log.Warn().Err(err).Msgf("skipping app %d", id)
			continue
		}
		games = append(games, g)
	}
	if len(games) == 0 {
		return nil, cards.Fetchf(cards.FetchParse, "top sellers", fmt.Errorf("no app details succeeded"))
	}
	return games, nil
}

func (p *SteamPlugin) fetchTopIDs() ([]int, error) {
	u := p.storeAPI() + "/featuredcategories?cc=us&l=english"
	resp, err := http.Get(u)
	if err != nil {
		return nil, cards.Fetchf(cards.FetchDownload, "featured categories", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, cards.Fetchf(cards.FetchStatus, "featured categories", fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cards.Fetchf(cards.FetchDownload, "featured categories", err)
	}
	var featured featuredResponse
	if err := json.Unmarshal(body, &featured); err != nil {
		return nil, cards.Fetchf(cards.FetchParse, "featured categories", err)
	}

	ids := []int{}
	for _, item := range featured.TopSellers.Items {
		ids = append(ids, item.ID)
		if len(ids) == maxGames {
			break
		}
	}
	if len(ids) == 0 {
		return nil, cards.Fetchf(cards.FetchParse, "featured categories", fmt.Errorf("no top sellers in response"))
	}
	return ids, nil
}

func (p *SteamPlugin) fetchApp(id int) (Game, error) {
	u := fmt.Sprintf("%s/appdetails?appids=%d&cc=us&l=english", p.storeAPI(), id)
	resp, err := http.Get(u)
	if err != nil {
		return Game{}, cards.Fetchf(cards.FetchDownload, "app details", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return Game{}, cards.Fetchf(cards.FetchStatus, "app details", fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Game{}, cards.Fetchf(cards.FetchDownload, "app details", err)
	}
	var details map[string]appDetail
	if err := json.Unmarshal(body, &details); err != nil {
		return Game{}, cards.Fetchf(cards.FetchParse, "app details", err)
	}

	detail, ok := details[fmt.Sprintf("%d", id)]
	if !ok || !detail.Success {
		return Game{}, cards.Fetchf(cards.FetchParse, "app details", fmt.Errorf("no data for app %d", id))
	}

	g := normalizeApp(id, detail.Data)

	if detail.Data.HeaderImage != "" {
		cover, err := cards.DownloadImage(detail.Data.HeaderImage, coverWidth)
		if err != nil {
			// the card draws this row without a thumbnail
			log.Warn().Err(err).Msgf("no cover for app %d", id)
		} else {
			g.Cover = cover
		}
	}

	return g, nil
}

// normalizeApp fills placeholder values for anything the detail payload
// leaves out.
func normalizeApp(id int, data appData) Game {
	g := Game{
		AppID:       id,
		Name:        data.Name,
		Description: data.ShortDescription,
		ReleaseDate: data.ReleaseDate.Date,
		Developer:   "Unknown developer",
	}
	if len(data.Developers) > 0 {
		g.Developer = data.Developers[0]
	}
	if g.ReleaseDate == "" {
		g.ReleaseDate = "TBA"
	}
	if g.Description == "" {
		g.Description = "No description."
	}

	switch {
	case data.PriceOverview != nil:
		g.Final = data.PriceOverview.FinalFormatted
		g.Original = data.PriceOverview.InitialFormatted
		g.DiscountPct = data.PriceOverview.DiscountPercent
	default:
		// no price block: free to play, or not yet for sale
		g.Free = true
		g.Final = "Free"
	}
	return g
}
