package steam

import (
	"fmt"

	"github.com/wormwood/cardbase/plugins/cards"
)

const (
	maxGames   = 10
	coverWidth = 184
)

// Card geometry is fixed so N items always produce the same size image.
var topLayout = cards.Layout{Width: 800, HeaderH: 110, RowH: 120}
var listLayout = cards.Layout{Width: 520, HeaderH: 90, RowH: 40}

// renderTopSellers draws the rich per-game card for the storefront API data.
func (p *SteamPlugin) renderTopSellers(games []Game) ([]byte, error) {
	cv := p.cards.NewCanvas(topLayout, len(games))

	if err := cv.SetFont(36); err != nil {
		return nil, err
	}
	cv.SetHexColor("#c7d5e0")
	cv.DrawString("Steam Top Sellers", 24, 52)
	if err := cv.SetFont(16); err != nil {
		return nil, err
	}
	cv.SetHexColor("#738895")
	cv.Timestamp(24, 84)

	for i, g := range games {
		top := topLayout.RowTop(i)

		if g.Cover != nil {
			cv.Thumbnail(g.Cover, 24, int(top)+16)
		}

		if err := cv.SetFont(22); err != nil {
			return nil, err
		}
		cv.SetHexColor("#ffffff")
		cv.DrawString(fmt.Sprintf("%d. %s", i+1, g.Name), 232, top+34)

		if err := cv.SetFont(18); err != nil {
			return nil, err
		}
		p.drawPrice(cv, g, top+62)

		if err := cv.SetFont(14); err != nil {
			return nil, err
		}
		cv.SetHexColor("#738895")
		cv.DrawString(g.ReleaseDate+"  ·  "+g.Developer, 232, top+84)

		if err := cv.SetFont(13); err != nil {
			return nil, err
		}
		cv.SetHexColor("#8f98a0")
		cv.WrappedText(g.Description, 232, top+104, float64(topLayout.Width-256), 15, 1)

		cv.SetHexColor("#2a3f5a")
		cv.Separator(top + float64(topLayout.RowH))
	}

	return cv.PNG()
}

// drawPrice writes the price line: struck-through original, highlighted
// discount and final price when the game is on sale.
func (p *SteamPlugin) drawPrice(cv *cards.Canvas, g Game, y float64) {
	x := 232.0
	if g.DiscountPct > 0 && g.Original != "" {
		cv.SetHexColor("#738895")
		cv.Strikethrough(g.Original, x, y)
		w, _ := cv.MeasureString(g.Original)
		x += w + 14

		cv.SetHexColor("#beee11")
		tag := fmt.Sprintf("-%d%%", g.DiscountPct)
		cv.DrawString(tag, x, y)
		w, _ = cv.MeasureString(tag)
		x += w + 14
	}
	cv.SetHexColor("#a4d007")
	cv.DrawString(g.Final, x, y)
}

// renderListings draws the simple title/price card for the scraped page.
func (p *SteamPlugin) renderListings(listings []Listing) ([]byte, error) {
	cv := p.cards.NewCanvas(listLayout, len(listings))

	if err := cv.SetFont(30); err != nil {
		return nil, err
	}
	cv.SetHexColor("#c7d5e0")
	cv.DrawString("Steam Best Sellers", 24, 44)
	if err := cv.SetFont(14); err != nil {
		return nil, err
	}
	cv.SetHexColor("#738895")
	cv.Timestamp(24, 70)

	for i, l := range listings {
		top := listLayout.RowTop(i)

		if err := cv.SetFont(17); err != nil {
			return nil, err
		}
		cv.SetHexColor("#ffffff")
		cv.DrawString(fmt.Sprintf("%d. %s", i+1, l.Title), 24, top+26)

		cv.SetHexColor("#a4d007")
		w, _ := cv.MeasureString(l.Price)
		cv.DrawString(l.Price, float64(listLayout.Width)-24-w, top+26)

		cv.SetHexColor("#2a3f5a")
		cv.Separator(top + float64(listLayout.RowH))
	}

	return cv.PNG()
}
