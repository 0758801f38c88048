// Package steam answers top-seller keywords with a rasterized chart of the
// storefront's current best selling games. Two sources feed the same card
// pipeline: the store's JSON API (rich per-game rows) and a scrape of the
// search page (title and price only).
package steam

import (
	"regexp"

	"github.com/wormwood/cardbase/bot"
	"github.com/wormwood/cardbase/config"
	"github.com/wormwood/cardbase/plugins/cards"
)

type SteamPlugin struct {
	b     bot.Bot
	c     *config.Config
	cards *cards.Cards
}

// Both triggers are whole-message keywords, not prefixes.
var topRE = regexp.MustCompile(`(?i)^\s*steam ?top( ?sellers)?\s*$`)
var chartRE = regexp.MustCompile(`(?i)^\s*steam (chart|bestsellers)\s*$`)

func New(b bot.Bot, deck *cards.Cards) *SteamPlugin {
	p := &SteamPlugin{
		b:     b,
		c:     b.Config(),
		cards: deck,
	}
	p.b.RegisterTable(p, bot.HandlerTable{
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    topRE,
			HelpText: "steam top: current top sellers from the storefront API",
			Handler:  p.topSellers,
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    chartRE,
			HelpText: "steam chart: current best sellers scraped from the search page",
			Handler:  p.bestSellers,
		},
	})
	return p
}

func (p *SteamPlugin) topSellers(r bot.Request) bool {
	return p.cards.Run(cards.Pipeline{
		Name:     "steam top sellers",
		FailText: "Could not reach the storefront",
		Fetch: func(r bot.Request) (any, error) {
			return p.fetchTopSellers()
		},
		Render: func(data any) ([]byte, error) {
			return p.renderTopSellers(data.([]Game))
		},
	}, r)
}

func (p *SteamPlugin) bestSellers(r bot.Request) bool {
	return p.cards.Run(cards.Pipeline{
		Name:     "steam best sellers",
		FailText: "Could not read the best-seller page",
		Fetch: func(r bot.Request) (any, error) {
			return p.fetchSearchPage()
		},
		Render: func(data any) ([]byte, error) {
			return p.renderListings(data.([]Listing))
		},
	}, r)
}
