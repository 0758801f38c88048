package steam

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormwood/cardbase/bot"
	"github.com/wormwood/cardbase/bot/msg"
	"github.com/wormwood/cardbase/bot/user"
	"github.com/wormwood/cardbase/plugins/cards"
)

func makePlugin(t *testing.T) (*SteamPlugin, *bot.MockBot) {
	t.Helper()
	mb := bot.NewMockBot()
	p := New(mb, cards.New(mb))
	require.NotNil(t, p)
	return p, mb
}

func TestTriggers(t *testing.T) {
	for body, want := range map[string]bool{
		"steam top":          true,
		"steamtop":           true,
		"steam top sellers":  true,
		"Steam Top Sellers":  true,
		"steam chart":        true,
		"steam bestsellers":  true,
		"steam":              false,
		"steam top deals":    false,
		"what is steam top?": false,
	} {
		matched := topRE.MatchString(body) || chartRE.MatchString(body)
		assert.Equal(t, want, matched, "body: %q", body)
	}
}

func TestNonTriggerIsNoOp(t *testing.T) {
	_, mb := makePlugin(t)
	handled := mb.Receive(nil, bot.Message, msg.Message{
		User:    &user.User{Name: "tester"},
		Channel: "test",
		Body:    "steam is down again",
		Command: true,
	})
	assert.False(t, handled)
	assert.Empty(t, mb.Messages)
}

func TestNormalizeApp(t *testing.T) {
	data := appData{Name: "Boring Game"}
	g := normalizeApp(10, data)
	assert.True(t, g.Free, "no price block means free")
	assert.Equal(t, "Free", g.Final)
	assert.Equal(t, "Unknown developer", g.Developer)
	assert.Equal(t, "TBA", g.ReleaseDate)
	assert.Equal(t, "No description.", g.Description)

	data = appData{Name: "Discounted Game", Developers: []string{"Wormwood"}}
	data.PriceOverview = &struct {
		InitialFormatted string `json:"initial_formatted"`
		FinalFormatted   string `json:"final_formatted"`
		DiscountPercent  int    `json:"discount_percent"`
	}{"$59.99", "$29.99", 50}
	data.ReleaseDate.Date = "1 Apr, 2024"
	g = normalizeApp(20, data)
	assert.False(t, g.Free)
	assert.Equal(t, "$29.99", g.Final)
	assert.Equal(t, "$59.99", g.Original)
	assert.Equal(t, 50, g.DiscountPct)
	assert.Equal(t, "Wormwood", g.Developer)
}

func storeServer(t *testing.T, failID int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/featuredcategories", func(w http.ResponseWriter, r *http.Request) {
		items := []string{}
		for i := 1; i <= 10; i++ {
			items = append(items, fmt.Sprintf(`{"id": %d}`, i))
		}
		fmt.Fprintf(w, `{"top_sellers": {"items": [%s]}}`, strings.Join(items, ","))
	})
	mux.HandleFunc("/appdetails", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("appids")
		if id == fmt.Sprintf("%d", failID) {
			fmt.Fprintf(w, `{"%s": {"success": false}}`, id)
			return
		}
		fmt.Fprintf(w, `{"%s": {"success": true, "data": {
			"name": "Game %s",
			"short_description": "A game.",
			"developers": ["Dev %s"],
			"price_overview": {"initial_formatted": "", "final_formatted": "$9.99", "discount_percent": 0},
			"release_date": {"date": "2024"}
		}}}`, id, id, id)
	})
	return httptest.NewServer(mux)
}

func TestFetchTopSellersSkipsFailedDetail(t *testing.T) {
	p, mb := makePlugin(t)
	srv := storeServer(t, 5)
	defer srv.Close()
	mb.Cfg.Set("steam.storeapi", srv.URL)

	games, err := p.fetchTopSellers()
	require.NoError(t, err)
	assert.Len(t, games, 9, "the one failed detail call is skipped, not fatal")
	for _, g := range games {
		assert.NotEqual(t, 5, g.AppID)
	}
	assert.Equal(t, "Game 1", games[0].Name)
	assert.Equal(t, "Game 10", games[8].Name)
}

func TestFetchTopSellersAllFailed(t *testing.T) {
	p, mb := makePlugin(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	mb.Cfg.Set("steam.storeapi", srv.URL)

	_, err := p.fetchTopSellers()
	require.Error(t, err)
	ferr, ok := err.(*cards.FetchError)
	require.True(t, ok)
	assert.Equal(t, cards.FetchParse, ferr.Kind)
}

func TestFetchTopIDsTruncatedBody(t *testing.T) {
	p, mb := makePlugin(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// declare more bytes than we send so the client's read fails mid-body
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte(`{"top_sellers`))
	}))
	defer srv.Close()
	mb.Cfg.Set("steam.storeapi", srv.URL)

	_, err := p.fetchTopIDs()
	require.Error(t, err)
	ferr, ok := err.(*cards.FetchError)
	require.True(t, ok)
	assert.Equal(t, cards.FetchDownload, ferr.Kind, "a short read is a transport failure, not bad JSON")
}

const searchHTML = `
<html><body>
<div id="search_resultsRows">
	<a class="search_result_row" href="#">
		<span class="title">First Game</span>
		<div class="search_price_discount_combined">
			<div class="discount_final_price">$19.99</div>
		</div>
	</a>
	<a class="search_result_row" href="#">
		<span class="title">Second Game</span>
		<div class="search_price">Free To Play</div>
	</a>
	<a class="search_result_row" href="#">
		<span class="title">Unpriced Game</span>
	</a>
</div>
</body></html>`

func TestParseSearch(t *testing.T) {
	listings, err := parseSearch(strings.NewReader(searchHTML))
	require.NoError(t, err)
	require.Len(t, listings, 3)
	assert.Equal(t, Listing{"First Game", "$19.99"}, listings[0])
	assert.Equal(t, Listing{"Second Game", "Free To Play"}, listings[1])
	assert.Equal(t, Listing{"Unpriced Game", "N/A"}, listings[2], "missing price gets a placeholder")
}

func TestParseSearchNoRows(t *testing.T) {
	_, err := parseSearch(strings.NewReader(`<html><body>redesigned!</body></html>`))
	require.Error(t, err)
	ferr, ok := err.(*cards.FetchError)
	require.True(t, ok)
	assert.Equal(t, cards.FetchParse, ferr.Kind)
}

func TestCardHeightIsLinearInItems(t *testing.T) {
	for n := 1; n <= maxGames; n++ {
		assert.Equal(t, topLayout.HeaderH+n*topLayout.RowH, topLayout.Height(n))
		assert.Equal(t, listLayout.HeaderH+n*listLayout.RowH, listLayout.Height(n))
	}
}
