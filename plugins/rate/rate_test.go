package rate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormwood/cardbase/bot"
	"github.com/wormwood/cardbase/bot/msg"
	"github.com/wormwood/cardbase/bot/user"
	"github.com/wormwood/cardbase/plugins/cards"
)

func makePlugin(t *testing.T) (*RatePlugin, *bot.MockBot) {
	t.Helper()
	mb := bot.NewMockBot()
	p := New(mb, cards.New(mb))
	require.NotNil(t, p)
	return p, mb
}

func makeMessage(body string) msg.Message {
	return msg.Message{
		User:    &user.User{Name: "tester"},
		Channel: "test",
		Body:    body,
		Command: true,
		Time:    time.Now(),
	}
}

func makeRequest(conn bot.Connector, m msg.Message, args string) bot.Request {
	return bot.Request{
		Conn:   conn,
		Kind:   bot.Message,
		Msg:    m,
		Values: bot.RegexValues{"args": args},
	}
}

// scoringServer serves a canned vision response and an image to download.
func scoringServer(t *testing.T, response string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/img.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\xff\xd8\xff\xdbnot-really-a-jpeg"))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req visionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Messages, 1) {
			assert.Len(t, req.Messages[0].SafetySettings, 5)
		}
		w.Write([]byte(response))
	})
	return httptest.NewServer(mux)
}

func wrapCandidate(verdictJSON string) string {
	resp := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": verdictJSON}},
				},
			},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestNonTriggerIsNoOp(t *testing.T) {
	_, mb := makePlugin(t)
	handled := mb.Receive(nil, bot.Message, makeMessage("hello there"))
	assert.False(t, handled)
	assert.Empty(t, mb.Messages)
}

func TestParseMode(t *testing.T) {
	for args, want := range map[string]string{
		"":                        ModeShort,
		"  --m short":             ModeShort,
		" --m detailed":           ModeDetailed,
		" --m narrative":          ModeNarrative,
		" --m novel":              ModeShort,
		" --m":                    ModeShort,
		" something --m detailed": ModeDetailed,
	} {
		assert.Equal(t, want, parseMode(args), "args: %q", args)
	}
}

func TestImagePrecedenceInlineWins(t *testing.T) {
	p, _ := makePlugin(t)
	conn := &bot.MockConnector{
		MessageFn: func(channel, id string) (msg.Message, error) {
			return msg.Message{Images: []msg.Image{{URL: "http://x/reply.png"}}}, nil
		},
	}
	m := makeMessage("rate")
	m.Images = []msg.Image{{URL: "http://x/inline.png"}}
	m.ReplyTo = "123"

	url, ok := p.resolveImage(makeRequest(conn, m, ""))
	assert.True(t, ok)
	assert.Equal(t, "http://x/inline.png", url)
}

func TestImagePrecedenceReplyThenAvatar(t *testing.T) {
	p, _ := makePlugin(t)
	conn := &bot.MockConnector{
		MessageFn: func(channel, id string) (msg.Message, error) {
			return msg.Message{Images: []msg.Image{{URL: "http://x/reply.png"}}}, nil
		},
	}

	m := makeMessage("rate")
	m.ReplyTo = "123"
	url, ok := p.resolveImage(makeRequest(conn, m, ""))
	assert.True(t, ok)
	assert.Equal(t, "http://x/reply.png", url)

	m = makeMessage("rate @54321")
	m.Mentions = []string{"54321"}
	url, ok = p.resolveImage(makeRequest(conn, m, ""))
	assert.True(t, ok)
	assert.Contains(t, url, "54321")
}

func TestAvatarPrefersConnectorProfile(t *testing.T) {
	p, _ := makePlugin(t)
	conn := &bot.MockConnector{
		ProfileFn: func(id string) (user.User, error) {
			return user.User{ID: id, Icon: "http://cdn.example/avatars/" + id + ".png"}, nil
		},
	}

	m := makeMessage("rate @54321")
	m.Mentions = []string{"54321"}
	url, ok := p.resolveImage(makeRequest(conn, m, ""))
	assert.True(t, ok)
	assert.Equal(t, "http://cdn.example/avatars/54321.png", url)

	// a connector without icons falls back to the configured URL template
	url, ok = p.resolveImage(makeRequest(&bot.MockConnector{}, m, ""))
	assert.True(t, ok)
	assert.Contains(t, url, "qlogo")
	assert.Contains(t, url, "54321")
}

func TestMissingImageInstructs(t *testing.T) {
	p, mb := makePlugin(t)
	handled := p.message(makeRequest(&bot.MockConnector{}, makeMessage("rate"), ""))
	assert.True(t, handled)
	require.Len(t, mb.Messages, 1)
	assert.Contains(t, mb.Messages[0], "attach an image")
}

func TestVerdictReplyVerbatim(t *testing.T) {
	p, mb := makePlugin(t)
	srv := scoringServer(t, wrapCandidate(
		`{"verdict":"ship it","rating":"8","explanation":"bold lines, no notes"}`))
	defer srv.Close()
	mb.Cfg.Set("rate.baseurl", srv.URL+"/v1/chat/completions")
	mb.Cfg.Set("rate.apikey", "test-key")

	m := makeMessage("rate")
	m.Images = []msg.Image{{URL: srv.URL + "/img.jpg"}}

	handled := p.message(makeRequest(&bot.MockConnector{}, m, ""))
	assert.True(t, handled)
	require.Len(t, mb.Messages, 1)
	assert.Contains(t, mb.Messages[0], "ship it")
	assert.Contains(t, mb.Messages[0], "8/10")
	assert.Contains(t, mb.Messages[0], "bold lines, no notes")
}

func TestMalformedResponseSingleFailure(t *testing.T) {
	p, mb := makePlugin(t)
	srv := scoringServer(t, `{"error": "no candidates here"}`)
	defer srv.Close()
	mb.Cfg.Set("rate.baseurl", srv.URL+"/v1/chat/completions")
	mb.Cfg.Set("rate.apikey", "test-key")

	m := makeMessage("rate")
	m.Images = []msg.Image{{URL: srv.URL + "/img.jpg"}}

	handled := p.message(makeRequest(&bot.MockConnector{}, m, ""))
	assert.True(t, handled)
	require.Len(t, mb.Messages, 1)
	assert.Contains(t, mb.Messages[0], "judges are unavailable")
	assert.Contains(t, mb.Messages[0], "parse")
}

func TestParseVerdict(t *testing.T) {
	v, err := parseVerdict([]byte(wrapCandidate(
		`{"verdict":"skip it","rating":"2","explanation":"blurry"}`)))
	require.NoError(t, err)
	assert.Equal(t, Verdict{"skip it", "2", "blurry"}, v)

	_, err = parseVerdict([]byte(`{}`))
	require.Error(t, err)
	ferr, ok := err.(*cards.FetchError)
	require.True(t, ok)
	assert.Equal(t, cards.FetchParse, ferr.Kind)

	_, err = parseVerdict([]byte(wrapCandidate(`{"verdict":"ship it"}`)))
	assert.Error(t, err, "missing fields must not pass")

	_, err = parseVerdict([]byte(wrapCandidate(`not json at all`)))
	assert.Error(t, err)
}

func TestWithdrawScheduled(t *testing.T) {
	p, mb := makePlugin(t)
	srv := scoringServer(t, wrapCandidate(
		`{"verdict":"ship it","rating":"9","explanation":"fine"}`))
	defer srv.Close()
	mb.Cfg.Set("rate.baseurl", srv.URL+"/v1/chat/completions")
	mb.Cfg.Set("rate.apikey", "test-key")
	mb.Cfg.Set("rate.withdrawtime", "1")

	m := makeMessage("rate")
	m.Images = []msg.Image{{URL: srv.URL + "/img.jpg"}}
	p.message(makeRequest(&bot.MockConnector{}, m, ""))

	assert.Empty(t, mb.Deleted(), "withdrawal must wait out the delay")
	time.Sleep(1200 * time.Millisecond)
	require.Len(t, mb.Deleted(), 1)
}
