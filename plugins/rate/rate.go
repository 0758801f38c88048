// Package rate judges pictures. Triggered with `rate`, it finds an image
// (attached, in the replied-to message, or a mentioned user's avatar), asks
// a vision model for a verdict, and posts the score, optionally deleting
// its own reply after a configured delay.
package rate

import (
	"fmt"
	"regexp"
	"time"

	"github.com/wormwood/cardbase/bot"
	"github.com/wormwood/cardbase/config"
	"github.com/wormwood/cardbase/plugins/cards"
)

type RatePlugin struct {
	b     bot.Bot
	c     *config.Config
	cards *cards.Cards
}

var mentionRE = regexp.MustCompile(`@(\d+)`)
var modeRE = regexp.MustCompile(`--m\s+(\S+)`)

func New(b bot.Bot, deck *cards.Cards) *RatePlugin {
	p := &RatePlugin{
		b:     b,
		c:     b.Config(),
		cards: deck,
	}
	p.b.RegisterTable(p, bot.HandlerTable{
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?is)^rate\b(?P<args>.*)`),
			HelpText: "rate [--m short|detailed|narrative]: judge an attached image, a replied-to image, or @user's avatar",
			Handler:  p.message,
		},
	})
	return p
}

func (p *RatePlugin) message(r bot.Request) bool {
	mode := parseMode(r.Values["args"])

	imgURL, ok := p.resolveImage(r)
	if !ok {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
			"Give me something to judge: attach an image, reply to one, or @ somebody.")
		return true
	}

	withdraw := time.Duration(p.c.GetInt("rate.withdrawtime", 0)) * time.Second

	return p.cards.Run(cards.Pipeline{
		Name:     "rate",
		FailText: "The judges are unavailable",
		Fetch: func(r bot.Request) (any, error) {
			img, err := cards.Download(imgURL)
			if err != nil {
				return nil, err
			}
			return p.judge(getPrompt(mode), img)
		},
		Text: func(data any) string {
			v := data.(Verdict)
			return fmt.Sprintf("Verdict: %s\nRating: %s/10\n%s", v.Verdict, v.Rating, v.Explanation)
		},
		Withdraw: withdraw,
	}, r)
}

// parseMode pulls the value of a `--m <mode>` flag out of the trigger
// arguments. Unknown values fall back to short on purpose: a typo'd flag
// should degrade, not lecture.
func parseMode(args string) string {
	m := modeRE.FindStringSubmatch(args)
	if m == nil {
		return ModeShort
	}
	switch m[1] {
	case ModeShort, ModeDetailed, ModeNarrative:
		return m[1]
	}
	return ModeShort
}

// resolveImage picks the image to judge. Precedence is fixed: an attachment
// on the triggering message beats the replied-to message's image, which
// beats a mentioned user's avatar.
func (p *RatePlugin) resolveImage(r bot.Request) (string, bool) {
	if len(r.Msg.Images) > 0 {
		return r.Msg.Images[0].URL, true
	}

	if r.Msg.ReplyTo != "" && r.Conn != nil {
		orig, err := r.Conn.Message(r.Msg.Channel, r.Msg.ReplyTo)
		if err == nil && len(orig.Images) > 0 {
			return orig.Images[0].URL, true
		}
	}

	if id, ok := p.mentionedID(r); ok {
		if r.Conn != nil {
			if u, err := r.Conn.Profile(id); err == nil && u.Icon != "" {
				return u.Icon, true
			}
		}
		return p.avatarURL(id), true
	}

	return "", false
}

func (p *RatePlugin) mentionedID(r bot.Request) (string, bool) {
	if len(r.Msg.Mentions) > 0 {
		return r.Msg.Mentions[0], true
	}
	if m := mentionRE.FindStringSubmatch(r.Msg.Body); m != nil {
		return m[1], true
	}
	return "", false
}

// avatarURL is the fallback when the connector has no profile icon:
// deterministic for a given user ID, so fetching one is just an image
// download. The template is host-specific and set in config.
func (p *RatePlugin) avatarURL(id string) string {
	return fmt.Sprintf(p.c.Get("rate.avatarurl", "http://q1.qlogo.cn/g?b=qq&nk=%s&s=640"), id)
}
