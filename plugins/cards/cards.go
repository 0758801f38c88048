// Package cards is the shared plumbing for plugins that answer a chat
// trigger with data fetched from the internet, optionally drawn onto a card
// image. It owns the fetch→render→reply flow, the typed fetch errors, the
// in-memory cache of rendered cards served over the web interface, and the
// delayed-withdrawal timer.
package cards

import (
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wormwood/cardbase/bot"
	"github.com/wormwood/cardbase/config"
)

type Cards struct {
	b bot.Bot
	c *config.Config

	mut    sync.Mutex
	images map[string]*cachedImage

	horizon time.Duration
}

type cachedImage struct {
	created time.Time
	repr    []byte
}

func New(b bot.Bot) *Cards {
	p := &Cards{
		b:      b,
		c:      b.Config(),
		images: map[string]*cachedImage{},
	}
	p.horizon = time.Duration(p.c.GetInt("cards.horizon", 24)) * time.Hour

	if font := p.FontPath(); font != "" {
		if _, err := os.Stat(font); err != nil {
			// cards will fail to render until the font shows up, but the
			// text-only plugins still work
			log.Error().Err(err).Msgf("card font %s is not readable", font)
		}
	}

	p.registerWeb()
	return p
}

// FontPath is the filesystem location of the card typeface.
func (p *Cards) FontPath() string {
	return p.c.Get("cards.font", "impact.ttf")
}

// Pipeline describes one trigger's worth of work. Fetch talks to the
// external source, Text formats the reply line, Render (optional) draws the
// card. Withdraw > 0 deletes the sent reply after that delay.
type Pipeline struct {
	Name     string
	FailText string
	Fetch    func(r bot.Request) (any, error)
	Text     func(data any) string
	Render   func(data any) ([]byte, error)
	Withdraw time.Duration
}

// Run executes the pipeline for a matched request. It always claims the
// event: every failure past the trigger is converted into a single
// user-visible line and logged, never propagated.
func (p *Cards) Run(pl Pipeline, r bot.Request) bool {
	data, err := pl.Fetch(r)
	if err != nil {
		log.Error().Err(err).Msgf("%s fetch failed", pl.Name)
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, pl.FailText+failReason(err))
		return true
	}

	args := []any{r.Msg.Channel, ""}
	if pl.Text != nil {
		args[1] = pl.Text(data)
	}

	if pl.Render != nil {
		repr, err := pl.Render(data)
		if err != nil {
			log.Error().Err(err).Msgf("%s render failed", pl.Name)
			p.b.Send(r.Conn, bot.Message, r.Msg.Channel, pl.FailText)
			return true
		}
		args = append(args,
			bot.ImageAttachment{URL: p.host(repr), AltTxt: pl.Name},
			bot.File{Description: pl.Name, Data: repr})
	}

	id, err := p.b.Send(r.Conn, bot.Message, args...)
	if err != nil {
		log.Error().Err(err).Msgf("%s send failed", pl.Name)
		return true
	}

	if pl.Withdraw > 0 {
		p.ScheduleDelete(r.Conn, r.Msg.Channel, id, pl.Withdraw)
	}

	return true
}

// failReason exposes the failure class to the user without leaking the
// underlying error text.
func failReason(err error) string {
	if ferr, ok := err.(*FetchError); ok {
		return " (" + string(ferr.Kind) + ")"
	}
	return ""
}

// ScheduleDelete arranges one best-effort deletion of a sent message after
// delay. There is no cancellation hook: the timer fires regardless of what
// happens to the plugin, attempts exactly once, and failures are only
// logged. Pending deletions are lost if the process exits first.
func (p *Cards) ScheduleDelete(conn bot.Connector, channel, id string, delay time.Duration) *time.Timer {
	return time.AfterFunc(delay, func() {
		if _, err := p.b.Send(conn, bot.Delete, channel, id); err != nil {
			log.Warn().Err(err).Msgf("could not withdraw message %s", id)
		}
	})
}

// host caches a rendered card and returns the URL it is served at.
func (p *Cards) host(repr []byte) string {
	id := uuid.New().String()
	p.mut.Lock()
	p.images[id] = &cachedImage{created: time.Now(), repr: repr}
	p.cleanup()
	p.mut.Unlock()
	return p.c.Get("BaseURL", "http://127.0.0.1:1337") + "/card/img/" + id
}

// cleanup evicts cards older than the horizon. Callers hold the lock.
func (p *Cards) cleanup() {
	for key, img := range p.images {
		if time.Now().After(img.created.Add(p.horizon)) {
			delete(p.images, key)
		}
	}
}

func (p *Cards) registerWeb() {
	r := chi.NewRouter()
	r.HandleFunc("/img/{id}", p.img)
	p.b.RegisterWebName(r, "/card", "Cards")
}

func (p *Cards) img(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p.mut.Lock()
	img, ok := p.images[id]
	p.mut.Unlock()
	if !ok {
		w.WriteHeader(404)
		w.Write([]byte("not found"))
		return
	}
	w.Header().Set("Content-Type", mimetype.Detect(img.repr).String())
	w.Write(img.repr)
}
