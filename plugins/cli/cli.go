// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

// Package cli is a browser page for poking the bot without a chat
// connection. It doubles as a Connector so plugin replies land back on the
// page instead of a chat network.
package cli

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/wormwood/cardbase/bot"
	"github.com/wormwood/cardbase/bot/msg"
	"github.com/wormwood/cardbase/bot/user"
)

//go:embed *.html
var embeddedFS embed.FS

type CliPlugin struct {
	bot     bot.Bot
	cache   string
	counter int
}

func New(b bot.Bot) *CliPlugin {
	cp := &CliPlugin{
		bot: b,
	}
	cp.registerWeb()
	return cp
}

func (p *CliPlugin) registerWeb() {
	r := chi.NewRouter()
	r.HandleFunc("/api", p.handleWebAPI)
	r.HandleFunc("/", p.handleWeb)
	p.bot.RegisterWebName(r, "/cli", "CLI")
}

func (p *CliPlugin) handleWebAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fmt.Fprintf(w, "Incorrect HTTP method")
		return
	}
	info := struct {
		User     string `json:"user"`
		Payload  string `json:"payload"`
		Password string `json:"password"`
	}{}
	decoder := json.NewDecoder(r.Body)
	err := decoder.Decode(&info)
	if err != nil {
		w.WriteHeader(500)
		fmt.Fprint(w, err)
		return
	}
	log.Debug().
		Interface("postbody", info).
		Msg("Got a POST")
	if !p.bot.CheckPassword("", info.Password) {
		w.WriteHeader(http.StatusForbidden)
		j, _ := json.Marshal(struct{ Err string }{Err: "Invalid Password"})
		w.Write(j)
		return
	}

	p.bot.Receive(p, bot.Message, msg.Message{
		User: &user.User{
			ID:    info.User,
			Name:  info.User,
			Admin: false,
		},
		Channel: "web",
		Body:    info.Payload,
		Raw:     info.Payload,
		Command: true,
		Time:    time.Now(),
	})

	info.User = p.bot.WhoAmI()
	info.Payload = p.cache
	p.cache = ""

	data, err := json.Marshal(info)
	if err != nil {
		w.WriteHeader(500)
		fmt.Fprint(w, err)
		return
	}
	w.Write(data)
}

func (p *CliPlugin) handleWeb(w http.ResponseWriter, r *http.Request) {
	index, _ := embeddedFS.ReadFile("index.html")
	w.Write(index)
}

// Completing the Connector interface, but will not actually be a connector.
func (p *CliPlugin) RegisterEvent(cb bot.Callback) {}

func (p *CliPlugin) Send(kind bot.Kind, args ...any) (string, error) {
	switch kind {
	case bot.Message, bot.Action, bot.Reply, bot.Reaction:
		p.cache += args[1].(string) + "\n"
		// the page can't show raw bytes; point at the hosted copy instead
		for _, arg := range args[2:] {
			if a, ok := arg.(bot.ImageAttachment); ok {
				p.cache += a.URL + "\n"
			}
		}
	case bot.Delete:
		p.cache += "(withdrew a message)\n"
	}
	id := fmt.Sprintf("%d", p.counter)
	p.counter++
	return id, nil
}

func (p *CliPlugin) Message(channel, id string) (msg.Message, error) {
	return msg.Message{}, fmt.Errorf("the cli page does not keep history")
}

func (p *CliPlugin) Profile(name string) (user.User, error) {
	return user.User{}, fmt.Errorf("unimplemented")
}

func (p *CliPlugin) Serve() error { return nil }
