// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package bot

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/wormwood/cardbase/bot/msg"
	"github.com/wormwood/cardbase/bot/user"
	"github.com/wormwood/cardbase/config"
)

// bot type provides storage for bot-wide information, configs, and database connections
type bot struct {
	// channel -> plugin -> callback ordering is registration order
	callbacks map[Kind][]pluginCallback

	// names of registered plugins, in registration order
	pluginOrdering []string

	config *config.Config

	conn Connector

	users []user.User
	me    user.User

	passwordCreated time.Time
	password        string

	router        *chi.Mux
	httpEndPoints []EndPoint
}

type pluginCallback struct {
	plugin string
	cb     Callback
}

// New creates a bot for a given connection and set of handlers.
func New(config *config.Config, connector Connector) Bot {
	users := []user.User{
		{
			Name: config.Get("nick", "cardbase"),
		},
	}

	bot := &bot{
		config:         config,
		callbacks:      make(map[Kind][]pluginCallback),
		pluginOrdering: []string{},
		conn:           connector,
		users:          users,
		me:             users[0],
		httpEndPoints:  []EndPoint{},
	}

	bot.setupHTTP()

	connector.RegisterEvent(bot.Receive)

	return bot
}

func (b *bot) Config() *config.Config {
	return b.config
}

func (b *bot) DB() *sqlx.DB {
	return b.config.DB
}

func (b *bot) WhoAmI() string {
	return b.me.Name
}

func (b *bot) DefaultConnector() Connector {
	return b.conn
}

// Register attaches a callback for a kind of event to a plugin.
func (b *bot) Register(p Plugin, kind Kind, cb Callback) {
	name := pluginName(p)
	b.addName(name)
	b.callbacks[kind] = append(b.callbacks[kind], pluginCallback{name, cb})
}

// RegisterTable registers each handler spec as a regex-gated callback.
func (b *bot) RegisterTable(p Plugin, handlers HandlerTable) {
	for _, spec := range handlers {
		b.RegisterRegex(p, spec.Kind, spec.Regex, spec.IsCmd, spec.HelpText, spec.Handler)
	}
}

// RegisterRegex gates a handler behind a regex (and optionally the command
// char), parsing named captures into the request values.
func (b *bot) RegisterRegex(p Plugin, kind Kind, r *regexp.Regexp, isCmd bool, helpText string, resp ResponseHandler) {
	b.Register(p, kind, func(conn Connector, k Kind, message msg.Message, args ...any) bool {
		if isCmd && !message.Command {
			return false
		}
		if !r.MatchString(message.Body) {
			return false
		}
		req := Request{
			Conn:   conn,
			Kind:   k,
			Msg:    message,
			Values: ParseValues(r, message.Body),
			Args:   args,
		}
		return resp(req)
	})
	if helpText != "" {
		b.registerHelp(p, helpText)
	}
}

func (b *bot) registerHelp(p Plugin, helpText string) {
	b.Register(p, Help, func(conn Connector, k Kind, message msg.Message, args ...any) bool {
		b.Send(conn, Message, message.Channel, helpText)
		return true
	})
}

func (b *bot) addName(name string) {
	for _, n := range b.pluginOrdering {
		if n == name {
			return
		}
	}
	b.pluginOrdering = append(b.pluginOrdering, name)
}

func pluginName(p Plugin) string {
	return fmt.Sprintf("%T", p)
}

// GetPassword returns a throwaway password rotated daily, used to guard the
// web interfaces.
func (b *bot) GetPassword() string {
	if b.passwordCreated.Before(time.Now().Add(-24 * time.Hour)) {
		adjy := b.config.GetArray("bot.niceAdjectives", []string{"strange", "touched", "scurvy"})
		nouny := b.config.GetArray("bot.niceNouns", []string{"canoe", "noodle", "lamprey"})
		b.passwordCreated = time.Now()
		b.password = fmt.Sprintf("%s-%s-%04d",
			adjy[rand.Intn(len(adjy))], nouny[rand.Intn(len(nouny))], rand.Intn(10000))
		log.Info().Msgf("Generated new web password: %s", b.password)
	}
	return b.password
}

func (b *bot) CheckPassword(secret, password string) bool {
	return b.GetPassword() == password
}
