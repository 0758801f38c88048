// © 2016 the CatBase Authors under the WTFPL license. See AUTHORS for the list of authors.

package bot

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/wormwood/cardbase/bot/msg"
	"github.com/wormwood/cardbase/bot/user"
	"github.com/wormwood/cardbase/config"
)

// MockBot records everything plugins send so tests can assert on it. Send
// is safe to call from timer goroutines; use Deleted for those asserts.
type MockBot struct {
	Cfg *config.Config

	mut         sync.Mutex
	Messages    []string
	Actions     []string
	Deletes     []string
	Attachments []ImageAttachment
	Files       []File

	callbacks      map[Kind][]pluginCallback
	pluginOrdering []string

	counter int
}

func NewMockBot() *MockBot {
	b := MockBot{
		Cfg:       config.ReadConfig(":memory:"),
		Messages:  make([]string, 0),
		Actions:   make([]string, 0),
		Deletes:   make([]string, 0),
		callbacks: make(map[Kind][]pluginCallback),
	}
	return &b
}

func (mb *MockBot) Config() *config.Config { return mb.Cfg }
func (mb *MockBot) DB() *sqlx.DB           { return mb.Cfg.DB }
func (mb *MockBot) WhoAmI() string         { return "tester" }
func (mb *MockBot) DefaultConnector() Connector {
	return &MockConnector{}
}

func (mb *MockBot) Send(c Connector, kind Kind, args ...any) (string, error) {
	mb.mut.Lock()
	defer mb.mut.Unlock()
	switch kind {
	case Message, Reply:
		mb.Messages = append(mb.Messages, args[1].(string))
		for _, arg := range args[2:] {
			switch a := arg.(type) {
			case ImageAttachment:
				mb.Attachments = append(mb.Attachments, a)
			case File:
				mb.Files = append(mb.Files, a)
			}
		}
	case Action:
		mb.Actions = append(mb.Actions, args[1].(string))
	case Delete:
		mb.Deletes = append(mb.Deletes, args[1].(string))
	}
	mb.counter++
	return fmt.Sprintf("%d", mb.counter), nil
}

func (mb *MockBot) Register(p Plugin, kind Kind, cb Callback) {
	name := pluginName(p)
	known := false
	for _, n := range mb.pluginOrdering {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		mb.pluginOrdering = append(mb.pluginOrdering, name)
	}
	mb.callbacks[kind] = append(mb.callbacks[kind], pluginCallback{name, cb})
}

func (mb *MockBot) RegisterTable(p Plugin, handlers HandlerTable) {
	for _, spec := range handlers {
		spec := spec
		mb.Register(p, spec.Kind, func(conn Connector, k Kind, message msg.Message, args ...any) bool {
			if spec.IsCmd && !message.Command {
				return false
			}
			if !spec.Regex.MatchString(message.Body) {
				return false
			}
			return spec.Handler(Request{
				Conn:   conn,
				Kind:   k,
				Msg:    message,
				Values: ParseValues(spec.Regex, message.Body),
				Args:   args,
			})
		})
	}
}

// Receive dispatches like the real bot: registration order, first true wins.
func (mb *MockBot) Receive(conn Connector, kind Kind, message msg.Message, args ...any) bool {
	for _, name := range mb.pluginOrdering {
		for _, entry := range mb.callbacks[kind] {
			if entry.plugin != name {
				continue
			}
			if entry.cb(conn, kind, message, args...) {
				return true
			}
		}
	}
	return false
}

// Deleted returns a copy of the recorded delete targets.
func (mb *MockBot) Deleted() []string {
	mb.mut.Lock()
	defer mb.mut.Unlock()
	out := make([]string, len(mb.Deletes))
	copy(out, mb.Deletes)
	return out
}

func (mb *MockBot) RegisterWeb(root, name string)                        {}
func (mb *MockBot) RegisterWebName(r http.Handler, root, name string)    {}
func (mb *MockBot) GetWebNavigation() []EndPoint                         { return nil }
func (mb *MockBot) GetPassword() string                        { return "changeme" }
func (mb *MockBot) CheckPassword(secret, password string) bool { return password == "changeme" }

// MockConnector satisfies Connector for tests. Lookups can be stubbed.
type MockConnector struct {
	MessageFn func(channel, id string) (msg.Message, error)
	ProfileFn func(id string) (user.User, error)

	Sent []string
}

func (mc *MockConnector) RegisterEvent(cb Callback) {}

func (mc *MockConnector) Send(kind Kind, args ...any) (string, error) {
	if len(args) > 1 {
		if s, ok := args[1].(string); ok {
			mc.Sent = append(mc.Sent, s)
		}
	}
	return fmt.Sprintf("%d", len(mc.Sent)), nil
}

func (mc *MockConnector) Message(channel, id string) (msg.Message, error) {
	if mc.MessageFn != nil {
		return mc.MessageFn(channel, id)
	}
	return msg.Message{}, fmt.Errorf("no message %s", id)
}

func (mc *MockConnector) Profile(id string) (user.User, error) {
	if mc.ProfileFn != nil {
		return mc.ProfileFn(id)
	}
	return user.User{ID: id, Name: id}, nil
}

func (mc *MockConnector) Serve() error { return nil }

var _ Bot = (*MockBot)(nil)
var _ Connector = (*MockConnector)(nil)
