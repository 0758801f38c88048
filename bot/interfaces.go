// © 2016 the CatBase Authors under the WTFPL license. See AUTHORS for the list of authors.

package bot

import (
	"net/http"
	"regexp"

	"github.com/jmoiron/sqlx"

	"github.com/wormwood/cardbase/bot/msg"
	"github.com/wormwood/cardbase/bot/user"
	"github.com/wormwood/cardbase/config"
)

// Kind is the type of event or message being sent or received.
type Kind int

const (
	_ Kind = iota

	// Message any standard chat
	Message
	// Reply something containing a message reference
	Reply
	// Action any /me action
	Action
	// Reaction icon reaction if the service supports it
	Reaction
	// Edit message ref'd new message to replace
	Edit
	// Delete removes a previously sent message by ID
	Delete
	// Help is used when the bot help system is triggered
	Help
	// SelfMessage triggers when the bot is sending a message
	SelfMessage
	// Startup is triggered once the connector is serving
	Startup
)

// Callback is a generic plugin hook for a particular Kind.
type Callback func(Connector, Kind, msg.Message, ...any) bool

// ResponseHandler receives a fully parsed Request.
type ResponseHandler func(Request) bool

// Request is the packet of information plugins receive for a matched trigger.
type Request struct {
	Conn Connector
	Kind Kind
	Msg  msg.Message
	// Values contains the named capture groups from the matched regex
	Values RegexValues
	Args   []any
}

// RegexValues maps named capture groups to their matched content.
type RegexValues map[string]string

// HandlerSpec bundles a trigger with its handler.
type HandlerSpec struct {
	Kind  Kind
	IsCmd bool
	Regex *regexp.Regexp
	// HelpText is the command help, shown by the help plugin hook
	HelpText string
	Handler  ResponseHandler
}

// HandlerTable is a list of HandlerSpecs dispatched in registration order.
// The first handler to return true ends processing for the event.
type HandlerTable []HandlerSpec

// ImageAttachment is a Send payload embedding a hosted image by URL.
type ImageAttachment struct {
	URL    string
	AltTxt string
	Width  int
	Height int
}

// File is a Send payload uploading raw bytes alongside the message.
type File struct {
	Description string
	Data        []byte
}

// EndPoint is a web entry point for the nav interface
type EndPoint struct {
	Name, URL string
}

type Bot interface {
	Config() *config.Config
	DB() *sqlx.DB
	WhoAmI() string

	// Send transmits a payload over the given connector.
	// Kind arguments:
	//   Message/Action: channel, body, [attachments...]
	//   Delete: channel, messageID
	//   Edit: channel, newBody, messageID
	Send(Connector, Kind, ...any) (string, error)
	// Receive dispatches an incoming event to the plugins, returning true
	// if a plugin handled it
	Receive(Connector, Kind, msg.Message, ...any) bool

	Register(Plugin, Kind, Callback)
	RegisterTable(Plugin, HandlerTable)

	RegisterWeb(string, string)
	RegisterWebName(http.Handler, string, string)
	GetWebNavigation() []EndPoint
	DefaultConnector() Connector
	GetPassword() string
	CheckPassword(secret, password string) bool
}

type Connector interface {
	RegisterEvent(Callback)

	Send(Kind, ...any) (string, error)

	// Message looks up a previously seen message by channel and ID,
	// used to resolve reply chains
	Message(channel, id string) (msg.Message, error)

	Profile(string) (user.User, error)
	Serve() error
}

// Plugin is any registered plugin. Identity only; capabilities come from
// the handlers it registers.
type Plugin any
