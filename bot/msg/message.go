// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package msg

import (
	"time"

	"github.com/wormwood/cardbase/bot/user"
)

type Log Messages
type Messages []Message

// Image is a reference to a picture attached to a message.
type Image struct {
	URL    string
	Width  int
	Height int
}

// Message is one incoming chat event. The bot creates it from the connector
// payload and plugins treat it as read-only.
type Message struct {
	ID   string
	User *user.User
	// With Discord, Channel is the ID of a channel
	Channel string
	// ChannelName is the nice name of a channel
	ChannelName string
	Body        string
	// Images attached to this message
	Images []Image
	// ReplyTo is the ID of the message this one replies to, if any
	ReplyTo string
	// Mentions holds the IDs of users @-mentioned in the body
	Mentions       []string
	IsIM           bool
	Raw            interface{}
	Command        bool
	Action         bool
	Time           time.Time
	Host           string
	AdditionalData map[string]string
}
