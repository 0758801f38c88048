// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package bot

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wormwood/cardbase/bot/msg"
	"github.com/wormwood/cardbase/config"
)

// Receive dispatches an incoming event to the plugins in registration order.
// The first callback returning true claims the event and suppresses any
// further processing.
func (b *bot) Receive(conn Connector, kind Kind, message msg.Message, args ...any) bool {
	if kind == Message && strings.HasPrefix(message.Body, "help") && message.Command {
		parts := strings.Fields(strings.ToLower(message.Body))
		b.checkHelp(conn, message.Channel, parts)
		return true
	}

	log.Debug().
		Interface("msg", message).
		Msgf("Received event")

	for _, name := range b.pluginOrdering {
		if b.runCallback(name, conn, kind, message, args...) {
			return true
		}
	}

	return false
}

func (b *bot) runCallback(plugin string, conn Connector, kind Kind, message msg.Message, args ...any) bool {
	for _, entry := range b.callbacks[kind] {
		if entry.plugin != plugin {
			continue
		}
		if entry.cb(conn, kind, message, args...) {
			return true
		}
	}
	return false
}

// Send transmits a message to the connector.
func (b *bot) Send(conn Connector, kind Kind, args ...any) (string, error) {
	return conn.Send(kind, args...)
}

// checkHelp handles help requests for the named plugin, or lists topics.
func (b *bot) checkHelp(conn Connector, channel string, parts []string) {
	if len(parts) == 1 {
		topics := "Help topics: about"
		for _, name := range b.pluginOrdering {
			topics += ", " + strings.TrimPrefix(strings.ToLower(name), "*")
		}
		b.Send(conn, Message, channel, topics)
		return
	}
	if parts[1] == "about" {
		b.Send(conn, Message, channel, "Hi, I'm cardbase. I make cards out of the internet. "+
			"You can find my source code on the internet here: "+
			"http://github.com/wormwood/cardbase")
		return
	}
	for _, name := range b.pluginOrdering {
		if strings.Contains(strings.ToLower(name), parts[1]) {
			b.runCallback(name, conn, Help, msg.Message{Channel: channel, Body: strings.Join(parts[1:], " ")})
			return
		}
	}
	b.Send(conn, Message, channel, "I'm sorry, I don't know what "+parts[1]+" is!")
}

// IsCmd checks if message is a command and returns its curtailed version
func IsCmd(c *config.Config, message string) (bool, string) {
	cmdcs := c.GetArray("CommandChar", []string{"!"})
	botnick := strings.ToLower(c.Get("Nick", "cardbase"))
	iscmd := false
	lowerMessage := strings.ToLower(message)

	if strings.HasPrefix(lowerMessage, botnick) &&
		len(lowerMessage) > len(botnick) &&
		(lowerMessage[len(botnick)] == ',' || lowerMessage[len(botnick)] == ':') {

		iscmd = true
		message = message[len(botnick):]

		// trim off the customary addressing punctuation
		if message[0] == ':' || message[0] == ',' {
			message = message[1:]
		}
	} else {
		for _, cmdc := range cmdcs {
			if strings.HasPrefix(message, cmdc) && len(cmdc) > 0 {
				iscmd = true
				message = message[len(cmdc):]
				break
			}
		}
	}

	// trim off any whitespace left on the message
	message = strings.TrimSpace(message)

	return iscmd, message
}

// ParseValues extracts the named capture groups of r from body.
func ParseValues(r *regexp.Regexp, body string) RegexValues {
	out := RegexValues{}
	subs := r.FindStringSubmatch(body)
	if len(subs) == 0 {
		return out
	}
	for i, n := range r.SubexpNames() {
		if n != "" {
			out[n] = subs[i]
		}
	}
	return out
}
