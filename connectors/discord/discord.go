package discord

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/wormwood/cardbase/bot"
	"github.com/wormwood/cardbase/bot/msg"
	"github.com/wormwood/cardbase/bot/user"
	"github.com/wormwood/cardbase/config"
)

type Discord struct {
	config *config.Config
	client *discordgo.Session

	event bot.Callback
}

func New(config *config.Config) *Discord {
	client, err := discordgo.New("Bot " + config.Get("DISCORDBOTTOKEN", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("Could not connect to Discord")
	}
	d := &Discord{
		config: config,
		client: client,
	}
	return d
}

func (d *Discord) RegisterEvent(callback bot.Callback) {
	d.event = callback
}

func (d *Discord) Send(kind bot.Kind, args ...any) (string, error) {
	switch kind {
	case bot.Message:
		return d.sendMessage(args[0].(string), args[1].(string), false, args...)
	case bot.Action:
		return d.sendMessage(args[0].(string), args[1].(string), true, args...)
	case bot.Edit:
		st, err := d.client.ChannelMessageEdit(args[0].(string), args[2].(string), args[1].(string))
		if err != nil {
			return "", err
		}
		return st.ID, nil
	case bot.Reply:
		original, err := d.client.ChannelMessage(args[0].(string), args[1].(string))
		body := args[2].(string)
		if err != nil {
			log.Error().Err(err).Msg("could not get original")
		} else {
			body = fmt.Sprintf("> %s\n%s", original.Content, body)
		}
		return d.sendMessage(args[0].(string), body, false, args...)
	case bot.Reaction:
		m := args[2].(msg.Message)
		err := d.client.MessageReactionAdd(args[0].(string), m.ID, args[1].(string))
		return args[1].(string), err
	case bot.Delete:
		ch := args[0].(string)
		id := args[1].(string)
		err := d.client.ChannelMessageDelete(ch, id)
		if err != nil {
			log.Error().Err(err).Msg("cannot delete message")
		}
		return id, err
	default:
		log.Error().Msgf("discord.Send: unknown kind, %+v", kind)
		return "", errors.New("unknown message type")
	}
}

func (d *Discord) sendMessage(channel, message string, meMessage bool, args ...any) (string, error) {
	if meMessage {
		message = "_" + message + "_"
	}

	var embed *discordgo.MessageEmbed
	var files []*discordgo.File

	for _, arg := range args {
		switch a := arg.(type) {
		case bot.ImageAttachment:
			embed = &discordgo.MessageEmbed{
				Description: a.AltTxt,
				Image: &discordgo.MessageEmbedImage{
					URL:    a.URL,
					Width:  a.Width,
					Height: a.Height,
				},
			}
		case bot.File:
			files = append(files, &discordgo.File{
				Name:        "card.png",
				ContentType: "image/png",
				Reader:      bytes.NewReader(a.Data),
			})
		}
	}

	data := &discordgo.MessageSend{
		Content: message,
		Embed:   embed,
		Files:   files,
	}

	st, err := d.client.ChannelMessageSendComplex(channel, data)
	if err != nil {
		log.Error().Err(err).Msg("Error sending message")
		return "", err
	}

	return st.ID, nil
}

// Message resolves a previously posted message, used for reply chains.
func (d *Discord) Message(channel, id string) (msg.Message, error) {
	m, err := d.client.ChannelMessage(channel, id)
	if err != nil {
		return msg.Message{}, err
	}
	return d.convertMessage(channel, m), nil
}

func (d *Discord) Profile(id string) (user.User, error) {
	u, err := d.client.User(id)
	if err != nil {
		log.Error().Err(err).Msg("Error getting user")
		return user.User{}, err
	}
	return *d.convertUser(u), nil
}

func (d *Discord) convertUser(u *discordgo.User) *user.User {
	return &user.User{
		ID:    u.ID,
		Name:  u.Username,
		Admin: false,
		Icon:  u.AvatarURL("640"),
	}
}

func (d *Discord) convertMessage(channel string, m *discordgo.Message) msg.Message {
	images := []msg.Image{}
	for _, a := range m.Attachments {
		images = append(images, msg.Image{
			URL:    a.URL,
			Width:  a.Width,
			Height: a.Height,
		})
	}

	mentions := []string{}
	for _, u := range m.Mentions {
		mentions = append(mentions, u.ID)
	}

	replyTo := ""
	if m.MessageReference != nil {
		replyTo = m.MessageReference.MessageID
	}

	isCmd, text := bot.IsCmd(d.config, m.Content)

	return msg.Message{
		ID:       m.ID,
		User:     d.convertUser(m.Author),
		Channel:  channel,
		Body:     text,
		Images:   images,
		ReplyTo:  replyTo,
		Mentions: mentions,
		Command:  isCmd,
		Time:     m.Timestamp,
	}
}

func (d *Discord) Serve() error {
	log.Debug().Msg("starting discord serve function")

	d.client.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent)

	err := d.client.Open()
	if err != nil {
		log.Debug().Err(err).Msg("error opening client")
		return err
	}

	log.Debug().Msg("discord connection open")

	d.client.AddHandler(d.messageCreate)

	return nil
}

func (d *Discord) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}

	message := d.convertMessage(m.ChannelID, m.Message)

	ch, err := s.Channel(m.ChannelID)
	if err == nil {
		message.ChannelName = ch.Name
		message.IsIM = ch.Type == discordgo.ChannelTypeDM
	} else {
		log.Error().Err(err).Msg("error getting channel info")
	}

	log.Debug().Interface("msg", message).Msg("message received")

	d.event(d, bot.Message, message)
}
