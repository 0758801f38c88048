// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package main

import (
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wormwood/cardbase/bot"
	"github.com/wormwood/cardbase/bot/msg"
	"github.com/wormwood/cardbase/config"
	"github.com/wormwood/cardbase/connectors/discord"
	"github.com/wormwood/cardbase/plugins/cards"
	"github.com/wormwood/cardbase/plugins/cli"
	"github.com/wormwood/cardbase/plugins/rate"
	"github.com/wormwood/cardbase/plugins/steam"
)

var (
	key        = flag.String("set", "", "Set a config key")
	val        = flag.String("val", "", "Value for the config key")
	dbpath     = flag.String("db", "cardbase.db", "Database file to load")
	debug      = flag.Bool("debug", false, "Turn on debug logging")
	prettyLogs = flag.Bool("pretty", true, "Use pretty console logs")
)

func main() {
	rand.Seed(time.Now().UnixNano())
	flag.Parse()

	if *prettyLogs {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = log.Output(output)
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	c := config.ReadConfig(*dbpath)

	if *key != "" && *val != "" {
		c.Set(*key, *val)
		log.Info().Msgf("Set config %s: %s", *key, *val)
		return
	}

	var conn bot.Connector
	switch c.Get("type", "discord") {
	case "discord":
		conn = discord.New(c)
	default:
		log.Fatal().Msgf("unknown connector type %s", c.Get("type", ""))
	}

	b := bot.New(c, conn)

	deck := cards.New(b)
	rate.New(b, deck)
	steam.New(b, deck)
	cli.New(b)

	if err := conn.Serve(); err != nil {
		log.Fatal().Err(err).Msg("could not connect")
	}

	b.Receive(conn, bot.Startup, msg.Message{Body: ""})

	select {}
}
