// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Config is a key/value store backed by sqlite. Callers provide a fallback
// for every lookup so plugins can run against an empty database. Values set
// in the process environment (dots replaced by underscores, uppercased)
// override the store, which is how secrets are injected at startup.
type Config struct {
	*sqlx.DB

	DBFile string
}

// ReadConfig opens (and if necessary initializes) the config store at dbpath.
func ReadConfig(dbpath string) *Config {
	if dbpath == "" {
		dbpath = "cardbase.db"
	}
	log.Info().Msgf("Using %s as database file.", dbpath)

	sqlDB, err := sqlx.Open("sqlite3", dbpath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open config database")
	}
	c := Config{
		DB:     sqlDB,
		DBFile: dbpath,
	}
	c.MustExec(`create table if not exists config (
		key string primary key,
		value string
	);`)

	return &c
}

func envkey(key string) string {
	key = strings.ToUpper(key)
	return strings.ReplaceAll(key, ".", "_")
}

// Get returns the value for key, or fallback if it is unset.
func (c *Config) Get(key, fallback string) string {
	return c.GetString(key, fallback)
}

func (c *Config) GetString(key, fallback string) string {
	key = strings.ToLower(key)
	if v, ok := os.LookupEnv(envkey(key)); ok {
		return v
	}
	var configValue string
	q := `select value from config where key=?`
	err := c.DB.Get(&configValue, q, key)
	if err != nil {
		return fallback
	}
	return configValue
}

func (c *Config) GetInt(key string, fallback int) int {
	str := c.GetString(key, strconv.Itoa(fallback))
	i, err := strconv.Atoi(str)
	if err != nil {
		return fallback
	}
	return i
}

func (c *Config) GetFloat64(key string, fallback float64) float64 {
	str := c.GetString(key, strconv.FormatFloat(fallback, 'f', -1, 64))
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (c *Config) GetBool(key string, fallback bool) bool {
	str := c.GetString(key, strconv.FormatBool(fallback))
	b, err := strconv.ParseBool(str)
	if err != nil {
		return fallback
	}
	return b
}

// GetArray returns a ";;" delimited list stored at key.
func (c *Config) GetArray(key string, fallback []string) []string {
	val := c.GetString(key, "")
	if val == "" {
		return fallback
	}
	return strings.Split(val, ";;")
}

// GetMap returns a JSON map stored at key.
func (c *Config) GetMap(key string, fallback map[string]string) map[string]string {
	content := c.Get(key, "")
	if content == "" {
		return fallback
	}
	vals := map[string]string{}
	err := json.Unmarshal([]byte(content), &vals)
	if err != nil {
		log.Error().Err(err).Msgf("could not decode config map %s", key)
		return fallback
	}
	return vals
}

// Set stores value at key, replacing any existing value.
func (c *Config) Set(key, value string) error {
	key = strings.ToLower(key)
	value = strings.Trim(value, "`")
	q := `insert into config (key,value) values (?, ?)
		on conflict(key) do update set value=excluded.value;`
	tx, err := c.Beginx()
	if err != nil {
		return err
	}
	_, err = tx.Exec(q, key, value)
	if err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (c *Config) SetArray(key string, values []string) error {
	return c.Set(key, strings.Join(values, ";;"))
}

func (c *Config) SetMap(key string, values map[string]string) error {
	b, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return c.Set(key, string(b))
}

// Unset removes key from the store.
func (c *Config) Unset(key string) error {
	q := `delete from config where key=?`
	tx, err := c.Beginx()
	if err != nil {
		return err
	}
	_, err = tx.Exec(q, strings.ToLower(key))
	if err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SetDefaults populates a fresh database with enough configuration to chat.
func (c *Config) SetDefaults(mainChannel, nick string) {
	if mainChannel == "" || nick == "" {
		log.Fatal().Msg("You must provide a nick and a mainChannel")
	}
	c.Set("nick", nick)
	c.Set("channels", mainChannel)
	c.Set("commandchar", "!;;¡")
	c.Set("httpaddr", "127.0.0.1:1337")
	c.Set("init", "1")
	log.Info().Msg("Configuration initialized.")
}

func (c *Config) String() string {
	return fmt.Sprintf("config(%s)", c.DBFile)
}
