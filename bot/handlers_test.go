package bot

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wormwood/cardbase/bot/msg"
	"github.com/wormwood/cardbase/bot/user"
)

func TestParseValues(t *testing.T) {
	r := regexp.MustCompile(`(?i)^rate(?:\s+--m\s+(?P<mode>\S+))?`)
	v := ParseValues(r, "rate --m detailed")
	assert.Equal(t, "detailed", v["mode"])
	v = ParseValues(r, "rate")
	assert.Equal(t, "", v["mode"])
}

func TestParseValuesNoMatch(t *testing.T) {
	r := regexp.MustCompile(`^steam (?P<what>\S+)$`)
	v := ParseValues(r, "unrelated")
	assert.Empty(t, v)
}

func mkMsg(body string) msg.Message {
	return msg.Message{
		User:    &user.User{Name: "tester"},
		Channel: "test",
		Body:    body,
		Command: true,
		Time:    time.Now(),
	}
}

type pluginOne struct{}
type pluginTwo struct{}

func TestDispatchFirstMatchWins(t *testing.T) {
	mb := NewMockBot()
	first, second := 0, 0
	mb.RegisterTable(pluginOne{}, HandlerTable{
		{Kind: Message, IsCmd: true,
			Regex:   regexp.MustCompile(`^hit$`),
			Handler: func(r Request) bool { first++; return true }},
	})
	mb.RegisterTable(pluginTwo{}, HandlerTable{
		{Kind: Message, IsCmd: true,
			Regex:   regexp.MustCompile(`^hit$`),
			Handler: func(r Request) bool { second++; return true }},
	})

	handled := mb.Receive(nil, Message, mkMsg("hit"))
	assert.True(t, handled)
	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second, "second plugin must not see a claimed event")
}

func TestDispatchNoMatchFallsThrough(t *testing.T) {
	mb := NewMockBot()
	calls := 0
	mb.RegisterTable(pluginOne{}, HandlerTable{
		{Kind: Message, IsCmd: true,
			Regex:   regexp.MustCompile(`^hit$`),
			Handler: func(r Request) bool { calls++; return true }},
	})
	handled := mb.Receive(nil, Message, mkMsg("miss"))
	assert.False(t, handled)
	assert.Zero(t, calls)
}
