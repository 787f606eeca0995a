package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	cmd, args, ok := p.ParseCommand("!баллы")
	assert.True(t, ok)
	assert.Equal(t, "баллы", cmd)
	assert.Empty(t, args)

	cmd, args, ok = p.ParseCommand("/login секрет123")
	assert.True(t, ok)
	assert.Equal(t, "login", cmd)
	assert.Equal(t, []string{"секрет123"}, args)

	cmd, args, ok = p.ParseCommand("  .Купить Кофе  ")
	assert.True(t, ok)
	assert.Equal(t, "купить", cmd)
	assert.Equal(t, []string{"Кофе"}, args)
}

func TestParseCommandNotACommand(t *testing.T) {
	p := NewCommandParser()

	for _, text := range []string{
		"просто сообщение",
		"<@bob> ++ спасибо",
		"!",
		"   ",
	} {
		_, _, ok := p.ParseCommand(text)
		assert.False(t, ok, "text=%q", text)
	}
}

func TestParseCommandPlusPrefixIsNotCommand(t *testing.T) {
	p := NewCommandParser()

	// сообщение вида «!++ ...» не считается командой:
	// плюсы — территория признаний
	_, _, ok := p.ParseCommand("!++ странный ввод")
	assert.False(t, ok)
}
