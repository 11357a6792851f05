// Package bot turns chat messages into harvest runs and replies.
package bot

import (
	"fmt"
	"strings"
)

// Command names understood by the bot.
const (
	CommandStart    = "start"
	CommandHelp     = "help"
	CommandComments = "comments"
	CommandParse    = "parse"
)

// IncomingMessage is a text message received by the bot.
type IncomingMessage struct {
	ChatID int64
	Text   string
}

// Command is a parsed message. Name is empty for plain text.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits "/name@botname arg1 arg2" into a Command.
func ParseCommand(text string) Command {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{Args: fields}
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return Command{Name: strings.ToLower(name), Args: fields[1:]}
}

func (c Command) String() string {
	if c.Name == "" {
		return "text"
	}
	return fmt.Sprintf("/%s", c.Name)
}
