// Package command recognises conversation-level commands (start over,
// place the order) before a message goes to extraction.
package command

import "context"

type Command string

const (
	None    Command = "none"
	Reset   Command = "reset"
	Confirm Command = "confirm"
)

type Parser interface {
	ParseCommand(ctx context.Context, input string) (Command, error)
}
