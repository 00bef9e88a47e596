// Package cli provides plain line-oriented terminal I/O for talecraft
// games: numbered choices, word-wrapped content and slash commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/nathoo/talecraft/session"
)

// DefaultWidth is the wrap width used when none is set.
const DefaultWidth = 80

// CLI handles terminal interaction with the player.
type CLI struct {
	Session   *session.Session
	In        io.Reader
	Out       io.Writer
	Width     int
	EchoInput bool // echo each input line after the prompt (for script playback)
	Resume    bool // the game was restored from a save; skip the opening
}

// New creates a CLI over the given session.
func New(s *session.Session) *CLI {
	return &CLI{
		Session: s,
		In:      os.Stdin,
		Out:     os.Stdout,
		Width:   DefaultWidth,
	}
}

// Run starts the game loop: it shows the opening, then loops
// prompt, input, step, output until /quit or end of input.
func (c *CLI) Run(ctx context.Context) {
	if c.Resume {
		c.printResult(c.Session.Resume())
	} else {
		c.printResult(c.Session.Begin())
	}

	scanner := bufio.NewScanner(c.In)
	for {
		if ctx.Err() != nil {
			return
		}
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		res := c.Session.Step(ctx, input)
		c.printResult(res)
		if res.Quit {
			return
		}
	}
}

func (c *CLI) printResult(res session.Result) {
	for _, line := range res.Lines {
		c.printLine(c.format(line))
	}
}

// format decorates a line by kind and wraps it to the configured width.
func (c *CLI) format(line session.Line) string {
	text := line.Text
	switch line.Kind {
	case session.KindTitle:
		text = "\n== " + text + " =="
	case session.KindChoice:
		text = "  " + text
	case session.KindSystem:
		text = "[" + text + "]"
	case session.KindError:
		text = "! " + text
	}
	width := c.Width
	if width <= 0 {
		width = DefaultWidth
	}
	return wordwrap.String(text, width)
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}
