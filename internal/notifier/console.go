package notifier

import (
	"bufio"
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"regexp"
	"strings"
	"sync"
)

var tagPattern = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// ConsoleNotifier prints messages as plain text. Used when no chat bot is configured.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

// Send writes text with the HTML markup removed.
func (c *ConsoleNotifier) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.w, PlainText(text))
	return err
}

// PlainText strips the chat markup from a formatted message.
func PlainText(text string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(text, ""))
}

// ReadCommands feeds each non-empty line of r to handler and prints the reply.
// Returns when r is exhausted or ctx is cancelled.
func (c *ConsoleNotifier) ReadCommands(ctx context.Context, r io.Reader, handler CommandHandler) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Printf("[WARN] console input: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if reply := handler(line); reply != "" {
				if err := c.Send(reply); err != nil {
					log.Printf("[ERROR] console reply: %v", err)
				}
			}
		}
	}
}
