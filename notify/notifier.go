// Package notify surfaces short user-visible messages, the CLI's equivalent
// of a toast.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// Notifier shows a message to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Console writes notices to w and mirrors them to the log.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Success(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, "✓ "+message)
	logger.Info("Notice shown", zap.String("kind", "success"), zap.String("message", message))
}

func (c *Console) Error(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, "✗ "+message)
	logger.Info("Notice shown", zap.String("kind", "error"), zap.String("message", message))
}
