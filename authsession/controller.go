// Package authsession drives the account-linking flow from the app's side:
// open the consent page, wait for the deep-link callback, track loading and
// error state for the UI.
package authsession

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fetchit-auth/models"
	"fetchit-auth/notify"
	"fetchit-auth/tokenstore"

	"github.com/google/uuid"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

var (
	// ErrInProgress guards against double submission (e.g. a double tap on "Link Account").
	ErrInProgress = errors.New("account linking already in progress")
	// ErrNoAttempt is returned by Wait when Begin was never called.
	ErrNoAttempt = errors.New("no linking attempt started")
)

// Outcome is how a linking attempt ended.
type Outcome int

const (
	OutcomeLinked Outcome = iota
	OutcomeFailed
	// OutcomeAbandoned: the user left the browser without finishing. Not an error.
	OutcomeAbandoned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLinked:
		return "linked"
	case OutcomeFailed:
		return "failed"
	case OutcomeAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// State is what the UI renders.
type State struct {
	Loading   bool
	Linked    bool
	Err       string
	AttemptID string
}

// Controller owns the loading flag, which doubles as the mutual-exclusion
// gate for the flow. It receives callback outcomes from the deep-link router.
type Controller struct {
	store        *tokenstore.Store
	browser      Browser
	notifier     notify.Notifier
	authorizeURL string

	mu        sync.Mutex
	loading   bool
	lastErr   string
	attemptID string
	outcome   chan Outcome
}

// New creates a controller that sends the browser to authorizeURL
// ({BACKEND_URL}/auth/authorize).
func New(store *tokenstore.Store, browser Browser, notifier notify.Notifier, authorizeURL string) *Controller {
	return &Controller{
		store:        store,
		browser:      browser,
		notifier:     notifier,
		authorizeURL: authorizeURL,
	}
}

// Begin opens the consent page. It returns once the browser step returns;
// the hand-off itself completes later through the deep link.
func (c *Controller) Begin(ctx context.Context) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrInProgress
	}
	c.loading = true
	c.lastErr = ""
	c.attemptID = uuid.NewString()
	c.outcome = make(chan Outcome, 1)
	attempt := c.attemptID
	c.mu.Unlock()

	logger.Info("Opening backend OAuth URL", zap.String("attempt", attempt))

	result, err := c.browser.Open(ctx, c.authorizeURL)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "Authentication failed"
		}
		logger.Error("Browser error", zap.String("attempt", attempt), zap.Error(err))
		if c.finish(attempt, OutcomeFailed, msg) {
			c.notifier.Error(msg)
		}
		return fmt.Errorf("open browser: %w", err)
	}

	logger.Info("Browser result", zap.String("attempt", attempt), zap.Stringer("result", result))
	if result == BrowserDismissed || result == BrowserCancelled {
		// A callback may already have finished the attempt; then this is a no-op.
		c.finish(attempt, OutcomeAbandoned, "")
	}
	return nil
}

// Cancel abandons the current attempt on the user's behalf. Not an error.
func (c *Controller) Cancel() {
	c.mu.Lock()
	attempt := c.attemptID
	c.mu.Unlock()

	if c.finish(attempt, OutcomeAbandoned, "") {
		logger.Info("Account linking abandoned by user", zap.String("attempt", attempt))
	}
}

// LinkSucceeded persists cred and completes the attempt. It also accepts a
// callback that arrives with no attempt in flight (cold start).
func (c *Controller) LinkSucceeded(ctx context.Context, cred models.OAuthCredential) error {
	if err := c.store.Link(ctx, cred); err != nil {
		c.complete(OutcomeFailed, "Failed to link Gmail account")
		c.notifier.Error("Failed to link Gmail account")
		return err
	}

	c.complete(OutcomeLinked, "")
	c.notifier.Success("Gmail account linked successfully!")
	return nil
}

// LinkFailed completes the attempt with a user-visible error. Nothing is persisted.
func (c *Controller) LinkFailed(err error) {
	msg := "Failed to link Gmail account"
	if err != nil {
		msg = "Failed to link Gmail: " + err.Error()
	}
	c.complete(OutcomeFailed, msg)
	c.notifier.Error(msg)
}

// Wait blocks until the current attempt ends or ctx is done.
func (c *Controller) Wait(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	ch := c.outcome
	c.mu.Unlock()

	if ch == nil {
		return OutcomeFailed, ErrNoAttempt
	}
	select {
	case o := <-ch:
		return o, nil
	case <-ctx.Done():
		return OutcomeFailed, ctx.Err()
	}
}

// Unlink removes the stored credential.
func (c *Controller) Unlink(ctx context.Context) error {
	if err := c.store.Unlink(ctx); err != nil {
		return err
	}
	logger.Info("Gmail account unlinked")
	return nil
}

// State returns a snapshot for rendering.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Loading:   c.loading,
		Linked:    c.store.IsLinked(),
		Err:       c.lastErr,
		AttemptID: c.attemptID,
	}
}

// finish ends attempt if it is still the one in flight. Reports whether it did.
func (c *Controller) finish(attempt string, o Outcome, errMsg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loading || c.attemptID != attempt {
		return false
	}
	c.settle(o, errMsg)
	return true
}

// complete ends whatever attempt is in flight, or just records the result
// when a callback arrives outside an attempt.
func (c *Controller) complete(o Outcome, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settle(o, errMsg)
}

// settle must be called with mu held.
func (c *Controller) settle(o Outcome, errMsg string) {
	wasLoading := c.loading
	c.loading = false
	c.lastErr = errMsg
	if !wasLoading || c.outcome == nil {
		return
	}
	select {
	case c.outcome <- o:
	default:
	}
}
