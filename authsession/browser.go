package authsession

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// BrowserResult is how the browser step ended from the opener's point of view.
type BrowserResult int

const (
	// BrowserOpened: the page is showing and the flow continues through the
	// deep link. Openers that cannot observe dismissal always return this.
	BrowserOpened BrowserResult = iota
	// BrowserDismissed: the user closed the browser.
	BrowserDismissed
	// BrowserCancelled: the user cancelled the flow from the browser.
	BrowserCancelled
)

func (r BrowserResult) String() string {
	switch r {
	case BrowserOpened:
		return "opened"
	case BrowserDismissed:
		return "dismiss"
	case BrowserCancelled:
		return "cancel"
	}
	return "unknown"
}

// Browser opens the provider's consent page.
type Browser interface {
	Open(ctx context.Context, url string) (BrowserResult, error)
}

// SystemBrowser hands the URL to the platform's default browser.
type SystemBrowser struct{}

func (SystemBrowser) Open(ctx context.Context, target string) (BrowserResult, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return BrowserOpened, errors.New("empty url")
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", target)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return BrowserOpened, err
	}
	// Reap the launcher; the browser itself outlives it.
	go cmd.Wait()
	return BrowserOpened, nil
}
