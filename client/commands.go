package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fetchit-auth/authsession"
	"fetchit-auth/deeplink"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// ErrLinkFailed is returned by Link when the flow ended with an error page
// or an unusable callback.
var ErrLinkFailed = errors.New("account linking failed")

// Link runs the consent flow and waits for the auth callback deep link,
// which arrives on the loopback relay through `-command open-url`.
func (a *App) Link(ctx context.Context) error {
	relay, err := deeplink.NewRelay(a.cfg.RelayAddr)
	if err != nil {
		return fmt.Errorf("start deep link relay: %w", err)
	}

	linkCtx, cancel := context.WithTimeout(ctx, a.cfg.LinkTimeout)
	defer cancel()

	go func() {
		if err := relay.Serve(linkCtx); err != nil {
			logger.Error("Deep link relay stopped", zap.Error(err))
		}
	}()
	go a.router.Listen(linkCtx, relay.Events())

	if err := a.controller.Begin(linkCtx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Complete the Google consent in your browser...")

	outcome, err := a.controller.Wait(linkCtx)
	if err != nil {
		a.controller.Cancel()
		// Ctrl-C is the user walking away, not a failure. LINK_TIMEOUT is.
		if errors.Is(ctx.Err(), context.Canceled) {
			fmt.Fprintln(a.out, "Account linking cancelled")
			return nil
		}
		return fmt.Errorf("waiting for auth callback: %w", err)
	}

	switch outcome {
	case authsession.OutcomeLinked:
		return nil
	case authsession.OutcomeAbandoned:
		fmt.Fprintln(a.out, "Account linking cancelled")
		return nil
	case authsession.OutcomeFailed:
		return fmt.Errorf("%w: %s", ErrLinkFailed, a.controller.State().Err)
	}
	return nil
}

// OpenURL delivers a deep link the OS launched us with. A running `link`
// instance gets it over the relay; otherwise this process handles it as a
// cold start.
func (a *App) OpenURL(ctx context.Context, url string) error {
	if url == "" {
		return errors.New("url is required")
	}

	err := deeplink.Forward(ctx, a.cfg.RelayAddr, url)
	if err == nil {
		logger.Info("Deep link forwarded to running instance", zap.String("relay", a.cfg.RelayAddr))
		return nil
	}
	logger.Debug("No running instance, handling deep link here", zap.Error(err))

	a.router.HandleInitialURL(url)
	if deeplink.Classify(url) == deeplink.RouteAuthCallback && a.controller.State().Err != "" {
		return fmt.Errorf("%w: %s", ErrLinkFailed, a.controller.State().Err)
	}
	return nil
}

// Status prints whether an account is linked and when its token expires.
func (a *App) Status() {
	cred, ok := a.store.Get()
	if !ok {
		fmt.Fprintln(a.out, "Gmail: not linked")
		return
	}

	fmt.Fprintln(a.out, "Gmail: linked")
	fmt.Fprintf(a.out, "  token type:    %s\n", cred.TokenType)
	fmt.Fprintf(a.out, "  scope:         %s\n", cred.Scope)
	fmt.Fprintf(a.out, "  refresh token: %t\n", cred.HasRefreshToken())
	if at, ok := cred.ExpiresAt(); ok {
		state := "valid"
		if !cred.IsValid(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(a.out, "  expires at:    %s (%s)\n", at.Format(time.RFC3339), state)
	} else {
		fmt.Fprintln(a.out, "  expires at:    unknown")
	}
}

// Refresh mints a new access token through the backend and stores it.
func (a *App) Refresh(ctx context.Context) error {
	cred, ok := a.store.Get()
	if !ok {
		return errors.New("no linked account")
	}
	if !cred.HasRefreshToken() {
		return errors.New("linked account has no refresh token, run link again")
	}

	resp, err := a.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return err
	}
	if err := a.store.Link(ctx, cred.Refreshed(resp, time.Now())); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Access token refreshed")
	return nil
}

// Unlink forgets the linked account.
func (a *App) Unlink(ctx context.Context) error {
	if err := a.controller.Unlink(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Gmail account unlinked")
	return nil
}

// Messages lists the ids of up to max purchase messages.
func (a *App) Messages(ctx context.Context, max int64) error {
	ids, err := a.gmail.ListPurchaseMessageIDs(ctx, max)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d purchase message(s)\n", len(ids))
	for _, id := range ids {
		fmt.Fprintln(a.out, id)
	}
	return nil
}
