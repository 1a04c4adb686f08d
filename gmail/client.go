// Package gmail reads the linked mailbox with the stored credential. It is a
// consumer of the OAuth flow: it never runs consent itself.
package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fetchit-auth/models"
	"fetchit-auth/tokenstore"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// PurchasesQuery selects the mailbox's purchase receipts.
const PurchasesQuery = "category:purchases"

var (
	ErrNotLinked = errors.New("gmail account is not linked")
	// ErrTokenExpired means the access token expired and could not be refreshed.
	ErrTokenExpired = errors.New("gmail access token expired")
	// ErrUnauthorized means Gmail rejected the token; the credential was unlinked.
	ErrUnauthorized = errors.New("gmail rejected the access token")
)

// Refresher mints a new access token from a refresh token.
// authclient.Client is the implementation.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (models.RefreshResponse, error)
}

// Client calls the Gmail API on behalf of the linked account.
type Client struct {
	store     *tokenstore.Store
	refresher Refresher
	endpoint  string
	now       func() time.Time
}

// New creates a client. endpoint overrides the Gmail API base URL when set.
func New(store *tokenstore.Store, refresher Refresher, endpoint string) *Client {
	return &Client{
		store:     store,
		refresher: refresher,
		endpoint:  endpoint,
		now:       time.Now,
	}
}

// ListPurchaseMessageIDs returns up to maxResults message ids matching
// PurchasesQuery, newest first.
func (c *Client) ListPurchaseMessageIDs(ctx context.Context, maxResults int64) ([]string, error) {
	cred, err := c.credential(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := c.service(ctx, cred)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Users.Messages.List("me").Q(PurchasesQuery).MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, c.apiError(ctx, err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// credential returns a usable credential, refreshing and re-persisting it
// first when it has expired.
func (c *Client) credential(ctx context.Context) (models.OAuthCredential, error) {
	cred, ok := c.store.Get()
	if !ok {
		return models.OAuthCredential{}, ErrNotLinked
	}
	if cred.IsValid(c.now()) {
		return cred, nil
	}
	if !cred.HasRefreshToken() {
		return models.OAuthCredential{}, ErrTokenExpired
	}

	logger.Info("Gmail access token expired, refreshing")
	resp, err := c.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return models.OAuthCredential{}, errors.Join(ErrTokenExpired, err)
	}

	refreshed := cred.Refreshed(resp, c.now())
	if err := c.store.Link(ctx, refreshed); err != nil {
		return models.OAuthCredential{}, err
	}
	return refreshed, nil
}

func (c *Client) service(ctx context.Context, cred models.OAuthCredential) (*gmailapi.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   cred.TokenType,
	})
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	svc, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return svc, nil
}

// apiError signs the user out on 401: a rejected token cannot heal itself.
func (c *Client) apiError(ctx context.Context, err error) error {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) || gErr.Code != http.StatusUnauthorized {
		return fmt.Errorf("gmail request failed: %w", err)
	}

	logger.Error("Gmail rejected the access token, unlinking", zap.Int("status", gErr.Code))
	if uerr := c.store.Unlink(ctx); uerr != nil {
		return errors.Join(ErrUnauthorized, uerr)
	}
	return ErrUnauthorized
}
