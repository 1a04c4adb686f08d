package gmail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"fetchit-auth/authclient"
	"fetchit-auth/models"
	"fetchit-auth/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umakantv/go-utils/logger"
)

func TestMain(m *testing.M) {
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})
	os.Exit(m.Run())
}

type memoryPersister struct {
	mu   sync.Mutex
	cred *models.OAuthCredential
}

func (p *memoryPersister) Load(ctx context.Context) (models.OAuthCredential, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cred == nil {
		return models.OAuthCredential{}, false, nil
	}
	return *p.cred, true, nil
}

func (p *memoryPersister) Save(ctx context.Context, cred models.OAuthCredential) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cred = &cred
	return nil
}

func (p *memoryPersister) Delete(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cred = nil
	return nil
}

type fakeRefresher struct {
	calls int
	resp  models.RefreshResponse
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (models.RefreshResponse, error) {
	f.calls++
	return f.resp, f.err
}

// fakeGmail accepts exactly one bearer token.
func fakeGmail(t *testing.T, validToken string) (*httptest.Server, *[]string) {
	t.Helper()
	var seen []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()

		assert.Equal(t, "/gmail/v1/users/me/messages", r.URL.Path)
		assert.Equal(t, PurchasesQuery, r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer "+validToken {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":401,"message":"Request had invalid authentication credentials.","status":"UNAUTHENTICATED"}}`))
			return
		}
		w.Write([]byte(`{"messages":[{"id":"m1","threadId":"t1"},{"id":"m2","threadId":"t2"}],"resultSizeEstimate":2}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func linkedStore(t *testing.T, cred models.OAuthCredential) (*tokenstore.Store, *memoryPersister) {
	t.Helper()
	p := &memoryPersister{}
	s := tokenstore.New(p)
	require.NoError(t, s.Link(context.Background(), cred))
	return s, p
}

func TestListPurchaseMessageIDs(t *testing.T) {
	srv, _ := fakeGmail(t, "AT1")
	store, _ := linkedStore(t, models.OAuthCredential{AccessToken: "AT1", TokenType: "Bearer"})
	c := New(store, &fakeRefresher{}, srv.URL+"/")

	ids, err := c.ListPurchaseMessageIDs(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)
}

func TestListPurchaseMessageIDs_NotLinked(t *testing.T) {
	c := New(tokenstore.New(&memoryPersister{}), &fakeRefresher{}, "http://unused.test/")
	_, err := c.ListPurchaseMessageIDs(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestListPurchaseMessageIDs_UnauthorizedUnlinks(t *testing.T) {
	srv, seen := fakeGmail(t, "AT-other")
	store, p := linkedStore(t, models.OAuthCredential{AccessToken: "AT1", TokenType: "Bearer"})
	c := New(store, &fakeRefresher{}, srv.URL+"/")

	_, err := c.ListPurchaseMessageIDs(context.Background(), 10)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, store.IsLinked())
	assert.Nil(t, p.cred)
	// No silent retry.
	assert.Len(t, *seen, 1)
}

func TestListPurchaseMessageIDs_RefreshesExpiredToken(t *testing.T) {
	srv, _ := fakeGmail(t, "AT2")
	issued := time.Now().Add(-2 * time.Hour).UnixMilli()
	store, p := linkedStore(t, models.OAuthCredential{
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		ExpiresIn:    models.Int64(3599),
		IssuedAt:     models.Int64(issued),
		TokenType:    "Bearer",
		Scope:        "https://www.googleapis.com/auth/gmail.readonly",
	})
	refresher := &fakeRefresher{resp: models.RefreshResponse{
		AccessToken: "AT2",
		ExpiresIn:   models.Int64(3599),
		TokenType:   "Bearer",
	}}
	c := New(store, refresher, srv.URL+"/")

	ids, err := c.ListPurchaseMessageIDs(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Equal(t, 1, refresher.calls)

	require.NotNil(t, p.cred)
	assert.Equal(t, "AT2", p.cred.AccessToken)
	assert.Equal(t, "RT1", p.cred.RefreshToken)
	assert.Equal(t, "https://www.googleapis.com/auth/gmail.readonly", p.cred.Scope)
	require.NotNil(t, p.cred.IssuedAt)
	assert.Greater(t, *p.cred.IssuedAt, issued)
}

func TestListPurchaseMessageIDs_ExpiredWithoutRefresh(t *testing.T) {
	expired := models.OAuthCredential{
		AccessToken: "AT1",
		ExpiresIn:   models.Int64(60),
		IssuedAt:    models.Int64(time.Now().Add(-time.Hour).UnixMilli()),
		TokenType:   "Bearer",
	}

	t.Run("no refresh token", func(t *testing.T) {
		store, _ := linkedStore(t, expired)
		refresher := &fakeRefresher{}
		c := New(store, refresher, "http://unused.test/")

		_, err := c.ListPurchaseMessageIDs(context.Background(), 10)
		assert.ErrorIs(t, err, ErrTokenExpired)
		assert.Equal(t, 0, refresher.calls)
	})

	t.Run("refresh refused", func(t *testing.T) {
		withRefresh := expired
		withRefresh.RefreshToken = "RT1"
		store, p := linkedStore(t, withRefresh)
		refused := &authclient.RefreshError{StatusCode: http.StatusInternalServerError, Message: "Failed to refresh token"}
		c := New(store, &fakeRefresher{err: refused}, "http://unused.test/")

		_, err := c.ListPurchaseMessageIDs(context.Background(), 10)
		assert.ErrorIs(t, err, ErrTokenExpired)
		var rErr *authclient.RefreshError
		require.ErrorAs(t, err, &rErr)
		assert.Equal(t, http.StatusInternalServerError, rErr.StatusCode)
		// Store left unchanged.
		require.NotNil(t, p.cred)
		assert.Equal(t, "AT1", p.cred.AccessToken)
	})
}
