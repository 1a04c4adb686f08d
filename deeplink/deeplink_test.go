package deeplink

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"fetchit-auth/models"

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

func TestAuthCallbackRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cred models.OAuthCredential
	}{
		{
			name: "all fields",
			cred: models.OAuthCredential{
				AccessToken:  "ya29.a0A&b=c d/e+f",
				RefreshToken: "1//0g-refresh",
				ExpiresIn:    models.Int64(3599),
				TokenType:    "Bearer",
				Scope:        "https://www.googleapis.com/auth/gmail.readonly openid",
			},
		},
		{
			name: "absent optionals",
			cred: models.OAuthCredential{
				AccessToken: "AT1",
				TokenType:   "Bearer",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := BuildAuthCallbackURL(tt.cred)
			assert.Equal(t, RouteAuthCallback, Classify(link))

			got, err := ParseAuthCallback(link)
			require.NoError(t, err)
			assert.Equal(t, tt.cred, got)
		})
	}
}

func TestBuildAuthCallbackURL_ParameterSet(t *testing.T) {
	link := BuildAuthCallbackURL(models.OAuthCredential{AccessToken: "AT1"})
	assert.Equal(t, "fetchit://auth/callback?accessToken=AT1&refreshToken=&expiresIn=&tokenType=Bearer&scope=", link)
}

func TestParseAuthCallback_Errors(t *testing.T) {
	_, err := ParseAuthCallback("fetchit://auth/callback?refreshToken=RT1")
	assert.ErrorIs(t, err, ErrMissingAccessToken)

	_, err = ParseAuthCallback("fetchit://auth/callback?accessToken=&refreshToken=RT1")
	assert.ErrorIs(t, err, ErrMissingAccessToken)

	_, err = ParseAuthCallback("fetchit://auth/callback?accessToken=AT1&expiresIn=soon")
	assert.ErrorIs(t, err, ErrMalformedDeepLink)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Route
	}{
		{"fetchit://auth/callback?accessToken=x", RouteAuthCallback},
		{"fetchit://payment/callback?x=1", RoutePaymentCallback},
		{"fetchit://share/post/42", RouteShare},
		{"fetchit://unknown/path", RouteUnknown},
		{"https://auth/callback", RouteUnknown},
		{"", RouteUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.url), tt.url)
	}
}

// recordingHandlers claims URLs under the given prefixes and counts calls.
type recordingHandlers struct {
	mu    sync.Mutex
	calls map[Route][]string
}

func (r *recordingHandlers) handler(route Route, prefix string) Handler {
	return func(url string) bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.calls == nil {
			r.calls = map[Route][]string{}
		}
		r.calls[route] = append(r.calls[route], url)
		return len(url) >= len(prefix) && url[:len(prefix)] == prefix
	}
}

func (r *recordingHandlers) count(route Route) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls[route])
}

func newRecordingRouter() (*Router, *recordingHandlers) {
	rec := &recordingHandlers{}
	return NewRouter(Handlers{
		AuthCallback:    rec.handler(RouteAuthCallback, AuthCallbackPrefix),
		PaymentCallback: rec.handler(RoutePaymentCallback, PaymentCallbackPrefix),
		Share:           rec.handler(RouteShare, SharePrefix),
	}), rec
}

func TestRouter_Dispatch(t *testing.T) {
	router, rec := newRecordingRouter()

	route, claimed := router.Dispatch("fetchit://payment/callback?x=1")
	assert.Equal(t, RoutePaymentCallback, route)
	assert.True(t, claimed)
	assert.Equal(t, 0, rec.count(RouteAuthCallback))
	assert.Equal(t, 1, rec.count(RoutePaymentCallback))
	assert.Equal(t, 0, rec.count(RouteShare))

	assert.NotPanics(t, func() {
		route, claimed = router.Dispatch("fetchit://unknown/path")
	})
	assert.Equal(t, RouteUnknown, route)
	assert.False(t, claimed)
	assert.Equal(t, 1, rec.count(RoutePaymentCallback))
}

func TestRouter_DispatchNilHandler(t *testing.T) {
	router := NewRouter(Handlers{})
	route, claimed := router.Dispatch("fetchit://share/x")
	assert.Equal(t, RouteShare, route)
	assert.False(t, claimed)
}

func TestRouter_DispatchRecoversHandlerPanic(t *testing.T) {
	router := NewRouter(Handlers{
		Share: func(url string) bool { panic("boom") },
	})
	assert.NotPanics(t, func() {
		_, claimed := router.Dispatch("fetchit://share/x")
		assert.True(t, claimed)
	})
}

func TestRouter_HandleInitialURLOnce(t *testing.T) {
	router, rec := newRecordingRouter()

	assert.True(t, router.HandleInitialURL("fetchit://share/a"))
	assert.False(t, router.HandleInitialURL("fetchit://share/a"))
	assert.False(t, router.HandleInitialURL("fetchit://share/b"))
	assert.Equal(t, 1, rec.count(RouteShare))
}

func TestRouter_ListenInOrderAndDropsColdStartRedelivery(t *testing.T) {
	router, rec := newRecordingRouter()
	router.HandleInitialURL("fetchit://share/cold")

	events := make(chan string, 4)
	events <- "fetchit://share/cold" // same URL redelivered by the live listener
	events <- "fetchit://share/1"
	events <- "fetchit://share/2"
	events <- "fetchit://share/cold" // a genuine second visit is processed
	close(events)

	router.Listen(context.Background(), events)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{
		"fetchit://share/cold",
		"fetchit://share/1",
		"fetchit://share/2",
		"fetchit://share/cold",
	}, rec.calls[RouteShare])
}

func TestRouter_ListenStopsOnContext(t *testing.T) {
	router, _ := newRecordingRouter()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		router.Listen(ctx, make(chan string))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}

type fakeSink struct {
	linked []models.OAuthCredential
	failed []error
	err    error
}

func (f *fakeSink) LinkSucceeded(ctx context.Context, cred models.OAuthCredential) error {
	f.linked = append(f.linked, cred)
	return f.err
}

func (f *fakeSink) LinkFailed(err error) {
	f.failed = append(f.failed, err)
}

func TestAuthCallbackHandler(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	clock := func() time.Time { return now }

	t.Run("success stamps client time", func(t *testing.T) {
		sink := &fakeSink{}
		h := AuthCallbackHandler(sink, clock)

		claimed := h("fetchit://auth/callback?accessToken=AT1&refreshToken=RT1&expiresIn=3599&tokenType=Bearer&scope=s")
		assert.True(t, claimed)
		require.Len(t, sink.linked, 1)
		assert.Empty(t, sink.failed)

		cred := sink.linked[0]
		assert.Equal(t, "AT1", cred.AccessToken)
		assert.Equal(t, "RT1", cred.RefreshToken)
		require.NotNil(t, cred.IssuedAt)
		assert.Equal(t, int64(1700000000000), *cred.IssuedAt)
		assert.True(t, cred.IsValid(now.Add(time.Hour-2*time.Second)))
		assert.False(t, cred.IsValid(now.Add(time.Hour)))
	})

	t.Run("missing access token", func(t *testing.T) {
		sink := &fakeSink{}
		h := AuthCallbackHandler(sink, clock)

		assert.True(t, h("fetchit://auth/callback?accessToken=&refreshToken=RT1"))
		assert.Empty(t, sink.linked)
		require.Len(t, sink.failed, 1)
		assert.ErrorIs(t, sink.failed[0], ErrMissingAccessToken)
	})

	t.Run("sink error is still claimed", func(t *testing.T) {
		sink := &fakeSink{err: errors.New("disk full")}
		h := AuthCallbackHandler(sink, clock)
		assert.True(t, h("fetchit://auth/callback?accessToken=AT1"))
	})

	t.Run("other prefix", func(t *testing.T) {
		sink := &fakeSink{}
		assert.False(t, AuthCallbackHandler(sink, clock)("fetchit://share/x"))
	})
}

func TestRelayForward(t *testing.T) {
	relay, err := NewRelay("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- relay.Serve(ctx) }()

	require.NoError(t, Forward(ctx, relay.Addr(), "fetchit://share/abc"))
	select {
	case got := <-relay.Events():
		assert.Equal(t, "fetchit://share/abc", got)
	case <-time.After(time.Second):
		t.Fatal("forwarded URL not delivered")
	}

	assert.Error(t, Forward(ctx, relay.Addr(), "https://not-a-deep-link"))

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("relay did not shut down")
	}
}

func TestRelayRejectsNonLoopback(t *testing.T) {
	_, err := NewRelay("0.0.0.0:0")
	assert.Error(t, err)
}

func TestForwardWithoutRunningInstance(t *testing.T) {
	relay, err := NewRelay("127.0.0.1:0")
	require.NoError(t, err)
	addr := relay.Addr()
	relay.listener.Close()

	assert.Error(t, Forward(context.Background(), addr, "fetchit://share/x"))
}
