// Package client wires the app-side packages into the command-line client:
// token store, deep-link router, linking controller and the backend/Gmail
// collaborators.
package client

import (
	"context"
	"fmt"
	"io"
	"os"

	"fetchit-auth/authclient"
	"fetchit-auth/authsession"
	"fetchit-auth/config"
	"fetchit-auth/database"
	"fetchit-auth/deeplink"
	"fetchit-auth/gmail"
	"fetchit-auth/notify"
	"fetchit-auth/tokenstore"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// App is one client process.
type App struct {
	cfg        config.ClientConfig
	out        io.Writer
	store      *tokenstore.Store
	controller *authsession.Controller
	router     *deeplink.Router
	refresher  *authclient.Client
	gmail      *gmail.Client
	closeFn    func() error
}

// Open loads the configuration, opens the credential database and restores
// the linked credential, if any.
func Open(ctx context.Context) (*App, error) {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		return nil, err
	}

	dbConn := database.InitializeClientDatabase(cfg)
	sealer := tokenstore.NewSealer(cfg.StorePassphrase)
	if sealer == nil {
		logger.Info("TOKEN_STORE_PASSPHRASE not set, credentials are stored unencrypted")
	}
	persister := tokenstore.NewSQLPersister(dbConn, tokenstore.DefaultAccount, sealer)

	app, err := newApp(ctx, cfg, persister, authsession.SystemBrowser{}, os.Stdout)
	if err != nil {
		dbConn.Close()
		return nil, err
	}
	app.closeFn = dbConn.Close
	return app, nil
}

func newApp(ctx context.Context, cfg config.ClientConfig, persister tokenstore.Persister, browser authsession.Browser, out io.Writer) (*App, error) {
	store := tokenstore.New(persister)
	if err := store.Hydrate(ctx); err != nil {
		return nil, fmt.Errorf("restore credential: %w", err)
	}

	controller := authsession.New(store, browser, notify.NewConsole(out), cfg.AuthorizeURL())
	router := deeplink.NewRouter(deeplink.Handlers{
		AuthCallback:    deeplink.AuthCallbackHandler(controller, nil),
		PaymentCallback: deeplink.LoggingHandler(deeplink.RoutePaymentCallback, deeplink.PaymentCallbackPrefix),
		Share:           deeplink.LoggingHandler(deeplink.RouteShare, deeplink.SharePrefix),
	})
	refresher := authclient.New(cfg.BackendURL, cfg.RequestTimeout)

	logger.Info("Client ready",
		zap.String("backend", cfg.BackendURL),
		zap.Bool("linked", store.IsLinked()))

	return &App{
		cfg:        cfg,
		out:        out,
		store:      store,
		controller: controller,
		router:     router,
		refresher:  refresher,
		gmail:      gmail.New(store, refresher, cfg.GmailEndpoint),
	}, nil
}

// Close releases the credential database.
func (a *App) Close() error {
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}
