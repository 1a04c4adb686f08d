package server

import (
	"net/http"
	"os"

	cachepackage "fetchit-auth/cache"
	"fetchit-auth/config"
	"fetchit-auth/handlers"
	"fetchit-auth/provider"

	"github.com/umakantv/go-utils/httpserver"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// checkAuth rejects everything: every backend route is public and takes no
// caller credential.
func checkAuth(r *http.Request) (bool, httpserver.RequestAuth) {
	return false, httpserver.RequestAuth{}
}

// StartServer runs the OAuth token-exchange backend until it fails.
func StartServer() {
	logger.Info("Starting FetchIt OAuth backend...")

	cfg, err := config.LoadServerConfig()
	if err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	// Initialize code ledger cache
	cache := cachepackage.InitializeCache(cfg)
	var ledger handlers.CodeLedger
	if cache != nil {
		defer cache.Close()
		ledger = cachepackage.NewCodeLedger(cache)
	}

	exchanger := provider.NewTokenExchanger(cfg)
	authHandler := handlers.NewAuthHandler(exchanger, ledger)

	server := httpserver.New(cfg.Port, checkAuth)

	server.Register(httpserver.Route{
		Name:     "HealthCheck",
		Method:   "GET",
		Path:     "/",
		AuthType: "none",
	}, httpserver.HandlerFunc(handlers.HandleHealth))

	server.Register(httpserver.Route{
		Name:     "Authorize",
		Method:   "GET",
		Path:     "/auth/authorize",
		AuthType: "none",
	}, httpserver.HandlerFunc(authHandler.HandleAuthorize))

	server.Register(httpserver.Route{
		Name:     "Callback",
		Method:   "GET",
		Path:     "/auth/callback",
		AuthType: "none",
	}, httpserver.HandlerFunc(authHandler.HandleCallback))

	server.Register(httpserver.Route{
		Name:     "RefreshToken",
		Method:   "POST",
		Path:     "/auth/refresh",
		AuthType: "none",
	}, httpserver.HandlerFunc(authHandler.HandleRefresh))

	logger.Info("FetchIt OAuth backend started", zap.String("port", cfg.Port))
	logger.Info("Authorization URL: " + cfg.BackendURL + "/auth/authorize")
	logger.Info("Register this redirect URI with the provider: " + cfg.RedirectURI())

	if err := server.Start(); err != nil {
		logger.Error("Server failed to start", zap.Error(err))
		os.Exit(1)
	}
}
