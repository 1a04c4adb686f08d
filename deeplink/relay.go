package deeplink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/umakantv/go-utils/errs"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

const relayPath = "/deeplink"

type relayRequest struct {
	URL string `json:"url"`
}

// Relay is the running app's live deep-link listener. The OS starts a second
// process for every fetchit:// URL; that process forwards the URL here so the
// instance waiting on the callback handles it.
type Relay struct {
	listener net.Listener
	server   *http.Server
	events   chan string
}

// NewRelay listens on addr, which must be a loopback address.
func NewRelay(addr string) (*Relay, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("relay address: %w", err)
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return nil, fmt.Errorf("relay address %q is not a loopback address", addr)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for deep links: %w", err)
	}

	r := &Relay{
		listener: ln,
		events:   make(chan string, 8),
	}

	router := mux.NewRouter()
	router.HandleFunc(relayPath, r.handleForward).Methods(http.MethodPost)
	r.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return r, nil
}

// Addr is the bound address; useful when listening on port 0.
func (r *Relay) Addr() string {
	return r.listener.Addr().String()
}

// Events delivers forwarded URLs in arrival order.
func (r *Relay) Events() <-chan string {
	return r.events
}

// Serve blocks until ctx ends.
func (r *Relay) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		r.server.Shutdown(shutdownCtx)
	}()

	err := r.server.Serve(r.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (r *Relay) handleForward(w http.ResponseWriter, req *http.Request) {
	var body relayRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || !strings.HasPrefix(body.URL, Scheme) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errs.NewValidationError("url must be a fetchit:// deep link"))
		return
	}

	select {
	case r.events <- body.URL:
		w.WriteHeader(http.StatusAccepted)
	case <-req.Context().Done():
		logger.Error("Deep link relay gave up on a forwarded URL", zap.Error(req.Context().Err()))
	}
}

// Forward hands url to the running instance listening on addr. An error means
// there is no such instance and the caller should handle url as a cold start.
func Forward(ctx context.Context, addr, url string) error {
	payload, err := json.Marshal(relayRequest{URL: url})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+addr+relayPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("forward deep link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("forward deep link: relay answered %d", resp.StatusCode)
	}
	return nil
}
