package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MarshTheBacca/dotto/api"
	"github.com/MarshTheBacca/dotto/game/config"
	"github.com/MarshTheBacca/dotto/game/session"
	"github.com/MarshTheBacca/dotto/transport/mcp"
	"github.com/MarshTheBacca/dotto/transport/websocket"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

const (
	defaultSyncInterval = 5 * time.Second
	cleanupInterval     = time.Hour
	sessionMaxAge       = 24 * time.Hour
)

// tunnelOptions configures the optional ngrok tunnel
type tunnelOptions struct {
	enabled   bool
	authToken string
	domain    string
}

// spectator is a running spectator server
type spectator struct {
	url       string
	tunnelURL string
	stop      func()
}

// publicURL is the tunnel address when there is one
func (s *spectator) publicURL() string {
	if s.tunnelURL != "" {
		return s.tunnelURL
	}
	return s.url
}

// newRouter serves the REST API and websocket at / and the MCP tools at
// /mcp. The MCP tools read the REST API back through baseURL.
func newRouter(apiServer *api.Server, baseURL string) http.Handler {
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

// startSpectatorServer serves s on addr until stop is called, and through an
// ngrok tunnel too when asked. A tunnel that fails to start is logged and
// skipped; the local server still runs.
func startSpectatorServer(ctx context.Context, s *services, hub *websocket.Hub, addr string, tunnel tunnelOptions) (*spectator, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	go hub.Run(ctx)
	go sessionCleanupRoutine(ctx, s.sessions, cleanupInterval, sessionMaxAge)

	sv := &spectator{url: loopbackURL(listener.Addr())}
	handler := newRouter(api.NewServer(s.game, hub), sv.url)

	httpServer := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.WithField("addr", listener.Addr().String()).Info("spectator server listening")
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("spectator server failed")
		}
	}()

	var tun ngrok.Tunnel
	if tunnel.enabled {
		tun = openTunnel(ctx, tunnel)
	}
	if tun != nil {
		sv.tunnelURL = tun.URL()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Debug("ngrok server stopped")
			}
			log.Info("ngrok tunnel closed")
		}()
	}

	sv.stop = func() {
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("spectator server shutdown error")
		}
		if tun != nil {
			if err := tun.Close(); err != nil {
				log.WithError(err).Warn("failed to close ngrok tunnel")
			}
		}
		wg.Wait()
		log.Info("spectator server stopped")
	}
	return sv, nil
}

// openTunnel starts an ngrok HTTP endpoint, or returns nil when it can't
func openTunnel(ctx context.Context, opts tunnelOptions) ngrok.Tunnel {
	if opts.authToken == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return nil
	}

	var endpoint ngrokConfig.Tunnel
	if opts.domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.domain))
		log.WithField("domain", opts.domain).Info("using custom ngrok domain")
	} else {
		endpoint = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(opts.authToken))
	if err != nil {
		log.WithError(err).Warn("failed to start ngrok tunnel")
		return nil
	}
	log.WithField("url", tun.URL()).Info("ngrok tunnel established")
	return tun
}

// loopbackURL is a URL this process can reach a listener on. Wildcard
// listeners are reached through 127.0.0.1.
func loopbackURL(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String()
	}
	host := "127.0.0.1"
	if tcp.IP != nil && !tcp.IP.IsUnspecified() {
		host = tcp.IP.String()
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(tcp.Port))
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.WithField("count", removed).Info("cleaned up expired sessions")
			}
		}
	}
}

// syncRoutine keeps a watching process up to date with the games, settings
// and presets saved by the process that plays them
func syncRoutine(ctx context.Context, manager *session.Manager, configs *config.Manager, every time.Duration) {
	if every <= 0 {
		every = defaultSyncInterval
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			configs.RefreshCache()
			loaded, pruned, err := manager.Refresh()
			if err != nil {
				log.WithError(err).Warn("failed to sync sessions")
				continue
			}
			if pruned > 0 {
				log.WithFields(log.Fields{"loaded": loaded, "pruned": pruned}).Info("synced sessions from disk")
			}
		}
	}
}

// apiAvailable reports whether a spectator server answers at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(baseURL, "/")+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// runMCP serves the MCP tools over stdio. It uses --api-url when that server
// answers, otherwise it starts a read-only API on a loopback port backed by
// the saved games, reloading them as the playing process saves.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	baseURL := cmd.String("api-url")
	if baseURL != "" && apiAvailable(ctx, baseURL) {
		log.WithField("url", baseURL).Info("using external API server for MCP")
		return server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer())
	}
	if baseURL != "" {
		log.WithField("url", baseURL).Warn("external API server not available, starting an internal one")
	}

	s, err := servicesFor(cmd, nil)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to get available port: %w", err)
	}
	httpServer := &http.Server{Handler: api.NewServer(s.game, nil)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("internal HTTP server error")
		}
	}()
	defer httpServer.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go syncRoutine(ctx, s.sessions, s.configs, cmd.Duration("sync-interval"))

	internalURL := loopbackURL(listener.Addr())
	log.WithField("url", internalURL).Info("MCP stdio server ready (using internal HTTP server)")
	return server.ServeStdio(mcp.NewClient(internalURL).GetMCPServer())
}
