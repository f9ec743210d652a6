package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/triage/pkg/adapters/http"
	"github.com/aretw0/triage/pkg/adapters/mcp"
)

// ShutdownTimeout bounds graceful shutdown of the servers.
const ShutdownTimeout = 5 * time.Second

// NewHTTPHandler builds the web handler for app.
func NewHTTPHandler(app *App) (http.Handler, error) {
	return httpadapter.NewHandler(app.Sessions(), app.Engine.Nodes(),
		httpadapter.WithLogger(app.Logger),
		httpadapter.WithMetrics(app.Registry),
		httpadapter.WithTitle(app.Config.Title),
		httpadapter.WithMaxInputSize(app.Config.MaxInputSize),
	)
}

// Serve runs the HTTP server on ln until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, app *App, ln net.Listener) error {
	handler, err := NewHTTPHandler(app)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("HTTP server listening", "address", ln.Addr().String())
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		app.Logger.Info("Shutting down HTTP server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		<-serverErrors
		return nil
	}
}

// NewMCPServer builds the MCP server for app.
func NewMCPServer(app *App) *mcp.Server {
	return mcp.NewServer(app.Sessions(), app.Engine.Nodes(),
		mcp.WithLogger(app.Logger),
		mcp.WithMaxInputSize(app.Config.MaxInputSize),
	)
}
