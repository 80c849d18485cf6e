package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/dmitrijs2005/credstack/internal/client/client"
	"github.com/dmitrijs2005/credstack/internal/client/config"
	"github.com/dmitrijs2005/credstack/internal/client/services"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	reader      *bufio.Reader
	out         io.Writer
}

// NewApp opens the session database and a client for the configured server.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out io.Writer) (*App, error) {
	db, err := client.InitDatabase(ctx, c.SessionFile)
	if err != nil {
		return nil, err
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, db)
	return &App{config: c, authService: as, reader: bufio.NewReader(in), out: out}, nil
}

func (a *App) Close() error {
	return a.authService.Close()
}
