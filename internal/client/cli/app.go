package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/client/client"
	"github.com/dmitrijs2005/losskeeper/internal/client/config"
	"github.com/dmitrijs2005/losskeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/losskeeper/internal/client/services"
	"github.com/dmitrijs2005/losskeeper/internal/client/storage"
	"github.com/dmitrijs2005/losskeeper/internal/client/syncer"
	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/logging"
	"github.com/dmitrijs2005/losskeeper/internal/models"
)

// SyncEngine is what the CLI needs from the sync engine.
type SyncEngine interface {
	SyncNow(ctx context.Context) models.SyncResult
	Run(ctx context.Context, conn syncer.Connectivity)
	Last() (models.SyncResult, time.Time, bool)
}

// PendingCounter reports how many local mutations await sync.
type PendingCounter interface {
	PendingCount(ctx context.Context) (int, error)
}

type App struct {
	config       *config.Config
	log          logging.Logger
	authService  services.AuthService
	entryService services.EntryService
	engine       SyncEngine
	monitor      *connectivity.Monitor
	pending      PendingCounter
	closers      []io.Closer
	reader       *bufio.Reader
	out          io.Writer
	now          func() time.Time
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	store, err := storage.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	monitor := connectivity.NewMonitor(connectivity.Offline)
	as := services.NewAuthService(apiClient, store, store.Metadata(), log)
	es := services.NewEntryService(apiClient, store, as, monitor, log)
	engine := syncer.NewEngine(store, apiClient, as, log, syncer.Config{
		Policy:   c.Policy(),
		Interval: c.SyncInterval,
	})

	apiClient.OnTokensRefreshed(func(access, refresh string) {
		if err := as.PersistTokens(context.Background(), access, refresh); err != nil {
			log.Warn(context.Background(), "cannot persist refreshed tokens", "error", err)
		}
	})

	return &App{
		config:       c,
		log:          log,
		authService:  as,
		entryService: es,
		engine:       engine,
		monitor:      monitor,
		pending:      store,
		closers:      []io.Closer{store},
		reader:       bufio.NewReader(os.Stdin),
		out:          os.Stdout,
		now:          time.Now,
	}, nil
}

// Run starts the background connectivity watcher and sync loop, then
// blocks in the REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		_ = a.authService.Close(context.Background())
		for _, c := range a.closers {
			_ = c.Close()
		}
	}()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	go a.engine.Run(ctx, a.monitor)

	fmt.Fprintln(a.out, "Welcome to losskeeper (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	_, err := a.authService.CurrentOwner(context.Background())
	return err == nil
}

// getStatus renders the prompt status: user, mode and queued changes.
func (a *App) getStatus() string {
	s := ""
	if name := a.authService.Username(); name != "" {
		s = name + " "
	}
	s += a.monitor.State().String()
	if a.pending != nil {
		if n, err := a.pending.PendingCount(context.Background()); err == nil && n > 0 {
			s += fmt.Sprintf(", %d pending", n)
		}
	}
	return fmt.Sprintf("(%s)", s)
}

// StartOnlineStatusWatcher pings the server every interval and feeds the
// outcome to the connectivity monitor until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	signals := make(chan bool)
	go a.monitor.Watch(ctx, signals)

	probe := func() {
		pctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
		err := a.authService.Ping(pctx)
		cancel()

		online := err == nil
		if online != a.monitor.IsOnline() {
			a.log.Info(ctx, "connectivity changed", "online", online, "error", err)
		}
		select {
		case signals <- online:
		case <-ctx.Done():
		}
	}

	probe()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probe()
		case <-ctx.Done():
			return
		}
	}
}

// report prints a user-facing message for err.
func (a *App) report(err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, common.ErrUnauthorized):
		fmt.Fprintln(a.out, "Not logged in or session rejected. Please log in.")
	case errors.Is(err, common.ErrNotFound):
		fmt.Fprintln(a.out, "No such entry.")
	case errors.Is(err, common.ErrValidation):
		fmt.Fprintln(a.out, "Invalid input:", err)
	case errors.Is(err, common.ErrAlreadyExists):
		fmt.Fprintln(a.out, "Already exists.")
	case errors.Is(err, common.ErrStorageUnavailable):
		fmt.Fprintln(a.out, "Local storage failed:", err)
	case errors.Is(err, common.ErrRemoteUnavailable):
		fmt.Fprintln(a.out, "Server unavailable:", err)
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
}
