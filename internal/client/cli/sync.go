package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/models"
)

func describeSync(r models.SyncResult) string {
	if r == models.Skipped {
		return "sync skipped (already running or not logged in)"
	}
	return fmt.Sprintf("synced %d, failed %d, pulled %d", r.Synced, r.Errors, r.Pulled)
}

// Sync runs a reconciliation now and prints its counts.
func (a *App) Sync(ctx context.Context) error {
	if !a.monitor.IsOnline() {
		fmt.Fprintln(a.out, "Offline: trying anyway, failed changes stay queued.")
	}
	fmt.Fprintln(a.out, describeSync(a.engine.SyncNow(ctx)))
	return nil
}

// Status prints connectivity, queued changes and the last sync outcome.
func (a *App) Status(ctx context.Context) error {
	state := a.monitor.State().String()
	if since := a.monitor.OfflineSince(); !a.monitor.IsOnline() && !since.IsZero() {
		state += fmt.Sprintf(" since %s", since.Format(time.Kitchen))
	}
	fmt.Fprintln(a.out, "Connection:", state)

	if a.pending != nil {
		n, err := a.pending.PendingCount(ctx)
		if err != nil {
			a.report(err)
			return err
		}
		fmt.Fprintln(a.out, "Pending changes:", n)
	}

	if r, at, ok := a.engine.Last(); ok {
		fmt.Fprintf(a.out, "Last sync: %s at %s\n", describeSync(r), at.Format(time.Kitchen))
	} else {
		fmt.Fprintln(a.out, "Last sync: never")
	}
	return nil
}
