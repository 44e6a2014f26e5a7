package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/losskeeper/internal/client/services"
	"github.com/dmitrijs2005/losskeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for a username and password and attempts to
// create a new account via the AuthService.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Register(ctx, userName, password); err != nil {
		a.report(err)
		return err
	}

	fmt.Fprintln(a.out, "Registered. You can log in now.")
	return nil
}

// Login prompts the user for credentials and authenticates, online when
// the server answers and against the cached verifier otherwise. An online
// login is followed by a background sync.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	mode, err := a.authService.Login(ctx, userName, password)
	if err != nil {
		a.log.Warn(ctx, "login failed", "mode", mode, "error", err)
		a.report(err)
		return err
	}

	if mode == services.LoginOffline {
		fmt.Fprintln(a.out, "Logged in offline. Changes will sync when the server is back.")
		return nil
	}

	a.monitor.Set(true)
	fmt.Fprintln(a.out, "Logged in.")
	go a.engine.SyncNow(context.WithoutCancel(ctx))
	return nil
}

// Logout signs out and wipes the local cache. Unsynced changes are lost,
// so the user is asked to confirm when any exist.
func (a *App) Logout(ctx context.Context) error {
	if a.pending != nil {
		n, err := a.pending.PendingCount(ctx)
		if err != nil {
			// without the count we cannot tell whether logout would drop changes
			a.log.Error(ctx, "cannot count unsynced changes, logout aborted", "error", err)
			a.report(err)
			return err
		}
		if n > 0 {
			fmt.Fprintf(a.out, "%d change(s) are not synced yet and will be lost.\n", n)
			answer, err := getSimpleText(a.reader, "Log out anyway? (y/N)", a.out)
			if err != nil {
				return err
			}
			if !yes(answer) {
				fmt.Fprintln(a.out, "Cancelled. Run 'sync' first.")
				return nil
			}
		}
	}

	dropped, err := a.authService.Logout(ctx)
	if err != nil {
		a.report(err)
		return err
	}
	if dropped > 0 {
		a.log.Warn(ctx, "unsynced changes dropped on logout", "count", dropped)
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func yes(s string) bool {
	switch s {
	case "y", "Y", "yes", "Yes", "YES":
		return true
	}
	return false
}
