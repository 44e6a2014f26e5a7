// Package services contains the client's application services: the write
// path for ledger entries and authentication. Both sit between the CLI and
// the lower layers (remote client, local store, connectivity monitor).
//
// This file defines the authentication service: online/offline login,
// register, logout, liveness probe and the session identity used to scope
// every entry operation.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/losskeeper/internal/client/client"
	"github.com/dmitrijs2005/losskeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/cryptox"
	"github.com/dmitrijs2005/losskeeper/internal/logging"
)

// Metadata keys.
const (
	metaUserID       = "user_id"
	metaUsername     = "username"
	metaSalt         = "salt"
	metaVerifier     = "verifier"
	metaAccessToken  = "access_token"
	metaRefreshToken = "refresh_token"
)

// LoginMode tells how a login was satisfied.
type LoginMode int

const (
	LoginOnline LoginMode = iota
	LoginOffline
)

func (m LoginMode) String() string {
	if m == LoginOffline {
		return "offline"
	}
	return "online"
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and cache what offline login
//     needs; when the server is unreachable, verify against that cache.
//   - Logout: forget the session and wipe every locally cached entry and
//     queued mutation. Returns how many unsynced mutations were dropped.
//   - CurrentOwner: the signed-in user id, common.ErrUnauthorized otherwise.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) (LoginMode, error)
	Logout(ctx context.Context) (int, error)
	CurrentOwner(ctx context.Context) (string, error)
	Username() string
	PersistTokens(ctx context.Context, access, refresh string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// LocalData is the part of the local store that sign-in and sign-out touch.
type LocalData interface {
	ClearAll(ctx context.Context) error
	HasAnyData(ctx context.Context) (bool, error)
	PendingCount(ctx context.Context) (int, error)
}

// authService is the concrete AuthService backed by a remote Client,
// the local store and its metadata table.
type authService struct {
	client client.Client
	local  LocalData
	meta   metadata.Repository
	log    logging.Logger

	mu       sync.RWMutex
	userID   string
	username string
}

// NewAuthService constructs an AuthService bound to the given API client and store.
func NewAuthService(c client.Client, local LocalData, meta metadata.Repository, log logging.Logger) AuthService {
	return &authService{client: c, local: local, meta: meta, log: log.With("module", "auth")}
}

func (a *authService) setSession(userID, username string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userID, a.username = userID, username
}

func (a *authService) CurrentOwner(ctx context.Context) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.userID == "" {
		return "", common.ErrUnauthorized
	}
	return a.userID, nil
}

func (a *authService) Username() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.username
}

// Register creates a new account on the server.
func (a *authService) Register(ctx context.Context, username string, password []byte) error {
	if _, err := a.client.Register(ctx, username, string(password)); err != nil {
		return err
	}
	return nil
}

// Login tries the server first. Only when the server cannot be reached does
// it fall back to the verifier cached by a previous online login.
func (a *authService) Login(ctx context.Context, username string, password []byte) (LoginMode, error) {
	sess, err := a.client.Login(ctx, username, string(password))
	switch {
	case err == nil:
	case errors.Is(err, common.ErrRemoteUnavailable):
		a.log.Warn(ctx, "server unreachable, trying offline login", "error", err)
		if err := a.offlineLogin(ctx, username, password); err != nil {
			return LoginOffline, err
		}
		return LoginOffline, nil
	default:
		return LoginOnline, fmt.Errorf("login error: %w", err)
	}

	if err := a.forgetOtherUser(ctx, sess.UserID); err != nil {
		return LoginOnline, err
	}
	if err := a.saveOfflineData(ctx, sess, username, password); err != nil {
		return LoginOnline, fmt.Errorf("offline data saving error: %w", err)
	}
	a.setSession(sess.UserID, username)
	return LoginOnline, nil
}

// offlineLogin verifies password against the cached verifier and restores
// the cached tokens so sync can resume once the server is back.
func (a *authService) offlineLogin(ctx context.Context, username string, password []byte) error {
	m, err := a.meta.List(ctx)
	if err != nil {
		return err
	}
	if len(m[metaUserID]) == 0 || len(m[metaVerifier]) == 0 {
		return fmt.Errorf("%w: no offline credentials cached", common.ErrRemoteUnavailable)
	}
	if string(m[metaUsername]) != username {
		return common.ErrUnauthorized
	}
	if !cryptox.CheckPassword(password, m[metaSalt], m[metaVerifier]) {
		return common.ErrUnauthorized
	}

	a.client.SetTokens(string(m[metaAccessToken]), string(m[metaRefreshToken]))
	a.setSession(string(m[metaUserID]), username)
	return nil
}

// forgetOtherUser wipes the cache when a different account signs in, so
// one user's entries are never shown to or synced as another.
func (a *authService) forgetOtherUser(ctx context.Context, userID string) error {
	prev, err := a.meta.Get(ctx, metaUserID)
	if err != nil {
		return err
	}
	if prev == nil || string(prev) == userID {
		return nil
	}
	n, err := a.local.PendingCount(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		a.log.Warn(ctx, "dropping unsynced changes of previous user", "pending", n)
	}
	if err := a.local.ClearAll(ctx); err != nil {
		return err
	}
	return a.meta.Clear(ctx)
}

func (a *authService) saveOfflineData(ctx context.Context, sess client.Session, username string, password []byte) error {
	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	verifier := cryptox.MakeVerifier(cryptox.DeriveKey(password, salt))

	values := map[string][]byte{
		metaUserID:       []byte(sess.UserID),
		metaUsername:     []byte(username),
		metaSalt:         salt,
		metaVerifier:     verifier,
		metaAccessToken:  []byte(sess.AccessToken),
		metaRefreshToken: []byte(sess.RefreshToken),
	}
	for k, v := range values {
		if err := a.meta.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// PersistTokens stores rotated tokens for the next offline login.
func (a *authService) PersistTokens(ctx context.Context, access, refresh string) error {
	if _, err := a.CurrentOwner(ctx); err != nil {
		return nil
	}
	if err := a.meta.Set(ctx, metaAccessToken, []byte(access)); err != nil {
		return err
	}
	return a.meta.Set(ctx, metaRefreshToken, []byte(refresh))
}

// Logout clears the session and every locally cached entry, queued
// mutation and credential.
func (a *authService) Logout(ctx context.Context) (int, error) {
	pending, err := a.local.PendingCount(ctx)
	if err != nil {
		return 0, err
	}
	if pending > 0 {
		a.log.Warn(ctx, "signing out with unsynced changes", "pending", pending)
	}

	if err := a.local.ClearAll(ctx); err != nil {
		return 0, err
	}
	if err := a.meta.Clear(ctx); err != nil {
		return 0, err
	}
	a.client.SetTokens("", "")
	a.setSession("", "")
	return pending, nil
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
