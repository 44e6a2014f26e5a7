package client

import (
	"context"

	"github.com/dmitrijs2005/losskeeper/internal/models"
)

// Session is what a successful login yields.
type Session struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

type Client interface {
	Close() error
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (Session, error)
	Ping(ctx context.Context) error

	ListEntries(ctx context.Context) ([]models.Entry, error)
	GetEntry(ctx context.Context, id string) (models.Entry, error)
	// CreateEntry is idempotent per e.ClientRef when it is set.
	CreateEntry(ctx context.Context, e models.Entry) (models.Entry, error)
	UpdateEntry(ctx context.Context, e models.Entry) (models.Entry, error)
	DeleteEntry(ctx context.Context, id string) error

	// SetTokens installs a restored session; empty strings sign out.
	SetTokens(access, refresh string)
}
