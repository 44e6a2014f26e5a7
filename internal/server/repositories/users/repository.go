package users

import (
	"context"

	"github.com/dmitrijs2005/losskeeper/internal/server/models"
)

type Repository interface {
	// Create stores user and fills in ID and CreatedAt. A taken username
	// yields common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
