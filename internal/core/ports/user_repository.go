package ports

import (
	"context"

	"github.com/inventario/catalog-api/internal/core/domain"
)

// UserRepository defines user persistence. Only FindByEmail returns the
// password digest; every other read omits it.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	List(ctx context.Context) ([]*domain.User, error)
}
