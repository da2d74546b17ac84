package identity

import "context"

type StoreAPI interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id string) (User, bool, error)
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	List(ctx context.Context, filters ListUsersFilters, limit, offset int) (UserListResult, error)
	Update(ctx context.Context, user User) (User, error)
	Delete(ctx context.Context, id string) (bool, error)
}
