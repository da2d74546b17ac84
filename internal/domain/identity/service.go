package identity

import (
	"context"
	"net/mail"
	"strings"

	"hrtime/internal/auth"
	"hrtime/internal/domain/apperr"
)

const minPasswordLength = 8

// Service owns user lifecycle and credential checks. Authorization beyond
// ownership (HR-only routes) is enforced by the transport middleware; the
// service still guards the rules that depend on entity state.
type Service struct {
	Store             StoreAPI
	DefaultAnnualDays float64
}

func NewService(store StoreAPI, defaultAnnualDays float64) *Service {
	return &Service{Store: store, DefaultAnnualDays: defaultAnnualDays}
}

// Register creates a self-service account. The role is always EMPLOYEE; HR
// accounts are provisioned through Create by an existing HR user.
func (s *Service) Register(ctx context.Context, email, fullName, password string) (User, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return User{}, err
	}
	if err := validatePassword(password); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(fullName) == "" {
		return User{}, apperr.Validation("full name is required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	return s.Store.Create(ctx, User{
		Email:         email,
		FullName:      strings.TrimSpace(fullName),
		PasswordHash:  hash,
		Role:          RoleEmployee,
		IsActive:      true,
		AnnualDays:    s.DefaultAnnualDays,
		AvailableDays: s.DefaultAnnualDays,
	})
}

// Create provisions an account with an explicit role. HR-only.
func (s *Service) Create(ctx context.Context, input CreateUserInput) (User, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validateEmail(input.Email); err != nil {
		return User{}, err
	}
	if err := validatePassword(input.Password); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(input.FullName) == "" {
		return User{}, apperr.Validation("full name is required")
	}
	if input.Role != RoleEmployee && input.Role != RoleHR {
		return User{}, apperr.Newf(apperr.KindValidation, "unknown role %q", input.Role)
	}
	annual := input.AnnualDays
	if annual <= 0 {
		annual = s.DefaultAnnualDays
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return User{}, err
	}

	return s.Store.Create(ctx, User{
		Email:         input.Email,
		FullName:      strings.TrimSpace(input.FullName),
		PasswordHash:  hash,
		Role:          input.Role,
		IsActive:      input.IsActive,
		AnnualDays:    annual,
		AvailableDays: annual,
	})
}

// Authenticate verifies credentials for login. Failures are deliberately
// indistinguishable between unknown email and wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, found, err := s.Store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return User{}, err
	}
	if !found {
		return User{}, apperr.Unauthenticated("invalid credentials")
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return User{}, apperr.Unauthenticated("invalid credentials")
	}
	if !user.IsActive {
		return User{}, apperr.Forbidden("account is deactivated")
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	user, found, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !found {
		return User{}, apperr.NotFound("user not found")
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, filters ListUsersFilters, limit, offset int) (UserListResult, error) {
	return s.Store.List(ctx, filters, limit, offset)
}

// Update applies an HR-side partial update. Changing annual days does not
// retroactively touch the available balance unless the caller sets it too.
func (s *Service) Update(ctx context.Context, id string, input UpdateUserInput) (User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if err := validateEmail(email); err != nil {
			return User{}, err
		}
		taken, err := s.Store.ExistsByEmail(ctx, email, id)
		if err != nil {
			return User{}, err
		}
		if taken {
			return User{}, apperr.Newf(apperr.KindConflict, "email %s is already registered", email)
		}
		user.Email = email
	}
	if input.FullName != nil {
		if strings.TrimSpace(*input.FullName) == "" {
			return User{}, apperr.Validation("full name is required")
		}
		user.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Password != nil {
		if err := validatePassword(*input.Password); err != nil {
			return User{}, err
		}
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = hash
	}
	if input.Role != nil {
		if *input.Role != RoleEmployee && *input.Role != RoleHR {
			return User{}, apperr.Newf(apperr.KindValidation, "unknown role %q", *input.Role)
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.AnnualDays != nil {
		if *input.AnnualDays < 0 {
			return User{}, apperr.Validation("annual days must not be negative")
		}
		user.AnnualDays = *input.AnnualDays
	}
	if input.AvailableDays != nil {
		if *input.AvailableDays < 0 {
			return User{}, apperr.Validation("available days must not be negative")
		}
		user.AvailableDays = *input.AvailableDays
	}

	return s.Store.Update(ctx, user)
}

// UpdateSelf lets any authenticated user edit their own profile fields.
// Role, activity and balances are HR territory and are ignored here.
func (s *Service) UpdateSelf(ctx context.Context, id string, email, fullName *string) (User, error) {
	return s.Update(ctx, id, UpdateUserInput{Email: email, FullName: fullName})
}

func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(user.PasswordHash, current); err != nil {
		return apperr.Validation("current password is incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	_, err = s.Store.Update(ctx, user)
	return err
}

// Delete removes an account. An HR user cannot delete their own account,
// which keeps the system from locking itself out of the HR role.
func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	if id == callerID {
		return apperr.Validation("cannot delete your own account")
	}
	deleted, err := s.Store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("user not found")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Newf(apperr.KindValidation, "invalid email address %q", email)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperr.Newf(apperr.KindValidation, "password must be at least %d characters", minPasswordLength)
	}
	return nil
}
