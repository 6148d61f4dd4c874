package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/shopfront-backend/internal/users"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegisterService creates accounts.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             db.TxRunner
	PasswordConfig config.PasswordConfig
	Roles          []enums.Role
}

type registerService struct {
	db          db.TxRunner
	passwordCfg config.PasswordConfig
	roles       []enums.Role
}

// NewRegisterService builds a registration service granting the USER role.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	roles := params.Roles
	if len(roles) == 0 {
		roles = []enums.Role{enums.RoleUser}
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
		roles:       roles,
	}, nil
}

// NewAdminRegisterService builds the non-production flow that grants USER and ADMIN.
func NewAdminRegisterService(params RegisterServiceParams) (RegisterService, error) {
	params.Roles = []enums.Role{enums.RoleUser, enums.RoleAdmin}
	return NewRegisterService(params)
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and email are required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		roleRepo := users.NewRoleRepository(tx)

		if taken, err := userRepo.ExistsByUsername(ctx, username); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
		} else if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "Username is already taken")
		}
		if taken, err := userRepo.ExistsByEmail(ctx, email, uuid.Nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		} else if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "Email is already in use")
		}

		roles, err := roleRepo.FindByNames(ctx, s.roles...)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load roles")
		}
		if len(roles) != len(s.roles) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, fmt.Errorf("roles %v not seeded", s.roles), "load roles")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
			Roles:        roles,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "Username or email is already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
