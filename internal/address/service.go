package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const msgNotFound = "Address not found"

// Service manages the caller's address book. At most one address is default.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, req AddressRequest) (*AddressDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, req AddressRequest) (*AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error)
}

type service struct {
	repo *Repository
	tx   db.TxRunner
}

func NewService(repo *Repository, tx db.TxRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error) {
	row, err := s.repo.FindForUser(ctx, id, userID)
	if err != nil {
		return nil, mapError(err, "load address")
	}
	dto := toDTO(row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req AddressRequest) (*AddressDTO, error) {
	address, err := fromRequest(req)
	if err != nil {
		return nil, err
	}
	address.ID = uuid.New()
	address.UserID = userID

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := repo.ClearDefault(ctx, userID, address.ID); err != nil {
				return err
			}
		}
		return repo.Create(ctx, address)
	})
	if err != nil {
		return nil, mapError(err, "create address")
	}
	dto := toDTO(address)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, req AddressRequest) (*AddressDTO, error) {
	patch, err := fromRequest(req)
	if err != nil {
		return nil, err
	}

	var updated *models.Address
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindForUser(ctx, id, userID)
		if err != nil {
			return err
		}
		current.Label = patch.Label
		current.FullAddress = patch.FullAddress
		current.AddressType = patch.AddressType
		current.IsDefault = patch.IsDefault
		if current.IsDefault {
			if err := repo.ClearDefault(ctx, userID, current.ID); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, mapError(err, "update address")
	}
	dto := toDTO(updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return mapError(err, "delete address")
	}
	return nil
}

func (s *service) SetDefault(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error) {
	var target *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindForUser(ctx, id, userID)
		if err != nil {
			return err
		}
		if err := repo.ClearDefault(ctx, userID, id); err != nil {
			return err
		}
		if !current.IsDefault {
			if err := repo.MarkDefault(ctx, id, userID); err != nil {
				return err
			}
			current.IsDefault = true
		}
		target = current
		return nil
	})
	if err != nil {
		return nil, mapError(err, "set default address")
	}
	dto := toDTO(target)
	return &dto, nil
}

func fromRequest(req AddressRequest) (*models.Address, error) {
	label := strings.TrimSpace(req.Label)
	full := strings.TrimSpace(req.FullAddress)
	details := types.FieldErrors{}
	if label == "" {
		details["label"] = "is required"
	}
	if full == "" {
		details["fullAddress"] = "is required"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return &models.Address{
		Label:       label,
		FullAddress: full,
		AddressType: req.AddressType,
		IsDefault:   req.IsDefault,
	}, nil
}

func mapError(err error, op string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, "Default address changed concurrently, retry")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
