package address

import (
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/google/uuid"
)

// AddressRequest is the create/update payload.
type AddressRequest struct {
	Label       string  `json:"label" validate:"required,max=100"`
	FullAddress string  `json:"fullAddress" validate:"required,max=500"`
	AddressType *string `json:"addressType,omitempty" validate:"omitempty,max=50"`
	IsDefault   bool    `json:"isDefault"`
}

type AddressDTO struct {
	ID          uuid.UUID `json:"id"`
	Label       string    `json:"label"`
	FullAddress string    `json:"fullAddress"`
	AddressType *string   `json:"addressType,omitempty"`
	IsDefault   bool      `json:"isDefault"`
}

func toDTO(a *models.Address) AddressDTO {
	return AddressDTO{
		ID:          a.ID,
		Label:       a.Label,
		FullAddress: a.FullAddress,
		AddressType: a.AddressType,
		IsDefault:   a.IsDefault,
	}
}
