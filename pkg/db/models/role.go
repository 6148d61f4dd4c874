package models

import "github.com/angelmondragon/shopfront-backend/pkg/enums"

// Role rows are seeded by migration; users reference them through user_roles.
type Role struct {
	ID   int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Name enums.Role `gorm:"column:name;not null;uniqueIndex"`
}

// RoleNames flattens the association for token minting and responses.
func RoleNames(roles []Role) []enums.Role {
	out := make([]enums.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.Name)
	}
	return out
}
