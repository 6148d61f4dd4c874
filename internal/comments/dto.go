package comments

import (
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CreateCommentRequest is the body of POST /comments.
type CreateCommentRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Content   string    `json:"content" validate:"required,max=2000"`
}

type CommentDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Content   string    `json:"content"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentPage is one cursor page, newest first.
type CommentPage struct {
	Items      []CommentDTO `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

func toDTO(c *models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:        c.ID,
		ProductID: c.ProductID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
	if c.User != nil {
		dto.Username = c.User.Username
	}
	return dto
}
