package cart

import (
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps a single cart line, including quantities merged by
// repeated adds.
const MaxLineQuantity = 10_000

// AddItemRequest is the body of POST /cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0,lte=10000"`
}

// ItemView is one priced cart line.
type ItemView struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
}

// View is the cart projection. TotalPrice uses current product prices.
type View struct {
	CartID     uuid.UUID       `json:"cartId"`
	Items      []ItemView      `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func buildView(cartID uuid.UUID, lines []models.CartItem) *View {
	view := &View{CartID: cartID, Items: make([]ItemView, 0, len(lines)), TotalPrice: decimal.Zero}
	for _, line := range lines {
		if line.Product == nil {
			continue
		}
		view.Items = append(view.Items, ItemView{
			ProductID:   line.ProductID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			Price:       line.Product.Price,
			ImageURL:    line.Product.ImageURL,
		})
		view.TotalPrice = view.TotalPrice.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return view
}
