package domain

import "time"

type ID string

type Product struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// lowStockThreshold marks the quantity at or below which a product
// counts as low stock rather than in stock.
const lowStockThreshold = 10

// StockStatus classifies the product by its current quantity.
func (p Product) StockStatus() StockStatus {
	switch {
	case p.Quantity <= 0:
		return StockStatusOutOfStock
	case p.Quantity <= lowStockThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// ListQuery describes one paginated listing request. Search and MinQuantity
// are optional filters; MinQuantity is nil when absent.
type ListQuery struct {
	Page        int
	Limit       int
	Search      string
	MinQuantity *int
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type ListResult struct {
	Products      []Product `json:"products"`
	TotalPages    int       `json:"totalPages"`
	CurrentPage   int       `json:"currentPage"`
	TotalProducts int       `json:"totalProducts"`
}
