package catalog

// Variant is a purchasable SKU. Prices are points, not money.
// Invariant: 0 <= Reserved <= StockTotal.
type Variant struct {
	SKU         string `json:"sku"`
	Size        string `json:"size,omitempty"`
	Color       string `json:"color,omitempty"`
	PricePoints int    `json:"price_points"`
	StockTotal  int    `json:"stock_total"`
	Reserved    int    `json:"reserved"`
	ProductID   int64  `json:"product_id"`
}

// Available is stock not held by any reservation.
func (v Variant) Available() int { return v.StockTotal - v.Reserved }

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Variants    []Variant `json:"variants"`
}

type VariantInput struct {
	SKU         string `json:"sku"`
	Size        string `json:"size,omitempty"`
	Color       string `json:"color,omitempty"`
	PricePoints int    `json:"price_points"`
	StockTotal  int    `json:"stock_total"`
}

type ProductInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Images      []string       `json:"images"`
	Variants    []VariantInput `json:"variants"`
}
