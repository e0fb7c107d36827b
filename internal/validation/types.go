package validation

// VariantInput is one variant in a product-create request.
type VariantInput struct {
	SKU         string `json:"sku" validate:"required"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	PricePoints int    `json:"price_points" validate:"min=0"`
	StockTotal  int    `json:"stock_total" validate:"min=0"`
}

// CreateProductRequest is the payload for POST /api/v1/products.
type CreateProductRequest struct {
	Name        string         `json:"name" validate:"required"`
	Description string         `json:"description"`
	Images      []string       `json:"images"`
	Variants    []VariantInput `json:"variants" validate:"dive"`
}

// OrderItemInput is one cart line.
type OrderItemInput struct {
	SKU string `json:"sku" validate:"required"`
	Qty int    `json:"qty" validate:"required,min=1,max=1000"`
}

// CreateOrderRequest is the payload for POST /api/v1/orders.
type CreateOrderRequest struct {
	Items []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// UpdateStatusRequest is the payload for PUT /api/v1/orders/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
