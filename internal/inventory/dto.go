package inventory

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	WeightKg    float64 `json:"weight_kg" validate:"gte=0"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	UnitPrice   *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	WeightKg    *float64 `json:"weight_kg,omitempty" validate:"omitempty,gte=0"`
	Quantity    *float64 `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

type ListProductsRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Search   *string `json:"search,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
