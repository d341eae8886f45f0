package checkout

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

// ProjectedProduct flattens a populated product beside the quantity the buyer
// asked for. Remaining stock is exposed as "count" so it never collides with
// wantedQty.
type ProjectedProduct struct {
	ID          primitive.ObjectID    `json:"_id"`
	Title       string                `json:"title,omitempty"`
	Price       float64               `json:"price"`
	Category    NamedRef              `json:"category"`
	Brand       NamedRef              `json:"brand"`
	Count       int                   `json:"count"`
	Sold        int                   `json:"sold"`
	Imgs        []models.ProductImage `json:"imgs,omitempty"`
	Color       string                `json:"color,omitempty"`
	Description string                `json:"description,omitempty"`
	WantedQty   int                   `json:"wantedQty"`
}

// ExtractProducts partitions line items into resolved and dangling ones.
// Dangling items (nil product) are dropped and counted; resolved items are
// flattened. Pure: no I/O, deterministic.
func ExtractProducts(items []PopulatedItem) ([]ProjectedProduct, int) {
	products := make([]ProjectedProduct, 0, len(items))
	removed := 0

	for _, item := range items {
		if item.Product == nil {
			removed++
			continue
		}

		p := item.Product
		products = append(products, ProjectedProduct{
			ID:          p.ID,
			Title:       p.Title,
			Price:       p.Price,
			Category:    p.Category,
			Brand:       p.Brand,
			Count:       p.Quantity,
			Sold:        p.Sold,
			Imgs:        p.Imgs,
			Color:       p.Color,
			Description: p.Description,
			WantedQty:   item.WantedQty,
		})
	}

	return products, removed
}
