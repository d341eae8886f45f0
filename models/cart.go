package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LineItem pairs a product reference with the quantity the buyer wants.
// The same shape is embedded in carts and orders.
type LineItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	WantedQty int                `bson:"wantedQty" json:"wantedQty"`
}

// Cart is per-user staging state. There is at most one cart per user and it
// is deleted once converted into an order.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OrderBy   primitive.ObjectID `bson:"orderby" json:"orderby"`
	Products  []LineItem         `bson:"products" json:"products"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
