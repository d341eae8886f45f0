package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogImage struct {
	SecureURL string `bson:"secure_url" json:"secure_url"`
	PublicID  string `bson:"public_id" json:"public_id"`
}

// CatalogEntry is the shared document shape of categories and brands. The two
// live in separate collections but carry identical fields.
type CatalogEntry struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name          string               `bson:"name" json:"name"`
	Image         CatalogImage         `bson:"image" json:"image"`
	Products      []primitive.ObjectID `bson:"products" json:"products"`
	ProductsCount int                  `bson:"productsCount" json:"productsCount"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}
