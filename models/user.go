package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Email        string               `bson:"email" json:"email"`
	Username     string               `bson:"username" json:"username"`
	Password     string               `bson:"password" json:"-"`
	Address      string               `bson:"address,omitempty" json:"address,omitempty"`
	Role         string               `bson:"role" json:"-"`
	Wishlist     []primitive.ObjectID `bson:"wishlist" json:"wishlist"`
	DonationPlan string               `bson:"donationPlan,omitempty" json:"donationPlan,omitempty"`
	DonationID   string               `bson:"donationId,omitempty" json:"donationId,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// UserView is the client-facing shape of a user. The role is exposed only as
// an isAdmin flag and the password hash never leaves the server.
type UserView struct {
	ID           primitive.ObjectID   `json:"_id"`
	Email        string               `json:"email"`
	Username     string               `json:"username"`
	Address      string               `json:"address,omitempty"`
	IsAdmin      bool                 `json:"isAdmin"`
	Wishlist     []primitive.ObjectID `json:"wishlist"`
	DonationPlan string               `json:"donationPlan,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

func (u User) View() UserView {
	wishlist := u.Wishlist
	if wishlist == nil {
		wishlist = []primitive.ObjectID{}
	}

	return UserView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		Address:      u.Address,
		IsAdmin:      u.Role == "admin",
		Wishlist:     wishlist,
		DonationPlan: u.DonationPlan,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
