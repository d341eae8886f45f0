package controllers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/customer"
	"github.com/stripe/stripe-go/v78/subscription"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/checkout"
	"storefront/config"
	"storefront/database"
	"storefront/middleware"
)

type paymentLine struct {
	Name     string `json:"name" binding:"required"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Currency string `json:"currency" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
}

type paymentRequest struct {
	CustomerEmail string        `json:"customer_email" binding:"required,email"`
	LineItems     []paymentLine `json:"line_items" binding:"required,min=1"`
}

// CreatePaymentSession opens a one-time Stripe checkout session. The order
// itself is created later, by the webhook, once the session completes.
func CreatePaymentSession(c *gin.Context) {
	createStripeSession(c, false)
}

// CreateDonationSession opens a subscription session for a donation plan.
// PATCH marks update mode so the webhook cancels the previous subscription.
func CreateDonationSession(c *gin.Context) {
	createStripeSession(c, true)
}

func createStripeSession(c *gin.Context, donate bool) {
	ident, err := middleware.RequireIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "you need to login first"})
		return
	}

	var body paymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "customer_email and line_items is required"})
		return
	}

	ensureStripeCustomer(body.CustomerEmail)

	clientURL := config.GetEnv("CLIENT_APP_URL", "http://localhost:5173")
	urlPath := ""
	mode := stripe.CheckoutSessionModePayment
	if donate {
		urlPath = "/donate"
		mode = stripe.CheckoutSessionModeSubscription
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(body.LineItems))
	for _, line := range body.LineItems {
		priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(strings.ToLower(line.Currency)),
			UnitAmount: stripe.Int64(line.Amount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(line.Name),
			},
		}
		if donate {
			priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String("month"),
			}
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity:  stripe.Int64(line.Quantity),
			PriceData: priceData,
		})
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL:         stripe.String(clientURL + "/successPayment" + urlPath),
		CancelURL:          stripe.String(clientURL + "/failedPayment" + urlPath),
		LineItems:          lineItems,
		CustomerEmail:      stripe.String(body.CustomerEmail),
		Mode:               stripe.String(string(mode)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"EG"}),
		},
	}
	params.AddMetadata("userId", ident.ID.Hex())

	if donate {
		metadata := map[string]string{
			"userId":       ident.ID.Hex(),
			"donationPlan": body.LineItems[0].Name,
		}
		if c.Request.Method == http.MethodPatch {
			ctx, cancel := shortTimeout(c.Request.Context())
			defer cancel()

			var user struct {
				DonationID string `bson:"donationId"`
			}
			if err := database.UserCollection.FindOne(ctx, bson.M{"_id": ident.ID}).Decode(&user); err == nil && user.DonationID != "" {
				metadata["isUpdateMode"] = "true"
				metadata["oldSubscriptionId"] = user.DonationID
			}
		}
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		}
	}

	s, err := session.New(params)
	if err != nil {
		slog.Error("stripe session creation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while trying to process the payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": s.URL})
}

// ensureStripeCustomer creates the customer on first payment so sessions are
// tied to a stable Stripe identity. Failures here never block the session.
func ensureStripeCustomer(email string) {
	iter := customer.List(&stripe.CustomerListParams{Email: stripe.String(email)})
	if iter.Next() {
		return
	}

	_, err := customer.New(&stripe.CustomerParams{
		Name:  stripe.String(strings.Split(email, "@")[0]),
		Email: stripe.String(email),
	})
	if err != nil {
		slog.Warn("stripe customer creation failed", "error", err)
	}
}

// StripeWebhook handles provider-initiated events. A completed one-time
// payment submits the buyer's cart as an order using the userId carried in
// session metadata; no login credential is involved.
func StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "can't read the event payload"})
		return
	}

	secret := config.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid event signature"})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid event payload"})
			return
		}
		if s.Mode != stripe.CheckoutSessionModePayment {
			break
		}

		userID, err := primitive.ObjectIDFromHex(s.Metadata["userId"])
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "user id not found"})
			return
		}

		method := ""
		if len(s.PaymentMethodTypes) > 0 {
			method = capitalize(s.PaymentMethodTypes[0])
		}

		ctx, cancel := longTimeout(c.Request.Context())
		defer cancel()

		_, err = checkout.Submit(ctx, getCheckoutStore(), checkout.Params{
			UserID:   userID,
			Method:   method,
			Currency: strings.ToUpper(string(s.Currency)),
		})
		if err != nil {
			writeSubmitError(c, err)
			return
		}

	case "customer.subscription.created":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid event payload"})
			return
		}

		userID, err := primitive.ObjectIDFromHex(sub.Metadata["userId"])
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "user id not found"})
			return
		}

		if sub.Metadata["isUpdateMode"] != "" {
			if old := sub.Metadata["oldSubscriptionId"]; old != "" {
				if _, err := subscription.Cancel(old, nil); err != nil {
					slog.Warn("old subscription cancel failed", "subscription", old, "error", err)
				}
			}
		}

		plan := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(sub.Metadata["donationPlan"]), "plan", ""))

		ctx, cancel := shortTimeout(c.Request.Context())
		defer cancel()

		_, err = database.UserCollection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
			"$set": bson.M{"donationPlan": plan, "donationId": sub.ID},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while processing the payment"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
