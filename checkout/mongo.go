package checkout

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

// MongoStore implements Store over the platform's MongoDB database.
type MongoStore struct {
	carts      *mongo.Collection
	orders     *mongo.Collection
	products   *mongo.Collection
	categories *mongo.Collection
	brands     *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		carts:      db.Collection("carts"),
		orders:     db.Collection("orders"),
		products:   db.Collection("products"),
		categories: db.Collection("categories"),
		brands:     db.Collection("brands"),
	}
}

func (s *MongoStore) CartByUser(ctx context.Context, userID primitive.ObjectID) (*PopulatedCart, error) {
	var cart models.Cart
	err := s.carts.FindOne(ctx, bson.M{"orderby": userID}).Decode(&cart)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// the workflow only needs stock and price here, the full projection
	// happens after the order is created
	ids := make([]primitive.ObjectID, 0, len(cart.Products))
	for _, item := range cart.Products {
		ids = append(ids, item.ProductID)
	}

	found := map[primitive.ObjectID]models.Product{}
	if len(ids) > 0 {
		opts := options.Find().SetProjection(bson.M{"quantity": 1, "price": 1})
		cursor, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
		if err != nil {
			return nil, err
		}
		var products []models.Product
		if err := cursor.All(ctx, &products); err != nil {
			return nil, err
		}
		for _, p := range products {
			found[p.ID] = p
		}
	}

	populated := &PopulatedCart{ID: cart.ID, OrderBy: cart.OrderBy}
	for _, item := range cart.Products {
		line := PopulatedItem{WantedQty: item.WantedQty}
		if p, ok := found[item.ProductID]; ok {
			line.Product = &PopulatedProduct{
				ID:       p.ID,
				Price:    p.Price,
				Quantity: p.Quantity,
			}
		}
		populated.Products = append(populated.Products, line)
	}

	return populated, nil
}

func (s *MongoStore) InsertOrder(ctx context.Context, order *models.Order) (primitive.ObjectID, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	res, err := s.orders.InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

func (s *MongoStore) OrderByID(ctx context.Context, id primitive.ObjectID) (*PopulatedOrder, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items, err := s.PopulateItems(ctx, order.Products)
	if err != nil {
		return nil, err
	}

	return &PopulatedOrder{
		ID:          order.ID,
		Products:    items,
		Method:      order.Method,
		TotalPrice:  order.TotalPrice,
		Currency:    order.Currency,
		OrderStatus: order.OrderStatus,
		OrderBy:     order.OrderBy,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}, nil
}

func (s *MongoStore) DeleteCart(ctx context.Context, cartID primitive.ObjectID) (bool, error) {
	res, err := s.carts.DeleteOne(ctx, bson.M{"_id": cartID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) ApplyInventory(ctx context.Context, deltas []InventoryDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(deltas))
	for _, d := range deltas {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": d.ProductID}).
			SetUpdate(bson.M{"$inc": bson.M{"quantity": -d.Qty, "sold": d.Qty}}))
	}

	_, err := s.products.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

func (s *MongoStore) PopulateItems(ctx context.Context, items []models.LineItem) ([]PopulatedItem, error) {
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	found := map[primitive.ObjectID]models.Product{}
	if len(ids) > 0 {
		cursor, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, err
		}
		var products []models.Product
		if err := cursor.All(ctx, &products); err != nil {
			return nil, err
		}
		for _, p := range products {
			found[p.ID] = p
		}
	}

	catNames, err := s.namedRefs(ctx, s.categories, collectRefs(found, func(p models.Product) primitive.ObjectID { return p.Category }))
	if err != nil {
		return nil, err
	}
	brandNames, err := s.namedRefs(ctx, s.brands, collectRefs(found, func(p models.Product) primitive.ObjectID { return p.Brand }))
	if err != nil {
		return nil, err
	}

	populated := make([]PopulatedItem, 0, len(items))
	for _, item := range items {
		line := PopulatedItem{WantedQty: item.WantedQty}
		if p, ok := found[item.ProductID]; ok {
			line.Product = &PopulatedProduct{
				ID:          p.ID,
				Title:       p.Title,
				Price:       p.Price,
				Category:    NamedRef{ID: p.Category, Name: catNames[p.Category]},
				Brand:       NamedRef{ID: p.Brand, Name: brandNames[p.Brand]},
				Quantity:    p.Quantity,
				Sold:        p.Sold,
				Imgs:        p.Imgs,
				Color:       p.Color,
				Description: p.Description,
			}
		}
		populated = append(populated, line)
	}

	return populated, nil
}

func (s *MongoStore) namedRefs(ctx context.Context, coll *mongo.Collection, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	names := map[primitive.ObjectID]string{}
	if len(ids) == 0 {
		return names, nil
	}

	opts := options.Find().SetProjection(bson.M{"name": 1})
	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}

	var entries []models.CatalogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	for _, e := range entries {
		names[e.ID] = e.Name
	}
	return names, nil
}

func collectRefs(products map[primitive.ObjectID]models.Product, pick func(models.Product) primitive.ObjectID) []primitive.ObjectID {
	seen := map[primitive.ObjectID]struct{}{}
	var ids []primitive.ObjectID
	for _, p := range products {
		id := pick(p)
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
