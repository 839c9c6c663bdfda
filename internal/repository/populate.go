package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"shop-backend/internal/models"
)

var (
	userSummaryFields    = bson.M{"fullName": 1, "email": 1, "phone": 1}
	productSummaryFields = bson.M{"name": 1, "brand": 1, "price": 1, "images": 1}
)

// populator resolves weak references with one $in lookup per referenced
// collection. References without a matching record expand to nil.
type populator struct {
	users    *mongo.Collection
	products *mongo.Collection
}

func newPopulator(db *mongo.Database) populator {
	return populator{
		users:    db.Collection(UsersCollection),
		products: db.Collection(ProductsCollection),
	}
}

func (p populator) orders(ctx context.Context, orders []models.Order) ([]models.OrderDetail, error) {
	var (
		users    map[primitive.ObjectID]*models.UserSummary
		products map[primitive.ObjectID]*models.ProductSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = p.userSummaries(gctx, orderUserIDs(orders))
		return err
	})
	g.Go(func() error {
		var err error
		products, err = p.productSummaries(gctx, orderProductIDs(orders))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assembleOrders(orders, users, products), nil
}

func (p populator) productDetails(ctx context.Context, products []models.Product) ([]models.ProductDetail, error) {
	ids := make([]primitive.ObjectID, 0, len(products))
	for _, pr := range products {
		ids = append(ids, pr.CreatedBy)
	}

	users, err := p.userSummaries(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	return assembleProducts(products, users), nil
}

func (p populator) userSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.UserSummary, error) {
	out := make(map[primitive.ObjectID]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.UserSummary
	if err := findByIDs(ctx, p.users, ids, userSummaryFields, &rows); err != nil {
		return nil, fmt.Errorf("expand users: %w", err)
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (p populator) productSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.ProductSummary, error) {
	out := make(map[primitive.ObjectID]*models.ProductSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.ProductSummary
	if err := findByIDs(ctx, p.products, ids, productSummaryFields, &rows); err != nil {
		return nil, fmt.Errorf("expand products: %w", err)
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func findByIDs(ctx context.Context, coll *mongo.Collection, ids []primitive.ObjectID, projection bson.M, out any) error {
	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(projection))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func assembleOrders(
	orders []models.Order,
	users map[primitive.ObjectID]*models.UserSummary,
	products map[primitive.ObjectID]*models.ProductSummary,
) []models.OrderDetail {
	out := make([]models.OrderDetail, 0, len(orders))
	for _, o := range orders {
		items := make([]models.OrderItemDetail, 0, len(o.OrderItems))
		for _, it := range o.OrderItems {
			items = append(items, models.OrderItemDetail{OrderItem: it, Product: products[it.Product]})
		}
		out = append(out, models.OrderDetail{
			Order:      o,
			User:       users[o.User],
			OrderItems: items,
		})
	}
	return out
}

func assembleProducts(products []models.Product, users map[primitive.ObjectID]*models.UserSummary) []models.ProductDetail {
	out := make([]models.ProductDetail, 0, len(products))
	for _, p := range products {
		out = append(out, models.ProductDetail{Product: p, CreatedBy: users[p.CreatedBy]})
	}
	return out
}

func orderUserIDs(orders []models.Order) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.User)
	}
	return uniqueIDs(ids)
}

func orderProductIDs(orders []models.Order) []primitive.ObjectID {
	var ids []primitive.ObjectID
	for _, o := range orders {
		for _, it := range o.OrderItems {
			ids = append(ids, it.Product)
		}
	}
	return uniqueIDs(ids)
}

// uniqueIDs drops zero and repeated ids, keeping first-seen order.
func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
