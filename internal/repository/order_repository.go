package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"shop-backend/internal/models"
	"shop-backend/internal/query"
	"shop-backend/internal/validation"
)

type OrderRepository struct {
	collection *mongo.Collection
	populate   populator
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{
		collection: db.Collection(OrdersCollection),
		populate:   newPopulator(db),
	}
}

// Create inserts the order and returns it with user and item products
// expanded. A repeated orderId yields ErrDuplicateKey.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) (*models.OrderDetail, error) {
	insertCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	order.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(insertCtx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("order %s: %w", order.OrderID, ErrDuplicateKey)
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return r.findDetail(ctx, order.ID)
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.OrderDetail, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findDetail(ctx, oid)
}

func (r *OrderRepository) List(ctx context.Context, filter bson.M, page query.Pagination) ([]models.OrderDetail, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		orders []models.Order
		total  int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts := options.Find().
			SetSkip(page.Skip()).
			SetLimit(page.Limit).
			SetSort(query.SortNewestFirst())

		cursor, err := r.collection.Find(gctx, filter, opts)
		if err != nil {
			return fmt.Errorf("find orders: %w", err)
		}
		defer cursor.Close(gctx)

		orders = make([]models.Order, 0, page.Limit)
		if err := cursor.All(gctx, &orders); err != nil {
			return fmt.Errorf("decode orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = r.collection.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	details, err := r.populate.orders(ctx, orders)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// Update applies a partial update. paidAt/deliveredAt are stamped the first
// time their flag turns true.
func (r *OrderRepository) Update(ctx context.Context, id string, upd models.OrderUpdate) (*models.OrderDetail, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	current, err := r.find(ctx, oid)
	if err != nil {
		return nil, err
	}

	set := current.ApplyUpdate(upd, time.Now().UTC())
	if err := validation.Struct(current); err != nil {
		return nil, err
	}

	if len(set) > 0 {
		updateCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()

		result, err := r.collection.UpdateOne(updateCtx, bson.M{"_id": oid}, bson.M{"$set": set})
		if err != nil {
			return nil, fmt.Errorf("update order %s: %w", id, err)
		}
		if result.MatchedCount == 0 {
			return nil, ErrNotFound
		}
	}

	return r.findDetail(ctx, oid)
}

// Delete removes the order and returns its final state. Referenced users and
// products are left untouched.
func (r *OrderRepository) Delete(ctx context.Context, id string) (*models.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	var order models.Order
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *OrderRepository) find(ctx context.Context, oid primitive.ObjectID) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *OrderRepository) findDetail(ctx context.Context, oid primitive.ObjectID) (*models.OrderDetail, error) {
	order, err := r.find(ctx, oid)
	if err != nil {
		return nil, err
	}

	details, err := r.populate.orders(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}
