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

type ProductRepository struct {
	collection *mongo.Collection
	populate   populator
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection(ProductsCollection),
		populate:   newPopulator(db),
	}
}

// Create inserta el producto y lo devuelve con createdBy expandido.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) (*models.ProductDetail, error) {
	insertCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	product.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(insertCtx, product); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return r.findDetail(ctx, product.ID)
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.ProductDetail, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findDetail(ctx, oid)
}

// List devuelve una página de productos (más nuevos primero) y el total.
// El conteo corre en paralelo con la búsqueda.
func (r *ProductRepository) List(ctx context.Context, filter bson.M, page query.Pagination) ([]models.ProductDetail, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		products []models.Product
		total    int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts := options.Find().
			SetSkip(page.Skip()).
			SetLimit(page.Limit).
			SetSort(query.SortNewestFirst())

		cursor, err := r.collection.Find(gctx, filter, opts)
		if err != nil {
			return fmt.Errorf("find products: %w", err)
		}
		defer cursor.Close(gctx)

		products = make([]models.Product, 0, page.Limit)
		if err := cursor.All(gctx, &products); err != nil {
			return fmt.Errorf("decode products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = r.collection.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	details, err := r.populate.productDetails(ctx, products)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// Update merges the present fields into the stored product, re-runs the
// schema rules on the result and persists the changed fields.
func (r *ProductRepository) Update(ctx context.Context, id string, in models.ProductInput) (*models.ProductDetail, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	current, err := r.find(ctx, oid)
	if err != nil {
		return nil, err
	}

	set := in.ApplyTo(current)
	if err := validation.Struct(current); err != nil {
		return nil, err
	}

	if len(set) > 0 {
		set["updatedAt"] = time.Now().UTC()

		updateCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()

		result, err := r.collection.UpdateOne(updateCtx, bson.M{"_id": oid}, bson.M{"$set": set})
		if err != nil {
			return nil, fmt.Errorf("update product %s: %w", id, err)
		}
		if result.MatchedCount == 0 {
			return nil, ErrNotFound
		}
	}

	return r.findDetail(ctx, oid)
}

// Delete elimina el producto y devuelve su último estado
func (r *ProductRepository) Delete(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	var product models.Product
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (r *ProductRepository) find(ctx context.Context, oid primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (r *ProductRepository) findDetail(ctx context.Context, oid primitive.ObjectID) (*models.ProductDetail, error) {
	product, err := r.find(ctx, oid)
	if err != nil {
		return nil, err
	}

	details, err := r.populate.productDetails(ctx, []models.Product{*product})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}
