package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shop-backoffice-ledger/internal/domain/customer"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

type customerDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email,omitempty"`
	Phone     string    `bson:"phone,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d *customerDocument) customer() (*customer.Customer, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id %q: %w", d.ID, err)
	}
	return &customer.Customer{
		ID:        id,
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		CreatedAt: d.CreatedAt,
	}, nil
}

// CustomerRepository implements the customer.Repository interface for MongoDB
type CustomerRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewCustomerRepository creates a new MongoDB customer repository
func NewCustomerRepository(logger *slog.Logger, db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *CustomerRepository) collection() *mongo.Collection {
	return r.db.Collection(persistence.CollectionCustomers)
}

// EnsureIndexes creates the phone lookup index and the name sort index
func (r *CustomerRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	})
	if err != nil {
		r.logger.Error("Failed to create customer indexes", "error", err)
		return fmt.Errorf("failed to create customer indexes: %w", err)
	}
	return nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	doc := customerDocument{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
	if _, err := r.collection().InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to create customer", "customer_id", doc.ID, "error", err)
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()}, nil, id.String())
}

// FindByPhone returns the oldest customer registered with phone
func (r *CustomerRepository) FindByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.findOne(ctx, bson.M{"phone": phone}, opts, phone)
}

func (r *CustomerRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions, ref string) (*customer.Customer, error) {
	var doc customerDocument
	err := r.collection().FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, customer.ErrCustomerNotFound{Ref: ref}
		}
		r.logger.Error("Failed to get customer", "ref", ref, "error", err)
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return doc.customer()
}

// Search returns a page of matching customers sorted by name
func (r *CustomerRepository) Search(ctx context.Context, query string, limit, offset int) ([]*customer.Customer, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection().Find(ctx, customerSearchFilter(query), opts)
	if err != nil {
		r.logger.Error("Failed to search customers", "error", err)
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []customerDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode customers", "error", err)
		return nil, fmt.Errorf("failed to decode customers: %w", err)
	}

	customers := make([]*customer.Customer, 0, len(docs))
	for i := range docs {
		c, err := docs[i].customer()
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, nil
}

func (r *CustomerRepository) CountSearch(ctx context.Context, query string) (int64, error) {
	count, err := r.collection().CountDocuments(ctx, customerSearchFilter(query))
	if err != nil {
		r.logger.Error("Failed to count customers", "error", err)
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}

// customerSearchFilter matches query as a literal substring of the name or
// email, ignoring case, or of the phone once normalized
func customerSearchFilter(query string) bson.M {
	if query == "" {
		return bson.M{}
	}

	text := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	or := bson.A{
		bson.M{"name": text},
		bson.M{"email": text},
	}
	if phone := customer.NormalizePhone(query); phone != "" {
		or = append(or, bson.M{"phone": primitive.Regex{Pattern: regexp.QuoteMeta(phone)}})
	}
	return bson.M{"$or": or}
}
