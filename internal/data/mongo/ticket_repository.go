package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shop-backoffice-ledger/internal/domain/repair"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
	"github.com/shop-backoffice-ledger/internal/platform/persistence"
)

type lineDocument struct {
	Type        repair.LineType      `bson:"type"`
	ItemID      *int64               `bson:"item_id,omitempty"`
	Description string               `bson:"description"`
	Quantity    int                  `bson:"quantity"`
	UnitPrice   primitive.Decimal128 `bson:"unit_price"`
	UnitCost    primitive.Decimal128 `bson:"unit_cost"`
}

type ticketDocument struct {
	ID            string         `bson:"_id"`
	Number        string         `bson:"number"`
	CustomerName  string         `bson:"customer_name"`
	CustomerPhone string         `bson:"customer_phone,omitempty"`
	CustomerID    *string        `bson:"customer_id,omitempty"`
	Device        string         `bson:"device"`
	Issue         string         `bson:"issue"`
	Status        repair.Status  `bson:"status"`
	Lines         []lineDocument `bson:"lines"`
	OperationID   *string        `bson:"operation_id,omitempty"`
	CreatedAt     time.Time      `bson:"created_at"`
	UpdatedAt     time.Time      `bson:"updated_at"`
	FinalizedAt   *time.Time     `bson:"finalized_at,omitempty"`
}

// toDecimal128 stores money at currency scale, so 89.9 is kept as 89.90
func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	raw := d.StringFixed(shared.CurrencyScale)
	v, err := primitive.ParseDecimal128(raw)
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("invalid decimal %s: %w", raw, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

func toLineDocuments(lines []repair.Line) ([]lineDocument, error) {
	docs := make([]lineDocument, 0, len(lines))
	for _, l := range lines {
		price, err := toDecimal128(l.UnitPrice)
		if err != nil {
			return nil, err
		}
		cost, err := toDecimal128(l.UnitCost)
		if err != nil {
			return nil, err
		}
		docs = append(docs, lineDocument{
			Type:        l.Type,
			ItemID:      l.ItemID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   price,
			UnitCost:    cost,
		})
	}
	return docs, nil
}

func toTicketDocument(t *repair.Ticket) (*ticketDocument, error) {
	lines, err := toLineDocuments(t.Lines)
	if err != nil {
		return nil, err
	}
	doc := &ticketDocument{
		ID:            t.ID.String(),
		Number:        t.Number,
		CustomerName:  t.CustomerName,
		CustomerPhone: t.CustomerPhone,
		Device:        t.Device,
		Issue:         t.Issue,
		Status:        t.Status,
		Lines:         lines,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		FinalizedAt:   t.FinalizedAt,
	}
	if t.OperationID != nil {
		id := t.OperationID.String()
		doc.OperationID = &id
	}
	if t.CustomerID != nil {
		id := t.CustomerID.String()
		doc.CustomerID = &id
	}
	return doc, nil
}

func (d *ticketDocument) ticket() (*repair.Ticket, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid ticket id %q: %w", d.ID, err)
	}

	t := &repair.Ticket{
		ID:            id,
		Number:        d.Number,
		CustomerName:  d.CustomerName,
		CustomerPhone: d.CustomerPhone,
		Device:        d.Device,
		Issue:         d.Issue,
		Status:        d.Status,
		Lines:         make([]repair.Line, 0, len(d.Lines)),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		FinalizedAt:   d.FinalizedAt,
	}
	if d.OperationID != nil {
		opID, err := uuid.Parse(*d.OperationID)
		if err != nil {
			return nil, fmt.Errorf("invalid operation id on ticket %s: %w", d.Number, err)
		}
		t.OperationID = &opID
	}
	if d.CustomerID != nil {
		customerID, err := uuid.Parse(*d.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("invalid customer id on ticket %s: %w", d.Number, err)
		}
		t.CustomerID = &customerID
	}

	for _, l := range d.Lines {
		price, err := fromDecimal128(l.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid unit price on ticket %s: %w", d.Number, err)
		}
		cost, err := fromDecimal128(l.UnitCost)
		if err != nil {
			return nil, fmt.Errorf("invalid unit cost on ticket %s: %w", d.Number, err)
		}
		t.Lines = append(t.Lines, repair.Line{
			Type:        l.Type,
			ItemID:      l.ItemID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   price,
			UnitCost:    cost,
		})
	}
	return t, nil
}

// TicketRepository implements the repair.Repository interface for MongoDB
type TicketRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewTicketRepository creates a new MongoDB repair ticket repository
func NewTicketRepository(logger *slog.Logger, db *mongo.Database) *TicketRepository {
	return &TicketRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TicketRepository) collection() *mongo.Collection {
	return r.db.Collection(persistence.CollectionRepairTickets)
}

// EnsureIndexes creates the unique ticket number index, the status index
// and the customer history index
func (r *TicketRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		r.logger.Error("Failed to create repair ticket indexes", "error", err)
		return fmt.Errorf("failed to create repair ticket indexes: %w", err)
	}
	return nil
}

func (r *TicketRepository) Create(ctx context.Context, ticket *repair.Ticket) error {
	doc, err := toTicketDocument(ticket)
	if err != nil {
		return err
	}
	if _, err := r.collection().InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to create repair ticket",
			"number", ticket.Number,
			"error", err)
		return fmt.Errorf("failed to create repair ticket: %w", err)
	}
	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*repair.Ticket, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()}, id.String())
}

func (r *TicketRepository) GetByNumber(ctx context.Context, number string) (*repair.Ticket, error) {
	return r.findOne(ctx, bson.M{"number": number}, number)
}

func (r *TicketRepository) findOne(ctx context.Context, filter bson.M, ref string) (*repair.Ticket, error) {
	var doc ticketDocument
	err := r.collection().FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repair.ErrTicketNotFound{Ref: ref}
		}
		r.logger.Error("Failed to get repair ticket", "ref", ref, "error", err)
		return nil, fmt.Errorf("failed to get repair ticket: %w", err)
	}
	return doc.ticket()
}

// List returns a page of tickets, newest first
func (r *TicketRepository) List(ctx context.Context, status *repair.Status, limit, offset int) ([]*repair.Ticket, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	return r.find(ctx, ticketStatusFilter(status), opts)
}

func (r *TicketRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*repair.Ticket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"customer_id": customerID.String()}, opts)
}

func (r *TicketRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*repair.Ticket, error) {
	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list repair tickets", "error", err)
		return nil, fmt.Errorf("failed to list repair tickets: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []ticketDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode repair tickets", "error", err)
		return nil, fmt.Errorf("failed to decode repair tickets: %w", err)
	}

	tickets := make([]*repair.Ticket, 0, len(docs))
	for i := range docs {
		t, err := docs[i].ticket()
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// CountByCustomers groups the tickets of the given customers in one aggregation
func (r *TicketRepository) CountByCustomers(ctx context.Context, customerIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(customerIDs))
	if len(customerIDs) == 0 {
		return counts, nil
	}

	ids := make([]string, 0, len(customerIDs))
	for _, id := range customerIDs {
		ids = append(ids, id.String())
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"customer_id": bson.M{"$in": ids}}}},
		{{Key: "$group", Value: bson.M{"_id": "$customer_id", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection().Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to count tickets per customer", "error", err)
		return nil, fmt.Errorf("failed to count tickets per customer: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		CustomerID string `bson:"_id"`
		Count      int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		r.logger.Error("Failed to decode ticket counts", "error", err)
		return nil, fmt.Errorf("failed to decode ticket counts: %w", err)
	}
	for _, row := range rows {
		id, err := uuid.Parse(row.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("invalid customer id %q: %w", row.CustomerID, err)
		}
		counts[id] = row.Count
	}
	return counts, nil
}

func (r *TicketRepository) Count(ctx context.Context, status *repair.Status) (int64, error) {
	return r.count(ctx, ticketStatusFilter(status))
}

// CountOpen counts the tickets still waiting for work or invoicing
func (r *TicketRepository) CountOpen(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{"status": bson.M{"$in": repair.OpenStatuses}})
}

func (r *TicketRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	count, err := r.collection().CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count repair tickets", "error", err)
		return 0, fmt.Errorf("failed to count repair tickets: %w", err)
	}
	return count, nil
}

// Save writes the mutable part of the ticket if its stored status is still
// expected. A ticket that moved on in between returns ErrStaleTicket.
func (r *TicketRepository) Save(ctx context.Context, ticket *repair.Ticket, expected repair.Status) error {
	doc, err := toTicketDocument(ticket)
	if err != nil {
		return err
	}

	set := bson.M{
		"status":     doc.Status,
		"lines":      doc.Lines,
		"updated_at": doc.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if doc.OperationID != nil {
		set["operation_id"] = *doc.OperationID
		set["finalized_at"] = doc.FinalizedAt
	} else {
		update["$unset"] = bson.M{"operation_id": "", "finalized_at": ""}
	}

	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": doc.ID, "status": expected}, update)
	if err != nil {
		r.logger.Error("Failed to save repair ticket",
			"number", ticket.Number,
			"error", err)
		return fmt.Errorf("failed to save repair ticket: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	exists, err := r.count(ctx, bson.M{"_id": doc.ID})
	if err != nil {
		return err
	}
	if exists == 0 {
		return repair.ErrTicketNotFound{Ref: ticket.Number}
	}
	return repair.ErrStaleTicket{ID: ticket.ID}
}

// Reopen moves a ticket billed by operationID back to in progress, so a
// failed invoice can be finalized again.
func (r *TicketRepository) Reopen(ctx context.Context, number string, operationID uuid.UUID) error {
	filter := bson.M{
		"number":       number,
		"operation_id": operationID.String(),
	}
	update := bson.M{
		"$set":   bson.M{"status": repair.StatusInProgress, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"operation_id": "", "finalized_at": ""},
	}

	result, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to reopen repair ticket",
			"number", number,
			"operation_id", operationID.String(),
			"error", err)
		return fmt.Errorf("failed to reopen repair ticket: %w", err)
	}
	if result.MatchedCount == 0 {
		return repair.ErrTicketNotFound{Ref: number}
	}
	return nil
}

func ticketStatusFilter(status *repair.Status) bson.M {
	if status == nil {
		return bson.M{}
	}
	return bson.M{"status": *status}
}
