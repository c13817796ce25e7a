package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fracbond-investment-ledger/internal/domain/audit"
)

const (
	// AuditCollectionName is the name of the audit trail collection in MongoDB
	AuditCollectionName = "audit_entries"
)

// AuditRepository implements the audit.Repository interface for MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) audit.Repository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new audit entry after checking for duplicates.
// Returns ErrDuplicateEntry if an entry with the same event ID exists,
// which happens under Kafka's at-least-once delivery.
func (r *AuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	collection := r.db.Collection(AuditCollectionName)

	existingEntry, err := r.GetByEventID(ctx, entry.EventID)
	if err != nil && !errors.Is(err, audit.ErrEntryNotFound{EventID: entry.EventID}) {
		r.logger.Error("Failed to check for existing audit entry",
			"event_id", entry.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing audit entry: %w", err)
	}

	if existingEntry != nil {
		return audit.ErrDuplicateEntry{EventID: entry.EventID}
	}

	_, err = collection.InsertOne(ctx, entry)
	if err != nil {
		r.logger.Error("Failed to create audit entry",
			"event_id", entry.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// GetByEventID retrieves an audit entry by its event ID.
// Returns ErrEntryNotFound if no entry exists for the given event.
func (r *AuditRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"event_id": eventID}
	var entry audit.Entry
	err := collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, audit.ErrEntryNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get audit entry",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}

	return &entry, nil
}

// ListByInvestor retrieves paginated audit entries for an investor.
// Results are sorted by occurrence time in descending order (newest first).
func (r *AuditRepository) ListByInvestor(ctx context.Context, investorKey string, limit, offset int) ([]*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"investor_key": investorKey}
	opts := options.Find().
		SetSort(bson.M{"occurred_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list audit entries",
			"investor_key", investorKey,
			"error", err)
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*audit.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode audit entries",
			"investor_key", investorKey,
			"error", err)
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}

	return entries, nil
}

// ListByBond retrieves paginated audit entries for a bond.
// Results are sorted by occurrence time in descending order.
func (r *AuditRepository) ListByBond(ctx context.Context, bondID int64, limit, offset int) ([]*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"bond_id": bondID}
	opts := options.Find().
		SetSort(bson.M{"occurred_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list audit entries",
			"bond_id", bondID,
			"error", err)
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*audit.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode audit entries",
			"bond_id", bondID,
			"error", err)
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}

	return entries, nil
}
