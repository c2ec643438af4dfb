// Package mongo provides the MongoDB implementation of the sealed-block
// archive. Mined blocks are append-only documents, so a document store holds
// them without any relational coupling to the transfer path.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minibank/ledger/internal/chain"
)

const (
	// BlockCollectionName is the name of the sealed-block collection
	BlockCollectionName = "chain_blocks"
)

// BlockRepository implements the chain.Archive interface for MongoDB
type BlockRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewBlockRepository creates a new MongoDB block archive
func NewBlockRepository(logger *slog.Logger, db *mongo.Database) chain.Archive {
	return &BlockRepository{
		db:     db,
		logger: logger,
	}
}

// Save stores one sealed block. Blocks are never updated after insertion.
func (r *BlockRepository) Save(ctx context.Context, block chain.Block) error {
	collection := r.db.Collection(BlockCollectionName)

	_, err := collection.InsertOne(ctx, block)
	if err != nil {
		r.logger.Error("Failed to archive block",
			"index", block.Index,
			"error", err)
		return fmt.Errorf("failed to archive block %d: %w", block.Index, err)
	}

	return nil
}

// Latest retrieves the most recently sealed block in the archive.
func (r *BlockRepository) Latest(ctx context.Context) (*chain.Block, error) {
	collection := r.db.Collection(BlockCollectionName)

	opts := options.FindOne().SetSort(bson.M{"index": -1})
	var block chain.Block
	err := collection.FindOne(ctx, bson.M{}, opts).Decode(&block)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, chain.ErrBlockNotFound{}
		}
		r.logger.Error("Failed to get latest archived block", "error", err)
		return nil, fmt.Errorf("failed to get latest archived block: %w", err)
	}

	return &block, nil
}

// List retrieves paginated archived blocks, oldest first.
func (r *BlockRepository) List(ctx context.Context, limit, offset int) ([]chain.Block, error) {
	collection := r.db.Collection(BlockCollectionName)

	opts := options.Find().
		SetSort(bson.M{"index": 1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logger.Error("Failed to list archived blocks", "error", err)
		return nil, fmt.Errorf("failed to list archived blocks: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []chain.Block
	if err := cursor.All(ctx, &blocks); err != nil {
		r.logger.Error("Failed to decode archived blocks", "error", err)
		return nil, fmt.Errorf("failed to decode archived blocks: %w", err)
	}

	return blocks, nil
}
