package database

import (
	"context"
	"fmt"

	"github.com/stationlab/weatherapi/models"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Archiver records a copy of a document before it is removed. Archiving and
// the removal that follows are independent writes.
type Archiver interface {
	Archive(ctx context.Context, entry *models.ChangelogEntry) error
}

type MongoChangelog struct {
	col *mongo.Collection
}

func NewMongoChangelog(db *DB) *MongoChangelog {
	return &MongoChangelog{col: db.OpenCollection(ChangelogCollection)}
}

func (c *MongoChangelog) Archive(ctx context.Context, entry *models.ChangelogEntry) error {
	if _, err := c.col.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("archive %s %s: %w", entry.Collection, entry.DocumentID.Hex(), err)
	}
	return nil
}
