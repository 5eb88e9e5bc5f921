package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const ChangeActionDelete = "delete"

type ChangelogEntry struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Collection string        `bson:"collection" json:"collection"`
	Action     string        `bson:"action" json:"action"`
	DocumentID bson.ObjectID `bson:"documentId" json:"documentId"`
	Document   User          `bson:"document" json:"document"`
	ArchivedAt time.Time     `bson:"archivedAt" json:"archivedAt"`
}

// NewUserDeletion builds the archival copy written before a user is deleted.
// Credentials are stripped from the copy.
func NewUserDeletion(u User, at time.Time) *ChangelogEntry {
	u.PasswordHash = ""
	u.AuthToken = nil
	return &ChangelogEntry{
		Collection: "users",
		Action:     ChangeActionDelete,
		DocumentID: u.ID,
		Document:   u,
		ArchivedAt: at,
	}
}
