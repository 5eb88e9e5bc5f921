package utils

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stationlab/weatherapi/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SeedTeacherUser makes sure a teacher account exists so the role-gated
// administration routes are reachable on a fresh database.
func SeedTeacherUser(ctx context.Context, usersCol *mongo.Collection, email, pass string) error {
	email = strings.TrimSpace(email)
	if email == "" || pass == "" {
		return fmt.Errorf("missing SEED_TEACHER_EMAIL or SEED_TEACHER_PASSWORD")
	}

	hash, err := HashPassword(pass)
	if err != nil {
		return fmt.Errorf("hash teacher password: %w", err)
	}

	// Only insert if it doesn't exist
	filter := bson.M{"email": email}
	update := bson.M{
		"$setOnInsert": bson.M{
			"email":        email,
			"passwordHash": hash,
			"role":         models.RoleTeacher,
			"createdAt":    time.Now().UTC(),
		},
	}

	opts := options.UpdateOne().SetUpsert(true)

	res, err := usersCol.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("seed teacher upsert failed: %w", err)
	}

	if res.UpsertedCount == 1 {
		log.Println("Teacher user seeded:", email)
	} else {
		log.Println("Teacher user already exists:", email)
	}
	return nil
}
