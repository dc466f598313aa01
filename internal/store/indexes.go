package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/neocare-api/internal/models"
)

// EnsureIndexes creates the indexes the repositories rely on. Uniqueness of emails and
// hospital codes is enforced here, so a racing insert surfaces as ErrDuplicate.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	plain := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys}
	}

	indexes := map[string][]mongo.IndexModel{
		models.RoleParent.Spec().Collection: {
			unique(bson.D{{Key: "email", Value: 1}}),
			plain(bson.D{{Key: "hospitalId", Value: 1}}),
			plain(bson.D{{Key: "teamId", Value: 1}}),
			plain(bson.D{{Key: "doctorId", Value: 1}}),
		},
		models.RoleDoctor.Spec().Collection: {
			unique(bson.D{{Key: "email", Value: 1}}),
			plain(bson.D{{Key: "hospitalId", Value: 1}}),
		},
		models.RoleAdmin.Spec().Collection: {
			unique(bson.D{{Key: "email", Value: 1}}),
			unique(bson.D{{Key: "hospitalCode", Value: 1}}),
		},
		models.RoleSuperadmin.Spec().Collection: {
			unique(bson.D{{Key: "email", Value: 1}}),
		},
		teamsCollection: {
			plain(bson.D{{Key: "hospitalId", Value: 1}}),
			plain(bson.D{{Key: "members.doctorId", Value: 1}}),
		},
		timelinesCollection: {
			unique(bson.D{{Key: "parentId", Value: 1}}),
		},
		messagesCollection: {
			plain(bson.D{{Key: "conversationId", Value: 1}, {Key: "createdAt", Value: 1}}),
			plain(bson.D{{Key: "receiverId", Value: 1}, {Key: "read", Value: 1}}),
		},
		resetsCollection: {
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}

	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
