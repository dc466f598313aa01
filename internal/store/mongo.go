package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/neocare-api/internal/models"
)

const (
	teamsCollection     = "teams"
	timelinesCollection = "timelines"
	messagesCollection  = "messages"
	resetsCollection    = "password_resets"
)

// NewMongoStore wires every repository to its collection in db.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Parents:     &mongoParents{c: db.Collection(models.RoleParent.Spec().Collection)},
		Doctors:     &mongoDoctors{c: db.Collection(models.RoleDoctor.Spec().Collection)},
		Hospitals:   &mongoHospitals{c: db.Collection(models.RoleAdmin.Spec().Collection)},
		Superadmins: &mongoSuperadmins{c: db.Collection(models.RoleSuperadmin.Spec().Collection)},
		Teams:       &mongoTeams{c: db.Collection(teamsCollection)},
		Timelines:   &mongoTimelines{c: db.Collection(timelinesCollection)},
		Messages:    &mongoMessages{c: db.Collection(messagesCollection)},
		Resets:      &mongoResets{c: db.Collection(resetsCollection)},
	}
}

func insertOne(ctx context.Context, c *mongo.Collection, doc interface{}) error {
	if _, err := c.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert into %s: %w", c.Name(), err)
	}
	return nil
}

func findOne(ctx context.Context, c *mongo.Collection, filter bson.M, out interface{}) error {
	err := c.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find in %s: %w", c.Name(), err)
	}
	return nil
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.Name(), err)
	}
	defer cursor.Close(ctx)

	out := make([]*T, 0)
	if err = cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.Name(), err)
	}
	return out, nil
}

// updateOne applies update and reports ErrNotFound when nothing matched.
func updateOne(ctx context.Context, c *mongo.Collection, filter, update bson.M) error {
	res, err := c.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update %s: %w", c.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, c *mongo.Collection, filter bson.M) error {
	res, err := c.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", c.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func byCreated() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
}

// --- parents ---

type mongoParents struct{ c *mongo.Collection }

func (r *mongoParents) Create(ctx context.Context, p *models.Parent) error {
	return insertOne(ctx, r.c, p)
}

func (r *mongoParents) GetByID(ctx context.Context, id string) (*models.Parent, error) {
	var p models.Parent
	return &p, findOne(ctx, r.c, bson.M{"_id": id}, &p)
}

func (r *mongoParents) GetByEmail(ctx context.Context, email string) (*models.Parent, error) {
	var p models.Parent
	return &p, findOne(ctx, r.c, bson.M{"email": email}, &p)
}

func (r *mongoParents) GetInHospital(ctx context.Context, hospitalID, id string) (*models.Parent, error) {
	var p models.Parent
	return &p, findOne(ctx, r.c, bson.M{"_id": id, "hospitalId": hospitalID}, &p)
}

func (r *mongoParents) ListByHospital(ctx context.Context, hospitalID string) ([]*models.Parent, error) {
	return findAll[models.Parent](ctx, r.c, bson.M{"hospitalId": hospitalID}, byCreated())
}

func (r *mongoParents) ListInCare(ctx context.Context, doctorID string, teamIDs []string) ([]*models.Parent, error) {
	if teamIDs == nil {
		teamIDs = []string{}
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"doctorId": doctorID, "teamId": bson.M{"$in": bson.A{nil, ""}}},
		bson.M{"teamId": bson.M{"$in": teamIDs}},
	}}
	return findAll[models.Parent](ctx, r.c, filter, byCreated())
}

func (r *mongoParents) UpdateProfile(ctx context.Context, p *models.Parent) error {
	return updateOne(ctx, r.c, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":      p.Name,
		"babyName":  p.BabyName,
		"babyDob":   p.BabyDob,
		"phone":     p.Phone,
		"address":   p.Address,
		"updatedAt": p.UpdatedAt,
	}})
}

func (r *mongoParents) UpdatePassword(ctx context.Context, id, hash string) error {
	return updateOne(ctx, r.c, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now()}})
}

func (r *mongoParents) SetHospital(ctx context.Context, id, hospitalID string) error {
	return updateOne(ctx, r.c, bson.M{"_id": id}, bson.M{"$set": bson.M{"hospitalId": hospitalID, "updatedAt": time.Now()}})
}

func (r *mongoParents) SetTeam(ctx context.Context, hospitalID, id, teamID string) error {
	return updateOne(ctx, r.c, bson.M{"_id": id, "hospitalId": hospitalID},
		bson.M{"$set": bson.M{"teamId": teamID, "updatedAt": time.Now()}})
}

func (r *mongoParents) SetDoctor(ctx context.Context, hospitalID, id, doctorID string) error {
	return updateOne(ctx, r.c, bson.M{"_id": id, "hospitalId": hospitalID},
		bson.M{"$set": bson.M{"doctorId": doctorID, "updatedAt": time.Now()}})
}

func (r *mongoParents) ClearTeam(ctx context.Context, hospitalID, teamID string) (int64, error) {
	res, err := r.c.UpdateMany(ctx, bson.M{"hospitalId": hospitalID, "teamId": teamID},
		bson.M{"$unset": bson.M{"teamId": ""}, "$set": bson.M{"updatedAt": time.Now()}})
	if err != nil {
		return 0, fmt.Errorf("clear team on parents: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoParents) ClearDoctor(ctx context.Context, hospitalID, doctorID string) (int64, error) {
	res, err := r.c.UpdateMany(ctx, bson.M{"hospitalId": hospitalID, "doctorId": doctorID},
		bson.M{"$unset": bson.M{"doctorId": ""}, "$set": bson.M{"updatedAt": time.Now()}})
	if err != nil {
		return 0, fmt.Errorf("clear doctor on parents: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoParents) Delete(ctx context.Context, hospitalID, id string) error {
	return deleteOne(ctx, r.c, bson.M{"_id": id, "hospitalId": hospitalID})
}

// --- doctors ---

type mongoDoctors struct{ c *mongo.Collection }

func (r *mongoDoctors) Create(ctx context.Context, d *models.Doctor) error {
	return insertOne(ctx, r.c, d)
}

func (r *mongoDoctors) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	var d models.Doctor
	return &d, findOne(ctx, r.c, bson.M{"_id": id}, &d)
}

func (r *mongoDoctors) GetByEmail(ctx context.Context, email string) (*models.Doctor, error) {
	var d models.Doctor
	return &d, findOne(ctx, r.c, bson.M{"email": email}, &d)
}

func (r *mongoDoctors) GetInHospital(ctx context.Context, hospitalID, id string) (*models.Doctor, error) {
	var d models.Doctor
	return &d, findOne(ctx, r.c, bson.M{"_id": id, "hospitalId": hospitalID}, &d)
}

func (r *mongoDoctors) ListByHospital(ctx context.Context, hospitalID string) ([]*models.Doctor, error) {
	return findAll[models.Doctor](ctx, r.c, bson.M{"hospitalId": hospitalID}, byCreated())
}

func (r *mongoDoctors) UpdateProfile(ctx context.Context, d *models.Doctor) error {
	return updateOne(ctx, r.c, bson.M{"_id": d.ID}, bson.M{"$set": bson.M{
		"name":          d.Name,
		"specialty":     d.Specialty,
		"phone":         d.Phone,
		"bio":           d.Bio,
		"profileStatus": d.ProfileStatus,
		"updatedAt":     d.UpdatedAt,
	}})
}

func (r *mongoDoctors) UpdatePassword(ctx context.Context, id, hash string) error {
	return updateOne(ctx, r.c, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now()}})
}

func (r *mongoDoctors) SetStatus(ctx context.Context, hospitalID, id, status string) error {
	return updateOne(ctx, r.c, bson.M{"_id": id, "hospitalId": hospitalID},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}})
}

func (r *mongoDoctors) SetProfileStatus(ctx context.Context, hospitalID, id, profileStatus string) error {
	return updateOne(ctx, r.c, bson.M{"_id": id, "hospitalId": hospitalID},
		bson.M{"$set": bson.M{"profileStatus": profileStatus, "updatedAt": time.Now()}})
}

func (r *mongoDoctors) Delete(ctx context.Context, hospitalID, id string) error {
	return deleteOne(ctx, r.c, bson.M{"_id": id, "hospitalId": hospitalID})
}

// --- hospitals ---

type mongoHospitals struct{ c *mongo.Collection }

func (r *mongoHospitals) Create(ctx context.Context, h *models.Hospital) error {
	return insertOne(ctx, r.c, h)
}

func (r *mongoHospitals) GetByID(ctx context.Context, id string) (*models.Hospital, error) {
	var h models.Hospital
	return &h, findOne(ctx, r.c, bson.M{"_id": id}, &h)
}

func (r *mongoHospitals) GetByEmail(ctx context.Context, email string) (*models.Hospital, error) {
	var h models.Hospital
	return &h, findOne(ctx, r.c, bson.M{"email": email}, &h)
}

func (r *mongoHospitals) GetByCode(ctx context.Context, code string) (*models.Hospital, error) {
	var h models.Hospital
	return &h, findOne(ctx, r.c, bson.M{"hospitalCode": code}, &h)
}

func (r *mongoHospitals) List(ctx context.Context, status models.HospitalStatus) ([]*models.Hospital, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findAll[models.Hospital](ctx, r.c, filter, byCreated())
}

func (r *mongoHospitals) UpdateProfile(ctx context.Context, h *models.Hospital) error {
	return updateOne(ctx, r.c, bson.M{"_id": h.ID}, bson.M{"$set": bson.M{
		"ownerName":    h.OwnerName,
		"hospitalName": h.HospitalName,
		"address":      h.Address,
		"mobile":       h.Mobile,
		"updatedAt":    h.UpdatedAt,
	}})
}

func (r *mongoHospitals) UpdatePassword(ctx context.Context, id, hash string) error {
	return updateOne(ctx, r.c, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now()}})
}

func (r *mongoHospitals) SetStatus(ctx context.Context, id string, from, to models.HospitalStatus) error {
	return updateOne(ctx, r.c, bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}})
}

// --- superadmins ---

type mongoSuperadmins struct{ c *mongo.Collection }

func (r *mongoSuperadmins) Create(ctx context.Context, s *models.Superadmin) error {
	return insertOne(ctx, r.c, s)
}

func (r *mongoSuperadmins) GetByID(ctx context.Context, id string) (*models.Superadmin, error) {
	var s models.Superadmin
	return &s, findOne(ctx, r.c, bson.M{"_id": id}, &s)
}

func (r *mongoSuperadmins) GetByEmail(ctx context.Context, email string) (*models.Superadmin, error) {
	var s models.Superadmin
	return &s, findOne(ctx, r.c, bson.M{"email": email}, &s)
}

func (r *mongoSuperadmins) UpdatePassword(ctx context.Context, id, hash string) error {
	return updateOne(ctx, r.c, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": hash}})
}

// --- teams ---

type mongoTeams struct{ c *mongo.Collection }

func (r *mongoTeams) Create(ctx context.Context, t *models.Team) error {
	if t.Members == nil {
		t.Members = []models.TeamMember{}
	}
	return insertOne(ctx, r.c, t)
}

func (r *mongoTeams) GetInHospital(ctx context.Context, hospitalID, id string) (*models.Team, error) {
	var t models.Team
	return &t, findOne(ctx, r.c, bson.M{"_id": id, "hospitalId": hospitalID}, &t)
}

func (r *mongoTeams) ListByHospital(ctx context.Context, hospitalID string) ([]*models.Team, error) {
	return findAll[models.Team](ctx, r.c, bson.M{"hospitalId": hospitalID}, byCreated())
}

func (r *mongoTeams) ListByMember(ctx context.Context, doctorID string) ([]*models.Team, error) {
	return findAll[models.Team](ctx, r.c, bson.M{"members.doctorId": doctorID}, byCreated())
}

func (r *mongoTeams) AddMember(ctx context.Context, hospitalID, id string, m models.TeamMember) error {
	filter := bson.M{"_id": id, "hospitalId": hospitalID, "members.doctorId": bson.M{"$ne": m.DoctorID}}
	update := bson.M{"$push": bson.M{"members": m}, "$set": bson.M{"updatedAt": time.Now()}}
	err := updateOne(ctx, r.c, filter, update)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	if _, err := r.GetInHospital(ctx, hospitalID, id); err != nil {
		return err
	}
	return ErrDuplicate
}

func (r *mongoTeams) RemoveMember(ctx context.Context, hospitalID, id, doctorID string) error {
	return updateOne(ctx, r.c,
		bson.M{"_id": id, "hospitalId": hospitalID, "members.doctorId": doctorID},
		bson.M{"$pull": bson.M{"members": bson.M{"doctorId": doctorID}}, "$set": bson.M{"updatedAt": time.Now()}})
}

func (r *mongoTeams) RemoveDoctor(ctx context.Context, hospitalID, doctorID string) error {
	_, err := r.c.UpdateMany(ctx,
		bson.M{"hospitalId": hospitalID, "members.doctorId": doctorID},
		bson.M{"$pull": bson.M{"members": bson.M{"doctorId": doctorID}}, "$set": bson.M{"updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("remove doctor from teams: %w", err)
	}
	return nil
}

func (r *mongoTeams) Delete(ctx context.Context, hospitalID, id string) error {
	return deleteOne(ctx, r.c, bson.M{"_id": id, "hospitalId": hospitalID})
}

// --- timelines ---

type mongoTimelines struct{ c *mongo.Collection }

func (r *mongoTimelines) Get(ctx context.Context, parentID string) (*models.Timeline, error) {
	var t models.Timeline
	return &t, findOne(ctx, r.c, bson.M{"parentId": parentID}, &t)
}

func (r *mongoTimelines) Upsert(ctx context.Context, t *models.Timeline) error {
	_, err := r.c.UpdateOne(ctx,
		bson.M{"parentId": t.ParentID},
		bson.M{"$set": bson.M{"tasks": t.Tasks, "updatedAt": t.UpdatedAt}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert timeline: %w", err)
	}
	return nil
}

func (r *mongoTimelines) SetTaskCompleted(ctx context.Context, parentID, taskID string, completed bool, at time.Time) error {
	return updateOne(ctx, r.c,
		bson.M{"parentId": parentID, "tasks.id": taskID},
		bson.M{"$set": bson.M{"tasks.$.completed": completed, "updatedAt": at}})
}

func (r *mongoTimelines) Delete(ctx context.Context, parentID string) error {
	if _, err := r.c.DeleteOne(ctx, bson.M{"parentId": parentID}); err != nil {
		return fmt.Errorf("delete timeline: %w", err)
	}
	return nil
}

// --- messages ---

type mongoMessages struct{ c *mongo.Collection }

func (r *mongoMessages) Create(ctx context.Context, m *models.Message) error {
	return insertOne(ctx, r.c, m)
}

func (r *mongoMessages) ListConversation(ctx context.Context, conversationID string) ([]*models.Message, error) {
	return findAll[models.Message](ctx, r.c, bson.M{"conversationId": conversationID}, byCreated())
}

func (r *mongoMessages) MarkRead(ctx context.Context, conversationID, receiverID string) (int64, error) {
	res, err := r.c.UpdateMany(ctx,
		bson.M{"conversationId": conversationID, "receiverId": receiverID, "read": false},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoMessages) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	n, err := r.c.CountDocuments(ctx, bson.M{"receiverId": receiverID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return n, nil
}

// --- password resets ---

type mongoResets struct{ c *mongo.Collection }

func (r *mongoResets) Create(ctx context.Context, reset *models.PasswordReset) error {
	return insertOne(ctx, r.c, reset)
}

func (r *mongoResets) Consume(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	err := r.c.FindOneAndDelete(ctx, bson.M{"_id": tokenHash, "expiresAt": bson.M{"$gt": now}}).Decode(&reset)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consume password reset: %w", err)
	}
	return &reset, nil
}

func (r *mongoResets) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.c.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("purge password resets: %w", err)
	}
	return res.DeletedCount, nil
}
