package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/harentsoaR/neocare-api/internal/models"
)

// sentCommand returns the next command the mock deployment received.
func sentCommand(mt *mtest.T, name string) bson.Raw {
	mt.Helper()
	evt := mt.GetStartedEvent()
	require.NotNil(mt, evt, "no %s command was sent", name)
	require.Equal(mt, name, evt.CommandName)
	return evt.Command
}

func updated(n int32) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func teamsNS() string { return mtest.TestDb + "." + teamsCollection }

func TestMongoTeams_AddMember(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	member := models.TeamMember{DoctorID: "doctor_1", Name: "Dr. One", Role: "lead"}

	mt.Run("conditional push", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(updated(1))

		require.NoError(mt, s.Teams.AddMember(ctx, "hospital_1", "team_1", member))

		cmd := sentCommand(mt, "update")
		q := cmd.Lookup("updates", "0", "q").Document()
		assert.Equal(mt, "team_1", q.Lookup("_id").StringValue())
		assert.Equal(mt, "hospital_1", q.Lookup("hospitalId").StringValue())
		assert.Equal(mt, "doctor_1", q.Lookup("members.doctorId", "$ne").StringValue())
		u := cmd.Lookup("updates", "0", "u").Document()
		assert.Equal(mt, "doctor_1", u.Lookup("$push", "members", "doctorId").StringValue())
		assert.Equal(mt, "lead", u.Lookup("$push", "members", "role").StringValue())
	})

	mt.Run("already a member", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(
			updated(0),
			mtest.CreateCursorResponse(0, teamsNS(), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "team_1"}, {Key: "hospitalId", Value: "hospital_1"}, {Key: "name", Value: "Night"},
			}),
		)

		assert.ErrorIs(mt, s.Teams.AddMember(ctx, "hospital_1", "team_1", member), ErrDuplicate)
		sentCommand(mt, "update")
		find := sentCommand(mt, "find")
		assert.Equal(mt, "hospital_1", find.Lookup("filter", "hospitalId").StringValue())
	})

	mt.Run("team of another hospital", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(updated(0), mtest.CreateCursorResponse(0, teamsNS(), mtest.FirstBatch))

		assert.ErrorIs(mt, s.Teams.AddMember(ctx, "hospital_2", "team_1", member), ErrNotFound)
	})
}

func TestMongoParents_ListInCare(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := mtest.TestDb + "." + models.RoleParent.Spec().Collection

	mt.Run("legacy doctor or care team", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "parent_1"}, {Key: "name", Value: "Ada"}, {Key: "doctorId", Value: "doctor_1"}},
			bson.D{{Key: "_id", Value: "parent_2"}, {Key: "name", Value: "Bea"}, {Key: "teamId", Value: "team_1"}},
		))

		parents, err := s.Parents.ListInCare(ctx, "doctor_1", []string{"team_1", "team_2"})
		require.NoError(mt, err)
		require.Len(mt, parents, 2)
		assert.Equal(mt, "parent_1", parents[0].ID)
		assert.Equal(mt, "team_1", parents[1].TeamID)

		filter := sentCommand(mt, "find").Lookup("filter").Document()
		assert.Equal(mt, "doctor_1", filter.Lookup("$or", "0", "doctorId").StringValue())
		assert.Equal(mt, bson.TypeNull, filter.Lookup("$or", "0", "teamId", "$in", "0").Type)
		assert.Equal(mt, "", filter.Lookup("$or", "0", "teamId", "$in", "1").StringValue())
		assert.Equal(mt, "team_1", filter.Lookup("$or", "1", "teamId", "$in", "0").StringValue())
		assert.Equal(mt, "team_2", filter.Lookup("$or", "1", "teamId", "$in", "1").StringValue())
	})

	mt.Run("no teams", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		parents, err := s.Parents.ListInCare(ctx, "doctor_1", nil)
		require.NoError(mt, err)
		assert.Empty(mt, parents)

		in := sentCommand(mt, "find").Lookup("filter", "$or", "1", "teamId", "$in")
		require.Equal(mt, bson.TypeArray, in.Type)
		values, err := in.Array().Values()
		require.NoError(mt, err)
		assert.Empty(mt, values)
	})
}

func TestMongoParents_ClearTeam(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unsets team within the hospital", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(updated(2))

		n, err := s.Parents.ClearTeam(context.Background(), "hospital_1", "team_1")
		require.NoError(mt, err)
		assert.EqualValues(mt, 2, n)

		cmd := sentCommand(mt, "update")
		assert.True(mt, cmd.Lookup("updates", "0", "multi").Boolean())
		q := cmd.Lookup("updates", "0", "q").Document()
		assert.Equal(mt, "hospital_1", q.Lookup("hospitalId").StringValue())
		assert.Equal(mt, "team_1", q.Lookup("teamId").StringValue())
		_, err = cmd.LookupErr("updates", "0", "u", "$unset", "teamId")
		assert.NoError(mt, err)
	})
}

func TestMongoStore_DuplicateKey(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("maps to ErrDuplicate", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error collection: hospitals index: hospitalCode_1",
		}))

		err := s.Hospitals.Create(context.Background(), &models.Hospital{ID: "hospital_1", Email: "a@x.io", HospitalCode: "GAH123"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})
}

func TestMongoResets_PurgeExpired(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deletes up to now", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(3)}))
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		n, err := s.Resets.PurgeExpired(context.Background(), now)
		require.NoError(mt, err)
		assert.EqualValues(mt, 3, n)

		lte := sentCommand(mt, "delete").Lookup("deletes", "0", "q", "expiresAt", "$lte")
		assert.True(mt, now.Equal(lte.Time()), "got %v", lte.Time())
	})
}
