package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

func seedUser(t *testing.T, repo *Repository, name string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{FullName: name, Email: name + "@example.com", Role: role, IsActive: true}
	require.NoError(t, repo.User().Create(context.Background(), u))
	return u
}

func TestUserRepo_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	seedUser(t, repo, "ana", models.RolePatient)

	err := repo.User().Create(ctx, &models.User{FullName: "Ana 2", Email: " ANA@example.com", Role: models.RolePatient})
	assert.True(t, repositories.IsDuplicateKeyError(err))

	exists, err := repo.User().ExistsByEmail(ctx, "ana@EXAMPLE.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.User().GetByID(ctx, 99)
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestWithTransaction_RollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	boom := errors.New("boom")

	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		u := &models.User{FullName: "ghost", Email: "ghost@example.com", Role: models.RoleAdmin}
		if err := tx.User().Create(ctx, u); err != nil {
			return err
		}
		if err := tx.ActivityLog().Append(ctx, &models.ActivityLog{UserID: u.ID, Action: models.ActionAdminCreated}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := repo.User().ExistsByEmail(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	entries, err := repo.ActivityLog().List(ctx, repositories.ActivityFilters{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRatingRepo_OnePerAppointmentAndAggregate(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	require.NoError(t, repo.Rating().Create(ctx, &models.Rating{DoctorID: 1, PatientID: 1, AppointmentID: 10, Score: 5}))
	require.NoError(t, repo.Rating().Create(ctx, &models.Rating{DoctorID: 1, PatientID: 2, AppointmentID: 11, Score: 4}))
	require.NoError(t, repo.Rating().Create(ctx, &models.Rating{DoctorID: 2, PatientID: 2, AppointmentID: 12, Score: 1}))

	err := repo.Rating().Create(ctx, &models.Rating{DoctorID: 1, PatientID: 1, AppointmentID: 10, Score: 3})
	assert.True(t, repositories.IsDuplicateKeyError(err))

	agg, err := repo.Rating().Aggregate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Count)
	assert.InDelta(t, 4.5, agg.Average, 1e-9)

	empty, err := repo.Rating().Aggregate(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, models.RatingAggregate{}, *empty)
}

func TestAppointmentRepo_ExistsBetween(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	require.NoError(t, repo.Appointment().Create(ctx, &models.Appointment{DoctorID: 1, PatientID: 1}))
	done := &models.Appointment{DoctorID: 1, PatientID: 3, Status: models.AppointmentCompleted}
	require.NoError(t, repo.Appointment().Create(ctx, done))

	tests := []struct {
		name      string
		patientID uint
		statuses  []models.AppointmentStatus
		want      bool
	}{
		{name: "any status", patientID: 1, want: true},
		{name: "no appointment", patientID: 2, want: false},
		{name: "scheduled excluded", patientID: 1, statuses: []models.AppointmentStatus{models.AppointmentCompleted}, want: false},
		{name: "completed included", patientID: 3, statuses: []models.AppointmentStatus{models.AppointmentCompleted}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Appointment().ExistsBetween(ctx, 1, tt.patientID, tt.statuses...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActivityLogRepo_Order(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	admin := seedUser(t, repo, "root", models.RoleAdmin)

	for _, action := range []string{models.ActionLogin, models.ActionApproveDoctor, models.ActionRejectDoctor} {
		require.NoError(t, repo.ActivityLog().Append(ctx, &models.ActivityLog{UserID: admin.ID, Action: action}))
	}
	require.NoError(t, repo.ActivityLog().Append(ctx, &models.ActivityLog{UserID: 404, Action: models.ActionLogin}))

	entries, err := repo.ActivityLog().List(ctx, repositories.ActivityFilters{})
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, models.ActionLogin, entries[0].Action)
	assert.Equal(t, models.ActionRejectDoctor, entries[2].Action)
	assert.Equal(t, "root", entries[0].User.FullName)
	assert.Empty(t, entries[3].User.FullName)
	assert.False(t, entries[0].Timestamp.IsZero())

	recent, err := repo.ActivityLog().Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, entries[3].ID, recent[0].ID)
	assert.Equal(t, entries[2].ID, recent[1].ID)
}

func TestDoctorRepo_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	for i, name := range []string{"Cardiology", "cardiology", "Dermatology"} {
		u := seedUser(t, repo, []string{"a", "b", "c"}[i], models.RoleDoctor)
		d := &models.Doctor{UserID: u.ID, Specialization: name, AverageRating: float64(i)}
		require.NoError(t, repo.Doctor().Create(ctx, d))
		if i > 0 {
			d.ApprovalStatus = models.ApprovalApproved
			require.NoError(t, repo.Doctor().Update(ctx, d))
		}
	}

	approved := models.ApprovalApproved
	doctors, total, err := repo.Doctor().List(ctx, repositories.DoctorFilters{ApprovalStatus: &approved, SortBy: "average_rating"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, doctors, 2)
	assert.Equal(t, "c", doctors[0].User.FullName)

	doctors, total, err = repo.Doctor().List(ctx, repositories.DoctorFilters{Specialization: "CARDIOLOGY"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, doctors, 2)
}
