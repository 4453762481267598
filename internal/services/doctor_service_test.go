package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsex/care-service/internal/models"
)

func TestSubmitRating_UpdatesAggregate(t *testing.T) {
	env := newTestEnv(t)
	patientUser, patient := env.patient("alice")
	_, doctor := env.doctor("house", models.ApprovalApproved)
	appt := env.appointment(doctor.ID, patient.ID, models.AppointmentCompleted)

	review := "Very thorough"
	summary, err := env.services.Doctor().SubmitRating(env.ctx, patientUser.ID, &SubmitRatingRequest{
		AppointmentID: appt.ID,
		Score:         5,
		Review:        &review,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Score)
	assert.Equal(t, "alice", summary.PatientName)
	assert.Equal(t, doctor.ID, summary.DoctorID)

	reloaded := env.reloadDoctor(doctor.ID)
	assert.Equal(t, 1, reloaded.TotalRatings)
	assert.Equal(t, 5.0, reloaded.AverageRating)
}

func TestSubmitRating_RoundsAverage(t *testing.T) {
	env := newTestEnv(t)
	_, doctor := env.doctor("house", models.ApprovalApproved)

	for i, score := range []int{5, 4, 4} {
		u, p := env.patient("patient" + string(rune('a'+i)))
		appt := env.appointment(doctor.ID, p.ID, models.AppointmentCompleted)
		_, err := env.services.Doctor().SubmitRating(env.ctx, u.ID, &SubmitRatingRequest{AppointmentID: appt.ID, Score: score})
		require.NoError(t, err)
	}

	reloaded := env.reloadDoctor(doctor.ID)
	assert.Equal(t, 3, reloaded.TotalRatings)
	assert.Equal(t, 4.33, reloaded.AverageRating)
}

func TestSubmitRating_InvalidatesCachedProfile(t *testing.T) {
	env := newTestEnv(t)
	patientUser, patient := env.patient("alice")
	_, doctor := env.doctor("house", models.ApprovalApproved)
	appt := env.appointment(doctor.ID, patient.ID, models.AppointmentCompleted)

	before, err := env.services.Doctor().GetDoctorProfile(env.ctx, doctor.ID, models.RolePatient)
	require.NoError(t, err)
	assert.Equal(t, 0, before.TotalRatings)

	_, err = env.services.Doctor().SubmitRating(env.ctx, patientUser.ID, &SubmitRatingRequest{AppointmentID: appt.ID, Score: 3})
	require.NoError(t, err)

	after, err := env.services.Doctor().GetDoctorProfile(env.ctx, doctor.ID, models.RolePatient)
	require.NoError(t, err)
	assert.Equal(t, 1, after.TotalRatings)
	assert.Equal(t, 3.0, after.AverageRating)
}

func TestSubmitRating_Rejections(t *testing.T) {
	env := newTestEnv(t)
	aliceUser, alice := env.patient("alice")
	_, bob := env.patient("bob")
	_, doctor := env.doctor("house", models.ApprovalApproved)
	adminUser := env.admin("root")

	completed := env.appointment(doctor.ID, alice.ID, models.AppointmentCompleted)
	scheduled := env.appointment(doctor.ID, alice.ID, models.AppointmentScheduled)
	cancelled := env.appointment(doctor.ID, alice.ID, models.AppointmentCancelled)
	bobs := env.appointment(doctor.ID, bob.ID, models.AppointmentCompleted)

	rated := env.appointment(doctor.ID, alice.ID, models.AppointmentCompleted)
	_, err := env.services.Doctor().SubmitRating(env.ctx, aliceUser.ID, &SubmitRatingRequest{AppointmentID: rated.ID, Score: 4})
	require.NoError(t, err)

	tests := []struct {
		name   string
		userID uint
		req    SubmitRatingRequest
		want   error
	}{
		{"score below range", aliceUser.ID, SubmitRatingRequest{AppointmentID: completed.ID, Score: 0}, ErrInvalidInput},
		{"score above range", aliceUser.ID, SubmitRatingRequest{AppointmentID: completed.ID, Score: 6}, ErrInvalidInput},
		{"missing appointment id", aliceUser.ID, SubmitRatingRequest{Score: 4}, ErrInvalidInput},
		{"caller without patient profile", adminUser.ID, SubmitRatingRequest{AppointmentID: completed.ID, Score: 4}, ErrPatientNotFound},
		{"unknown appointment", aliceUser.ID, SubmitRatingRequest{AppointmentID: 9999, Score: 4}, ErrAppointmentNotFound},
		{"someone else's appointment", aliceUser.ID, SubmitRatingRequest{AppointmentID: bobs.ID, Score: 4}, ErrAppointmentNotYours},
		{"scheduled appointment", aliceUser.ID, SubmitRatingRequest{AppointmentID: scheduled.ID, Score: 4}, ErrAppointmentNotDone},
		{"cancelled appointment", aliceUser.ID, SubmitRatingRequest{AppointmentID: cancelled.ID, Score: 4}, ErrAppointmentNotDone},
		{"already rated", aliceUser.ID, SubmitRatingRequest{AppointmentID: rated.ID, Score: 2}, ErrAppointmentRated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := env.services.Doctor().SubmitRating(env.ctx, tt.userID, &req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	reloaded := env.reloadDoctor(doctor.ID)
	assert.Equal(t, 1, reloaded.TotalRatings)
	assert.Equal(t, 4.0, reloaded.AverageRating)
}

func TestSubmitRating_ErrorKinds(t *testing.T) {
	assert.True(t, IsForbidden(ErrAppointmentNotYours))
	assert.True(t, IsConflict(ErrAppointmentRated))
	assert.ErrorIs(t, ErrAppointmentNotDone, ErrInvalidState)
	assert.True(t, IsNotFound(ErrAppointmentNotFound))
}

func TestSubmitRating_ConcurrentDuplicates(t *testing.T) {
	env := newTestEnv(t)
	patientUser, patient := env.patient("alice")
	_, doctor := env.doctor("house", models.ApprovalApproved)
	appt := env.appointment(doctor.ID, patient.ID, models.AppointmentCompleted)

	const workers = 10
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.services.Doctor().SubmitRating(env.ctx, patientUser.ID, &SubmitRatingRequest{AppointmentID: appt.ID, Score: 5})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, IsConflict(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	reloaded := env.reloadDoctor(doctor.ID)
	assert.Equal(t, 1, reloaded.TotalRatings)
	assert.Equal(t, 5.0, reloaded.AverageRating)
}

func TestSubmitRating_ConcurrentDistinctAppointments(t *testing.T) {
	env := newTestEnv(t)
	_, doctor := env.doctor("house", models.ApprovalApproved)

	type submission struct {
		userID uint
		apptID uint
		score  int
	}
	scores := []int{1, 2, 3, 4, 5, 5, 4, 3}
	subs := make([]submission, 0, len(scores))
	for i, score := range scores {
		u, p := env.patient("patient" + string(rune('a'+i)))
		appt := env.appointment(doctor.ID, p.ID, models.AppointmentCompleted)
		subs = append(subs, submission{userID: u.ID, apptID: appt.ID, score: score})
	}

	var wg sync.WaitGroup
	for _, s := range subs {
		wg.Add(1)
		go func(s submission) {
			defer wg.Done()
			_, err := env.services.Doctor().SubmitRating(env.ctx, s.userID, &SubmitRatingRequest{AppointmentID: s.apptID, Score: s.score})
			assert.NoError(t, err)
		}(s)
	}
	wg.Wait()

	reloaded := env.reloadDoctor(doctor.ID)
	assert.Equal(t, len(scores), reloaded.TotalRatings)
	assert.Equal(t, 3.38, reloaded.AverageRating)
}

func TestListDoctorRatings_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	_, doctor := env.doctor("house", models.ApprovalApproved)

	var ids []uint
	for i, score := range []int{3, 4, 5} {
		u, p := env.patient("patient" + string(rune('a'+i)))
		appt := env.appointment(doctor.ID, p.ID, models.AppointmentCompleted)
		summary, err := env.services.Doctor().SubmitRating(env.ctx, u.ID, &SubmitRatingRequest{AppointmentID: appt.ID, Score: score})
		require.NoError(t, err)
		ids = append(ids, summary.ID)
	}

	page, err := env.services.Doctor().ListDoctorRatings(env.ctx, doctor.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)

	ratings, ok := page.Content.([]*models.RatingSummary)
	require.True(t, ok)
	require.Len(t, ratings, 2)
	assert.Equal(t, ids[2], ratings[0].ID)
	assert.Equal(t, ids[1], ratings[1].ID)
	assert.Equal(t, "patientc", ratings[0].PatientName)

	_, err = env.services.Doctor().ListDoctorRatings(env.ctx, 9999, 1, 10)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestListDoctors_Visibility(t *testing.T) {
	env := newTestEnv(t)
	_, approved := env.doctor("house", models.ApprovalApproved)
	_, pending := env.doctor("wilson", models.ApprovalPending)
	env.doctor("cuddy", models.ApprovalRejected)

	page, err := env.services.Doctor().ListDoctors(env.ctx, &DoctorListParams{IncludeUnapproved: true}, models.RolePatient)
	require.NoError(t, err)
	doctors := page.Content.([]*models.DoctorSummary)
	require.Len(t, doctors, 1)
	assert.Equal(t, approved.ID, doctors[0].ID)

	page, err = env.services.Doctor().ListDoctors(env.ctx, &DoctorListParams{IncludeUnapproved: true}, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalElements)

	_, err = env.services.Doctor().GetDoctorProfile(env.ctx, pending.ID, models.RolePatient)
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	profile, err := env.services.Doctor().GetDoctorProfile(env.ctx, pending.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, profile.ApprovalStatus)

	_, err = env.services.Doctor().ListDoctors(env.ctx, &DoctorListParams{SortBy: "name"}, models.RolePatient)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListDoctors_SortAndFilter(t *testing.T) {
	env := newTestEnv(t)
	_, cheap := env.doctor("house", models.ApprovalApproved)
	_, pricey := env.doctor("wilson", models.ApprovalApproved)

	cheap.ConsultationPrice = 50
	require.NoError(t, env.repo.Doctor().Update(env.ctx, cheap))
	pricey.ConsultationPrice = 200
	pricey.Specialization = "Oncology"
	require.NoError(t, env.repo.Doctor().Update(env.ctx, pricey))

	page, err := env.services.Doctor().ListDoctors(env.ctx, &DoctorListParams{SortBy: "consultation_price", SortOrder: "asc"}, models.RolePatient)
	require.NoError(t, err)
	doctors := page.Content.([]*models.DoctorSummary)
	require.Len(t, doctors, 2)
	assert.Equal(t, cheap.ID, doctors[0].ID)

	page, err = env.services.Doctor().ListDoctors(env.ctx, &DoctorListParams{Specialization: "oncology"}, models.RolePatient)
	require.NoError(t, err)
	doctors = page.Content.([]*models.DoctorSummary)
	require.Len(t, doctors, 1)
	assert.Equal(t, pricey.ID, doctors[0].ID)
}
