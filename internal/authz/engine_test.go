package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories/memory"
)

type careFixture struct {
	repo        *memory.Repository
	patients    []*models.Patient
	patientUser []*models.User
	doctorUser  *models.User
	doctor      *models.Doctor
	adminUser   *models.User
}

// newCareFixture seeds three patients and one doctor who has a scheduled
// appointment with the first patient and a completed one with the third.
func newCareFixture(t *testing.T) *careFixture {
	t.Helper()
	ctx := context.Background()
	f := &careFixture{repo: memory.NewRepository()}

	newUser := func(name string, role models.UserRole) *models.User {
		u := &models.User{FullName: name, Email: name + "@example.com", Role: role, IsActive: true}
		require.NoError(t, f.repo.User().Create(ctx, u))
		return u
	}

	for _, name := range []string{"p1", "p2", "p3"} {
		u := newUser(name, models.RolePatient)
		p := &models.Patient{UserID: u.ID}
		require.NoError(t, f.repo.Patient().Create(ctx, p))
		f.patientUser = append(f.patientUser, u)
		f.patients = append(f.patients, p)
	}

	f.doctorUser = newUser("doc", models.RoleDoctor)
	f.doctor = &models.Doctor{UserID: f.doctorUser.ID, Specialization: "Cardiology"}
	require.NoError(t, f.repo.Doctor().Create(ctx, f.doctor))
	f.adminUser = newUser("root", models.RoleAdmin)

	require.NoError(t, f.repo.Appointment().Create(ctx, &models.Appointment{
		DoctorID: f.doctor.ID, PatientID: f.patients[0].ID, Status: models.AppointmentScheduled,
	}))
	require.NoError(t, f.repo.Appointment().Create(ctx, &models.Appointment{
		DoctorID: f.doctor.ID, PatientID: f.patients[2].ID, Status: models.AppointmentCompleted,
	}))
	return f
}

func TestCheckRecordAccess(t *testing.T) {
	f := newCareFixture(t)
	p1, p2, p3 := f.patients[0].ID, f.patients[1].ID, f.patients[2].ID

	tests := []struct {
		name   string
		opts   Options
		userID uint
		role   models.UserRole
		target uint
		want   Decision
	}{
		{name: "patient reads own data", opts: DefaultOptions(), userID: f.patientUser[0].ID, role: models.RolePatient, target: p1, want: Allow},
		{name: "patient reads someone else", opts: DefaultOptions(), userID: f.patientUser[0].ID, role: models.RolePatient, target: p2, want: Deny},
		{name: "doctor with scheduled appointment", opts: DefaultOptions(), userID: f.doctorUser.ID, role: models.RoleDoctor, target: p1, want: Allow},
		{name: "doctor without appointment", opts: DefaultOptions(), userID: f.doctorUser.ID, role: models.RoleDoctor, target: p2, want: Deny},
		{name: "doctor with completed appointment", opts: DefaultOptions(), userID: f.doctorUser.ID, role: models.RoleDoctor, target: p3, want: Allow},
		{name: "completed only excludes scheduled", opts: Options{AdminRecordAccess: true, RequireCompletedAppointment: true}, userID: f.doctorUser.ID, role: models.RoleDoctor, target: p1, want: Deny},
		{name: "completed only keeps completed", opts: Options{AdminRecordAccess: true, RequireCompletedAppointment: true}, userID: f.doctorUser.ID, role: models.RoleDoctor, target: p3, want: Allow},
		{name: "admin allowed by default", opts: DefaultOptions(), userID: f.adminUser.ID, role: models.RoleAdmin, target: p2, want: Allow},
		{name: "admin access disabled", opts: Options{}, userID: f.adminUser.ID, role: models.RoleAdmin, target: p2, want: Deny},
		{name: "unknown role", opts: DefaultOptions(), userID: f.adminUser.ID, role: models.UserRole("nurse"), target: p1, want: Deny},
		{name: "doctor role without doctor profile", opts: DefaultOptions(), userID: f.patientUser[1].ID, role: models.RoleDoctor, target: p1, want: Deny},
		{name: "patient role without patient profile", opts: DefaultOptions(), userID: f.doctorUser.ID, role: models.RolePatient, target: p1, want: Deny},
		{name: "zero requester", opts: DefaultOptions(), userID: 0, role: models.RoleAdmin, target: p1, want: Deny},
		{name: "zero target", opts: DefaultOptions(), userID: f.adminUser.ID, role: models.RoleAdmin, target: 0, want: Deny},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(f.repo, tt.opts)
			got, err := engine.CheckRecordAccess(context.Background(), tt.userID, tt.role, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "decision %s", got)
		})
	}
}

func TestCheckRecordAccess_DoesNotWrite(t *testing.T) {
	f := newCareFixture(t)
	engine := NewEngine(f.repo, DefaultOptions())

	_, err := engine.CheckRecordAccess(context.Background(), f.doctorUser.ID, models.RoleDoctor, f.patients[1].ID)
	require.NoError(t, err)

	entries, err := f.repo.ActivityLog().Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "deny", Deny.String())
}
