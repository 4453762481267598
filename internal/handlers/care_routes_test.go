package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsex/care-service/internal/models"
)

type doctorPage struct {
	Content       []models.DoctorSummary `json:"content"`
	TotalElements int64                  `json:"total_elements"`
}

func TestApproveDoctorRoute(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.user("root", models.RoleAdmin)
	patient, _ := env.patient("alice")
	_, doctor := env.doctor("house", models.ApprovalPending)
	path := fmt.Sprintf("/api/v1/doctors/%d", doctor.ID)

	// Pending profiles are invisible outside the admin role
	requireStatus(t, env.do(http.MethodGet, path, env.token(patient), nil), http.StatusNotFound)
	requireStatus(t, env.do(http.MethodGet, path, env.token(admin), nil), http.StatusOK)

	w := env.do(http.MethodPut, fmt.Sprintf("/api/v1/admin/doctors/%d/approval", doctor.ID), env.token(admin),
		map[string]bool{"is_approved": true})
	requireStatus(t, w, http.StatusOK)
	summary := decode[models.DoctorSummary](t, w)
	assert.True(t, summary.IsApproved)
	assert.Equal(t, models.ApprovalApproved, summary.ApprovalStatus)

	w = env.do(http.MethodGet, "/api/v1/doctors", env.token(patient), nil)
	requireStatus(t, w, http.StatusOK)
	page := decode[doctorPage](t, w)
	require.Len(t, page.Content, 1)
	assert.Equal(t, doctor.ID, page.Content[0].ID)

	w = env.do(http.MethodGet, "/api/v1/admin/activity", env.token(admin), nil)
	requireStatus(t, w, http.StatusOK)
	entries := decode[[]models.ActivityEntry](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, "Doctor house approved", entries[0].Details)
	assert.Equal(t, "root", entries[0].ActorName)

	t.Run("unknown doctor", func(t *testing.T) {
		w := env.do(http.MethodPut, "/api/v1/admin/doctors/999/approval", env.token(admin), map[string]bool{"is_approved": true})
		requireStatus(t, w, http.StatusNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := env.do(http.MethodPut, "/api/v1/admin/doctors/abc/approval", env.token(admin), map[string]bool{"is_approved": true})
		requireStatus(t, w, http.StatusBadRequest)
	})

	t.Run("export", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/admin/activity/export", env.token(admin), nil)
		requireStatus(t, w, http.StatusOK)
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
		assert.NotZero(t, w.Body.Len())
	})
}

func TestSubmitRatingRoute(t *testing.T) {
	env := newAPIEnv(t)
	patientUser, patient := env.patient("alice")
	_, doctor := env.doctor("house", models.ApprovalApproved)
	completed := env.appointment(doctor.ID, patient.ID, models.AppointmentCompleted)
	scheduled := env.appointment(doctor.ID, patient.ID, models.AppointmentScheduled)
	token := env.token(patientUser)

	w := env.do(http.MethodPost, "/api/v1/ratings", token, map[string]interface{}{
		"appointment_id": completed.ID,
		"rating":         5,
	})
	requireStatus(t, w, http.StatusCreated)
	assert.Equal(t, 5, decode[models.RatingSummary](t, w).Score)

	w = env.do(http.MethodGet, fmt.Sprintf("/api/v1/doctors/%d", doctor.ID), token, nil)
	requireStatus(t, w, http.StatusOK)
	summary := decode[models.DoctorSummary](t, w)
	assert.Equal(t, 5.0, summary.AverageRating)
	assert.Equal(t, 1, summary.TotalRatings)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{"already rated", map[string]interface{}{"appointment_id": completed.ID, "rating": 4}, http.StatusConflict},
		{"score out of range", map[string]interface{}{"appointment_id": completed.ID, "rating": 6}, http.StatusBadRequest},
		{"appointment not completed", map[string]interface{}{"appointment_id": scheduled.ID, "rating": 4}, http.StatusUnprocessableEntity},
		{"unknown appointment", map[string]interface{}{"appointment_id": 999, "rating": 4}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireStatus(t, env.do(http.MethodPost, "/api/v1/ratings", token, tt.body), tt.status)
		})
	}
}

func TestAppointmentRoutes(t *testing.T) {
	env := newAPIEnv(t)
	patientUser, patient := env.patient("alice")
	doctorUser, doctor := env.doctor("house", models.ApprovalApproved)
	otherDoctor, _ := env.doctor("wilson", models.ApprovalApproved)
	appt := env.appointment(doctor.ID, patient.ID, models.AppointmentScheduled)
	statusPath := fmt.Sprintf("/api/v1/appointments/%d/status", appt.ID)

	requireStatus(t, env.do(http.MethodPut, statusPath, env.token(patientUser), map[string]string{"status": "completed"}), http.StatusForbidden)
	requireStatus(t, env.do(http.MethodPut, statusPath, env.token(otherDoctor), map[string]string{"status": "completed"}), http.StatusForbidden)

	w := env.do(http.MethodPut, statusPath, env.token(doctorUser), map[string]string{"status": "completed"})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, models.AppointmentCompleted, decode[models.Appointment](t, w).Status)

	w = env.do(http.MethodPut, statusPath, env.token(doctorUser), map[string]string{"status": "cancelled"})
	requireStatus(t, w, http.StatusUnprocessableEntity)

	w = env.do(http.MethodGet, "/api/v1/appointments/me", env.token(patientUser), nil)
	requireStatus(t, w, http.StatusOK)
	page := decode[models.PaginatedResponse](t, w)
	assert.EqualValues(t, 1, page.TotalElements)

	t.Run("payment", func(t *testing.T) {
		admin := env.user("root", models.RoleAdmin)
		paymentPath := fmt.Sprintf("/api/v1/appointments/%d/payment", appt.ID)

		w := env.do(http.MethodPut, paymentPath, env.token(admin), map[string]string{"payment_status": "paid"})
		requireStatus(t, w, http.StatusOK)
		assert.Equal(t, models.PaymentPaid, decode[models.Appointment](t, w).PaymentStatus)

		w = env.do(http.MethodGet, "/api/v1/admin/activity/recent?limit=1", env.token(admin), nil)
		requireStatus(t, w, http.StatusOK)
		entries := decode[[]models.ActivityEntry](t, w)
		require.Len(t, entries, 1)
		assert.Equal(t, models.ActionUpdatePaymentStatus, entries[0].Action)
		assert.Equal(t, "root", entries[0].ActorName)
		assert.Equal(t, "paid", entries[0].Metadata["to"])
	})
}

func TestMedicalRecordRoutes(t *testing.T) {
	env := newAPIEnv(t)
	ownerUser, owner := env.patient("alice")
	strangerPatient, _ := env.patient("eve")
	treatingUser, treating := env.doctor("house", models.ApprovalApproved)
	unrelatedUser, _ := env.doctor("wilson", models.ApprovalApproved)
	env.appointment(treating.ID, owner.ID, models.AppointmentCompleted)

	w := upload(t, env, env.token(ownerUser), "scan.pdf", "application/pdf", []byte("%PDF-1.4 test"))
	requireStatus(t, w, http.StatusCreated)
	record := decode[models.MedicalRecord](t, w)
	assert.Equal(t, "scan.pdf", record.FileName)
	assert.Equal(t, "routine", record.Tags["visit"])

	t.Run("unsupported type", func(t *testing.T) {
		w := upload(t, env, env.token(ownerUser), "run.sh", "application/x-sh", []byte("echo"))
		requireStatus(t, w, http.StatusBadRequest)
	})

	listPath := fmt.Sprintf("/api/v1/patients/%d/medical-records", owner.ID)
	accessPath := fmt.Sprintf("/api/v1/patients/%d/access", owner.ID)
	downloadPath := fmt.Sprintf("/api/v1/medical-records/%d/download", record.ID)

	tests := []struct {
		name           string
		caller         *models.User
		status         int
		downloadStatus int
		decision       string
	}{
		{"owner", ownerUser, http.StatusOK, http.StatusOK, "allow"},
		{"treating doctor", treatingUser, http.StatusOK, http.StatusOK, "allow"},
		{"unrelated doctor", unrelatedUser, http.StatusForbidden, http.StatusNotFound, "deny"},
		{"other patient", strangerPatient, http.StatusForbidden, http.StatusNotFound, "deny"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := env.token(tt.caller)

			w := env.do(http.MethodGet, accessPath, token, nil)
			requireStatus(t, w, http.StatusOK)
			assert.Equal(t, tt.decision, decode[map[string]interface{}](t, w)["decision"])

			requireStatus(t, env.do(http.MethodGet, listPath, token, nil), tt.status)

			w = env.do(http.MethodGet, downloadPath, token, nil)
			requireStatus(t, w, tt.downloadStatus)
			if tt.downloadStatus == http.StatusOK {
				assert.Equal(t, "%PDF-1.4 test", w.Body.String())
				assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
				assert.Contains(t, w.Header().Get("Content-Disposition"), "scan.pdf")
			}
		})
	}

	t.Run("unknown record", func(t *testing.T) {
		unknown := env.do(http.MethodGet, "/api/v1/medical-records/999/download", env.token(unrelatedUser), nil)
		requireStatus(t, unknown, http.StatusNotFound)

		denied := env.do(http.MethodGet, downloadPath, env.token(unrelatedUser), nil)
		requireStatus(t, denied, http.StatusNotFound)
		assert.JSONEq(t, unknown.Body.String(), denied.Body.String())
	})
}

func TestHealthDataRoutes(t *testing.T) {
	env := newAPIEnv(t)
	ownerUser, owner := env.patient("alice")
	unrelatedUser, _ := env.doctor("wilson", models.ApprovalApproved)
	token := env.token(ownerUser)

	w := env.do(http.MethodPost, "/api/v1/health-data", token, map[string]string{
		"data_type": "heart_rate",
		"value":     "72",
		"unit":      "bpm",
	})
	requireStatus(t, w, http.StatusCreated)

	requireStatus(t, env.do(http.MethodPost, "/api/v1/health-data", token, map[string]string{"data_type": "heart_rate"}), http.StatusBadRequest)

	w = env.do(http.MethodGet, "/api/v1/health-data/me?data_type=heart_rate", token, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Len(t, decode[[]models.HealthData](t, w), 1)

	w = env.do(http.MethodGet, fmt.Sprintf("/api/v1/patients/%d/health-data", owner.ID), env.token(unrelatedUser), nil)
	requireStatus(t, w, http.StatusForbidden)
}

func upload(t *testing.T, env *apiEnv, token, fileName, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = io.Copy(part, bytes.NewReader(content))
	require.NoError(t, err)

	require.NoError(t, mw.WriteField("description", "Annual checkup"))
	require.NoError(t, mw.WriteField("tags", `{"visit":"routine"}`))
	require.NoError(t, mw.Close())

	req := newRequest(t, http.MethodPost, "/api/v1/medical-records", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return serve(env, req)
}
