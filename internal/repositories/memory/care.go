package memory

import (
	"context"
	"sort"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

type appointmentRepo struct{ s *store }

func (r *appointmentRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if appointment.Status == "" {
		appointment.Status = models.AppointmentScheduled
	}
	if appointment.PaymentStatus == "" {
		appointment.PaymentStatus = models.PaymentPending
	}
	now := r.s.now()
	appointment.ID = r.s.data.next("appointments")
	appointment.CreatedAt, appointment.UpdatedAt = now, now
	r.s.data.appointments[appointment.ID] = stripAppointment(*appointment)
	return nil
}

func (r *appointmentRepo) GetByID(ctx context.Context, id uint) (*models.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.data.appointments[id]
	if !ok {
		return nil, notFound("appointment", id)
	}
	return &a, nil
}

func (r *appointmentRepo) Update(ctx context.Context, appointment *models.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.appointments[appointment.ID]; !ok {
		return notFound("appointment", appointment.ID)
	}
	appointment.UpdatedAt = r.s.now()
	r.s.data.appointments[appointment.ID] = stripAppointment(*appointment)
	return nil
}

func (r *appointmentRepo) ListByPatient(ctx context.Context, patientID uint, filters repositories.AppointmentFilters) ([]*models.Appointment, int64, error) {
	return r.list(filters, func(a models.Appointment) bool { return a.PatientID == patientID })
}

func (r *appointmentRepo) ListByDoctor(ctx context.Context, doctorID uint, filters repositories.AppointmentFilters) ([]*models.Appointment, int64, error) {
	return r.list(filters, func(a models.Appointment) bool { return a.DoctorID == doctorID })
}

func (r *appointmentRepo) ExistsBetween(ctx context.Context, doctorID, patientID uint, statuses ...models.AppointmentStatus) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.data.appointments {
		if a.DoctorID != doctorID || a.PatientID != patientID {
			continue
		}
		if len(statuses) == 0 {
			return true, nil
		}
		for _, st := range statuses {
			if a.Status == st {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *appointmentRepo) list(filters repositories.AppointmentFilters, match func(models.Appointment) bool) ([]*models.Appointment, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var appointments []*models.Appointment
	for _, a := range r.s.data.appointments {
		if !match(a) {
			continue
		}
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		if filters.DateFrom != nil && a.AppointmentDate.Before(*filters.DateFrom) {
			continue
		}
		if filters.DateTo != nil && a.AppointmentDate.After(*filters.DateTo) {
			continue
		}
		found := a
		appointments = append(appointments, &found)
	}
	sort.Slice(appointments, func(i, j int) bool {
		if !appointments[i].AppointmentDate.Equal(appointments[j].AppointmentDate) {
			return appointments[i].AppointmentDate.After(appointments[j].AppointmentDate)
		}
		return appointments[i].ID > appointments[j].ID
	})
	return page(appointments, filters.Limit, filters.Offset), int64(len(appointments)), nil
}

func stripAppointment(a models.Appointment) models.Appointment {
	a.Patient = models.Patient{}
	a.Doctor = models.Doctor{}
	return a
}

type ratingRepo struct{ s *store }

func (r *ratingRepo) Create(ctx context.Context, rating *models.Rating) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.data.ratings {
		if existing.AppointmentID == rating.AppointmentID {
			return duplicate("ratings_appointment_id_key")
		}
	}
	rating.ID = r.s.data.next("ratings")
	rating.CreatedAt = r.s.now()
	stored := *rating
	stored.Patient = models.Patient{}
	r.s.data.ratings[rating.ID] = stored
	return nil
}

func (r *ratingRepo) GetByAppointmentID(ctx context.Context, appointmentID uint) (*models.Rating, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rating := range r.s.data.ratings {
		if rating.AppointmentID == appointmentID {
			found := rating
			return &found, nil
		}
	}
	return nil, notFound("rating for appointment", appointmentID)
}

func (r *ratingRepo) ListByDoctor(ctx context.Context, doctorID uint, limit, offset int) ([]*models.Rating, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ratings []*models.Rating
	for _, rating := range r.s.data.ratings {
		if rating.DoctorID != doctorID {
			continue
		}
		found := rating
		if p, ok := r.s.data.patients[rating.PatientID]; ok {
			p.User = r.s.data.users[p.UserID]
			found.Patient = p
		}
		ratings = append(ratings, &found)
	}
	sort.Slice(ratings, func(i, j int) bool {
		if !ratings[i].CreatedAt.Equal(ratings[j].CreatedAt) {
			return ratings[i].CreatedAt.After(ratings[j].CreatedAt)
		}
		return ratings[i].ID > ratings[j].ID
	})
	return page(ratings, limit, offset), int64(len(ratings)), nil
}

func (r *ratingRepo) Aggregate(ctx context.Context, doctorID uint) (*models.RatingAggregate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	agg := &models.RatingAggregate{}
	sum := 0
	for _, rating := range r.s.data.ratings {
		if rating.DoctorID == doctorID {
			agg.Count++
			sum += rating.Score
		}
	}
	if agg.Count > 0 {
		agg.Average = float64(sum) / float64(agg.Count)
	}
	return agg, nil
}

type medicalRecordRepo struct{ s *store }

func (r *medicalRecordRepo) Create(ctx context.Context, record *models.MedicalRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	record.ID = r.s.data.next("medical_records")
	if record.UploadedAt.IsZero() {
		record.UploadedAt = r.s.now()
	}
	r.s.data.records[record.ID] = *record
	return nil
}

func (r *medicalRecordRepo) GetByID(ctx context.Context, id uint) (*models.MedicalRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.data.records[id]
	if !ok {
		return nil, notFound("medical record", id)
	}
	return &rec, nil
}

func (r *medicalRecordRepo) ListByPatient(ctx context.Context, patientID uint) ([]*models.MedicalRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	records := []*models.MedicalRecord{}
	for _, rec := range r.s.data.records {
		if rec.PatientID == patientID {
			found := rec
			records = append(records, &found)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].UploadedAt.Equal(records[j].UploadedAt) {
			return records[i].UploadedAt.After(records[j].UploadedAt)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

type healthDataRepo struct{ s *store }

func (r *healthDataRepo) Create(ctx context.Context, data *models.HealthData) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	data.ID = r.s.data.next("health_data")
	data.CreatedAt = now
	if data.RecordedAt.IsZero() {
		data.RecordedAt = now
	}
	r.s.data.healthData[data.ID] = *data
	return nil
}

func (r *healthDataRepo) ListByPatient(ctx context.Context, patientID uint, filters repositories.HealthDataFilters) ([]*models.HealthData, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	data := []*models.HealthData{}
	for _, d := range r.s.data.healthData {
		if d.PatientID != patientID {
			continue
		}
		if filters.DataType != "" && d.DataType != filters.DataType {
			continue
		}
		if filters.DateFrom != nil && d.RecordedAt.Before(*filters.DateFrom) {
			continue
		}
		if filters.DateTo != nil && d.RecordedAt.After(*filters.DateTo) {
			continue
		}
		found := d
		data = append(data, &found)
	}
	sort.Slice(data, func(i, j int) bool {
		if !data[i].RecordedAt.Equal(data[j].RecordedAt) {
			return data[i].RecordedAt.After(data[j].RecordedAt)
		}
		return data[i].ID > data[j].ID
	})
	return page(data, filters.Limit, 0), nil
}

type activityLogRepo struct{ s *store }

func (r *activityLogRepo) Append(ctx context.Context, entry *models.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entry.ID = r.s.data.next("activity_logs")
	entry.Timestamp = r.s.now()
	stored := *entry
	stored.User = models.User{}
	r.s.data.activity = append(r.s.data.activity, stored)
	return nil
}

func (r *activityLogRepo) List(ctx context.Context, filters repositories.ActivityFilters) ([]*models.ActivityLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := []*models.ActivityLog{}
	for _, e := range r.s.data.activity {
		if filters.UserID != nil && e.UserID != *filters.UserID {
			continue
		}
		entries = append(entries, r.withUser(e))
	}
	return page(entries, filters.Limit, filters.Offset), nil
}

func (r *activityLogRepo) Recent(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := make([]*models.ActivityLog, 0, len(r.s.data.activity))
	for i := len(r.s.data.activity) - 1; i >= 0; i-- {
		entries = append(entries, r.withUser(r.s.data.activity[i]))
	}
	return page(entries, limit, 0), nil
}

// withUser mirrors a LEFT JOIN: a missing actor leaves User empty
func (r *activityLogRepo) withUser(e models.ActivityLog) *models.ActivityLog {
	e.User = r.s.data.users[e.UserID]
	return &e
}
