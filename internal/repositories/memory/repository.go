// Package memory is an in-process implementation of repositories.Repository.
// Transactions are serialized and rolled back by snapshot, which gives the
// same observable guarantees as the row locks and unique indexes of the
// PostgreSQL implementation. Writes made outside a transaction are not
// isolated from a concurrent rollback.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

type tables struct {
	seq          map[string]uint
	users        map[uint]models.User
	patients     map[uint]models.Patient
	doctors      map[uint]models.Doctor
	appointments map[uint]models.Appointment
	ratings      map[uint]models.Rating
	records      map[uint]models.MedicalRecord
	healthData   map[uint]models.HealthData
	activity     []models.ActivityLog
}

func newTables() *tables {
	return &tables{
		seq:          map[string]uint{},
		users:        map[uint]models.User{},
		patients:     map[uint]models.Patient{},
		doctors:      map[uint]models.Doctor{},
		appointments: map[uint]models.Appointment{},
		ratings:      map[uint]models.Rating{},
		records:      map[uint]models.MedicalRecord{},
		healthData:   map[uint]models.HealthData{},
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.seq {
		c.seq[k] = v
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.patients {
		c.patients[k] = v
	}
	for k, v := range t.doctors {
		c.doctors[k] = v
	}
	for k, v := range t.appointments {
		c.appointments[k] = v
	}
	for k, v := range t.ratings {
		c.ratings[k] = v
	}
	for k, v := range t.records {
		c.records[k] = v
	}
	for k, v := range t.healthData {
		c.healthData[k] = v
	}
	c.activity = append([]models.ActivityLog(nil), t.activity...)
	return c
}

func (t *tables) next(table string) uint {
	t.seq[table]++
	return t.seq[table]
}

type store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *tables
	now  func() time.Time
}

// Repository is safe for concurrent use
type Repository struct {
	s *store
}

func NewRepository() *Repository {
	return &Repository{s: &store{data: newTables(), now: func() time.Time { return time.Now().UTC() }}}
}

func (r *Repository) User() repositories.UserRepository       { return &userRepo{s: r.s} }
func (r *Repository) Patient() repositories.PatientRepository { return &patientRepo{s: r.s} }
func (r *Repository) Doctor() repositories.DoctorRepository   { return &doctorRepo{s: r.s} }
func (r *Repository) Appointment() repositories.AppointmentRepository {
	return &appointmentRepo{s: r.s}
}
func (r *Repository) Rating() repositories.RatingRepository { return &ratingRepo{s: r.s} }
func (r *Repository) MedicalRecord() repositories.MedicalRecordRepository {
	return &medicalRecordRepo{s: r.s}
}
func (r *Repository) HealthData() repositories.HealthDataRepository {
	return &healthDataRepo{s: r.s}
}
func (r *Repository) ActivityLog() repositories.ActivityLogRepository {
	return &activityLogRepo{s: r.s}
}

// WithTransaction runs fn exclusively; any error restores the prior state
func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.mu.RLock()
	snapshot := r.s.data.clone()
	r.s.mu.RUnlock()

	if err := fn(r); err != nil {
		r.s.mu.Lock()
		r.s.data = snapshot
		r.s.mu.Unlock()
		return err
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error { return nil }

func (r *Repository) Close() error { return nil }

func notFound(entity string, id interface{}) error {
	return fmt.Errorf("%w: %s %v", repositories.ErrNotFound, entity, id)
}

func duplicate(constraint string) error {
	return fmt.Errorf("%w: %s", repositories.ErrDuplicateKey, constraint)
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
