package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

type userRepo struct{ s *store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.data.users {
		if normalizeEmail(u.Email) == normalizeEmail(user.Email) {
			return duplicate("users_email_key")
		}
	}
	now := r.s.now()
	user.ID = r.s.data.next("users")
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.data.users[user.ID] = *user
	return nil
}

func (r *userRepo) UpdateFields(ctx context.Context, id uint, changes repositories.UserChanges) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.data.users[id]
	if !ok {
		return notFound("user", id)
	}
	if changes.FullName != nil {
		u.FullName = *changes.FullName
	}
	if changes.PhoneNumber != nil {
		phone := *changes.PhoneNumber
		u.PhoneNumber = &phone
	}
	if changes.PasswordHash != nil {
		u.PasswordHash = *changes.PasswordHash
	}
	if changes.IsActive != nil {
		u.IsActive = *changes.IsActive
	}
	if changes.LastLoginAt != nil {
		at := *changes.LastLoginAt
		u.LastLoginAt = &at
	}
	u.UpdatedAt = r.s.now()
	r.s.data.users[id] = u
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.data.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.data.users {
		if normalizeEmail(u.Email) == normalizeEmail(email) {
			found := u
			return &found, nil
		}
	}
	return nil, notFound("user", email)
}

func (r *userRepo) GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := []*models.User{}
	for _, id := range ids {
		if u, ok := r.s.data.users[id]; ok {
			found := u
			users = append(users, &found)
		}
	}
	return users, nil
}

func (r *userRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(filters.Query))
	var users []*models.User
	for _, u := range r.s.data.users {
		if filters.Role != nil && u.Role != *filters.Role {
			continue
		}
		if filters.IsActive != nil && u.IsActive != *filters.IsActive {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.FullName), q) && !strings.Contains(strings.ToLower(u.Email), q) {
			continue
		}
		found := u
		users = append(users, &found)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return page(users, filters.Limit, filters.Offset), int64(len(users)), nil
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if repositories.IsNotFoundError(err) {
		return false, nil
	}
	return err == nil, err
}

type patientRepo struct{ s *store }

func (r *patientRepo) withUser(p models.Patient) *models.Patient {
	p.User = r.s.data.users[p.UserID]
	return &p
}

func (r *patientRepo) Create(ctx context.Context, patient *models.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.data.patients {
		if p.UserID == patient.UserID {
			return duplicate("patients_user_id_key")
		}
	}
	now := r.s.now()
	patient.ID = r.s.data.next("patients")
	patient.CreatedAt, patient.UpdatedAt = now, now
	stored := *patient
	stored.User = models.User{}
	r.s.data.patients[patient.ID] = stored
	return nil
}

func (r *patientRepo) GetByID(ctx context.Context, id uint) (*models.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.data.patients[id]
	if !ok {
		return nil, notFound("patient", id)
	}
	return r.withUser(p), nil
}

func (r *patientRepo) GetByUserID(ctx context.Context, userID uint) (*models.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.data.patients {
		if p.UserID == userID {
			return r.withUser(p), nil
		}
	}
	return nil, notFound("patient for user", userID)
}

func (r *patientRepo) Update(ctx context.Context, patient *models.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.patients[patient.ID]; !ok {
		return notFound("patient", patient.ID)
	}
	patient.UpdatedAt = r.s.now()
	stored := *patient
	stored.User = models.User{}
	r.s.data.patients[patient.ID] = stored
	return nil
}

type doctorRepo struct{ s *store }

func (r *doctorRepo) withUser(d models.Doctor) *models.Doctor {
	d.User = r.s.data.users[d.UserID]
	return &d
}

func (r *doctorRepo) Create(ctx context.Context, doctor *models.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.data.doctors {
		if d.UserID == doctor.UserID {
			return duplicate("doctors_user_id_key")
		}
	}
	if doctor.ApprovalStatus == "" {
		doctor.ApprovalStatus = models.ApprovalPending
	}
	now := r.s.now()
	doctor.ID = r.s.data.next("doctors")
	doctor.CreatedAt, doctor.UpdatedAt = now, now
	stored := *doctor
	stored.User = models.User{}
	r.s.data.doctors[doctor.ID] = stored
	return nil
}

func (r *doctorRepo) GetByID(ctx context.Context, id uint) (*models.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.data.doctors[id]
	if !ok {
		return nil, notFound("doctor", id)
	}
	return r.withUser(d), nil
}

// GetByIDForUpdate relies on WithTransaction serialization for the lock
func (r *doctorRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Doctor, error) {
	return r.GetByID(ctx, id)
}

func (r *doctorRepo) GetByUserID(ctx context.Context, userID uint) (*models.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, d := range r.s.data.doctors {
		if d.UserID == userID {
			return r.withUser(d), nil
		}
	}
	return nil, notFound("doctor for user", userID)
}

func (r *doctorRepo) Update(ctx context.Context, doctor *models.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.doctors[doctor.ID]; !ok {
		return notFound("doctor", doctor.ID)
	}
	doctor.UpdatedAt = r.s.now()
	stored := *doctor
	stored.User = models.User{}
	r.s.data.doctors[doctor.ID] = stored
	return nil
}

func (r *doctorRepo) List(ctx context.Context, filters repositories.DoctorFilters) ([]*models.Doctor, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := strings.ToLower(strings.TrimSpace(filters.Specialization))
	var doctors []*models.Doctor
	for _, d := range r.s.data.doctors {
		if filters.ApprovalStatus != nil && d.ApprovalStatus != *filters.ApprovalStatus {
			continue
		}
		if wanted != "" && strings.ToLower(d.Specialization) != wanted {
			continue
		}
		doctors = append(doctors, r.withUser(d))
	}

	asc := strings.EqualFold(filters.SortOrder, "asc")
	sort.Slice(doctors, func(i, j int) bool {
		a, b := doctors[i], doctors[j]
		if asc {
			a, b = b, a
		}
		switch filters.SortBy {
		case "average_rating":
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
		case "consultation_price":
			if a.ConsultationPrice != b.ConsultationPrice {
				return a.ConsultationPrice > b.ConsultationPrice
			}
		case "total_ratings":
			if a.TotalRatings != b.TotalRatings {
				return a.TotalRatings > b.TotalRatings
			}
		case "years_of_experience":
			if a.YearsOfExperience != b.YearsOfExperience {
				return a.YearsOfExperience > b.YearsOfExperience
			}
		}
		return a.ID > b.ID
	})
	return page(doctors, filters.Limit, filters.Offset), int64(len(doctors)), nil
}
