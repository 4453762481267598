package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// Doctor cache keys
const (
	DoctorListPattern = "list:*"
)

// DoctorProfileKey is the key of one cached doctor profile
func DoctorProfileKey(doctorID uint) string {
	return fmt.Sprintf("id:%d", doctorID)
}

// DoctorListKey is the key of one cached directory page
func DoctorListKey(status, specialization, sort string, limit, offset int) string {
	return fmt.Sprintf("list:%s:%s:%s:%d:%d", status, specialization, sort, limit, offset)
}

// DoctorRatingsKey is the key of one cached rating page
func DoctorRatingsKey(doctorID uint, limit, offset int) string {
	return fmt.Sprintf("doctor:%d:%d:%d", doctorID, limit, offset)
}

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateDoctorCache drops the profile, every directory page and every
// rating page of one doctor. Call after the writing transaction commits.
func InvalidateDoctorCache(ctx context.Context, cm *CacheManager, doctorID uint) {
	SafeDelete(ctx, cm.Doctor, DoctorProfileKey(doctorID))
	SafeInvalidatePattern(ctx, cm.Doctor, DoctorListPattern)
	SafeInvalidatePattern(ctx, cm.Rating, fmt.Sprintf("doctor:%d:*", doctorID))
}

// InvalidateUserCache drops a cached user profile
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID uint) {
	SafeDelete(ctx, cm.User, fmt.Sprintf("id:%d", userID))
}
