package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsex/care-service/internal/models"
)

func TestUserProfile(t *testing.T) {
	env := newTestEnv(t)
	aliceUser, alice := env.patient("alice")
	doctorUser, doctor := env.doctor("house", models.ApprovalApproved)

	profile, err := env.services.User().GetProfile(env.ctx, aliceUser.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.PatientID)
	assert.Equal(t, alice.ID, *profile.PatientID)
	assert.Nil(t, profile.DoctorID)

	docProfile, err := env.services.User().GetProfile(env.ctx, doctorUser.ID)
	require.NoError(t, err)
	require.NotNil(t, docProfile.DoctorID)
	assert.Equal(t, doctor.ID, *docProfile.DoctorID)

	updated, err := env.services.User().UpdateProfile(env.ctx, aliceUser.ID, &UpdateProfileRequest{
		FullName:  strPtr("Alice Liddell"),
		BloodType: strPtr("AB-"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.FullName)
	require.NotNil(t, updated.BloodType)
	assert.Equal(t, "AB-", *updated.BloodType)

	cached, err := env.services.User().GetProfile(env.ctx, aliceUser.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", cached.FullName)

	_, err = env.services.User().UpdateProfile(env.ctx, aliceUser.ID, &UpdateProfileRequest{Gender: strPtr("unknown")})
	assert.True(t, IsInvalidInput(err))

	_, err = env.services.User().GetProfile(env.ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	aliceUser, _ := env.patient("alice")

	err := env.services.User().ChangePassword(env.ctx, aliceUser.ID, &ChangePasswordRequest{
		CurrentPassword: "NotMine123",
		NewPassword:     "NewPassw0rd",
	})
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = env.services.User().ChangePassword(env.ctx, aliceUser.ID, &ChangePasswordRequest{
		CurrentPassword: testPassword,
		NewPassword:     "weak",
	})
	assert.True(t, IsInvalidInput(err))

	require.NoError(t, env.services.User().ChangePassword(env.ctx, aliceUser.ID, &ChangePasswordRequest{
		CurrentPassword: testPassword,
		NewPassword:     "NewPassw0rd",
	}))

	_, err = env.services.Auth().Login(env.ctx, &LoginRequest{Email: aliceUser.Email, Password: testPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.services.Auth().Login(env.ctx, &LoginRequest{Email: aliceUser.Email, Password: "NewPassw0rd"})
	assert.NoError(t, err)
}

func TestServiceManager_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.services.HealthCheck(env.ctx))
	require.NoError(t, env.services.Shutdown(env.ctx))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uninitialized := NewServiceManager(env.repo, logger, nil, Infrastructure{}, ServiceManagerConfig{})
	assert.Panics(t, func() { uninitialized.Auth() })
	assert.Error(t, uninitialized.Initialize(env.ctx))
}
