//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request CreateUserRequest
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid job seeker",
			request: CreateUserRequest{Name: "Noura", Email: "noura@example.com", Password: "password123", Role: RoleJobSeeker, Skills: []string{"cooking"}},
		},
		{
			name:    "valid employer with company",
			request: CreateUserRequest{Name: "Fahad", Email: "fahad@example.com", Password: "password123", Role: RoleEmployer, CompanyName: "Fahad Co"},
		},
		{
			name:    "role omitted",
			request: CreateUserRequest{Name: "Jane", Email: "jane@example.com", Password: "password123"},
		},
		{
			name:    "admin self-registration",
			request: CreateUserRequest{Name: "Root", Email: "root@example.com", Password: "password123", Role: RoleAdmin},
			wantErr: true,
			errMsg:  "oneof",
		},
		{
			name:    "missing name",
			request: CreateUserRequest{Email: "john@example.com", Password: "password123"},
			wantErr: true,
			errMsg:  "required",
		},
		{
			name:    "invalid email",
			request: CreateUserRequest{Name: "John", Email: "not-an-email", Password: "password123"},
			wantErr: true,
			errMsg:  "email",
		},
		{
			name:    "short password",
			request: CreateUserRequest{Name: "John", Email: "john@example.com", Password: "short"},
			wantErr: true,
			errMsg:  "min",
		},
		{
			name:    "blank skill",
			request: CreateUserRequest{Name: "John", Email: "john@example.com", Password: "password123", Skills: []string{""}},
			wantErr: true,
			errMsg:  "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoginRequest_Validation(t *testing.T) {
	assert.NoError(t, (&LoginRequest{Email: "a@example.com", Password: "x"}).Validate())
	assert.Error(t, (&LoginRequest{Email: "a@example.com"}).Validate())
	assert.Error(t, (&LoginRequest{Email: "nope", Password: "x"}).Validate())
}

func TestUpdatePasswordRequest_Validation(t *testing.T) {
	assert.NoError(t, (&UpdatePasswordRequest{CurrentPassword: "old", NewPassword: "newpassword"}).Validate())
	assert.Error(t, (&UpdatePasswordRequest{CurrentPassword: "old", NewPassword: "short"}).Validate())
	assert.Error(t, (&UpdatePasswordRequest{NewPassword: "newpassword"}).Validate())
}

func TestJobRequest_Validation(t *testing.T) {
	validate := validator.New()
	valid := JobRequest{
		Title:         "Barista",
		Description:   "Morning shift",
		CompanyName:   "Cafe",
		Location:      "Dammam",
		DurationType:  "hours_5",
		DurationValue: "5 hours",
		Salary:        150,
		Category:      "hospitality",
		Deadline:      "2025-12-31",
	}
	require.NoError(t, validate.Struct(valid))

	badDuration := valid
	badDuration.DurationType = "fortnight"
	assert.Error(t, validate.Struct(badDuration))

	negative := valid
	negative.Salary = -1
	assert.Error(t, validate.Struct(negative))

	badDeadline := valid
	badDeadline.Deadline = "31/12/2025"
	assert.Error(t, validate.Struct(badDeadline))

	badStatus := valid
	badStatus.Status = "archived"
	assert.Error(t, validate.Struct(badStatus))

	closed := valid
	closed.Status = JobClosed
	assert.NoError(t, validate.Struct(closed))
}

func TestRatingRequest_Validation(t *testing.T) {
	validate := validator.New()
	base := RatingRequest{JobID: uuid.New(), RatedID: uuid.New(), Rating: 5}
	require.NoError(t, validate.Struct(base))

	for _, score := range []float64{0, 0.5, 5.5} {
		r := base
		r.Rating = score
		assert.Error(t, validate.Struct(r), "rating %v", score)
	}

	missing := base
	missing.RatedID = uuid.Nil
	assert.Error(t, validate.Struct(missing))
}

func TestRoleAndStatusValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleEmployer.Valid())
	assert.True(t, RoleJobSeeker.Valid())
	assert.False(t, Role("guest").Valid())

	for _, s := range []ApplicationStatus{StatusPending, StatusAccepted, StatusRejected, StatusCompleted} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, ApplicationStatus("archived").Valid())

	assert.True(t, Caller{Role: RoleAdmin}.IsAdmin())
	assert.False(t, Caller{Role: RoleEmployer}.IsAdmin())
}

func TestLoginResponse_JSON(t *testing.T) {
	resp := LoginResponse{
		AccessToken: "tok",
		TokenType:   "bearer",
		User: &User{
			ID:        uuid.New(),
			Email:     "a@example.com",
			Name:      "A",
			Role:      RoleJobSeeker,
			Skills:    []string{},
			CreatedAt: time.Now(),
		},
	}

	b, err := json.Marshal(resp)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "tok", raw["access_token"])
	assert.Equal(t, "bearer", raw["token_type"])
	user := raw["user"].(map[string]any)
	assert.Equal(t, "job_seeker", user["role"])
	assert.NotContains(t, user, "password_hash")
}
