package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/types"
)

// User represents an account
type User struct {
	ID           uuid.UUID   `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Phone        string      `json:"phone,omitempty"`
	Role         types.Role  `json:"role"`
	CompanyName  string      `json:"company_name,omitempty"`
	Skills       StringArray `json:"skills"`
	ProfilePic   string      `json:"profile_pic,omitempty"`
	Rating       float64     `json:"rating"`
	TotalRatings int         `json:"total_ratings"`
	PasswordHash string      `json:"-" db:"password_hash"` // Never serialize to JSON
	PasswordSet  bool        `json:"password_set" db:"password_set"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Public returns the API view of the user, without credentials.
func (u *User) Public() *types.User {
	if u == nil {
		return nil
	}
	skills := []string(u.Skills)
	if skills == nil {
		skills = []string{}
	}
	return &types.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		Role:         u.Role,
		CompanyName:  u.CompanyName,
		Skills:       skills,
		ProfilePic:   u.ProfilePic,
		Rating:       u.Rating,
		TotalRatings: u.TotalRatings,
		CreatedAt:    u.CreatedAt,
	}
}

// Caller returns the caller identity for the user.
func (u *User) Caller() types.Caller {
	return types.Caller{ID: u.ID, Role: u.Role, Name: u.Name}
}

// Date is a custom type for handling SQL DATE (YYYY-MM-DD)
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields nil.
func ParseDate(s string) (*Date, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &Date{Time: t}, nil
}

// Scan implements the Scanner interface
func (d *Date) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return errors.New("failed to scan Date")
	}
	d.Time = t
	return nil
}

// Value implements the Valuer interface
func (d *Date) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return d.Time, nil
}

// MarshalJSON implements json.Marshaler
func (d *Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	str := string(data)
	if str == "null" || str == `""` {
		return nil
	}
	// Trim quotes
	if len(str) > 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	var err error
	d.Time, err = time.Parse("2006-01-02", str)
	return err
}

// StringArray handles JSONB string arrays
type StringArray []string

// Scan implements the Scanner interface for StringArray
func (a *StringArray) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = []string{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("type assertion .([]byte) failed")
	}
}

// Value implements the Valuer interface for StringArray
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}
