package types

// SeedFile is the fixture document imported by the seed command. Its shape
// is fixed by schemas/seed.schema.json.
type SeedFile struct {
	Users []SeedUser `json:"users"`
	Jobs  []SeedJob  `json:"jobs,omitempty"`
}

// SeedUser is an account to create.
type SeedUser struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Name        string   `json:"name"`
	Role        Role     `json:"role"`
	Phone       string   `json:"phone,omitempty"`
	CompanyName string   `json:"company_name,omitempty"`
	Skills      []string `json:"skills,omitempty"`
}

// SeedJob is a posting owned by the employer registered under EmployerEmail.
type SeedJob struct {
	EmployerEmail string `json:"employer_email"`
	JobRequest
}
