package types

// AdminStats is the platform-wide summary shown to admins.
type AdminStats struct {
	TotalUsers          int `json:"total_users"`
	TotalJobs           int `json:"total_jobs"`
	ActiveJobs          int `json:"active_jobs"`
	TotalApplications   int `json:"total_applications"`
	PendingApplications int `json:"pending_applications"`
	Employers           int `json:"employers"`
	JobSeekers          int `json:"job_seekers"`
}

// EmployerStats summarizes an employer's postings and the applications they received.
type EmployerStats struct {
	TotalJobs            int `json:"total_jobs"`
	ActiveJobs           int `json:"active_jobs"`
	TotalApplications    int `json:"total_applications"`
	PendingApplications  int `json:"pending_applications"`
	AcceptedApplications int `json:"accepted_applications"`
}

// JobSeekerStats summarizes a job seeker's applications and earnings.
type JobSeekerStats struct {
	TotalApplications    int     `json:"total_applications"`
	PendingApplications  int     `json:"pending_applications"`
	AcceptedApplications int     `json:"accepted_applications"`
	CompletedJobs        int     `json:"completed_jobs"`
	TotalEarnings        float64 `json:"total_earnings"`
}

// SeedSummary reports what a fixture import created.
type SeedSummary struct {
	UsersCreated int      `json:"users_created"`
	UsersSkipped int      `json:"users_skipped"`
	JobsCreated  int      `json:"jobs_created"`
	Warnings     []string `json:"warnings,omitempty"`
}
