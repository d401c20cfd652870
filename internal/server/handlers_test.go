package server

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobBody(title string) map[string]any {
	return map[string]any{
		"title":          title,
		"description":    "Evening shift",
		"company_name":   "Acme Cafe",
		"location":       "Riyadh",
		"duration_type":  "hours_8",
		"duration_value": "1",
		"salary":         250,
		"category":       "hospitality",
	}
}

func (ts *testServer) postJob(t *testing.T, employer account, title string) db.Job {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/jobs", employer.Token, jobBody(title))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[db.Job](t, w)
}

func TestAuthEndpoints(t *testing.T) {
	ts := newTestServer(t)
	seeker := ts.register(t, "sara@example.com", types.RoleJobSeeker)

	w := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Again", "email": "SARA@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "duplicate email")
	assert.Equal(t, "email already registered", detail(t, w))

	w = ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Root", "email": "root@example.com", "password": "password123", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "admins cannot self-register")

	w = ts.do(t, http.MethodPost, "/api/auth/register", "", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "sara@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	wrongPassword := detail(t, w)
	w = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "wrong-pass"})
	assert.Equal(t, wrongPassword, detail(t, w), "unknown email and wrong password look the same")

	w = ts.do(t, http.MethodGet, "/api/auth/me", seeker.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, "sara@example.com", me["email"])
	assert.Equal(t, "job_seeker", me["role"])
	assert.NotContains(t, me, "password_hash")

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/auth/me", "garbage", nil).Code)

	w = ts.do(t, http.MethodPut, "/api/auth/password", seeker.Token, map[string]string{
		"current_password": "wrong-pass", "new_password": "newpassword1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodPut, "/api/auth/password", seeker.Token, map[string]string{
		"current_password": "password123", "new_password": "newpassword1",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "sara@example.com", "password": "newpassword1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJobEndpoints(t *testing.T) {
	ts := newTestServer(t)
	employer := ts.register(t, "cafe@example.com", types.RoleEmployer)
	seeker := ts.register(t, "sara@example.com", types.RoleJobSeeker)

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/api/jobs", "", jobBody("Barista")).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPost, "/api/jobs", seeker.Token, jobBody("Barista")).Code)

	bad := jobBody("Barista")
	bad["duration_type"] = "fortnight"
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/jobs", employer.Token, bad).Code)

	job := ts.postJob(t, employer, "Barista")
	assert.Equal(t, employer.ID, job.EmployerID)
	assert.Equal(t, types.JobActive, job.Status)
	ts.postJob(t, employer, "Cashier")

	w := ts.do(t, http.MethodGet, "/api/jobs?search=barista", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]db.Job](t, w), 1)

	w = ts.do(t, http.MethodGet, "/api/jobs?category=all", "", nil)
	assert.Len(t, decode[[]db.Job](t, w), 2)

	w = ts.do(t, http.MethodGet, "/api/jobs?category=construction", "", nil)
	assert.Equal(t, "[]\n", w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/jobs/"+job.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[db.Job](t, w).Views)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/jobs/"+uuid.NewString(), "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/jobs/not-an-id", "", nil).Code)

	update := jobBody("Senior Barista")
	update["status"] = "closed"
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPut, "/api/jobs/"+job.ID.String(), seeker.Token, update).Code)
	w = ts.do(t, http.MethodPut, "/api/jobs/"+job.ID.String(), employer.Token, update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[db.Job](t, w)
	assert.Equal(t, "Senior Barista", updated.Title)
	assert.Equal(t, types.JobClosed, updated.Status)

	// Saved jobs
	path := "/api/saved-jobs/" + job.ID.String()
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, path, seeker.Token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, path, seeker.Token, nil).Code, "duplicate save")
	w = ts.do(t, http.MethodGet, "/api/saved-jobs", seeker.Token, nil)
	assert.Equal(t, []uuid.UUID{job.ID}, decode[[]uuid.UUID](t, w))
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, path, seeker.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, path, seeker.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/api/saved-jobs/"+uuid.NewString(), seeker.Token, nil).Code)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/api/jobs/"+job.ID.String(), employer.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/jobs/"+job.ID.String(), "", nil).Code)
}

func TestApplicationErrors(t *testing.T) {
	ts := newTestServer(t)
	employer := ts.register(t, "cafe@example.com", types.RoleEmployer)
	other := ts.register(t, "other@example.com", types.RoleEmployer)
	seeker := ts.register(t, "sara@example.com", types.RoleJobSeeker)
	job := ts.postJob(t, employer, "Barista")

	apply := map[string]any{"job_id": job.ID}
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPost, "/api/applications", employer.Token, apply).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/api/applications", seeker.Token, map[string]any{"job_id": uuid.New()}).Code)

	w := ts.do(t, http.MethodPost, "/api/applications", seeker.Token, apply)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	app := decode[db.Application](t, w)
	assert.Equal(t, types.StatusPending, app.Status)

	w = ts.do(t, http.MethodPost, "/api/applications", seeker.Token, apply)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already applied to this job", detail(t, w))

	path := "/api/applications/" + app.ID.String()
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPut, path, other.Token, map[string]string{"status": "accepted"}).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPut, path, seeker.Token, map[string]string{"status": "accepted"}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, path, employer.Token, map[string]string{"status": "hired"}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, path, employer.Token, map[string]string{}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, path, employer.Token, map[string]string{"status": "completed"}).Code,
		"pending cannot jump to completed")
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPut, "/api/applications/"+uuid.NewString(), employer.Token, map[string]string{"status": "accepted"}).Code)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/applications/job/"+job.ID.String(), other.Token, nil).Code)
	w = ts.do(t, http.MethodGet, "/api/applications/job/"+job.ID.String(), employer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]db.Application](t, w), 1)

	w = ts.do(t, http.MethodGet, "/api/applications", other.Token, nil)
	assert.Equal(t, "[]\n", w.Body.String())
}

// TestHireToChat walks the main flow: apply, accept, chat, complete, rate,
// invoice.
func TestHireToChat(t *testing.T) {
	ts := newTestServer(t)
	employer := ts.register(t, "cafe@example.com", types.RoleEmployer)
	seeker := ts.register(t, "sara@example.com", types.RoleJobSeeker)
	job := ts.postJob(t, employer, "Barista")

	w := ts.do(t, http.MethodPost, "/api/applications", seeker.Token, map[string]any{"job_id": job.ID, "message": "I have experience"})
	require.Equal(t, http.StatusOK, w.Code)
	app := decode[db.Application](t, w)

	// The employer hears about the application.
	w = ts.do(t, http.MethodGet, "/api/notifications", employer.Token, nil)
	notes := decode[[]db.Notification](t, w)
	require.Len(t, notes, 1)
	assert.Equal(t, "new_application", notes[0].Type)
	assert.Contains(t, notes[0].Message, "Barista")

	w = ts.do(t, http.MethodPut, "/api/applications/"+app.ID.String(), employer.Token, map[string]string{"status": "accepted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, types.StatusAccepted, decode[db.Application](t, w).Status)

	// The candidate sees exactly one conversation holding the welcome message.
	w = ts.do(t, http.MethodGet, "/api/conversations", seeker.Token, nil)
	convs := decode[[]db.Conversation](t, w)
	require.Len(t, convs, 1)
	conv := convs[0]
	assert.Equal(t, job.ID, conv.JobID)
	assert.Equal(t, seeker.ID, conv.CandidateID)
	assert.Equal(t, employer.ID, conv.EmployerID)

	msgsPath := "/api/conversations/" + conv.ID.String() + "/messages"
	w = ts.do(t, http.MethodGet, msgsPath, seeker.Token, nil)
	msgs := decode[[]db.Message](t, w)
	require.Len(t, msgs, 1)
	assert.Equal(t, uuid.Nil, msgs[0].SenderID)
	assert.Equal(t, "platform", msgs[0].SenderName)

	w = ts.do(t, http.MethodPost, msgsPath, employer.Token, map[string]string{"message_text": "See you at 6pm"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, msgsPath, employer.Token, map[string]string{"message_text": "  "}).Code)

	w = ts.do(t, http.MethodGet, msgsPath, seeker.Token, nil)
	msgs = decode[[]db.Message](t, w)
	require.Len(t, msgs, 2)
	assert.Equal(t, "See you at 6pm", msgs[1].MessageText)
	assert.Equal(t, employer.ID, msgs[1].SenderID)

	stranger := ts.register(t, "stranger@example.com", types.RoleJobSeeker)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, msgsPath, stranger.Token, nil).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPost, msgsPath, stranger.Token, map[string]string{"message_text": "hi"}).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/conversations/"+uuid.NewString()+"/messages", seeker.Token, nil).Code)

	// Re-accepting does not open a second conversation.
	ts.do(t, http.MethodPut, "/api/applications/"+app.ID.String(), employer.Token, map[string]string{"status": "accepted"})
	assert.Len(t, decode[[]db.Conversation](t, ts.do(t, http.MethodGet, "/api/conversations", employer.Token, nil)), 1)

	// Notifications for the candidate: unread count, mark one, mark all.
	w = ts.do(t, http.MethodGet, "/api/notifications/unread-count", seeker.Token, nil)
	assert.JSONEq(t, `{"count":2}`, w.Body.String())
	seekerNotes := decode[[]db.Notification](t, ts.do(t, http.MethodGet, "/api/notifications", seeker.Token, nil))
	require.Len(t, seekerNotes, 2)
	assert.Equal(t, "application_update", seekerNotes[0].Type)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/api/notifications/"+seekerNotes[0].ID.String()+"/read", seeker.Token, nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/api/notifications/"+uuid.NewString()+"/read", seeker.Token, nil).Code,
		"unknown notification is a silent no-op")
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/api/notifications/"+notes[0].ID.String()+"/read", seeker.Token, nil).Code,
		"foreign notification is a silent no-op")
	w = ts.do(t, http.MethodGet, "/api/notifications/unread-count", employer.Token, nil)
	assert.JSONEq(t, `{"count":1}`, w.Body.String(), "employer notification untouched")

	w = ts.do(t, http.MethodPut, "/api/notifications/read-all", seeker.Token, nil)
	assert.JSONEq(t, `{"updated":1}`, w.Body.String())

	// Ratings need a completed job.
	rate := map[string]any{"job_id": job.ID, "rated_id": employer.ID, "rating": 5, "comment": "Great place"}
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/ratings", seeker.Token, rate).Code)

	w = ts.do(t, http.MethodPut, "/api/applications/"+app.ID.String(), employer.Token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/ratings", seeker.Token, rate)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/ratings", seeker.Token, rate).Code, "duplicate rating")

	w = ts.do(t, http.MethodGet, "/api/ratings/user/"+employer.ID.String(), "", nil)
	ratings := decode[[]db.Rating](t, w)
	require.Len(t, ratings, 1)
	assert.Equal(t, 5.0, ratings[0].Rating)

	me := decode[types.User](t, ts.do(t, http.MethodGet, "/api/auth/me", employer.Token, nil))
	assert.Equal(t, 5.0, me.Rating)
	assert.Equal(t, 1, me.TotalRatings)

	// Invoice
	w = ts.do(t, http.MethodGet, "/api/reports/invoice/"+app.ID.String(), seeker.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=invoice_"+app.ID.String()+".pdf", w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/reports/invoice/"+app.ID.String(), stranger.Token, nil).Code)

	// Stats
	w = ts.do(t, http.MethodGet, "/api/reports/stats", seeker.Token, nil)
	assert.JSONEq(t, `{"total_applications":1,"pending_applications":0,"accepted_applications":0,"completed_jobs":1,"total_earnings":250}`, w.Body.String())

	assert.Equal(t, []string{
		"application.submitted",
		"conversation.opened",
		"message.sent",
		"application.status_changed",
		"message.sent",
		"application.status_changed",
		"application.status_changed",
		"rating.created",
	}, ts.events.Topics())
}

func TestAdminEndpoints(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.admin(t)
	employer := ts.register(t, "cafe@example.com", types.RoleEmployer)
	seeker := ts.register(t, "sara@example.com", types.RoleJobSeeker)
	ts.postJob(t, employer, "Barista")

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/admin/stats", employer.Token, nil).Code)
	w := ts.do(t, http.MethodGet, "/api/admin/stats", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[types.AdminStats](t, w)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 1, stats.ActiveJobs)

	w = ts.do(t, http.MethodGet, "/api/reports/stats", admin.Token, nil)
	assert.JSONEq(t, `{}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/admin/users", seeker.Token, nil).Code)
	w = ts.do(t, http.MethodGet, "/api/admin/users", admin.Token, nil)
	assert.Len(t, decode[[]types.User](t, w), 3)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodDelete, "/api/admin/users/"+seeker.ID.String(), employer.Token, nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/api/admin/users/"+seeker.ID.String(), admin.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/api/admin/users/"+seeker.ID.String(), admin.Token, nil).Code)

	// The deleted user's token no longer authenticates.
	w = ts.do(t, http.MethodGet, "/api/auth/me", seeker.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
