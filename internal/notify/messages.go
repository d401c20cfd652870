package notify

import (
	"fmt"

	"github.com/jonathan/jobni/internal/types"
)

// Notification type tags.
const (
	TypeNewApplication    = "new_application"
	TypeApplicationUpdate = "application_update"
)

// Supported locales.
const (
	LocaleArabic  = "ar"
	LocaleEnglish = "en"
)

type catalog struct {
	newApplication string // applicant name, job title
	statusUpdate   string // job title, status word
	welcome        string // job title
	statuses       map[types.ApplicationStatus]string
}

var catalogs = map[string]catalog{
	LocaleArabic: {
		newApplication: "تقدم %s على وظيفة %s",
		statusUpdate:   "طلبك على وظيفة %s %s",
		welcome:        "مرحباً بكم! تم قبول الطلب على وظيفة %s. يمكنكم التواصل هنا لترتيب تفاصيل العمل.",
		statuses: map[types.ApplicationStatus]string{
			types.StatusPending:   "قيد المراجعة",
			types.StatusAccepted:  "قُبل",
			types.StatusRejected:  "رُفض",
			types.StatusCompleted: "اكتمل",
		},
	},
	LocaleEnglish: {
		newApplication: "%s applied to your job %s",
		statusUpdate:   "Your application for %s was %s",
		welcome:        "Welcome! The application for %s has been accepted. Use this conversation to arrange the details of the work.",
		statuses: map[types.ApplicationStatus]string{
			types.StatusPending:   "put back to pending",
			types.StatusAccepted:  "accepted",
			types.StatusRejected:  "rejected",
			types.StatusCompleted: "completed",
		},
	},
}

// Messages renders user-facing notification and chat texts in one locale.
type Messages struct {
	c catalog
}

// NewMessages returns the message catalog for locale. Unknown locales fall
// back to Arabic.
func NewMessages(locale string) *Messages {
	c, ok := catalogs[locale]
	if !ok {
		c = catalogs[LocaleArabic]
	}
	return &Messages{c: c}
}

// NewApplication is the text sent to an employer when someone applies.
func (m *Messages) NewApplication(applicantName, jobTitle string) string {
	return fmt.Sprintf(m.c.newApplication, applicantName, jobTitle)
}

// StatusUpdate is the text sent to an applicant when their application
// changes status.
func (m *Messages) StatusUpdate(jobTitle string, status types.ApplicationStatus) string {
	word, ok := m.c.statuses[status]
	if !ok {
		word = string(status)
	}
	return fmt.Sprintf(m.c.statusUpdate, jobTitle, word)
}

// Welcome is the system message that opens a conversation.
func (m *Messages) Welcome(jobTitle string) string {
	return fmt.Sprintf(m.c.welcome, jobTitle)
}
