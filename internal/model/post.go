package model

// DefaultReminderMinutes is the lead time used when a caller does not
// specify one. Legacy rows are upgraded to this value as well.
const DefaultReminderMinutes = 60

// ScheduledPost is a drafted post queued for future publication.
//
// ScheduleTime is kept as the stored ISO-8601 string (normalized to the
// application's fixed zone) rather than a time.Time. Legacy rows may hold
// strings that do not parse; keeping the raw text lets listings and
// reminder rendering degrade gracefully instead of failing the whole read.
type ScheduledPost struct {
	ID              int64  `json:"id"              db:"id"`
	UserEmail       string `json:"userEmail"       db:"user_email"`
	Platform        string `json:"platform"        db:"platform"`
	Content         string `json:"content"         db:"content"`
	ScheduleTime    string `json:"scheduleTime"    db:"schedule_time"`
	ReminderMinutes int    `json:"reminderMinutes" db:"reminder_minutes"`
	ReminderSent    bool   `json:"reminderSent"    db:"reminder_sent"`
}

// DueReminder is one row produced by the due-reminder selector. It carries
// everything needed to render a notification body.
type DueReminder struct {
	PostID          int64
	UserEmail       string
	Platform        string
	Content         string
	ScheduleTime    string
	ReminderMinutes int
}
