package dto

import "time"

type PreferencesRequest struct {
	LockTimeDays     int  `json:"lock_time_days"`
	LockTimeEditable bool `json:"lock_time_editable"`
	MailReminderDays int  `json:"mail_reminder_days"`
	MailOnUnlock     int  `json:"mail_on_unlock"`
	MailNewsletter   bool `json:"mail_newsletter"`
}

type PreferencesResponse struct {
	LockTimeDays        int        `json:"lock_time_days"`
	LockTimeEditable    bool       `json:"lock_time_editable"`
	MailReminderDays    int        `json:"mail_reminder_days"`
	MailOnUnlock        int        `json:"mail_on_unlock"`
	MailNewsletter      bool       `json:"mail_newsletter"`
	PreferredLanguage   string     `json:"preferred_language"`
	LastMemoryWrittenAt *time.Time `json:"last_memory_written_at"`
}
