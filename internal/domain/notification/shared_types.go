package notification

// RunType identifies which periodic job produced a run.
type RunType string

const (
	RunTypeDailyDigest   RunType = "DAILY_DIGEST"
	RunTypeWeeklySummary RunType = "WEEKLY_SUMMARY"
)

// TemplateID names the message layout a sender renders.
type TemplateID string

const (
	TemplateWelcome       TemplateID = "welcome"
	TemplateDailyDigest   TemplateID = "daily_digest"
	TemplateWeeklySummary TemplateID = "weekly_summary"
)

// DeliveryStatus is the outcome of one send attempt within a run.
type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "SENT"
	DeliveryFailed  DeliveryStatus = "FAILED"
	DeliverySkipped DeliveryStatus = "SKIPPED"
)
