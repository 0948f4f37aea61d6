package model

import "time"

// PeriodType is the unit of a recurrence period. The legacy "once"
// period exists only in old files and is rejected at runtime.
type PeriodType string

const (
	PeriodDay   PeriodType = "DAY"
	PeriodWeek  PeriodType = "WEEK"
	PeriodMonth PeriodType = "MONTH"
	PeriodYear  PeriodType = "YEAR"
)

// WeekendAdjust shifts occurrences that land on a weekend.
type WeekendAdjust string

const (
	WeekendAdjustNone     WeekendAdjust = "none"
	WeekendAdjustBackward WeekendAdjust = "back"
	WeekendAdjustForward  WeekendAdjust = "forward"
)

// Recurrence describes a repeating schedule: every Multiplier periods
// starting at PeriodStart, optionally restricted to explicit weekdays.
type Recurrence struct {
	PeriodType    PeriodType
	Multiplier    int
	PeriodStart   time.Time
	WeekendAdjust WeekendAdjust
	Weekdays      []time.Weekday
}

// ActionType distinguishes what a scheduled action creates when due.
type ActionType string

const (
	ActionTransaction ActionType = "TRANSACTION"
	ActionBackup      ActionType = "BACKUP"
)

// ScheduledAction is a recurring action. For TRANSACTION actions,
// ActionUID references the template transaction to clone; for BACKUP it
// is an opaque generated id. TemplateAccountUID is the synthetic account
// that owns the template splits in the wire format.
type ScheduledAction struct {
	UID                string
	Name               string
	ActionType         ActionType
	ActionUID          string
	TemplateAccountUID string
	Enabled            bool
	AutoCreate         bool
	AutoNotify         bool
	AdvanceCreateDays  int
	AdvanceNotifyDays  int
	StartAt            time.Time
	LastRunAt          time.Time
	EndAt              time.Time
	TotalPlannedCount  int
	ExecutionCount     int
	Tag                string
	Recurrence         Recurrence
}
