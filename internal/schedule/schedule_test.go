package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookport-dev/bookport/internal/model"
	"github.com/bookport-dev/bookport/internal/numeric"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodTypeFromTag(t *testing.T) {
	tests := []struct {
		tag  string
		want model.PeriodType
		ok   bool
	}{
		{"day", model.PeriodDay, true},
		{"week", model.PeriodWeek, true},
		{"month", model.PeriodMonth, true},
		{"monthly", model.PeriodMonth, true}, // legacy inline spelling
		{"end of month", model.PeriodMonth, true},
		{"year", model.PeriodYear, true},
		{"once", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := PeriodTypeFromTag(tt.tag)
		assert.Equal(t, tt.ok, ok, "tag %q", tt.tag)
		assert.Equal(t, tt.want, got, "tag %q", tt.tag)
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		name string
		rec  model.Recurrence
		from time.Time
		want time.Time
	}{
		{
			name: "one month clamps to month end",
			rec:  model.Recurrence{PeriodType: model.PeriodMonth, Multiplier: 1},
			from: date(2024, time.January, 31),
			want: date(2024, time.February, 29),
		},
		{
			name: "one month short target month",
			rec:  model.Recurrence{PeriodType: model.PeriodMonth, Multiplier: 1},
			from: date(2023, time.January, 31),
			want: date(2023, time.February, 28),
		},
		{
			name: "one month plain day",
			rec:  model.Recurrence{PeriodType: model.PeriodMonth, Multiplier: 1},
			from: date(2024, time.January, 15),
			want: date(2024, time.February, 15),
		},
		{
			name: "one year clamps leap day",
			rec:  model.Recurrence{PeriodType: model.PeriodYear, Multiplier: 1},
			from: date(2024, time.February, 29),
			want: date(2025, time.February, 28),
		},
		{
			name: "two weeks",
			rec:  model.Recurrence{PeriodType: model.PeriodWeek, Multiplier: 2},
			from: date(2024, time.January, 1),
			want: date(2024, time.January, 15),
		},
		{
			name: "weekend pushed forward",
			rec:  model.Recurrence{PeriodType: model.PeriodDay, Multiplier: 5, WeekendAdjust: model.WeekendAdjustForward},
			from: date(2024, time.January, 1), // Monday; +5 lands on Saturday
			want: date(2024, time.January, 8),
		},
		{
			name: "weekend pulled back",
			rec:  model.Recurrence{PeriodType: model.PeriodDay, Multiplier: 5, WeekendAdjust: model.WeekendAdjustBackward},
			from: date(2024, time.January, 1),
			want: date(2024, time.January, 5),
		},
		{
			name: "explicit weekday set",
			rec: model.Recurrence{PeriodType: model.PeriodWeek, Multiplier: 1,
				Weekdays: []time.Weekday{time.Wednesday}},
			from: date(2024, time.January, 1), // Monday
			want: date(2024, time.January, 10),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Step(tt.rec, tt.from))
		})
	}
}

func TestSortWeekdays(t *testing.T) {
	got := SortWeekdays([]time.Weekday{time.Wednesday, time.Monday, time.Wednesday})
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, got)
	assert.Nil(t, SortWeekdays(nil))
}

func monthlyAction(start time.Time) *model.ScheduledAction {
	return &model.ScheduledAction{
		UID:        "sx1",
		ActionType: model.ActionTransaction,
		ActionUID:  "tmpl1",
		Enabled:    true,
		AutoCreate: true,
		StartAt:    start,
		LastRunAt:  start,
		Recurrence: model.Recurrence{PeriodType: model.PeriodMonth, Multiplier: 1, PeriodStart: start},
	}
}

func rentTemplate() *model.Transaction {
	return &model.Transaction{
		UID:           "tmpl1",
		Description:   "Rent",
		CommodityCode: "USD",
		Template:      true,
		Splits: []model.Split{
			{AccountUID: "checking", Value: numeric.New(-90000, 100), Quantity: numeric.New(-90000, 100), Type: model.SplitTypeCredit},
			{AccountUID: "rent", Value: numeric.New(90000, 100), Quantity: numeric.New(90000, 100), Type: model.SplitTypeDebit},
		},
	}
}

func TestCatchUpGeneratesMissedInstances(t *testing.T) {
	start := date(2024, time.January, 1)
	action := monthlyAction(start)
	now := start.AddDate(0, 3, 15) // T + 3.5 months

	generated := CatchUp(action, rentTemplate(), now)
	require.Len(t, generated, 3)

	assert.Equal(t, date(2024, time.February, 1), generated[0].PostedAt)
	assert.Equal(t, date(2024, time.March, 1), generated[1].PostedAt)
	assert.Equal(t, date(2024, time.April, 1), generated[2].PostedAt)

	// lastRun moves one period past the final instance, beyond "now".
	assert.Equal(t, date(2024, time.May, 1), action.LastRunAt)
	assert.Equal(t, 3, action.ExecutionCount)

	for _, txn := range generated {
		assert.Equal(t, "sx1", txn.ScheduledActionUID)
		assert.False(t, txn.Template)
		assert.NotEqual(t, "tmpl1", txn.UID)
		require.Len(t, txn.Splits, 2)
		assert.Equal(t, txn.UID, txn.Splits[0].TransactionUID)
		assert.NotEqual(t, rentTemplate().Splits[0].UID, txn.Splits[0].UID)
	}
}

func TestCatchUpSkips(t *testing.T) {
	start := date(2024, time.January, 1)
	now := start.AddDate(0, 6, 0)

	disabled := monthlyAction(start)
	disabled.Enabled = false
	assert.Nil(t, CatchUp(disabled, rentTemplate(), now))

	manual := monthlyAction(start)
	manual.AutoCreate = false
	assert.Nil(t, CatchUp(manual, rentTemplate(), now))

	backup := monthlyAction(start)
	backup.ActionType = model.ActionBackup
	assert.Nil(t, CatchUp(backup, rentTemplate(), now))

	ended := monthlyAction(start)
	ended.EndAt = start.AddDate(0, 1, 0)
	assert.Nil(t, CatchUp(ended, rentTemplate(), now))

	exhausted := monthlyAction(start)
	exhausted.TotalPlannedCount = 2
	exhausted.ExecutionCount = 2
	assert.Nil(t, CatchUp(exhausted, rentTemplate(), now))
}

func TestCatchUpHonorsPlannedCount(t *testing.T) {
	start := date(2024, time.January, 1)
	action := monthlyAction(start)
	action.TotalPlannedCount = 2
	now := start.AddDate(0, 6, 0)

	generated := CatchUp(action, rentTemplate(), now)
	assert.Len(t, generated, 2)
	assert.Equal(t, 2, action.ExecutionCount)
}

func TestCatchUpResumesFromLastRun(t *testing.T) {
	start := date(2024, time.January, 1)
	action := monthlyAction(start)
	action.LastRunAt = date(2024, time.March, 1)
	now := date(2024, time.April, 15)

	generated := CatchUp(action, rentTemplate(), now)
	require.Len(t, generated, 1)
	assert.Equal(t, date(2024, time.April, 1), generated[0].PostedAt)
	assert.Equal(t, date(2024, time.May, 1), action.LastRunAt)
}

func TestCatchUpNothingDueKeepsLastRun(t *testing.T) {
	start := date(2024, time.January, 1)
	action := monthlyAction(start)
	action.LastRunAt = date(2024, time.May, 1)
	now := date(2024, time.May, 15)

	assert.Empty(t, CatchUp(action, rentTemplate(), now))
	assert.Equal(t, date(2024, time.May, 1), action.LastRunAt)
}
