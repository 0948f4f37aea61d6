package schedule

import (
	"time"

	"github.com/bookport-dev/bookport/internal/guid"
	"github.com/bookport-dev/bookport/internal/model"
)

// CatchUp materializes the transaction instances that action should have
// created between its last run and now, cloning template for each one.
// It mutates action's ExecutionCount and LastRunAt.
//
// LastRunAt ends up one period past the final generated instance, i.e.
// the next time the schedule becomes due. That timestamp may exceed now;
// later catch-up runs depend on this exact semantic.
func CatchUp(action *model.ScheduledAction, template *model.Transaction, now time.Time) []model.Transaction {
	if !action.Enabled || !action.AutoCreate || action.ActionType != model.ActionTransaction {
		return nil
	}
	if !action.EndAt.IsZero() && action.EndAt.Before(now) {
		return nil
	}
	if countExhausted(action) {
		return nil
	}
	if template == nil {
		return nil
	}

	t := action.StartAt
	if action.LastRunAt.After(t) {
		t = action.LastRunAt
	}

	var generated []model.Transaction
	for {
		t = Step(action.Recurrence, t)
		if t.After(now) || countExhausted(action) {
			break
		}
		generated = append(generated, cloneTemplate(template, action.UID, t, now))
		action.ExecutionCount++
	}
	// An import with nothing due must not drift the schedule forward.
	if len(generated) > 0 {
		action.LastRunAt = t
	}
	return generated
}

func countExhausted(action *model.ScheduledAction) bool {
	return action.TotalPlannedCount > 0 && action.ExecutionCount >= action.TotalPlannedCount
}

// cloneTemplate copies a template transaction into a postable instance:
// fresh GUIDs, posting time stamped to the occurrence, and a
// back-reference to the originating schedule.
func cloneTemplate(template *model.Transaction, actionUID string, postedAt, createdAt time.Time) model.Transaction {
	txn := model.Transaction{
		UID:                guid.New(),
		Description:        template.Description,
		Notes:              template.Notes,
		PostedAt:           postedAt,
		CreatedAt:          createdAt,
		CommodityUID:       template.CommodityUID,
		CommodityNamespace: template.CommodityNamespace,
		CommodityCode:      template.CommodityCode,
		ScheduledActionUID: actionUID,
	}
	txn.Splits = make([]model.Split, len(template.Splits))
	for i, s := range template.Splits {
		s.UID = guid.New()
		s.TransactionUID = txn.UID
		s.ReconcileState = model.ReconcileNo
		txn.Splits[i] = s
	}
	return txn
}
