package gncxml

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bookport-dev/bookport/internal/guid"
	"github.com/bookport-dev/bookport/internal/model"
	"github.com/bookport-dev/bookport/internal/numeric"
	"github.com/bookport-dev/bookport/internal/schedule"
)

// Slot keys recognized in their respective contexts.
const (
	slotPlaceholder     = "placeholder"
	slotColor           = "color"
	slotFavorite        = "favorite"
	slotHidden          = "hidden"
	slotNotes           = "notes"
	slotDefaultTransfer = "default_transfer_account"
	slotFromSchedAction = "from_sched_action"
	slotSchedXaction    = "sched-xaction"
	slotSchedAccount    = "account"
	slotCreditNumeric   = "credit-numeric"
	slotDebitNumeric    = "debit-numeric"
)

func childText(d *xml.Decoder, element string) (string, error) {
	text, err := textOf(d)
	if err != nil {
		return "", &FormatError{Element: element, Reason: "unreadable element", Err: err}
	}
	return text, nil
}

func childInt(d *xml.Decoder, element string) (int, error) {
	text, err := childText(d, element)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, &FormatError{Element: element, Reason: "bad integer " + quoted(text), Err: err}
	}
	return n, nil
}

func childAmount(d *xml.Decoder, element string) (numeric.Numeric, error) {
	text, err := childText(d, element)
	if err != nil {
		return numeric.Numeric{}, err
	}
	n, err := numeric.Parse(text)
	if err != nil {
		return numeric.Numeric{}, fmt.Errorf("element %s: %w", element, err)
	}
	return n, nil
}

func yesNo(s string) bool { return s == "y" }

func (im *Importer) parseCommodity(d *xml.Decoder, s *session) error {
	c := model.Commodity{UID: guid.New(), SmallestFraction: 100}
	for {
		tok, err := d.Token()
		if err != nil {
			return &FormatError{Element: "gnc:commodity", Reason: "unterminated element", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			q := qname(t.Name)
			switch q {
			case "cmdty:space":
				if c.Namespace, err = childText(d, q); err != nil {
					return err
				}
			case "cmdty:id":
				if c.Code, err = childText(d, q); err != nil {
					return err
				}
			case "cmdty:name":
				if c.FullName, err = childText(d, q); err != nil {
					return err
				}
			case "cmdty:fraction":
				n, err := childInt(d, q)
				if err != nil {
					return err
				}
				c.SmallestFraction = int64(n)
			case "cmdty:xcode":
				if c.CUSIP, err = childText(d, q); err != nil {
					return err
				}
			case "cmdty:quote_source":
				if c.QuoteSource, err = childText(d, q); err != nil {
					return err
				}
			case "cmdty:quote_tz":
				if c.QuoteTZ, err = childText(d, q); err != nil {
					return err
				}
			case "cmdty:get_quotes":
				c.QuoteFlag = true
				if _, err := textOf(d); err != nil {
					return &FormatError{Element: q, Reason: "unreadable element", Err: err}
				}
			default:
				if err := d.Skip(); err != nil {
					return &FormatError{Element: q, Reason: "skipping element", Err: err}
				}
			}
		case xml.EndElement:
			if qname(t.Name) == "gnc:commodity" {
				if c.Code == "" {
					return &FormatError{Element: "gnc:commodity", Reason: "missing cmdty:id"}
				}
				s.registry.Add(c)
				return nil
			}
		}
	}
}

// parseCommodityRef reads an inline (namespace, code) reference such as
// act:commodity or trn:currency.
func parseCommodityRef(d *xml.Decoder, container string) (namespace, code string, err error) {
	for {
		tok, err := d.Token()
		if err != nil {
			return "", "", &FormatError{Element: container, Reason: "unterminated element", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			q := qname(t.Name)
			switch q {
			case "cmdty:space":
				if namespace, err = childText(d, q); err != nil {
					return "", "", err
				}
			case "cmdty:id":
				if code, err = childText(d, q); err != nil {
					return "", "", err
				}
			default:
				if err := d.Skip(); err != nil {
					return "", "", &FormatError{Element: q, Reason: "skipping element", Err: err}
				}
			}
		case xml.EndElement:
			if qname(t.Name) == container {
				return namespace, code, nil
			}
		}
	}
}

func (im *Importer) parseAccount(d *xml.Decoder, s *session, template bool) error {
	a := &model.Account{}
	var cmdtyNS, cmdtyCode string
	sawCommodity := false

	for {
		tok, err := d.Token()
		if err != nil {
			return &FormatError{Element: "gnc:account", Reason: "unterminated element", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			q := qname(t.Name)
			switch q {
			case "act:name":
				if a.Name, err = childText(d, q); err != nil {
					return err
				}
			case "act:id":
				if a.UID, err = childText(d, q); err != nil {
					return err
				}
			case "act:type":
				text, err := childText(d, q)
				if err != nil {
					return err
				}
				if !model.ValidAccountType(text) {
					return &FormatError{Element: q, Reason: "unknown account type " + quoted(text)}
				}
				a.Type = model.AccountType(text)
			case "act:commodity":
				if cmdtyNS, cmdtyCode, err = parseCommodityRef(d, q); err != nil {
					return err
				}
				sawCommodity = true
			case "act:description":
				if a.Description, err = childText(d, q); err != nil {
					return err
				}
			case "act:parent":
				if a.ParentUID, err = childText(d, q); err != nil {
					return err
				}
			case "act:slots":
				err := parseSlots(d, q, func(path []string, typ, value string) error {
					if len(path) == 0 {
						return nil
					}
					switch path[0] {
					case slotPlaceholder:
						a.Placeholder = value == "true"
					case slotColor:
						a.Color = value
					case slotFavorite:
						a.Favorite = value == "true"
					case slotHidden:
						a.Hidden = value == "true"
					case slotNotes:
						a.Notes = value
					case slotDefaultTransfer:
						a.DefaultTransferUID = value
					}
					return nil
				})
				if err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return &FormatError{Element: q, Reason: "skipping element", Err: err}
				}
			}
		case xml.EndElement:
			if qname(t.Name) != "gnc:account" {
				continue
			}
			if a.UID == "" {
				return &FormatError{Element: "gnc:account", Reason: "missing act:id"}
			}
			if template || cmdtyNS == model.TemplateNamespace {
				a.Template = true
				s.templateAccounts[a.UID] = a
				return nil
			}
			if !sawCommodity {
				if a.IsRoot() {
					s.addAccount(a)
					return nil
				}
				return &FormatError{Element: "gnc:account", Reason: "account " + a.UID + " has no commodity"}
			}
			c, ok := s.registry.Lookup(cmdtyNS, cmdtyCode)
			if !ok {
				return &UnresolvedRefError{Kind: "commodity", Ref: cmdtyNS + ":" + cmdtyCode, Element: "act:commodity"}
			}
			a.CommodityUID = c.UID
			a.CommodityNamespace = c.Namespace
			a.CommodityCode = c.Code
			s.addAccount(a)
			return nil
		}
	}
}

func (im *Importer) parseTransaction(d *xml.Decoder, s *session, template bool) error {
	txn := &model.Transaction{Template: template}
	var legacyPeriodMS int64

	for {
		tok, err := d.Token()
		if err != nil {
			return &FormatError{Element: "gnc:transaction", Reason: "unterminated element", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			q := qname(t.Name)
			switch q {
			case "trn:id":
				if txn.UID, err = childText(d, q); err != nil {
					return err
				}
			case "trn:currency":
				ns, code, err := parseCommodityRef(d, q)
				if err != nil {
					return err
				}
				txn.CommodityNamespace = ns
				txn.CommodityCode = code
				if c, ok := s.registry.Lookup(ns, code); ok {
					txn.CommodityUID = c.UID
					txn.CommodityNamespace = c.Namespace
				}
			case "trn:date-posted":
				text, err := childText(d, q)
				if err != nil {
					return err
				}
				if txn.PostedAt, err = parseTimestamp(q, text); err != nil {
					return err
				}
			case "trn:date-entered":
				text, err := childText(d, q)
				if err != nil {
					return err
				}
				if txn.CreatedAt, err = parseTimestamp(q, text); err != nil {
					return err
				}
			case "trn:description":
				if txn.Description, err = childText(d, q); err != nil {
					return err
				}
			case "trn:recurrence_period":
				// Legacy inline recurrence written by old exporters.
				text, err := childText(d, q)
				if err != nil {
					return err
				}
				if legacyPeriodMS, err = strconv.ParseInt(text, 10, 64); err != nil {
					return &FormatError{Element: q, Reason: "bad period " + quoted(text), Err: err}
				}
			case "trn:slots":
				err := parseSlots(d, q, func(path []string, typ, value string) error {
					if len(path) == 0 {
						return nil
					}
					switch path[0] {
					case slotNotes:
						txn.Notes = value
					case slotFromSchedAction:
						txn.ScheduledActionUID = value
					}
					return nil
				})
				if err != nil {
					return err
				}
			case "trn:splits":
				// Split elements handled one level down.
			case "trn:split":
				if err := im.parseSplit(d, s, txn); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return &FormatError{Element: q, Reason: "skipping element", Err: err}
				}
			}
		case xml.EndElement:
			if qname(t.Name) != "gnc:transaction" {
				continue
			}
			if txn.UID == "" {
				return &FormatError{Element: "gnc:transaction", Reason: "missing trn:id"}
			}
			if legacyPeriodMS > 0 && !txn.Template {
				txn.Template = true
				s.actions = append(s.actions, legacyAction(txn, legacyPeriodMS))
			}
			if txn.Template {
				s.templateTxns = append(s.templateTxns, txn)
			} else {
				s.transactions = append(s.transactions, txn)
			}
			return nil
		}
	}
}

// templateSplitInfo accumulates the sched-xaction frame slots of one
// template split. Duplicate numeric slots are a known exporter quirk;
// the first occurrence wins.
type templateSplitInfo struct {
	accountUID string
	credit     numeric.Numeric
	debit      numeric.Numeric
	creditSeen bool
	debitSeen  bool
}

func (im *Importer) parseSplit(d *xml.Decoder, s *session, txn *model.Transaction) error {
	sp := model.Split{TransactionUID: txn.UID, ReconcileState: model.ReconcileNo}
	var tmpl templateSplitInfo

	for {
		tok, err := d.Token()
		if err != nil {
			return &FormatError{Element: "trn:split", Reason: "unterminated element", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			q := qname(t.Name)
			switch q {
			case "split:id":
				if sp.UID, err = childText(d, q); err != nil {
					return err
				}
			case "split:memo":
				if sp.Memo, err = childText(d, q); err != nil {
					return err
				}
			case "split:action":
				if sp.Action, err = childText(d, q); err != nil {
					return err
				}
			case "split:reconciled-state":
				if sp.ReconcileState, err = childText(d, q); err != nil {
					return err
				}
			case "split:reconcile-date":
				text, err := childText(d, q)
				if err != nil {
					return err
				}
				if sp.ReconcileDate, err = parseTimestamp(q, text); err != nil {
					return err
				}
			case "split:value":
				if sp.Value, err = childAmount(d, q); err != nil {
					return err
				}
			case "split:quantity":
				if sp.Quantity, err = childAmount(d, q); err != nil {
					return err
				}
			case "split:account":
				if sp.AccountUID, err = childText(d, q); err != nil {
					return err
				}
			case "split:slots":
				err := parseSlots(d, q, func(path []string, typ, value string) error {
					if len(path) < 2 || path[0] != slotSchedXaction {
						return nil
					}
					switch path[1] {
					case slotSchedAccount:
						tmpl.accountUID = value
					case slotCreditNumeric:
						if tmpl.creditSeen {
							return nil
						}
						n, err := numeric.Parse(value)
						if err != nil {
							return fmt.Errorf("slot %s: %w", slotCreditNumeric, err)
						}
						tmpl.credit = n
						tmpl.creditSeen = true
					case slotDebitNumeric:
						if tmpl.debitSeen {
							return nil
						}
						n, err := numeric.Parse(value)
						if err != nil {
							return fmt.Errorf("slot %s: %w", slotDebitNumeric, err)
						}
						tmpl.debit = n
						tmpl.debitSeen = true
					}
					return nil
				})
				if err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return &FormatError{Element: q, Reason: "skipping element", Err: err}
				}
			}
		case xml.EndElement:
			if qname(t.Name) != "trn:split" {
				continue
			}
			if sp.UID == "" {
				sp.UID = guid.New()
			}

			// The value's sign is authoritative; the quantity's own
			// sign is overridden to match (legacy convention).
			quantity := sp.Quantity.Abs()
			if sp.Value.Sign() < 0 {
				quantity = quantity.Neg()
				sp.Type = model.SplitTypeCredit
			} else {
				sp.Type = model.SplitTypeDebit
			}
			sp.Quantity = quantity

			if txn.Template {
				if sp.AccountUID != "" {
					s.txnByTemplateAcct[sp.AccountUID] = txn.UID
				}
				applyTemplateAmounts(&sp, tmpl)
			}
			txn.Splits = append(txn.Splits, sp)
			return nil
		}
	}
}

// applyTemplateAmounts fills a template split from its numeric slots:
// the stored split:value of a template split is always zero, the real
// amount rides in the sched-xaction frame.
func applyTemplateAmounts(sp *model.Split, tmpl templateSplitInfo) {
	if tmpl.accountUID != "" {
		sp.AccountUID = tmpl.accountUID
	}
	switch {
	case tmpl.debitSeen && !tmpl.debit.IsZero():
		sp.Value = tmpl.debit.Abs()
		sp.Type = model.SplitTypeDebit
	case tmpl.creditSeen && !tmpl.credit.IsZero():
		sp.Value = tmpl.credit.Abs().Neg()
		sp.Type = model.SplitTypeCredit
	}
	sp.Quantity = sp.Value
}

func (im *Importer) parsePrice(d *xml.Decoder, s *session) error {
	p := model.Price{}
	for {
		tok, err := d.Token()
		if err != nil {
			return &FormatError{Element: "price", Reason: "unterminated element", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			q := qname(t.Name)
			switch q {
			case "price:id":
				if p.UID, err = childText(d, q); err != nil {
					return err
				}
			case "price:commodity":
				ns, code, err := parseCommodityRef(d, q)
				if err != nil {
					return err
				}
				p.CommodityNamespace, p.CommodityCode = ns, code
				if c, ok := s.registry.Lookup(ns, code); ok {
					p.CommodityUID = c.UID
				}
			case "price:currency":
				ns, code, err := parseCommodityRef(d, q)
				if err != nil {
					return err
				}
				p.CurrencyNamespace, p.CurrencyCode = ns, code
				if c, ok := s.registry.Lookup(ns, code); ok {
					p.CurrencyUID = c.UID
				}
			case "price:time":
				text, err := childText(d, q)
				if err != nil {
					return err
				}
				if p.Date, err = parseTimestamp(q, text); err != nil {
					return err
				}
			case "price:source":
				if p.Source, err = childText(d, q); err != nil {
					return err
				}
			case "price:type":
				if p.Type, err = childText(d, q); err != nil {
					return err
				}
			case "price:value":
				if p.Value, err = childAmount(d, q); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return &FormatError{Element: q, Reason: "skipping element", Err: err}
				}
			}
		case xml.EndElement:
			if qname(t.Name) != "price" {
				continue
			}
			if p.UID == "" {
				p.UID = guid.New()
			}
			s.prices = append(s.prices, p)
			return nil
		}
	}
}

func (im *Importer) parseScheduledAction(d *xml.Decoder, s *session) error {
	a := model.ScheduledAction{ActionType: model.ActionTransaction}
	remaining := -1
	periodTag := ""

	for {
		tok, err := d.Token()
		if err != nil {
			return &FormatError{Element: "gnc:schedxaction", Reason: "unterminated element", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			q := qname(t.Name)
			switch q {
			case "sx:id":
				if a.UID, err = childText(d, q); err != nil {
					return err
				}
			case "sx:name":
				if a.Name, err = childText(d, q); err != nil {
					return err
				}
			case "sx:enabled":
				text, err := childText(d, q)
				if err != nil {
					return err
				}
				a.Enabled = yesNo(text)
			case "sx:autoCreate":
				text, err := childText(d, q)
				if err != nil {
					return err
				}
				a.AutoCreate = yesNo(text)
			case "sx:autoCreateNotify":
				text, err := childText(d, q)
				if err != nil {
					return err
				}
				a.AutoNotify = yesNo(text)
			case "sx:advanceCreateDays":
				if a.AdvanceCreateDays, err = childInt(d, q); err != nil {
					return err
				}
			case "sx:advanceRemindDays":
				if a.AdvanceNotifyDays, err = childInt(d, q); err != nil {
					return err
				}
			case "sx:instanceCount":
				if a.ExecutionCount, err = childInt(d, q); err != nil {
					return err
				}
			case "sx:num-occur":
				if a.TotalPlannedCount, err = childInt(d, q); err != nil {
					return err
				}
			case "sx:rem-occur":
				if remaining, err = childInt(d, q); err != nil {
					return err
				}
			case "sx:start":
				text, err := childText(d, q)
				if err != nil {
					return err
				}
				if a.StartAt, err = parseDate(q, text); err != nil {
					return err
				}
			case "sx:last":
				text, err := childText(d, q)
				if err != nil {
					return err
				}
				if a.LastRunAt, err = parseDate(q, text); err != nil {
					return err
				}
			case "sx:end":
				text, err := childText(d, q)
				if err != nil {
					return err
				}
				if a.EndAt, err = parseDate(q, text); err != nil {
					return err
				}
			case "sx:tag":
				if a.Tag, err = childText(d, q); err != nil {
					return err
				}
			case "sx:templ-acct":
				if a.TemplateAccountUID, err = childText(d, q); err != nil {
					return err
				}
			case "sx:schedule":
				if a.Recurrence, periodTag, err = parseSchedule(d, q); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return &FormatError{Element: q, Reason: "skipping element", Err: err}
				}
			}
		case xml.EndElement:
			if qname(t.Name) != "gnc:schedxaction" {
				continue
			}
			if a.UID == "" {
				a.UID = guid.New()
			}
			if periodTag == "once" {
				im.log.Warn().Str("schedule", a.Name).Msg("dropping schedule with unsupported \"once\" recurrence")
				s.skippedOnce++
				return nil
			}
			if a.TotalPlannedCount == 0 && remaining > 0 {
				a.TotalPlannedCount = a.ExecutionCount + remaining
			}
			if strings.EqualFold(a.Name, "backup") {
				a.ActionType = model.ActionBackup
				a.ActionUID = guid.New()
			}
			// Transaction actions are linked to their template
			// transaction during finalize; the template may appear
			// anywhere in the document relative to the schedule.
			s.actions = append(s.actions, a)
			return nil
		}
	}
}

// parseSchedule reads the recurrences under sx:schedule. Composite
// weekly schedules appear as one recurrence per weekday; they collapse
// into a single recurrence with an explicit weekday set.
func parseSchedule(d *xml.Decoder, container string) (model.Recurrence, string, error) {
	var recs []model.Recurrence
	var tags []string
	for {
		tok, err := d.Token()
		if err != nil {
			return model.Recurrence{}, "", &FormatError{Element: container, Reason: "unterminated element", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			q := qname(t.Name)
			if q == "gnc:recurrence" {
				rec, tag, err := parseRecurrence(d, q)
				if err != nil {
					return model.Recurrence{}, "", err
				}
				recs = append(recs, rec)
				tags = append(tags, tag)
			} else if err := d.Skip(); err != nil {
				return model.Recurrence{}, "", &FormatError{Element: q, Reason: "skipping element", Err: err}
			}
		case xml.EndElement:
			if qname(t.Name) != container {
				continue
			}
			if len(recs) == 0 {
				return model.Recurrence{}, "", &FormatError{Element: container, Reason: "missing recurrence"}
			}
			base := recs[0]
			if len(recs) > 1 && base.PeriodType == model.PeriodWeek {
				for _, rec := range recs {
					if rec.PeriodType == model.PeriodWeek {
						base.Weekdays = append(base.Weekdays, rec.PeriodStart.Weekday())
					}
				}
				base.Weekdays = schedule.SortWeekdays(base.Weekdays)
			}
			return base, tags[0], nil
		}
	}
}

// parseRecurrence reads one recurrence element (gnc:recurrence or
// bgt:recurrence). The raw period tag is returned alongside so callers
// can react to the degenerate "once" value.
func parseRecurrence(d *xml.Decoder, container string) (model.Recurrence, string, error) {
	rec := model.Recurrence{Multiplier: 1, WeekendAdjust: model.WeekendAdjustNone}
	rawTag := ""
	for {
		tok, err := d.Token()
		if err != nil {
			return rec, "", &FormatError{Element: container, Reason: "unterminated element", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			q := qname(t.Name)
			switch q {
			case "recurrence:mult":
				if rec.Multiplier, err = childInt(d, q); err != nil {
					return rec, "", err
				}
			case "recurrence:period_type":
				if rawTag, err = childText(d, q); err != nil {
					return rec, "", err
				}
			case "recurrence:start":
				text, err := childText(d, q)
				if err != nil {
					return rec, "", err
				}
				if rec.PeriodStart, err = parseDate(q, text); err != nil {
					return rec, "", err
				}
			case "recurrence:weekend_adj":
				text, err := childText(d, q)
				if err != nil {
					return rec, "", err
				}
				rec.WeekendAdjust = model.WeekendAdjust(text)
			default:
				if err := d.Skip(); err != nil {
					return rec, "", &FormatError{Element: q, Reason: "skipping element", Err: err}
				}
			}
		case xml.EndElement:
			if qname(t.Name) != container {
				continue
			}
			if rawTag == "once" {
				return rec, rawTag, nil
			}
			period, ok := schedule.PeriodTypeFromTag(rawTag)
			if !ok {
				return rec, "", &FormatError{Element: container, Reason: "unknown period type " + quoted(rawTag)}
			}
			rec.PeriodType = period
			return rec, rawTag, nil
		}
	}
}

func (im *Importer) parseBudget(d *xml.Decoder, s *session) error {
	b := model.Budget{}
	notes := make(map[string]map[int]string)

	for {
		tok, err := d.Token()
		if err != nil {
			return &FormatError{Element: "gnc:budget", Reason: "unterminated element", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			q := qname(t.Name)
			switch q {
			case "bgt:id":
				if b.UID, err = childText(d, q); err != nil {
					return err
				}
			case "bgt:name":
				if b.Name, err = childText(d, q); err != nil {
					return err
				}
			case "bgt:description":
				if b.Description, err = childText(d, q); err != nil {
					return err
				}
			case "bgt:num-periods":
				if b.NumPeriods, err = childInt(d, q); err != nil {
					return err
				}
			case "bgt:recurrence":
				if b.Recurrence, _, err = parseRecurrence(d, q); err != nil {
					return err
				}
			case "bgt:slots":
				err := parseSlots(d, q, func(path []string, typ, value string) error {
					return applyBudgetSlot(&b, notes, path, typ, value)
				})
				if err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return &FormatError{Element: q, Reason: "skipping element", Err: err}
				}
			}
		case xml.EndElement:
			if qname(t.Name) != "gnc:budget" {
				continue
			}
			if b.UID == "" {
				return &FormatError{Element: "gnc:budget", Reason: "missing bgt:id"}
			}
			for i := range b.Amounts {
				a := &b.Amounts[i]
				if byPeriod, ok := notes[a.AccountUID]; ok {
					a.Notes = byPeriod[a.PeriodNum]
				}
			}
			s.budgets = append(s.budgets, b)
			return nil
		}
	}
}

// applyBudgetSlot interprets one budget slot leaf. Amount frames are
// keyed by account UID with period-index children; notes ride either in
// a top-level "notes" frame or nested under the account frame.
func applyBudgetSlot(b *model.Budget, notes map[string]map[int]string, path []string, typ, value string) error {
	switch {
	case len(path) == 2 && typ == "numeric" && guid.Valid(path[0]):
		period, err := strconv.Atoi(path[1])
		if err != nil {
			return &FormatError{Element: "bgt:slots", Reason: "bad period index " + quoted(path[1]), Err: err}
		}
		amount, err := numeric.Parse(value)
		if err != nil {
			return fmt.Errorf("budget amount for period %d: %w", period, err)
		}
		b.Amounts = append(b.Amounts, model.BudgetAmount{
			AccountUID: path[0],
			PeriodNum:  period,
			Amount:     amount,
		})
	case len(path) == 3 && path[0] == slotNotes && guid.Valid(path[1]):
		addBudgetNote(notes, path[1], path[2], value)
	case len(path) == 3 && path[1] == slotNotes && guid.Valid(path[0]):
		addBudgetNote(notes, path[0], path[2], value)
	}
	return nil
}

func addBudgetNote(notes map[string]map[int]string, accountUID, periodStr, value string) {
	period, err := strconv.Atoi(periodStr)
	if err != nil {
		return
	}
	if notes[accountUID] == nil {
		notes[accountUID] = make(map[int]string)
	}
	notes[accountUID][period] = value
}

// legacyAction synthesizes a scheduled action from the old inline
// recurrence-period field (milliseconds) on a transaction.
func legacyAction(txn *model.Transaction, periodMS int64) model.ScheduledAction {
	rec := legacyRecurrence(periodMS, txn.PostedAt)
	return model.ScheduledAction{
		UID:        guid.New(),
		Name:       txn.Description,
		ActionType: model.ActionTransaction,
		ActionUID:  txn.UID,
		Enabled:    true,
		AutoCreate: true,
		StartAt:    txn.PostedAt,
		LastRunAt:  txn.PostedAt,
		Recurrence: rec,
	}
}

// Period lengths the legacy field was written with.
const (
	legacyDayMS   = 24 * 60 * 60 * 1000
	legacyWeekMS  = 7 * legacyDayMS
	legacyMonthMS = 30 * legacyDayMS
	legacyYearMS  = 365 * legacyDayMS
)

func legacyRecurrence(periodMS int64, start time.Time) model.Recurrence {
	rec := model.Recurrence{Multiplier: 1, PeriodStart: start, WeekendAdjust: model.WeekendAdjustNone}
	switch {
	case periodMS >= legacyYearMS && periodMS%legacyYearMS == 0:
		rec.PeriodType = model.PeriodYear
		rec.Multiplier = int(periodMS / legacyYearMS)
	case periodMS >= legacyMonthMS && periodMS%legacyMonthMS == 0:
		rec.PeriodType = model.PeriodMonth
		rec.Multiplier = int(periodMS / legacyMonthMS)
	case periodMS >= legacyWeekMS && periodMS%legacyWeekMS == 0:
		rec.PeriodType = model.PeriodWeek
		rec.Multiplier = int(periodMS / legacyWeekMS)
	default:
		rec.PeriodType = model.PeriodDay
		if mult := periodMS / legacyDayMS; mult > 1 {
			rec.Multiplier = int(mult)
		}
	}
	return rec
}
