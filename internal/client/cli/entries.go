package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/models"
	"github.com/shopspring/decimal"
)

// parseAmount accepts plain numbers and grouped ones like 500,000 or 500_000.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer(",", "", "_", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", common.ErrValidation, s)
	}
	return d, nil
}

func parseCategory(s string) (models.Category, error) {
	c := models.Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: category must be judol or crypto", common.ErrValidation)
	}
	return c, nil
}

func parseDate(s string) (models.Date, error) {
	d, err := models.ParseDate(s)
	if err != nil {
		return models.Date{}, fmt.Errorf("%w: date must look like 2024-01-02", common.ErrValidation)
	}
	return d, nil
}

// readEntry prompts for every field of e, offering its current values as
// defaults. It returns the edited copy.
func (a *App) readEntry(e models.Entry) (models.Entry, error) {
	out := e.Clone()

	cat, err := GetTextOrDefault(a.reader, "Category (judol/crypto)", string(e.Category), a.out)
	if err != nil {
		return out, err
	}
	if out.Category, err = parseCategory(cat); err != nil {
		return out, err
	}

	if out.Label, err = GetTextOrDefault(a.reader, "Site / coin", e.Label, a.out); err != nil {
		return out, err
	}

	def := ""
	if !e.Amount.IsZero() {
		def = e.Amount.String()
	}
	amount, err := GetTextOrDefault(a.reader, "Amount", def, a.out)
	if err != nil {
		return out, err
	}
	if out.Amount, err = parseAmount(amount); err != nil {
		return out, err
	}

	date, err := GetTextOrDefault(a.reader, "Date (YYYY-MM-DD)", e.OccurredOn.String(), a.out)
	if err != nil {
		return out, err
	}
	if out.OccurredOn, err = parseDate(date); err != nil {
		return out, err
	}

	kind := "loss"
	if e.IsCredit {
		kind = "win"
	}
	kind, err = GetTextOrDefault(a.reader, "Loss or win (loss/win)", kind, a.out)
	if err != nil {
		return out, err
	}
	switch strings.ToLower(kind) {
	case "loss", "l", "deposit":
		out.IsCredit = false
	case "win", "w", "withdrawal":
		out.IsCredit = true
	default:
		return out, fmt.Errorf("%w: answer loss or win", common.ErrValidation)
	}

	noteDef := ""
	if e.Note != nil {
		noteDef = *e.Note
	}
	note, err := GetTextOrDefault(a.reader, "Note (optional, '-' to clear)", noteDef, a.out)
	if err != nil {
		return out, err
	}
	switch note {
	case "", "-":
		out.Note = nil
	default:
		out.Note = &note
	}

	return out, nil
}

// Add records a new entry.
func (a *App) Add(ctx context.Context) error {
	draft := models.Entry{Category: models.CategoryJudol, OccurredOn: models.DateOf(a.now())}
	e, err := a.readEntry(draft)
	if err != nil {
		a.report(err)
		return err
	}

	saved, err := a.entryService.Add(ctx, e)
	if err != nil {
		a.report(err)
		return err
	}
	if saved.SyncState == models.SyncStatePending {
		fmt.Fprintf(a.out, "Saved offline as %s; it will sync when the server is reachable.\n", saved.ID)
	} else {
		fmt.Fprintf(a.out, "Saved as %s.\n", saved.ID)
	}
	return nil
}

// List prints the user's entries, newest first. Pending ones are starred.
func (a *App) List(ctx context.Context) error {
	list, err := a.entryService.List(ctx)
	if err != nil {
		a.report(err)
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No entries yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tSITE/COIN\tAMOUNT\tNOTE\t")
	for _, e := range list {
		id := e.ID
		if e.SyncState == models.SyncStatePending {
			id += " *"
		}
		note := ""
		if e.Note != nil {
			note = *e.Note
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n", id, e.OccurredOn, e.Category, e.Label, signed(e), note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return nil
}

// signed renders a loss as negative and a win as positive.
func signed(e models.Entry) string {
	if e.IsCredit {
		return "+" + e.Amount.String()
	}
	return "-" + e.Amount.String()
}

func (a *App) idArg(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

// Edit changes an existing entry field by field.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Enter entry id to edit")
	if err != nil {
		return err
	}
	cur, err := a.entryService.Get(ctx, id)
	if err != nil {
		a.report(err)
		return err
	}

	next, err := a.readEntry(cur)
	if err != nil {
		a.report(err)
		return err
	}

	patch := diff(cur, next)
	if patch.IsEmpty() {
		fmt.Fprintln(a.out, "Nothing changed.")
		return nil
	}
	saved, err := a.entryService.Update(ctx, id, patch)
	if err != nil {
		a.report(err)
		return err
	}
	fmt.Fprintf(a.out, "Updated %s.\n", saved.ID)
	return nil
}

// diff builds the patch turning cur into next.
func diff(cur, next models.Entry) models.EntryPatch {
	var p models.EntryPatch
	if cur.Category != next.Category {
		p.Category = &next.Category
	}
	if cur.Label != next.Label {
		p.Label = &next.Label
	}
	if !cur.Amount.Equal(next.Amount) {
		p.Amount = &next.Amount
	}
	if !cur.OccurredOn.Equal(next.OccurredOn) {
		p.OccurredOn = &next.OccurredOn
	}
	if cur.IsCredit != next.IsCredit {
		p.IsCredit = &next.IsCredit
	}
	switch {
	case cur.Note == nil && next.Note == nil:
	case cur.Note == nil || next.Note == nil || *cur.Note != *next.Note:
		p.Note = &next.Note
	}
	return p
}

// Delete removes an entry: delete <id>.
func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Enter entry id to delete")
	if err != nil {
		return err
	}
	if err := a.entryService.Delete(ctx, id); err != nil {
		a.report(err)
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s.\n", id)
	return nil
}

// Summary prints totals per category, the largest loss and the streak
// since the last gambling deposit.
func (a *App) Summary(ctx context.Context) error {
	s, err := a.entryService.Summary(ctx, models.DateOf(a.now()))
	if err != nil {
		a.report(err)
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tLOSS\tWIN\tNET\tCOUNT\t")
	for _, c := range models.Categories {
		t := s.ByCategory[c]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t\n", c, t.Loss, t.Win, t.Net, t.Count)
	}
	fmt.Fprintf(tw, "total\t%s\t%s\t%s\t%d\t\n", s.Overall.Loss, s.Overall.Win, s.Overall.Net, s.Overall.Count)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Largest loss: %s\n", s.LargestLoss)
	if s.CleanDays < 0 {
		fmt.Fprintln(a.out, "No gambling deposits recorded.")
	} else {
		fmt.Fprintf(a.out, "Days since last gambling deposit: %d (%s)\n", s.CleanDays, s.LastJudolLoss)
	}
	if s.Pending > 0 {
		fmt.Fprintf(a.out, "%d entries not synced yet.\n", s.Pending)
	}
	return nil
}
