package models

import "github.com/shopspring/decimal"

// Totals aggregates one category.
type Totals struct {
	Loss decimal.Decimal
	Win  decimal.Decimal
	// Net is Win - Loss; negative means money lost.
	Net   decimal.Decimal
	Count int
}

// Summary is the dashboard view over an owner's cached entries.
type Summary struct {
	ByCategory    map[Category]Totals
	Overall       Totals
	LargestLoss   decimal.Decimal
	Pending       int
	LastJudolLoss Date
	// CleanDays counts days since the last judol deposit, -1 when there is none.
	CleanDays int
}

// Summarize folds entries into a Summary as of today.
func Summarize(entries []Entry, today Date) Summary {
	s := Summary{
		ByCategory: make(map[Category]Totals, len(Categories)),
		CleanDays:  -1,
	}
	for _, c := range Categories {
		s.ByCategory[c] = Totals{}
	}

	for _, e := range entries {
		t := s.ByCategory[e.Category]
		add(&t, e)
		s.ByCategory[e.Category] = t
		add(&s.Overall, e)

		if e.SyncState == SyncStatePending {
			s.Pending++
		}
		if e.IsCredit {
			continue
		}
		if e.Amount.GreaterThan(s.LargestLoss) {
			s.LargestLoss = e.Amount
		}
		if e.Category == CategoryJudol && (s.LastJudolLoss.IsZero() || s.LastJudolLoss.Before(e.OccurredOn)) {
			s.LastJudolLoss = e.OccurredOn
		}
	}

	if !s.LastJudolLoss.IsZero() {
		s.CleanDays = s.LastJudolLoss.DaysUntil(today)
		if s.CleanDays < 0 {
			s.CleanDays = 0
		}
	}
	return s
}

func add(t *Totals, e Entry) {
	if e.IsCredit {
		t.Win = t.Win.Add(e.Amount)
	} else {
		t.Loss = t.Loss.Add(e.Amount)
	}
	t.Net = t.Win.Sub(t.Loss)
	t.Count++
}
