// Package leadstats derives the admin console counters from a fetched lead
// list. All functions are pure and are recomputed on every render.
package leadstats

import (
	"time"

	"github.com/dominiquedave/Time-Financial/internal/server/models"
)

// Filter names the lead subsets the admin table can show.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterToday   Filter = "today"
	FilterPending Filter = "pending"
)

// ParseFilter maps a query value to a Filter, defaulting to FilterAll.
func ParseFilter(s string) Filter {
	switch Filter(s) {
	case FilterToday, FilterPending:
		return Filter(s)
	}
	return FilterAll
}

// Summary is the set of counters shown on the admin stat cards.
type Summary struct {
	TotalUsers   int
	TotalLeads   int
	LeadsToday   int
	PendingLeads int
}

// Total is the number of leads.
func Total(leads []*models.Lead) int {
	return len(leads)
}

// IsToday reports whether t falls on the same calendar day as now, in now's
// location.
func IsToday(t, now time.Time) bool {
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	return ty == ny && tm == nm && td == nd
}

// IsPending reports whether a lead is still untouched. The comparison is
// case-sensitive: only "new" counts.
func IsPending(l *models.Lead) bool {
	return l.Status == models.LeadStatusNew
}

// CountToday counts leads created on now's calendar day.
func CountToday(leads []*models.Lead, now time.Time) int {
	n := 0
	for _, l := range leads {
		if IsToday(l.CreatedAt, now) {
			n++
		}
	}
	return n
}

// CountPending counts leads with status "new".
func CountPending(leads []*models.Lead) int {
	n := 0
	for _, l := range leads {
		if IsPending(l) {
			n++
		}
	}
	return n
}

// TodayLeads returns leads created today, preserving order.
func TodayLeads(leads []*models.Lead, now time.Time) []*models.Lead {
	out := make([]*models.Lead, 0, len(leads))
	for _, l := range leads {
		if IsToday(l.CreatedAt, now) {
			out = append(out, l)
		}
	}
	return out
}

// PendingLeads returns leads with status "new", preserving order.
func PendingLeads(leads []*models.Lead) []*models.Lead {
	out := make([]*models.Lead, 0, len(leads))
	for _, l := range leads {
		if IsPending(l) {
			out = append(out, l)
		}
	}
	return out
}

// Apply returns the subset selected by f.
func Apply(f Filter, leads []*models.Lead, now time.Time) []*models.Lead {
	switch f {
	case FilterToday:
		return TodayLeads(leads, now)
	case FilterPending:
		return PendingLeads(leads)
	}
	return leads
}

// Summarize computes every stat card at once.
func Summarize(leads []*models.Lead, profiles []*models.Profile, now time.Time) Summary {
	return Summary{
		TotalUsers:   len(profiles),
		TotalLeads:   Total(leads),
		LeadsToday:   CountToday(leads, now),
		PendingLeads: CountPending(leads),
	}
}

// Recent returns at most n items from the head of a newest-first list.
func Recent[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
