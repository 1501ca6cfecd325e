package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/logging"
	"github.com/dominiquedave/Time-Financial/internal/server/leadstats"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminService(t *testing.T, m *fakeRepoManager) *AdminService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { _ = db.Close() })
	return NewAdminService(db, m, logging.Nop())
}

func seededManager(now time.Time) *fakeRepoManager {
	m := newFakeManager()
	dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		status := models.LeadStatusNew
		if i%2 == 1 {
			status = models.LeadStatusContacted
		}
		m.l.leads = append(m.l.leads, &models.Lead{
			ID:        string(rune('a' + i)),
			FirstName: "Lead",
			Status:    status,
			CreatedAt: now.Add(-time.Duration(i) * 6 * time.Hour),
		})
	}
	m.l.leads[0].SSN = ptr("XXX-XX-1234")
	m.l.leads[0].DateOfBirth = &dob
	m.l.leads[0].Address = ptr("1 Main St, Apt 2")
	for i := 0; i < 6; i++ {
		m.p.profiles = append(m.p.profiles, &models.Profile{ID: string(rune('p' + i))})
	}
	return m
}

func TestAdmin_RequiresAdminDecision(t *testing.T) {
	s := newAdminService(t, newFakeManager())
	ctx := context.Background()
	now := time.Now()

	for _, d := range []struct {
		name string
		fn   func() error
	}{
		{"overview", func() error { _, err := s.Overview(ctx, userDecision("u-1"), now); return err }},
		{"leads", func() error { _, err := s.Leads(ctx, userDecision("u-1"), leadstats.FilterAll, now); return err }},
		{"lead", func() error { _, err := s.Lead(ctx, userDecision("u-1"), "a"); return err }},
		{"users", func() error { _, err := s.Users(ctx, userDecision("u-1")); return err }},
		{"status", func() error { return s.UpdateLeadStatus(ctx, userDecision("u-1"), "a", models.LeadStatusClosed) }},
		{"export", func() error { _, err := s.ExportCSV(ctx, userDecision("u-1")); return err }},
		{"assign owner", func() error { return s.AssignLeadOwner(ctx, userDecision("u-1"), "a", "u-1") }},
	} {
		t.Run(d.name, func(t *testing.T) {
			assert.ErrorIs(t, d.fn(), common.ErrAuthorizationDenied)
		})
	}
}

func TestAdmin_Overview(t *testing.T) {
	now := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	s := newAdminService(t, seededManager(now))

	o, err := s.Overview(context.Background(), adminDecision(), now)
	require.NoError(t, err)

	assert.Equal(t, leadstats.Summary{TotalUsers: 6, TotalLeads: 7, LeadsToday: 4, PendingLeads: 4}, o.Summary)
	assert.Len(t, o.RecentLeads, RecentLimit)
	assert.Len(t, o.RecentUsers, RecentLimit)
	assert.Equal(t, "a", o.RecentLeads[0].ID)
}

func TestAdmin_OverviewStoreError(t *testing.T) {
	m := newFakeManager()
	m.p.listErr = errDown
	s := newAdminService(t, m)

	_, err := s.Overview(context.Background(), adminDecision(), time.Now())
	assert.ErrorIs(t, err, common.ErrStore)
}

func TestAdmin_LeadsFiltered(t *testing.T) {
	now := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	s := newAdminService(t, seededManager(now))

	all, err := s.Leads(context.Background(), adminDecision(), leadstats.FilterAll, now)
	require.NoError(t, err)
	assert.Len(t, all, 7)

	pending, err := s.Leads(context.Background(), adminDecision(), leadstats.FilterPending, now)
	require.NoError(t, err)
	assert.Len(t, pending, 4)

	today, err := s.Leads(context.Background(), adminDecision(), leadstats.FilterToday, now)
	require.NoError(t, err)
	assert.Len(t, today, 4)
}

func TestAdmin_Lead(t *testing.T) {
	s := newAdminService(t, seededManager(time.Now()))

	l, err := s.Lead(context.Background(), adminDecision(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", l.ID)

	_, err = s.Lead(context.Background(), adminDecision(), "zzz")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, common.ErrStore)
}

func TestAdmin_UpdateLeadStatus(t *testing.T) {
	m := seededManager(time.Now())
	s := newAdminService(t, m)

	require.NoError(t, s.UpdateLeadStatus(context.Background(), adminDecision(), "a", models.LeadStatusQualified))
	assert.Equal(t, models.LeadStatusQualified, m.l.statusSet["a"])

	err := s.UpdateLeadStatus(context.Background(), adminDecision(), "a", models.LeadStatus("won"))
	assert.ErrorIs(t, err, common.ErrValidation)

	m.l.err = errDown
	err = s.UpdateLeadStatus(context.Background(), adminDecision(), "a", models.LeadStatusClosed)
	assert.ErrorIs(t, err, common.ErrStore)
}

func TestAdmin_ExportCSV(t *testing.T) {
	now := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	s := newAdminService(t, seededManager(now))

	b, err := s.ExportCSV(context.Background(), adminDecision())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 8)
	assert.Equal(t, csvHeader, records[0])

	first := records[1]
	assert.Equal(t, "a", first[0])
	assert.Equal(t, "1 Main St, Apt 2", first[6])
	assert.Equal(t, "XXX-XX-1234", first[8])
	assert.Equal(t, "1990-04-12", first[9])
	assert.Equal(t, "new", first[10])
	assert.Equal(t, "2026-10-18T20:00:00Z", first[11])
}

func TestAdmin_AssignLeadOwner(t *testing.T) {
	m := seededManager(time.Now())
	m.p.profiles = append(m.p.profiles, &models.Profile{ID: "p-agent", UserID: "agent-1"})
	s := newAdminService(t, m)
	ctx := context.Background()

	require.NoError(t, s.AssignLeadOwner(ctx, adminDecision(), "a", "agent-1"))
	require.NotNil(t, m.l.ownerSet["a"])
	assert.Equal(t, "agent-1", *m.l.ownerSet["a"])

	require.NoError(t, s.AssignLeadOwner(ctx, adminDecision(), "b", ""))
	_, touched := m.l.ownerSet["b"]
	assert.True(t, touched)
	assert.Nil(t, m.l.ownerSet["b"])

	err := s.AssignLeadOwner(ctx, adminDecision(), "c", "ghost")
	assert.ErrorIs(t, err, common.ErrValidation)
	_, touched = m.l.ownerSet["c"]
	assert.False(t, touched)

	m.p.getErr = errDown
	err = s.AssignLeadOwner(ctx, adminDecision(), "c", "agent-1")
	assert.ErrorIs(t, err, common.ErrStore)

	m.p.getErr = nil
	m.l.err = errDown
	err = s.AssignLeadOwner(ctx, adminDecision(), "c", "agent-1")
	assert.ErrorIs(t, err, common.ErrStore)
}

func TestAdmin_ExportCSVNeutralisesFormulas(t *testing.T) {
	m := newFakeManager()
	m.l.leads = []*models.Lead{{
		ID:        "a",
		FirstName: `=HYPERLINK("http://evil","x")`,
		LastName:  "@SUM(A1)",
		Email:     "jane@example.com",
		Phone:     "+1 555 0100",
		State:     "Texas",
		Address:   ptr("-2+3"),
		ZipCode:   ptr("\t73301"),
		Status:    models.LeadStatusNew,
	}}
	s := newAdminService(t, m)

	b, err := s.ExportCSV(context.Background(), adminDecision())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	row := records[1]
	assert.Equal(t, `'=HYPERLINK("http://evil","x")`, row[1])
	assert.Equal(t, "'@SUM(A1)", row[2])
	assert.Equal(t, "jane@example.com", row[3])
	assert.Equal(t, "'+1 555 0100", row[4])
	assert.Equal(t, "'-2+3", row[6])
	assert.Equal(t, "'\t73301", row[7])
}
