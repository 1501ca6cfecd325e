// Package models defines server-side data models persisted in the database.
package models

import "time"

// LeadStatus tracks a lead through the sales pipeline.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusClosed    LeadStatus = "closed"
)

// LeadStatuses lists statuses in pipeline order.
var LeadStatuses = []LeadStatus{LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusClosed}

// Valid reports whether s is a known status. Matching is case-sensitive.
func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Lead is a captured quote request. Once created only Status and OwnerID
// change, and only through admin operations.
type Lead struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	State       string
	SSN         *string
	DateOfBirth *time.Time
	Address     *string
	ZipCode     *string
	Status      LeadStatus
	OwnerID     *string
	UserID      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ShortID is the first eight characters of the id, used as a display label.
func (l *Lead) ShortID() string {
	if len(l.ID) <= 8 {
		return l.ID
	}
	return l.ID[:8]
}

// FullName joins first and last name.
func (l *Lead) FullName() string {
	if l.LastName == "" {
		return l.FirstName
	}
	return l.FirstName + " " + l.LastName
}
