// Package intake implements the two-step quote request form. Contact details
// are collected first, address and optional identity details second, and a
// lead is written to the store exactly once, on final submit.
package intake

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/dominiquedave/Time-Financial/internal/server/validation"
)

// State is the position of a Form in its lifecycle.
type State int

const (
	StepContact State = iota
	StepDetails
	Submitted
	Failed
)

func (s State) String() string {
	switch s {
	case StepContact:
		return "step_contact"
	case StepDetails:
		return "step_details"
	case Submitted:
		return "submitted"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrInvalidTransition is returned when an event does not apply to the
// current state.
var ErrInvalidTransition = errors.New("invalid form transition")

// LeadWriter is the part of the Lead Store the form needs.
type LeadWriter interface {
	Insert(ctx context.Context, lead *models.Lead) (*models.Lead, error)
}

// Identify returns the signed-in submitter at the moment of final submit. A
// nil identity means the submission is anonymous.
type Identify func(ctx context.Context) (*models.Identity, error)

// Draft holds every submittable field as entered. It is never persisted.
type Draft struct {
	FullName    string
	Email       string
	Phone       string
	State       string
	Address     string
	ZipCode     string
	SSN         string
	DateOfBirth string
}

// ContactInput is the first step.
type ContactInput struct {
	FullName string `form:"full_name" validate:"required"`
	Email    string `form:"email" validate:"required,email"`
	Phone    string `form:"phone" validate:"required"`
	State    string `form:"state" validate:"required,usstate"`
}

// DetailsInput is the second step. SSN and date of birth are optional.
type DetailsInput struct {
	Address     string `form:"address" validate:"required"`
	ZipCode     string `form:"zip_code" validate:"required"`
	SSN         string `form:"ssn"`
	DateOfBirth string `form:"dob" validate:"omitempty,isodate"`
}

// NoticeKind selects how a notice is rendered.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the transient banner shown after a final submit.
type Notice struct {
	Kind    NoticeKind
	Title   string
	Message string
}

// ValidationError carries one message per offending form field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(slices.Sorted(maps.Keys(e.Fields)), ", ")
}

func (e *ValidationError) Unwrap() error { return common.ErrValidation }

var validate = validation.New()

// Form is one visitor's pass through the quote form.
type Form struct {
	state  State
	draft  Draft
	notice *Notice
	errors map[string]string
}

// New returns an empty form at the contact step.
func New() *Form {
	return &Form{state: StepContact}
}

// Restore rebuilds a form from values carried by the browser. Step 2
// resumes at StepDetails; anything else starts at StepContact.
func Restore(d Draft, step int) *Form {
	f := &Form{state: StepContact, draft: d}
	if step == 2 {
		f.state = StepDetails
	}
	return f
}

func (f *Form) State() State { return f.state }

// Step is the visible step number: 2 while collecting details (including
// after a failed submit), 1 otherwise.
func (f *Form) Step() int {
	if f.state == StepDetails || f.state == Failed {
		return 2
	}
	return 1
}

func (f *Form) Draft() Draft { return f.draft }

// Notice returns the banner produced by the last final submit, if any.
func (f *Form) Notice() *Notice { return f.notice }

// Errors returns the field messages from the last rejected step.
func (f *Form) Errors() map[string]string { return f.errors }

// SubmitContact validates and records the first step. On failure the form
// stays at StepContact and the entered values are kept.
func (f *Form) SubmitContact(in ContactInput) error {
	if f.state != StepContact && f.state != Submitted {
		return ErrInvalidTransition
	}

	in = in.trimmed()
	f.draft.FullName = in.FullName
	f.draft.Email = in.Email
	f.draft.Phone = in.Phone
	f.draft.State = in.State
	f.notice = nil

	if err := f.check(in); err != nil {
		f.state = StepContact
		return err
	}

	f.state = StepDetails
	return nil
}

// Back returns to the contact step without discarding anything.
func (f *Form) Back() error {
	if f.state != StepDetails && f.state != Failed {
		return ErrInvalidTransition
	}
	f.state = StepContact
	f.errors = nil
	f.notice = nil
	return nil
}

// SubmitDetails validates the second step, asks identify for the current
// submitter and writes one lead. The lead is owned by the submitter when one
// is signed in and anonymous otherwise; a nil identify is anonymous. A
// failed identity lookup or store write moves the form to Failed with every
// value retained so the visitor can retry; the returned error then wraps
// common.ErrStore.
func (f *Form) SubmitDetails(ctx context.Context, in DetailsInput, identify Identify, store LeadWriter) error {
	if f.state != StepDetails && f.state != Failed {
		return ErrInvalidTransition
	}

	in = in.trimmed()
	f.draft.Address = in.Address
	f.draft.ZipCode = in.ZipCode
	f.draft.SSN = in.SSN
	f.draft.DateOfBirth = in.DateOfBirth
	f.notice = nil

	// Step 1 values arrive from the browser again and are re-checked.
	if err := f.check(f.contact()); err != nil {
		f.state = StepContact
		return err
	}
	if err := f.checkDetails(in); err != nil {
		return err
	}

	var submitter *models.Identity
	if identify != nil {
		id, err := identify(ctx)
		if err != nil {
			f.fail()
			return fmt.Errorf("%w: resolve submitter: %w", common.ErrStore, err)
		}
		submitter = id
	}

	lead, err := f.lead(submitter)
	if err != nil {
		return err
	}

	if _, err := store.Insert(ctx, lead); err != nil {
		f.fail()
		return fmt.Errorf("%w: %w", common.ErrStore, err)
	}

	f.state = Submitted
	f.draft = Draft{}
	f.notice = &Notice{
		Kind:    NoticeSuccess,
		Title:   "Thank you!",
		Message: "Your information has been submitted. An agent will contact you shortly.",
	}
	return nil
}

func (f *Form) fail() {
	f.state = Failed
	f.notice = &Notice{
		Kind:    NoticeError,
		Title:   "Submission failed",
		Message: "We couldn't save your information. Please try again.",
	}
}

func (f *Form) contact() ContactInput {
	return ContactInput{FullName: f.draft.FullName, Email: f.draft.Email, Phone: f.draft.Phone, State: f.draft.State}
}

func (f *Form) check(in any) error {
	fields, err := validate.Struct(in)
	if err != nil {
		return err
	}
	f.errors = fields
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (f *Form) checkDetails(in DetailsInput) error {
	fields, err := validate.Struct(in)
	if err != nil {
		return err
	}
	if in.SSN != "" && len(digits(in.SSN)) != 9 {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["ssn"] = "SSN must contain 9 digits"
	}
	f.errors = fields
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (f *Form) lead(submitter *models.Identity) (*models.Lead, error) {
	first, last := SplitName(f.draft.FullName)

	lead := &models.Lead{
		FirstName: first,
		LastName:  last,
		Email:     f.draft.Email,
		Phone:     f.draft.Phone,
		State:     f.draft.State,
		Address:   optional(f.draft.Address),
		ZipCode:   optional(f.draft.ZipCode),
		SSN:       optional(MaskSSN(f.draft.SSN)),
		Status:    models.LeadStatusNew,
	}

	if f.draft.DateOfBirth != "" {
		dob, err := validation.ParseISODate(f.draft.DateOfBirth)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"dob": "Dob must be a date (YYYY-MM-DD)"}}
		}
		lead.DateOfBirth = &dob
	}

	if submitter != nil && submitter.UserID != "" {
		owner := submitter.UserID
		user := submitter.UserID
		lead.OwnerID = &owner
		lead.UserID = &user
	}
	return lead, nil
}

func (in ContactInput) trimmed() ContactInput {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.State = strings.TrimSpace(in.State)
	return in
}

func (in DetailsInput) trimmed() DetailsInput {
	in.Address = strings.TrimSpace(in.Address)
	in.ZipCode = strings.TrimSpace(in.ZipCode)
	in.SSN = strings.TrimSpace(in.SSN)
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)
	return in
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
