// Package intake implements the candidate intake workflow: choosing
// verification types, filling per-type forms, and submitting them to the
// backend as a sequence of requests.
package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/verifydesk/cli/internal/api"
	"github.com/verifydesk/cli/internal/models"
	"github.com/verifydesk/cli/internal/utils"
)

// State is the wizard step
type State int

// Intake states
const (
	Selecting State = iota
	Filling
	Submitting
	SubmittedSuccess
	SubmittedFailure
)

func (s State) String() string {
	switch s {
	case Selecting:
		return "selecting"
	case Filling:
		return "filling"
	case Submitting:
		return "submitting"
	case SubmittedSuccess:
		return "submitted"
	case SubmittedFailure:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrInvalidState is returned when an operation is not valid in the
	// current step
	ErrInvalidState = errors.New("operation not allowed in current intake state")
	// ErrSubmissionInProgress is returned by Submit while another submission
	// of the same intake is running
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
)

// Backend is the part of the API the submission needs
type Backend interface {
	CreateApplicant(ctx context.Context, info models.BasicInfo) (string, error)
	UploadVerification(ctx context.Context, applicantID, kind string, fields []models.FormField, doc models.Attachment) error
}

// Intake is the state machine behind adding one candidate. It is safe for
// concurrent use.
type Intake struct {
	backend Backend
	logger  *slog.Logger

	mu       sync.Mutex
	state    State
	selected []Type
	basic    models.BasicInfo
	form     *Form
	last     *Submission
}

// Option configures an Intake
type Option func(*Intake)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(in *Intake) {
		if l != nil {
			in.logger = l
		}
	}
}

// New returns an intake in the Selecting state with empty templates
func New(backend Backend, opts ...Option) *Intake {
	in := &Intake{
		backend: backend,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:   Selecting,
		form:    NewForm(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// State returns the current step
func (in *Intake) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

// SelectedTypes returns the selection in the order types were chosen
func (in *Intake) SelectedTypes() []Type {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]Type(nil), in.selected...)
}

// IsSelected reports whether t is selected
func (in *Intake) IsSelected(t Type) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.indexOf(t) >= 0
}

func (in *Intake) indexOf(t Type) int {
	for i, s := range in.selected {
		if s == t {
			return i
		}
	}
	return -1
}

// ToggleType adds t to the selection or removes it when already selected
func (in *Intake) ToggleType(t Type) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.state != Selecting {
		return ErrInvalidState
	}
	if _, ok := Lookup(t); !ok {
		return utils.NewValidationError("type", fmt.Sprintf("unknown verification type %q", t))
	}

	if i := in.indexOf(t); i >= 0 {
		in.selected = append(in.selected[:i:i], in.selected[i+1:]...)
	} else {
		in.selected = append(in.selected, t)
	}
	return nil
}

// Proceed moves from Selecting to Filling. It fails with a validation error
// when nothing is selected.
func (in *Intake) Proceed() error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.state != Selecting {
		return ErrInvalidState
	}
	if len(in.selected) == 0 {
		return utils.NewValidationError("types", "please select at least one verification type")
	}
	in.state = Filling
	return nil
}

// Back returns to Selecting. Entered data is kept.
func (in *Intake) Back() error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if !in.editable() {
		return ErrInvalidState
	}
	in.state = Selecting
	return nil
}

func (in *Intake) editable() bool {
	return in.state == Filling || in.state == SubmittedFailure
}

// edit runs fn on the form when the intake accepts edits
func (in *Intake) edit(fn func(*Form) error) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if !in.editable() {
		return ErrInvalidState
	}
	return fn(in.form)
}

// SetBasicInfo replaces the candidate's basic information
func (in *Intake) SetBasicInfo(info models.BasicInfo) error {
	return in.edit(func(*Form) error {
		in.basic = info
		return nil
	})
}

// BasicInfo returns the candidate's basic information
func (in *Intake) BasicInfo() models.BasicInfo {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.basic
}

// UpdateField replaces a field of a document type (identity, address, credit)
func (in *Intake) UpdateField(t Type, name, value string) error {
	return in.edit(func(f *Form) error { return f.UpdateField(t, name, value) })
}

// UpdateEntry merges values into entry index of a list type
func (in *Intake) UpdateEntry(t Type, index int, values map[string]string) error {
	return in.edit(func(f *Form) error { return f.UpdateEntry(t, index, values) })
}

// UpdateEntryField replaces one field of entry index of a list type
func (in *Intake) UpdateEntryField(t Type, index int, name, value string) error {
	return in.UpdateEntry(t, index, map[string]string{name: value})
}

// AddEntry appends an empty entry to a list type and returns its index
func (in *Intake) AddEntry(t Type, listName string) (int, error) {
	var idx int
	err := in.edit(func(f *Form) error {
		var err error
		idx, err = f.AddEntry(t, listName)
		return err
	})
	return idx, err
}

// RemoveEntry removes entry index of a list type
func (in *Intake) RemoveEntry(t Type, listName string, index int) error {
	return in.edit(func(f *Form) error { return f.RemoveEntry(t, listName, index) })
}

// AttachFile attaches doc to a document type
func (in *Intake) AttachFile(t Type, doc models.Attachment) error {
	return in.edit(func(f *Form) error { return f.AttachFile(t, doc) })
}

// AttachEntryFile attaches doc to entry index of a list type
func (in *Intake) AttachEntryFile(t Type, index int, doc models.Attachment) error {
	return in.edit(func(f *Form) error { return f.AttachEntryFile(t, index, doc) })
}

// Section returns a copy of the section for t
func (in *Intake) Section(t Type) (*Section, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	s, err := in.form.Section(t)
	if err != nil {
		return nil, err
	}
	return s.clone(), nil
}

// LastSubmission returns the outcome of the most recent Submit, or nil
func (in *Intake) LastSubmission() *Submission {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.last == nil {
		return nil
	}
	return in.last.clone()
}

// Plan returns the request sequence Submit would run, all pending
func (in *Intake) Plan() (*Submission, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if !in.editable() {
		return nil, ErrInvalidState
	}
	if err := ValidateBasicInfo(in.basic); err != nil {
		return nil, err
	}
	return planSubmission(in.selected, in.form.clone()), nil
}

// Submit creates the candidate then uploads every selected type in
// selection order, one request per record, strictly sequentially. The first
// failure stops the sequence; later steps are marked skipped and the
// returned *SubmissionError names the failed step and any candidate id
// already assigned. A created candidate is not rolled back.
func (in *Intake) Submit(ctx context.Context) (*Submission, error) {
	in.mu.Lock()
	if in.state == Submitting {
		in.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}
	if !in.editable() {
		in.mu.Unlock()
		return nil, ErrInvalidState
	}
	if err := ValidateBasicInfo(in.basic); err != nil {
		in.mu.Unlock()
		return nil, err
	}

	sub := planSubmission(in.selected, in.form.clone())
	basic := in.basic
	in.state = Submitting
	in.last = sub.clone()
	in.mu.Unlock()

	ctx = api.WithRequestID(ctx, sub.ID)
	logger := in.logger.With(slog.String("submission_id", sub.ID))
	logger.Info("submitting candidate", slog.Int("steps", len(sub.Steps)))

	err := sub.run(ctx, in.backend, basic, logger)

	in.mu.Lock()
	defer in.mu.Unlock()
	in.last = sub.clone()
	if err != nil {
		in.state = SubmittedFailure
		logger.Error("candidate submission failed", slog.String("error", err.Error()))
		return sub.clone(), err
	}
	in.state = SubmittedSuccess
	logger.Info("candidate submitted", slog.String("candidate_id", sub.CandidateID))
	return sub.clone(), nil
}

// Discard resets the intake to a fresh Selecting state. It is used after a
// successful submission; it is refused while a submission runs.
func (in *Intake) Discard() error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.state == Submitting {
		return ErrSubmissionInProgress
	}
	in.state = Selecting
	in.selected = nil
	in.basic = models.BasicInfo{}
	in.form = NewForm()
	in.last = nil
	return nil
}

// ValidateBasicInfo checks that every basic field is present and well formed
func ValidateBasicInfo(info models.BasicInfo) error {
	errs := utils.NewMultiError()
	errs.Add(utils.ValidateRequired(info.Name, "name"))
	errs.Add(utils.ValidateEmail(info.Email, "email"))
	errs.Add(utils.ValidatePhone(info.Phone, "phone"))
	errs.Add(utils.ValidateDate(info.DateOfBirth, "date_of_birth"))
	errs.Add(utils.ValidateRequired(info.Position, "position"))
	errs.Add(utils.ValidateNonNegativeInt(info.Experience, "experience"))
	return errs.ErrorOrNil()
}

func newSubmissionID() string {
	return uuid.NewString()
}
