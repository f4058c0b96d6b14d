package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/verifydesk/cli/internal/models"
)

// StepStatus is the outcome of one submission request
type StepStatus string

// Step statuses
const (
	StepPending   StepStatus = "pending"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// CreateStep names the candidate creation step
const CreateStep = "create candidate"

// Step is one request of a submission
type Step struct {
	Name string `json:"name" yaml:"name"`
	// Type is empty for the candidate creation step
	Type   Type       `json:"type,omitempty" yaml:"type,omitempty"`
	Index  int        `json:"index" yaml:"index"`
	Status StepStatus `json:"status" yaml:"status"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty"`

	record Record
}

// Submission is the saga of one Submit call
type Submission struct {
	ID          string `json:"id" yaml:"id"`
	CandidateID string `json:"candidate_id,omitempty" yaml:"candidate_id,omitempty"`
	Steps       []Step `json:"steps" yaml:"steps"`
}

// Headers implements format.Tabular
func (s *Submission) Headers() []string {
	return []string{"#", "Step", "Status", "Error"}
}

// Rows implements format.Tabular
func (s *Submission) Rows() [][]string {
	rows := make([][]string, len(s.Steps))
	for i, st := range s.Steps {
		rows[i] = []string{strconv.Itoa(i + 1), st.Name, string(st.Status), st.Error}
	}
	return rows
}

// Failed returns the failed step, if any
func (s *Submission) Failed() (Step, bool) {
	for _, st := range s.Steps {
		if st.Status == StepFailed {
			return st, true
		}
	}
	return Step{}, false
}

// Count returns how many steps have the given status
func (s *Submission) Count(status StepStatus) int {
	n := 0
	for _, st := range s.Steps {
		if st.Status == status {
			n++
		}
	}
	return n
}

func (s *Submission) clone() *Submission {
	c := *s
	c.Steps = append([]Step(nil), s.Steps...)
	return &c
}

// SubmissionError reports which step stopped a submission
type SubmissionError struct {
	Step        Step
	CandidateID string
	Err         error
}

// Error implements the error interface
func (e *SubmissionError) Error() string {
	if e.CandidateID != "" {
		return fmt.Sprintf("submission failed at %q (candidate %s was created): %v", e.Step.Name, e.CandidateID, e.Err)
	}
	return fmt.Sprintf("submission failed at %q: %v", e.Step.Name, e.Err)
}

// Unwrap returns the underlying error
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// planSubmission lays out the request sequence from a form snapshot
func planSubmission(selected []Type, form *Form) *Submission {
	sub := &Submission{ID: newSubmissionID()}
	sub.Steps = append(sub.Steps, Step{Name: CreateStep, Status: StepPending})

	for _, t := range selected {
		s := form.sections[t]
		for i, r := range s.records {
			name := string(t)
			if s.desc.Shape == ShapeList {
				name = fmt.Sprintf("%s #%d", t, i+1)
			}
			sub.Steps = append(sub.Steps, Step{
				Name:   name,
				Type:   t,
				Index:  i,
				Status: StepPending,
				record: r,
			})
		}
	}
	return sub
}

// run executes the steps in order and stops at the first failure
func (s *Submission) run(ctx context.Context, backend Backend, basic models.BasicInfo, logger *slog.Logger) error {
	for i := range s.Steps {
		st := &s.Steps[i]

		var err error
		if err = ctx.Err(); err == nil {
			if st.Type == "" {
				s.CandidateID, err = backend.CreateApplicant(ctx, basic)
			} else {
				err = backend.UploadVerification(ctx, s.CandidateID, string(st.Type), FormFields(st.record), st.record.Document())
			}
		}

		if err != nil {
			st.Status = StepFailed
			st.Error = err.Error()
			for j := i + 1; j < len(s.Steps); j++ {
				s.Steps[j].Status = StepSkipped
			}
			return &SubmissionError{Step: *st, CandidateID: s.CandidateID, Err: err}
		}

		st.Status = StepSucceeded
		logger.Debug("submission step done", slog.String("step", st.Name))
	}
	return nil
}
