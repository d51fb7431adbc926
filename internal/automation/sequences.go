package automation

import (
	"context"
	"fmt"
	"os"
	"strings"

	"agency_crm_backend/internal/leads/domain"
	"agency_crm_backend/platform/apperr"
	"agency_crm_backend/platform/validator"

	"gopkg.in/yaml.v3"
)

// SequenceSource provides the current drip sequence configuration.
type SequenceSource interface {
	Sequences(ctx context.Context) ([]domain.DripSequence, error)
}

// SequenceSpec is the operator-facing definition of a sequence, shared by the
// YAML file and the JSON API.
type SequenceSpec struct {
	ID            string     `yaml:"id" json:"id" validate:"required,max=100"`
	Name          string     `yaml:"name" json:"name" validate:"max=200"`
	TriggerStatus string     `yaml:"triggerStatus" json:"triggerStatus" validate:"required,leadstatus"`
	Enabled       bool       `yaml:"enabled" json:"enabled"`
	Steps         []StepSpec `yaml:"steps" json:"steps" validate:"dive"`
}

// StepSpec is one step of a SequenceSpec.
type StepSpec struct {
	ID       string `yaml:"id" json:"id" validate:"required,max=100"`
	DayDelay int    `yaml:"dayDelay" json:"dayDelay" validate:"min=0,max=3650"`
	Subject  string `yaml:"subject" json:"subject" validate:"max=300"`
	Message  string `yaml:"message" json:"message" validate:"max=10000"`
}

type sequencesFile struct {
	Sequences []SequenceSpec `yaml:"sequences" validate:"dive"`
}

// ToDomain converts a validated spec.
func (s SequenceSpec) ToDomain() domain.DripSequence {
	status, _ := domain.ParseStatus(s.TriggerStatus)
	steps := make([]domain.DripStep, len(s.Steps))
	for i, st := range s.Steps {
		steps[i] = domain.DripStep{
			ID:              st.ID,
			DayDelay:        st.DayDelay,
			Subject:         st.Subject,
			MessageTemplate: st.Message,
		}
	}
	return domain.DripSequence{
		ID:            s.ID,
		Name:          s.Name,
		TriggerStatus: status,
		Enabled:       s.Enabled,
		Steps:         steps,
	}
}

// SpecFromDomain converts a sequence back to its API form.
func SpecFromDomain(seq domain.DripSequence) SequenceSpec {
	steps := make([]StepSpec, len(seq.Steps))
	for i, st := range seq.Steps {
		steps[i] = StepSpec{ID: st.ID, DayDelay: st.DayDelay, Subject: st.Subject, Message: st.MessageTemplate}
	}
	return SequenceSpec{
		ID:            seq.ID,
		Name:          seq.Name,
		TriggerStatus: seq.TriggerStatus.String(),
		Enabled:       seq.Enabled,
		Steps:         steps,
	}
}

// ValidateSpecs checks tags and id uniqueness. Step ids must be unique across
// all sequences because dispatch deduplicates on them.
func ValidateSpecs(val *validator.Validator, specs []SequenceSpec) error {
	seqIDs := make(map[string]struct{}, len(specs))
	stepIDs := make(map[string]string)

	for i, spec := range specs {
		if err := val.Struct(spec); err != nil {
			return apperr.Validationf("sequence %d is invalid", i).WithDetails(validator.Describe(err))
		}
		if _, dup := seqIDs[spec.ID]; dup {
			return apperr.Validationf("duplicate sequence id %q", spec.ID)
		}
		seqIDs[spec.ID] = struct{}{}

		for _, step := range spec.Steps {
			if owner, dup := stepIDs[step.ID]; dup {
				return apperr.Validationf("step id %q is used by sequences %q and %q", step.ID, owner, spec.ID)
			}
			stepIDs[step.ID] = spec.ID
		}
	}
	return nil
}

// ParseSequencesYAML decodes and validates a sequences document.
func ParseSequencesYAML(data []byte, val *validator.Validator) ([]domain.DripSequence, error) {
	var file sequencesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid sequences yaml", err)
	}
	if err := ValidateSpecs(val, file.Sequences); err != nil {
		return nil, err
	}

	out := make([]domain.DripSequence, len(file.Sequences))
	for i, spec := range file.Sequences {
		out[i] = spec.ToDomain()
	}
	return out, nil
}

// FileSequenceSource reads sequences from a YAML file on every call so that
// operator edits apply without a restart.
type FileSequenceSource struct {
	path string
	val  *validator.Validator
}

// NewFileSequenceSource creates a FileSequenceSource. An empty path yields no
// sequences. The lead status tag is registered on val so that callers outside
// the leads module can share a bare validator.
func NewFileSequenceSource(path string, val *validator.Validator) (*FileSequenceSource, error) {
	if err := domain.RegisterValidations(val); err != nil {
		return nil, fmt.Errorf("register sequence validations: %w", err)
	}
	return &FileSequenceSource{path: strings.TrimSpace(path), val: val}, nil
}

// Sequences implements SequenceSource.
func (s *FileSequenceSource) Sequences(_ context.Context) ([]domain.DripSequence, error) {
	if s.path == "" {
		return []domain.DripSequence{}, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.DripSequence{}, nil
		}
		return nil, fmt.Errorf("read sequences file: %w", err)
	}
	return ParseSequencesYAML(data, s.val)
}

// StaticSequenceSource serves a fixed set of sequences.
type StaticSequenceSource []domain.DripSequence

// Sequences implements SequenceSource.
func (s StaticSequenceSource) Sequences(context.Context) ([]domain.DripSequence, error) {
	return append([]domain.DripSequence(nil), s...), nil
}
