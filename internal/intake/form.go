package intake

import (
	"fmt"

	"github.com/verifydesk/cli/internal/models"
	"github.com/verifydesk/cli/internal/utils"
)

// Section is the form state of one verification type. Document types hold
// exactly one record; list types hold one or more.
type Section struct {
	desc    Descriptor
	records []Record
}

func newSection(d Descriptor) *Section {
	return &Section{desc: d, records: []Record{newRecord(d.ID)}}
}

// Descriptor returns the catalog entry of the section
func (s *Section) Descriptor() Descriptor {
	return s.desc
}

// Len returns the number of records
func (s *Section) Len() int {
	return len(s.records)
}

// Record returns the record at index i
func (s *Section) Record(i int) (Record, error) {
	if i < 0 || i >= len(s.records) {
		return nil, utils.NewValidationError(s.desc.ListName,
			fmt.Sprintf("%s has no entry %d", s.desc.ID, i))
	}
	return s.records[i], nil
}

// Records returns the records in order
func (s *Section) Records() []Record {
	return append([]Record(nil), s.records...)
}

func (s *Section) clone() *Section {
	c := &Section{desc: s.desc, records: make([]Record, len(s.records))}
	for i, r := range s.records {
		c.records[i] = cloneRecord(r)
	}
	return c
}

// Form is the verification form tree, keyed by verification type. Every
// catalog type has a section from the start so switching selections never
// loses entered data.
type Form struct {
	sections map[Type]*Section
}

// NewForm returns a form seeded with the empty templates
func NewForm() *Form {
	f := &Form{sections: make(map[Type]*Section, len(Catalog))}
	for _, d := range Catalog {
		f.sections[d.ID] = newSection(d)
	}
	return f
}

// Section returns the section for t
func (f *Form) Section(t Type) (*Section, error) {
	s, ok := f.sections[t]
	if !ok {
		return nil, utils.NewValidationError("type", fmt.Sprintf("unknown verification type %q", t))
	}
	return s, nil
}

func (f *Form) listSection(t Type, listName string) (*Section, error) {
	s, err := f.Section(t)
	if err != nil {
		return nil, err
	}
	if s.desc.Shape != ShapeList {
		return nil, utils.NewValidationError("type", fmt.Sprintf("%s does not hold a list", t))
	}
	if listName != "" && listName != s.desc.ListName {
		return nil, utils.NewValidationError("list", fmt.Sprintf("%s has no list %q", t, listName))
	}
	return s, nil
}

func (f *Form) documentSection(t Type) (*Section, error) {
	s, err := f.Section(t)
	if err != nil {
		return nil, err
	}
	if s.desc.Shape != ShapeDocument {
		return nil, utils.NewValidationError("type", fmt.Sprintf("%s is a list; pass an entry index", t))
	}
	return s, nil
}

// UpdateField replaces one field of a document type
func (f *Form) UpdateField(t Type, name, value string) error {
	s, err := f.documentSection(t)
	if err != nil {
		return err
	}
	return setField(s.records[0], name, value)
}

// UpdateEntry shallow-merges values into entry index of a list type.
// Fields not named in values keep their current contents.
func (f *Form) UpdateEntry(t Type, index int, values map[string]string) error {
	s, err := f.listSection(t, "")
	if err != nil {
		return err
	}
	r, err := s.Record(index)
	if err != nil {
		return err
	}
	return mergeFields(r, values)
}

// AddEntry appends an empty entry to a list type and returns its index
func (f *Form) AddEntry(t Type, listName string) (int, error) {
	s, err := f.listSection(t, listName)
	if err != nil {
		return 0, err
	}
	s.records = append(s.records, newRecord(t))
	return len(s.records) - 1, nil
}

// RemoveEntry removes entry index from a list type. The last remaining entry
// cannot be removed.
func (f *Form) RemoveEntry(t Type, listName string, index int) error {
	s, err := f.listSection(t, listName)
	if err != nil {
		return err
	}
	if _, err := s.Record(index); err != nil {
		return err
	}
	if len(s.records) == 1 {
		return utils.NewValidationError(s.desc.ListName,
			fmt.Sprintf("%s needs at least one entry", t))
	}
	s.records = append(s.records[:index:index], s.records[index+1:]...)
	return nil
}

// AttachFile stores doc on a document type, replacing any earlier one
func (f *Form) AttachFile(t Type, doc models.Attachment) error {
	s, err := f.documentSection(t)
	if err != nil {
		return err
	}
	s.records[0].SetDocument(doc)
	return nil
}

// AttachEntryFile stores doc on entry index of a list type
func (f *Form) AttachEntryFile(t Type, index int, doc models.Attachment) error {
	s, err := f.listSection(t, "")
	if err != nil {
		return err
	}
	r, err := s.Record(index)
	if err != nil {
		return err
	}
	r.SetDocument(doc)
	return nil
}

func (f *Form) clone() *Form {
	c := &Form{sections: make(map[Type]*Section, len(f.sections))}
	for t, s := range f.sections {
		c.sections[t] = s.clone()
	}
	return c
}
