package intake

import (
	"fmt"
	"strconv"

	"github.com/verifydesk/cli/internal/models"
	"github.com/verifydesk/cli/internal/utils"
)

// DocumentField is the multipart field carrying an attached document
const DocumentField = "document"

// Record is one set of verification fields with an optional document. The
// concrete types below are the only implementations.
type Record interface {
	Type() Type
	Document() models.Attachment
	SetDocument(models.Attachment)
	fields() []field
}

// field binds a wire name to a string or bool struct member
type field struct {
	name string
	str  *string
	flag *bool
}

func (f field) get() string {
	if f.flag != nil {
		return strconv.FormatBool(*f.flag)
	}
	return *f.str
}

func (f field) set(value string) error {
	if f.flag != nil {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return utils.NewValidationError(f.name, "must be true or false")
		}
		*f.flag = b
		return nil
	}
	*f.str = value
	return nil
}

type document struct {
	doc models.Attachment
}

// Document returns the attached document or nil
func (d *document) Document() models.Attachment { return d.doc }

// SetDocument replaces the attached document
func (d *document) SetDocument(a models.Attachment) { d.doc = a }

// IdentityRecord is an identity document
type IdentityRecord struct {
	document
	IDType           string
	IDNumber         string
	IssueDate        string
	ExpiryDate       string
	IssuingAuthority string
}

func (r *IdentityRecord) Type() Type { return Identity }

func (r *IdentityRecord) fields() []field {
	return []field{
		{name: "idType", str: &r.IDType},
		{name: "idNumber", str: &r.IDNumber},
		{name: "issueDate", str: &r.IssueDate},
		{name: "expiryDate", str: &r.ExpiryDate},
		{name: "issuingAuthority", str: &r.IssuingAuthority},
	}
}

// AddressRecord is a residential address
type AddressRecord struct {
	document
	Street         string
	City           string
	State          string
	ZipCode        string
	Country        string
	ResidenceSince string
}

func (r *AddressRecord) Type() Type { return Address }

func (r *AddressRecord) fields() []field {
	return []field{
		{name: "street", str: &r.Street},
		{name: "city", str: &r.City},
		{name: "state", str: &r.State},
		{name: "zipCode", str: &r.ZipCode},
		{name: "country", str: &r.Country},
		{name: "residenceSince", str: &r.ResidenceSince},
	}
}

// CreditRecord authorizes a credit check. SSN is sent as entered.
type CreditRecord struct {
	document
	SSN     string
	Consent bool
}

func (r *CreditRecord) Type() Type { return Credit }

func (r *CreditRecord) fields() []field {
	return []field{
		{name: "ssn", str: &r.SSN},
		{name: "consent", flag: &r.Consent},
	}
}

// DegreeRecord is one academic qualification
type DegreeRecord struct {
	document
	Degree         string
	Field          string
	Institution    string
	GraduationDate string
}

func (r *DegreeRecord) Type() Type { return Academic }

func (r *DegreeRecord) fields() []field {
	return []field{
		{name: "degree", str: &r.Degree},
		{name: "field", str: &r.Field},
		{name: "institution", str: &r.Institution},
		{name: "graduationDate", str: &r.GraduationDate},
	}
}

// EmploymentRecord is one past or current job
type EmploymentRecord struct {
	document
	Company    string
	Position   string
	StartDate  string
	EndDate    string
	Supervisor string
}

func (r *EmploymentRecord) Type() Type { return Employment }

func (r *EmploymentRecord) fields() []field {
	return []field{
		{name: "company", str: &r.Company},
		{name: "position", str: &r.Position},
		{name: "startDate", str: &r.StartDate},
		{name: "endDate", str: &r.EndDate},
		{name: "supervisor", str: &r.Supervisor},
	}
}

// LicenseRecord is one professional license
type LicenseRecord struct {
	document
	LicenseType      string
	Number           string
	IssuingAuthority string
	IssueDate        string
	ExpiryDate       string
}

func (r *LicenseRecord) Type() Type { return License }

func (r *LicenseRecord) fields() []field {
	return []field{
		{name: "type", str: &r.LicenseType},
		{name: "number", str: &r.Number},
		{name: "issuingAuthority", str: &r.IssuingAuthority},
		{name: "issueDate", str: &r.IssueDate},
		{name: "expiryDate", str: &r.ExpiryDate},
	}
}

// ReferenceRecord is one professional reference
type ReferenceRecord struct {
	document
	Name         string
	Relationship string
	Company      string
	Position     string
	Email        string
	Phone        string
}

func (r *ReferenceRecord) Type() Type { return Reference }

func (r *ReferenceRecord) fields() []field {
	return []field{
		{name: "name", str: &r.Name},
		{name: "relationship", str: &r.Relationship},
		{name: "company", str: &r.Company},
		{name: "position", str: &r.Position},
		{name: "email", str: &r.Email},
		{name: "phone", str: &r.Phone},
	}
}

// newRecord returns the empty template for t
func newRecord(t Type) Record {
	switch t {
	case Identity:
		return &IdentityRecord{}
	case Address:
		return &AddressRecord{}
	case Credit:
		return &CreditRecord{}
	case Academic:
		return &DegreeRecord{}
	case Employment:
		return &EmploymentRecord{}
	case License:
		return &LicenseRecord{}
	case Reference:
		return &ReferenceRecord{}
	}
	panic(fmt.Sprintf("intake: no record template for %q", t))
}

// FieldNames returns the wire names of r's non-document fields in order
func FieldNames(r Record) []string {
	fs := r.fields()
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.name
	}
	return names
}

func lookupField(r Record, name string) (field, error) {
	for _, f := range r.fields() {
		if f.name == name {
			return f, nil
		}
	}
	return field{}, utils.NewValidationError(name, fmt.Sprintf("unknown %s field", r.Type()))
}

// FieldValue returns the stringified value of one field
func FieldValue(r Record, name string) (string, error) {
	f, err := lookupField(r, name)
	if err != nil {
		return "", err
	}
	return f.get(), nil
}

// setField replaces one field value
func setField(r Record, name, value string) error {
	f, err := lookupField(r, name)
	if err != nil {
		return err
	}
	return f.set(value)
}

// mergeFields applies values onto r, leaving fields not named untouched.
// Nothing is written unless every name and value is valid.
func mergeFields(r Record, values map[string]string) error {
	for name, v := range values {
		f, err := lookupField(r, name)
		if err != nil {
			return err
		}
		if f.flag != nil {
			if _, err := strconv.ParseBool(v); err != nil {
				return utils.NewValidationError(name, "must be true or false")
			}
		}
	}
	for name, v := range values {
		if err := setField(r, name, v); err != nil {
			return err
		}
	}
	return nil
}

// FormFields stringifies every non-document field for a multipart upload
func FormFields(r Record) []models.FormField {
	fs := r.fields()
	out := make([]models.FormField, len(fs))
	for i, f := range fs {
		out[i] = models.FormField{Name: f.name, Value: f.get()}
	}
	return out
}

// cloneRecord copies r so a submission can proceed while edits are blocked
// without sharing memory with the live form
func cloneRecord(r Record) Record {
	c := newRecord(r.Type())
	src, dst := r.fields(), c.fields()
	for i := range src {
		if src[i].flag != nil {
			*dst[i].flag = *src[i].flag
		} else {
			*dst[i].str = *src[i].str
		}
	}
	c.SetDocument(r.Document())
	return c
}
