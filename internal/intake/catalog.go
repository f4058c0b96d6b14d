package intake

import (
	"fmt"
	"strings"
)

// Type identifies a verification type. Its value is also the upload path
// segment.
type Type string

// The verification catalog
const (
	Identity   Type = "identity"
	Address    Type = "address"
	Academic   Type = "academic"
	Employment Type = "employment"
	Credit     Type = "credit"
	License    Type = "license"
	Reference  Type = "reference"
)

// Shape distinguishes single-record types from list types
type Shape int

const (
	// ShapeDocument holds one flat record with at most one document
	ShapeDocument Shape = iota
	// ShapeList holds an ordered list of records, each with its own document
	ShapeList
)

func (s Shape) String() string {
	if s == ShapeList {
		return "list"
	}
	return "document"
}

// Descriptor describes one catalog entry
type Descriptor struct {
	ID          Type   `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Shape       Shape  `json:"-" yaml:"-"`
	// ListName is the name of the entry list for list types
	ListName string `json:"list_name,omitempty" yaml:"list_name,omitempty"`
}

// Catalog is the fixed set of verification types in display order
var Catalog = []Descriptor{
	{ID: Identity, Name: "Identity Verification", Description: "Verify identity documents", Shape: ShapeDocument},
	{ID: Address, Name: "Address Verification", Description: "Verify residential address", Shape: ShapeDocument},
	{ID: Academic, Name: "Academic Verification", Description: "Verify educational qualifications", Shape: ShapeList, ListName: "degrees"},
	{ID: Employment, Name: "Employment Records", Description: "Verify employment history", Shape: ShapeList, ListName: "history"},
	{ID: Credit, Name: "Credit Report", Description: "Verify credit history", Shape: ShapeDocument},
	{ID: License, Name: "Professional License Verification", Description: "Verify professional licenses", Shape: ShapeList, ListName: "licenses"},
	{ID: Reference, Name: "Reference Verification", Description: "Verify professional references", Shape: ShapeList, ListName: "references"},
}

// Lookup returns the descriptor for id
func Lookup(id Type) (Descriptor, bool) {
	for _, d := range Catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ParseType converts user input into a catalog type
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Lookup(t); !ok {
		return "", fmt.Errorf("unknown verification type %q", s)
	}
	return t, nil
}

// CatalogTable renders the catalog for the table formatter
type CatalogTable []Descriptor

// Headers implements format.Tabular
func (c CatalogTable) Headers() []string {
	return []string{"ID", "Name", "Shape", "Fields"}
}

// Rows implements format.Tabular
func (c CatalogTable) Rows() [][]string {
	rows := make([][]string, 0, len(c))
	for _, d := range c {
		rows = append(rows, []string{
			string(d.ID),
			d.Name,
			d.Shape.String(),
			strings.Join(FieldNames(newRecord(d.ID)), ", "),
		})
	}
	return rows
}
