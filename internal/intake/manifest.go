package intake

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/verifydesk/cli/internal/models"
	"github.com/verifydesk/cli/internal/utils"
)

// Manifest is a file-based description of one candidate intake
type Manifest struct {
	Candidate     models.BasicInfo `yaml:"candidate"`
	Verifications []ManifestType   `yaml:"verifications"`
}

// ManifestType holds the data of one selected verification type. Document
// types use Fields and Document; list types use Entries.
type ManifestType struct {
	Type     Type              `yaml:"type"`
	Fields   map[string]string `yaml:"fields,omitempty"`
	Document string            `yaml:"document,omitempty"`
	Entries  []ManifestEntry   `yaml:"entries,omitempty"`
}

// ManifestEntry is one entry of a list type
type ManifestEntry struct {
	Fields   map[string]string `yaml:"fields"`
	Document string            `yaml:"document,omitempty"`
}

// LoadManifest reads a manifest file
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	return DecodeManifest(f)
}

// DecodeManifest parses a manifest, rejecting unknown keys
func DecodeManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Apply drives in through the same operations an interactive user would:
// select each type, proceed, then fill basic info, fields, entries and
// documents. Relative document paths resolve against baseDir.
func (m *Manifest) Apply(in *Intake, baseDir string) error {
	for _, v := range m.Verifications {
		if in.IsSelected(v.Type) {
			return utils.NewValidationError("verifications", fmt.Sprintf("%s listed twice", v.Type))
		}
		if err := in.ToggleType(v.Type); err != nil {
			return err
		}
	}
	if err := in.Proceed(); err != nil {
		return err
	}
	if err := in.SetBasicInfo(m.Candidate); err != nil {
		return err
	}

	for _, v := range m.Verifications {
		if err := m.applyType(in, v, baseDir); err != nil {
			return fmt.Errorf("%s: %w", v.Type, err)
		}
	}
	return nil
}

func (m *Manifest) applyType(in *Intake, v ManifestType, baseDir string) error {
	desc, _ := Lookup(v.Type)

	if desc.Shape == ShapeDocument {
		if len(v.Entries) > 0 {
			return utils.NewValidationError("entries", "only list types take entries")
		}
		for name, value := range v.Fields {
			if err := in.UpdateField(v.Type, name, value); err != nil {
				return err
			}
		}
		if v.Document != "" {
			doc, err := resolveDocument(baseDir, v.Document)
			if err != nil {
				return err
			}
			return in.AttachFile(v.Type, doc)
		}
		return nil
	}

	if len(v.Fields) > 0 || v.Document != "" {
		return utils.NewValidationError("fields", "list types take entries, not fields")
	}
	for i, e := range v.Entries {
		if i > 0 {
			if _, err := in.AddEntry(v.Type, desc.ListName); err != nil {
				return err
			}
		}
		if err := in.UpdateEntry(v.Type, i, e.Fields); err != nil {
			return err
		}
		if e.Document != "" {
			doc, err := resolveDocument(baseDir, e.Document)
			if err != nil {
				return err
			}
			if err := in.AttachEntryFile(v.Type, i, doc); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveDocument(baseDir, path string) (models.Attachment, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, utils.NewValidationError(DocumentField, fmt.Sprintf("cannot read %s", path))
	}
	if info.IsDir() {
		return nil, utils.NewValidationError(DocumentField, fmt.Sprintf("%s is a directory", path))
	}
	return models.FileAttachment{Path: path}, nil
}

// TemplateManifest returns an empty manifest for the given types with every
// field present
func TemplateManifest(types []Type) *Manifest {
	m := &Manifest{}
	for _, t := range types {
		desc, ok := Lookup(t)
		if !ok {
			continue
		}
		fields := emptyFields(newRecord(t))
		mt := ManifestType{Type: t}
		if desc.Shape == ShapeList {
			mt.Entries = []ManifestEntry{{Fields: fields}}
		} else {
			mt.Fields = fields
		}
		m.Verifications = append(m.Verifications, mt)
	}
	return m
}

func emptyFields(r Record) map[string]string {
	out := make(map[string]string)
	for _, f := range FormFields(r) {
		out[f.Name] = f.Value
	}
	return out
}
