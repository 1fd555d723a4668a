// Package part describes an immutable on-disk data part: its row count, mark
// granularity, columns and the files that hold each column's sub-streams.
package part

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/INLOpen/mergetree/core"
	"github.com/INLOpen/mergetree/datatype"
)

const (
	DescriptorFile = "part.yaml"
	DataExtension  = ".bin"
	MarksExtension = ".mrk"
)

// ColumnDescriptor is one column entry of part.yaml.
type ColumnDescriptor struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Descriptor is the content of part.yaml.
type Descriptor struct {
	Rows             int                `yaml:"rows"`
	IndexGranularity int                `yaml:"index_granularity"`
	Columns          []ColumnDescriptor `yaml:"columns"`
}

// NameAndType is a column declared by a part.
type NameAndType struct {
	Name string
	Type datatype.DataType
}

// ParseNameAndType parses typeName and pairs it with name.
func ParseNameAndType(name, typeName string) (NameAndType, error) {
	t, err := datatype.Parse(typeName)
	if err != nil {
		return NameAndType{}, fmt.Errorf("column %s: %w", name, err)
	}
	return NameAndType{Name: name, Type: t}, nil
}

// MustNameAndType is ParseNameAndType that panics on error.
func MustNameAndType(name, typeName string) NameAndType {
	c, err := ParseNameAndType(name, typeName)
	if err != nil {
		panic(err)
	}
	return c
}

// Part is a loaded part descriptor.
type Part struct {
	Name             string
	Path             string
	Rows             int
	IndexGranularity int
	Columns          []NameAndType

	byName map[string]int
}

// Load reads the descriptor of the part in dir.
func Load(dir string) (*Part, error) {
	f, err := os.Open(filepath.Join(dir, DescriptorFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: part %s has no %s", core.ErrMissingData, dir, DescriptorFile)
		}
		return nil, fmt.Errorf("failed to open part descriptor in %s: %w", dir, err)
	}
	defer f.Close()
	return decode(dir, f)
}

func decode(dir string, r io.Reader) (*Part, error) {
	var d Descriptor
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: failed to decode part descriptor in %s: %v", core.ErrCorrupted, dir, err)
	}
	return New(dir, d)
}

// New builds a Part from a descriptor without touching the filesystem.
func New(dir string, d Descriptor) (*Part, error) {
	if d.IndexGranularity <= 0 {
		return nil, fmt.Errorf("%w: part %s has index granularity %d", core.ErrCorrupted, dir, d.IndexGranularity)
	}
	if d.Rows < 0 {
		return nil, fmt.Errorf("%w: part %s has %d rows", core.ErrCorrupted, dir, d.Rows)
	}
	p := &Part{
		Name:             filepath.Base(dir),
		Path:             dir,
		Rows:             d.Rows,
		IndexGranularity: d.IndexGranularity,
		byName:           make(map[string]int, len(d.Columns)),
	}
	for _, c := range d.Columns {
		t, err := datatype.Parse(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s of part %s: %w", c.Name, dir, err)
		}
		if _, dup := p.byName[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %s in part %s", core.ErrCorrupted, c.Name, dir)
		}
		p.byName[c.Name] = len(p.Columns)
		p.Columns = append(p.Columns, NameAndType{Name: c.Name, Type: t})
	}
	return p, nil
}

// Descriptor returns the part.yaml content describing p.
func (p *Part) Descriptor() Descriptor {
	d := Descriptor{Rows: p.Rows, IndexGranularity: p.IndexGranularity}
	for _, c := range p.Columns {
		d.Columns = append(d.Columns, ColumnDescriptor{Name: c.Name, Type: c.Type.Name()})
	}
	return d
}

// WriteDescriptor writes part.yaml into dir.
func WriteDescriptor(dir string, d Descriptor) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode part descriptor: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, DescriptorFile), data, 0644)
}

// MarkCount is the number of marks of every stream of the part.
func (p *Part) MarkCount() int {
	return (p.Rows + p.IndexGranularity - 1) / p.IndexGranularity
}

// Column returns the declared type of the named column.
func (p *Part) Column(name string) (datatype.DataType, bool) {
	i, ok := p.byName[name]
	if !ok {
		return nil, false
	}
	return p.Columns[i].Type, true
}

func (p *Part) DataPath(stream string) string {
	return filepath.Join(p.Path, EscapeForFileName(stream)+DataExtension)
}

func (p *Part) MarksPath(stream string) string {
	return filepath.Join(p.Path, EscapeForFileName(stream)+MarksExtension)
}

// DataFileSize returns the size of the stream's data file, and false if the
// file does not exist.
func (p *Part) DataFileSize(stream string) (int64, bool, error) {
	st, err := os.Stat(p.DataPath(stream))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return st.Size(), true, nil
}
