package bytecode

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/chazu/xtella/vm"
)

// CatalogEntry is the exported form of one opcode descriptor.
type CatalogEntry struct {
	Number      int32  `yaml:"number"`
	Name        string `yaml:"name"`
	Params      uint32 `yaml:"params"`
	Results     uint32 `yaml:"results"`
	Immediates  int    `yaml:"immediates"`
	Builtin     bool   `yaml:"builtin"`
	Implemented bool   `yaml:"implemented"`
	Docs        string `yaml:"docs,omitempty"`
}

// Catalog is the exported form of a registry.
type Catalog struct {
	Opcodes []CatalogEntry `yaml:"opcodes"`
}

// NewCatalog builds a Catalog from reg, ordered by opcode number.
func NewCatalog(reg *vm.Registry) Catalog {
	var c Catalog
	for _, d := range reg.Descriptors() {
		c.Opcodes = append(c.Opcodes, CatalogEntry{
			Number:      d.Number,
			Name:        d.String(),
			Params:      d.Params,
			Results:     d.Results,
			Immediates:  d.Immediates,
			Builtin:     d.Builtin,
			Implemented: d.Operation != nil,
			Docs:        d.Docs,
		})
	}
	return c
}

// WriteCatalog writes the registry's descriptors to w as YAML.
func WriteCatalog(w io.Writer, reg *vm.Registry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewCatalog(reg)); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}
