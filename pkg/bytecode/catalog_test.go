package bytecode

import (
	"bytes"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/chazu/xtella/vm"
)

func TestWriteCatalog(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	reg.Register(vm.Descriptor{Number: 100, Name: "USER_OP", Params: 1, Docs: "user supplied"})

	var buf bytes.Buffer
	if err := WriteCatalog(&buf, reg); err != nil {
		t.Fatalf("WriteCatalog failed: %v", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(buf.Bytes(), &c); err != nil {
		t.Fatalf("catalog is not valid YAML: %v", err)
	}
	if len(c.Opcodes) != reg.Len() {
		t.Fatalf("catalog has %d entries, want %d", len(c.Opcodes), reg.Len())
	}

	first := c.Opcodes[0]
	if first.Number != OpHalt || first.Name != "HALT" || !first.Builtin || !first.Implemented {
		t.Errorf("first entry = %+v, want builtin HALT", first)
	}

	last := c.Opcodes[len(c.Opcodes)-1]
	if last.Name != "USER_OP" || last.Builtin || last.Implemented || last.Params != 1 {
		t.Errorf("last entry = %+v, want unimplemented user opcode", last)
	}
}
