// Package block holds one target's scripts as an immutable graph of
// blocks keyed by block ID. The engine walks this graph; it never
// mutates it.
package block

import "sort"

// Input is one operand slot of a block. It carries either a literal
// value or a reference to a child block that produces the value.
type Input struct {
	Block string `json:"block,omitempty"`
	Value any    `json:"value,omitempty"`
}

// IsBlock reports whether the input references a child block.
func (in Input) IsBlock() bool {
	return in.Block != ""
}

// Mutation carries procedure metadata. Definition blocks declare the
// procedure identity, its parameter names, and whether the body runs in
// warp mode; call blocks name the identity they invoke.
type Mutation struct {
	ProcCode      string   `json:"proccode"`
	ArgumentNames []string `json:"argumentnames,omitempty"`
	Warp          bool     `json:"warp,omitempty"`
}

// Block is one node of the script graph.
type Block struct {
	Opcode   string            `json:"opcode"`
	Next     string            `json:"next,omitempty"`
	Parent   string            `json:"parent,omitempty"`
	Inputs   map[string]Input  `json:"inputs,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	TopLevel bool              `json:"topLevel,omitempty"`
	Mutation *Mutation         `json:"mutation,omitempty"`
}

// InputOrder returns the block's input names in sorted order so that
// operand evaluation is deterministic.
func (b *Block) InputOrder() []string {
	if len(b.Inputs) == 0 {
		return nil
	}
	names := make([]string, 0, len(b.Inputs))
	for name := range b.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Field returns the named field value, or "" when absent.
func (b *Block) Field(name string) string {
	if b.Fields == nil {
		return ""
	}
	return b.Fields[name]
}
