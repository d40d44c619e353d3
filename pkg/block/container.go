package block

import "sort"

// Branch input names, in branch order. Most control blocks have one
// branch; if-else has two.
var branchInputs = [...]string{"SUBSTACK", "SUBSTACK2"}

// Container is the immutable block graph of one target.
//
// Lookups for unknown IDs return zero values rather than panicking: a
// damaged graph degrades to no-op blocks and the caller decides how
// loudly to complain.
type Container struct {
	blocks   map[string]*Block
	topLevel []string
	procDefs map[string]string
}

// NewContainer builds a container over the given blocks. Top-level
// scripts and procedure definitions are indexed once, in sorted block
// ID order so iteration is deterministic.
func NewContainer(blocks map[string]*Block) *Container {
	c := &Container{
		blocks:   make(map[string]*Block, len(blocks)),
		procDefs: make(map[string]string),
	}

	ids := make([]string, 0, len(blocks))
	for id, b := range blocks {
		if id == "" || b == nil {
			continue
		}
		c.blocks[id] = b
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		b := c.blocks[id]
		if b.TopLevel {
			c.topLevel = append(c.topLevel, id)
		}
		if b.Opcode == "procedures_definition" && b.Mutation != nil && b.Mutation.ProcCode != "" {
			if _, exists := c.procDefs[b.Mutation.ProcCode]; !exists {
				c.procDefs[b.Mutation.ProcCode] = id
			}
		}
	}

	return c
}

// Len returns the number of blocks in the container.
func (c *Container) Len() int {
	return len(c.blocks)
}

// BlockByID returns the block with the given ID, or nil.
func (c *Container) BlockByID(id string) *Block {
	return c.blocks[id]
}

// OpcodeOf returns the opcode of the given block, or "".
func (c *Container) OpcodeOf(id string) string {
	if b := c.blocks[id]; b != nil {
		return b.Opcode
	}
	return ""
}

// NextOf returns the ID of the block following the given one in
// sequence, or "" at the end of a sequence.
func (c *Container) NextOf(id string) string {
	if b := c.blocks[id]; b != nil {
		return b.Next
	}
	return ""
}

// BranchOf returns the first block of the n-th branch (1-based) of the
// given block, or "" when the branch is absent or empty.
func (c *Container) BranchOf(id string, n int) string {
	b := c.blocks[id]
	if b == nil || n < 1 || n > len(branchInputs) {
		return ""
	}
	in, ok := b.Inputs[branchInputs[n-1]]
	if !ok {
		return ""
	}
	return in.Block
}

// TopLevelScripts returns the IDs of all top-level blocks in sorted
// order.
func (c *Container) TopLevelScripts() []string {
	out := make([]string, len(c.topLevel))
	copy(out, c.topLevel)
	return out
}

// ProcedureDefinition returns the ID of the definition block declaring
// the given procedure identity, or "".
func (c *Container) ProcedureDefinition(procCode string) string {
	return c.procDefs[procCode]
}

// ScriptForBlock walks parent links from the given block to the top
// block of its script. Returns "" for unknown IDs or cyclic parent
// chains.
func (c *Container) ScriptForBlock(id string) string {
	steps := len(c.blocks)
	for i := 0; i <= steps; i++ {
		b := c.blocks[id]
		if b == nil {
			return ""
		}
		if b.Parent == "" {
			return id
		}
		id = b.Parent
	}
	return ""
}
