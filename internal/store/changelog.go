package store

// OpKind distinguishes row upserts from hard deletions.
type OpKind int32

const (
	OpUpsert OpKind = iota
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpUpsert:
		return "upsert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is one staged row mutation. Entity is a row struct owned by the
// domain package that staged it; the persistence writer switches on the
// concrete type.
type Op struct {
	Kind   OpKind
	Entity any
}

// Changelog buffers the row mutations of the event currently being
// applied. Handlers stage every mutation here; the engine drains the
// buffer only when the whole handler succeeded, so a rejected event
// leaves no trace in persistence.
type Changelog struct {
	ops []Op
}

func NewChangelog() *Changelog {
	return &Changelog{}
}

func (c *Changelog) Upsert(entity any) {
	c.ops = append(c.ops, Op{Kind: OpUpsert, Entity: entity})
}

func (c *Changelog) Delete(entity any) {
	c.ops = append(c.ops, Op{Kind: OpDelete, Entity: entity})
}

func (c *Changelog) Len() int {
	return len(c.ops)
}

// Drain returns the staged ops and resets the buffer.
func (c *Changelog) Drain() []Op {
	ops := c.ops
	c.ops = nil
	return ops
}

// Discard drops staged ops without returning them. Called when the
// event that staged them was rejected.
func (c *Changelog) Discard() {
	c.ops = nil
}
