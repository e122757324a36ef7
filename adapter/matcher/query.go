package matcher

// Numeric representations of supported logic operators.
const (
	And uint8 = iota
	Or
	Nor
	Not
	Where
)

// Numeric representations of supported operators.
const (
	Eq uint8 = iota
	Ne
	Exists
	Lt
	Lte
	Gt
	Gte
	Size
	In
	Nin
	All
	ElemMatch
	Regex
	NotCond
)

// LogicOp stores a logic operator (and, or, nor, not) and its children, which
// can be either a set of rules or a nested set of LogicOps. A compiled query
// is an And LogicOp.
type LogicOp struct {
	Type  uint8
	Rules []FieldRule
	Sub   []LogicOp
	Where func(doc map[string]any) (bool, error)
}

// FieldRule stores a set of conditions used to match a given object field.
type FieldRule struct {
	Addr  []string
	Conds []Cond
}

// Cond stores a single operation on a document field (such as $gt, $size).
// Val holds the compiled argument: a []any for list operators, a
// *regexp.Regexp for Regex, a LogicOp for ElemMatch and a []Cond for
// NotCond.
type Cond struct {
	Op  uint8
	Val any
}
