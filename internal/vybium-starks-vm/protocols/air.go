package protocols

import (
	"fmt"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
)

// ProofOptions are the public parameters governing a proof's soundness and
// size, agreed on by prover and verifier ahead of time (they are part of
// the statement, not the witness).
type ProofOptions struct {
	// BlowupFactor is the ratio between the LDE domain and the trace
	// domain; it must be a power of two.
	BlowupFactor int
	// FriNumberOfQueries is how many FRI query rounds the verifier runs.
	FriNumberOfQueries int
	// CosetOffset shifts the LDE domain off the trace domain's subgroup
	// so committed evaluations never collide with trace points.
	CosetOffset *core.FieldElement
	// GrindingFactor is carried in the options and checked to be
	// non-negative; the prover and verifier run no proof-of-work step,
	// so its value does not change the proof.
	GrindingFactor int
}

// Validate checks that the options can produce a sound, well-formed proof.
func (o ProofOptions) Validate() error {
	if o.BlowupFactor <= 1 || o.BlowupFactor&(o.BlowupFactor-1) != 0 {
		return fmt.Errorf("blowup factor must be a power of two greater than 1, got %d", o.BlowupFactor)
	}
	if o.FriNumberOfQueries <= 0 {
		return fmt.Errorf("fri_number_of_queries must be positive, got %d", o.FriNumberOfQueries)
	}
	if o.CosetOffset == nil || o.CosetOffset.IsZero() {
		return fmt.Errorf("coset offset must be a nonzero field element")
	}
	if o.GrindingFactor < 0 {
		return fmt.Errorf("grinding factor must be non-negative, got %d", o.GrindingFactor)
	}
	return nil
}

// AirContext carries every parameter an AIR instance needs to describe
// its own shape: how wide the trace is, what degree each transition
// constraint can reach, and which trace rows are exempt from which
// transition constraint (e.g. the last row of a computation that only
// transitions within itself, per the AIR's boundary behavior).
type AirContext struct {
	Field  *core.Field
	// TraceLength is the number of rows in the (unpadded) execution trace.
	TraceLength int
	// TraceColumns is the number of columns (registers) in the trace.
	TraceColumns int
	// TransitionDegrees[i] bounds the polynomial degree of the i-th
	// transition constraint as a function of the trace columns.
	TransitionDegrees []int
	// TransitionExemptions[i] lists the trace-row indices (0-based, in
	// row order, not domain-point order) where the i-th transition
	// constraint need not hold, typically because there is no "next"
	// row to compare against at the boundary of the computation.
	TransitionExemptions [][]int
	Options              ProofOptions
}

// NumTransitionConstraints reports how many transition constraints the AIR
// declares degrees for.
func (c *AirContext) NumTransitionConstraints() int {
	return len(c.TransitionDegrees)
}

// Frame is the pair of consecutive trace rows a transition constraint is
// evaluated against: Current is row i, Next is row i+1.
type Frame struct {
	Current []*core.FieldElement
	Next    []*core.FieldElement
}

// BoundaryConstraint pins a single trace cell to a known value, e.g. the
// first row's initial values or the last row's claimed output.
type BoundaryConstraint struct {
	Column int
	Row    int
	Value  *core.FieldElement
}

// AIR is the contract every provable computation implements: how wide and
// long its trace is (Context), what must hold between consecutive rows
// (ComputeTransition), and what must hold at fixed rows (BoundaryConstraints).
// The STARK prover and verifier in this package are written once against
// this interface and never reference a concrete computation.
type AIR interface {
	Context() *AirContext
	ComputeTransition(frame *Frame) []*core.FieldElement
	BoundaryConstraints() []BoundaryConstraint
}

// TraceTable holds an execution trace as a set of column-major value
// slices, one slice per register.
type TraceTable struct {
	field   *core.Field
	columns [][]*core.FieldElement
}

// NewTraceTable validates and wraps a set of equal-length columns.
func NewTraceTable(field *core.Field, columns [][]*core.FieldElement) (*TraceTable, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("trace table must have at least one column")
	}
	rows := len(columns[0])
	for j, col := range columns {
		if len(col) != rows {
			return nil, fmt.Errorf("column %d has %d rows, expected %d", j, len(col), rows)
		}
	}
	return &TraceTable{field: field, columns: columns}, nil
}

// NumRows returns the number of rows in the trace.
func (t *TraceTable) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return len(t.columns[0])
}

// NumColumns returns the number of columns (registers) in the trace.
func (t *TraceTable) NumColumns() int {
	return len(t.columns)
}

// Get returns the value at (column, row).
func (t *TraceTable) Get(column, row int) *core.FieldElement {
	return t.columns[column][row]
}

// Column returns a copy of a single column.
func (t *TraceTable) Column(index int) []*core.FieldElement {
	out := make([]*core.FieldElement, len(t.columns[index]))
	copy(out, t.columns[index])
	return out
}

// Row returns the values of every column at the given row.
func (t *TraceTable) Row(index int) []*core.FieldElement {
	row := make([]*core.FieldElement, len(t.columns))
	for j, col := range t.columns {
		row[j] = col[index]
	}
	return row
}

// Frame returns the (current, next) frame starting at row, wrapping
// around to row 0 for the next row when row is the last one (the
// transition's divisor construction relies on AirContext.TransitionExemptions
// to mark where this wraparound is not actually constrained).
func (t *TraceTable) Frame(row int) *Frame {
	next := (row + 1) % t.NumRows()
	return &Frame{Current: t.Row(row), Next: t.Row(next)}
}

// InterpolateColumns interpolates each trace column over the trace domain,
// returning one polynomial per column.
func (t *TraceTable) InterpolateColumns(domain *ArithmeticDomain) ([]*core.Polynomial, error) {
	points := domain.Elements()
	polys := make([]*core.Polynomial, t.NumColumns())
	for j := 0; j < t.NumColumns(); j++ {
		poly, err := core.Interpolate(t.field, points, t.columns[j])
		if err != nil {
			return nil, fmt.Errorf("failed to interpolate column %d: %w", j, err)
		}
		polys[j] = poly
	}
	return polys, nil
}
