package protocols

import (
	"fmt"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
)

// identityAIR constrains every row to equal the previous one: Next == Current.
// It is the simplest possible transition constraint, useful for exercising
// the prover/verifier plumbing without any interesting arithmetic.
type identityAIR struct {
	ctx *AirContext
}

// NewIdentityAIR builds an AIR over a single column of traceLength rows,
// each of which must equal the row before it. It has no boundary
// constraint, so the constant value itself is not pinned.
func NewIdentityAIR(field *core.Field, traceLength int, options ProofOptions) *identityAIR {
	return &identityAIR{ctx: &AirContext{
		Field:                field,
		TraceLength:          traceLength,
		TraceColumns:         1,
		TransitionDegrees:    []int{1},
		TransitionExemptions: [][]int{{traceLength - 1}},
		Options:              options,
	}}
}

func (a *identityAIR) Context() *AirContext { return a.ctx }

func (a *identityAIR) ComputeTransition(frame *Frame) []*core.FieldElement {
	field := a.ctx.Field
	diff := frame.Next[0].Sub(frame.Current[0])
	return []*core.FieldElement{field.Zero().Add(diff)}
}

func (a *identityAIR) BoundaryConstraints() []BoundaryConstraint {
	return nil
}

// IdentityTrace builds the trace every identityAIR instance expects: every
// row equal to initial.
func IdentityTrace(field *core.Field, traceLength int, initial *core.FieldElement) [][]*core.FieldElement {
	col := make([]*core.FieldElement, traceLength)
	for i := range col {
		col[i] = initial
	}
	return [][]*core.FieldElement{col}
}

// counterAIR constrains Next == Current + 1 everywhere except the wraparound
// row, where the trace has no successor to compare against.
type counterAIR struct {
	ctx *AirContext
}

// NewCounterAIR builds an AIR over a single column counting up by one each
// row, exempting the last row (which would otherwise wrap to row 0).
func NewCounterAIR(field *core.Field, traceLength int, options ProofOptions) *counterAIR {
	return &counterAIR{ctx: &AirContext{
		Field:                field,
		TraceLength:          traceLength,
		TraceColumns:         1,
		TransitionDegrees:    []int{1},
		TransitionExemptions: [][]int{{traceLength - 1}},
		Options:              options,
	}}
}

func (a *counterAIR) Context() *AirContext { return a.ctx }

func (a *counterAIR) ComputeTransition(frame *Frame) []*core.FieldElement {
	field := a.ctx.Field
	one := field.One()
	expectedNext := frame.Current[0].Add(one)
	return []*core.FieldElement{frame.Next[0].Sub(expectedNext)}
}

func (a *counterAIR) BoundaryConstraints() []BoundaryConstraint {
	return []BoundaryConstraint{
		{Column: 0, Row: 0, Value: a.ctx.Field.Zero()},
	}
}

// CounterTrace builds the trace every counterAIR instance expects:
// row i holds i, for i = 0..traceLength-1.
func CounterTrace(field *core.Field, traceLength int) [][]*core.FieldElement {
	col := make([]*core.FieldElement, traceLength)
	for i := range col {
		col[i] = field.NewElementFromInt64(int64(i))
	}
	return [][]*core.FieldElement{col}
}

// fibonacciAIR is a two-column recurrence: the next row's first column
// equals the current row's second, and the next row's second column equals
// the sum of the current row's two columns (a Fibonacci-style step). The
// same shape proves both the classic (1,1) Fibonacci sequence and a (0,1)
// seeded variant.
type fibonacciAIR struct {
	ctx   *AirContext
	seed0 *core.FieldElement
	seed1 *core.FieldElement
}

// NewFibonacciAIR builds a two-column Fibonacci AIR seeded with (seed0, seed1).
func NewFibonacciAIR(field *core.Field, traceLength int, seed0, seed1 *core.FieldElement, options ProofOptions) *fibonacciAIR {
	return &fibonacciAIR{
		ctx: &AirContext{
			Field:                field,
			TraceLength:          traceLength,
			TraceColumns:         2,
			TransitionDegrees:    []int{1, 1},
			TransitionExemptions: [][]int{{traceLength - 1}, {traceLength - 1}},
			Options:              options,
		},
		seed0: seed0,
		seed1: seed1,
	}
}

func (a *fibonacciAIR) Context() *AirContext { return a.ctx }

func (a *fibonacciAIR) ComputeTransition(frame *Frame) []*core.FieldElement {
	c0, c1 := frame.Current[0], frame.Current[1]
	n0, n1 := frame.Next[0], frame.Next[1]
	return []*core.FieldElement{
		n0.Sub(c1),
		n1.Sub(c0.Add(c1)),
	}
}

func (a *fibonacciAIR) BoundaryConstraints() []BoundaryConstraint {
	return []BoundaryConstraint{
		{Column: 0, Row: 0, Value: a.seed0},
		{Column: 1, Row: 0, Value: a.seed1},
	}
}

// FibonacciTrace builds the (seed0, seed1) Fibonacci trace fibonacciAIR
// expects: row 0 is the seed, row i+1 is (row_i.c1, row_i.c0+row_i.c1).
func FibonacciTrace(field *core.Field, traceLength int, seed0, seed1 *core.FieldElement) [][]*core.FieldElement {
	c0 := make([]*core.FieldElement, traceLength)
	c1 := make([]*core.FieldElement, traceLength)
	c0[0], c1[0] = seed0, seed1
	for i := 1; i < traceLength; i++ {
		c0[i] = c1[i-1]
		c1[i] = c0[i-1].Add(c1[i-1])
	}
	return [][]*core.FieldElement{c0, c1}
}

// BuildTraceTable wraps raw columns into a TraceTable, returning a
// descriptive error if the AIR's declared column/row counts don't match.
func BuildTraceTable(field *core.Field, ctx *AirContext, columns [][]*core.FieldElement) (*TraceTable, error) {
	if len(columns) != ctx.TraceColumns {
		return nil, fmt.Errorf("trace has %d columns, AIR expects %d", len(columns), ctx.TraceColumns)
	}
	if len(columns[0]) != ctx.TraceLength {
		return nil, fmt.Errorf("trace has %d rows, AIR expects %d", len(columns[0]), ctx.TraceLength)
	}
	return NewTraceTable(field, columns)
}
