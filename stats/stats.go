// Package stats implements the fixed-capacity 2-D per-iteration table
// described in spec.md §3/§6: one row per RTI inner iteration, columns
// for QP status/iterations and, conditionally, QP and NLP KKT
// residuals.
package stats

import "github.com/gonmpc/rti/arena"

// Column offsets within a row, before any conditional blocks.
const (
	ColQPStatus = 0
	ColQPIter   = 1
	baseCols    = 2
)

// N returns stat_n: the number of columns, per spec.md §3
// ("stat_n = 2 + 4·log_nlp_res + 4·ext_qp_res") and the acados source's
// literal stat_n += 4 blocks (qp residuals are appended before nlp
// residuals in the C source's field order; ext_qp_res occupies columns
// 2..5 and, if both are on, nlp residuals occupy 6..9).
func N(extQPRes, logNLPRes bool) int {
	n := baseCols
	if extQPRes {
		n += 4
	}
	if logNLPRes {
		n += 4
	}
	return n
}

// M returns stat_m: the number of rows, per spec.md §3
// ("stat_m = 2 + as_rti_iter").
func M(asRtiIter int) int {
	return 2 + asRtiIter
}

// Table is a fixed-capacity, row-major stats ring. Rows beyond stat_m
// are never written (the driver's iter counter is itself bounded by
// construction: the AS-RTI loop runs at most as_rti_iter times plus
// the two standard phases).
type Table struct {
	rows, cols int
	extQPRes   bool
	logNLPRes  bool
	data       []float64
}

// NewInArena carves a zero-initialized rows*cols table out of a.
func NewInArena(a *arena.Arena, rows, cols int, extQPRes, logNLPRes bool) *Table {
	return &Table{
		rows:      rows,
		cols:      cols,
		extQPRes:  extQPRes,
		logNLPRes: logNLPRes,
		data:      a.Float64Slice(rows * cols),
	}
}

// Size returns the arena footprint of NewInArena(_, rows, cols, _, _).
func Size(rows, cols int) int { return arena.SizeFloat64(rows * cols) }

// Rows and Cols report the table's fixed shape.
func (t *Table) Rows() int { return t.rows }
func (t *Table) Cols() int { return t.cols }

// Reset zeroes every cell, per the memory_assign postcondition in
// spec.md §4.1 ("zero-initialize the stats table").
func (t *Table) Reset() {
	for i := range t.data {
		t.data[i] = 0
	}
}

func (t *Table) checkBounds(row, col int) {
	if row < 0 || row >= t.rows || col < 0 || col >= t.cols {
		panic("stats: index out of range")
	}
}

// Set writes a single cell.
func (t *Table) Set(row, col int, v float64) {
	t.checkBounds(row, col)
	t.data[row*t.cols+col] = v
}

// Get reads a single cell.
func (t *Table) Get(row, col int) float64 {
	t.checkBounds(row, col)
	return t.data[row*t.cols+col]
}

// SetQPOutcome records columns 0-1 (qp_status, qp_iter) for a row.
func (t *Table) SetQPOutcome(row int, status, iter int) {
	t.Set(row, ColQPStatus, float64(status))
	t.Set(row, ColQPIter, float64(iter))
}

// QPResidualOffset is the column of the first of the four ext_qp_res
// columns, or -1 if they are not enabled.
func (t *Table) QPResidualOffset() int {
	if !t.extQPRes {
		return -1
	}
	return baseCols
}

// NLPResidualOffset is the column of the first of the four
// rti_log_residuals columns, or -1 if they are not enabled. Its offset
// is baseCols shifted by 4 iff ext_qp_res is also on, per spec.md §6's
// table ("offset = 2 + 4·ext_qp_res").
func (t *Table) NLPResidualOffset() int {
	if !t.logNLPRes {
		return -1
	}
	off := baseCols
	if t.extQPRes {
		off += 4
	}
	return off
}

// SetResidualQuad writes the four (stat, eq, ineq, comp) infinity-norm
// residual columns starting at off.
func (t *Table) SetResidualQuad(row, off int, stat, eq, ineq, comp float64) {
	t.Set(row, off+0, stat)
	t.Set(row, off+1, eq)
	t.Set(row, off+2, ineq)
	t.Set(row, off+3, comp)
}

// Transposed returns a copy of the table with the iteration index
// prepended as column 0, matching the "statistics" field of
// spec.md §4.7's get() dispatch: "returns a transposed copy with
// iteration index prepended in column 0".
func (t *Table) Transposed(validRows int) [][]float64 {
	if validRows > t.rows {
		validRows = t.rows
	}
	out := make([][]float64, validRows)
	for r := 0; r < validRows; r++ {
		row := make([]float64, t.cols+1)
		row[0] = float64(r)
		for c := 0; c < t.cols; c++ {
			row[c+1] = t.Get(r, c)
		}
		out[r] = row
	}
	return out
}
