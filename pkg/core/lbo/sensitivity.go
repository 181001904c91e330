package lbo

import "math"

// Grid spacing around the base entry multiple: one turn down to one turn up
// in half-turn steps on both axes.
const (
	gridSpan = 1.0
	gridStep = 0.5
)

// SensitivityGrid is the IRR/MOIC matrix indexed by entry multiple (rows) and
// exit multiple (columns). Infeasible cells carry NaN so one over-leveraged
// corner does not void the rest of the grid.
type SensitivityGrid struct {
	EntryMultiples []float64   `json:"entry_multiples"`
	ExitMultiples  []float64   `json:"exit_multiples"`
	IRR            [][]float64 `json:"irr"`
	MOIC           [][]float64 `json:"moic"`
}

// Sensitivity recomputes returns over the cross product of entry and exit
// multiple candidates centered on the candidate's base entry multiple. Entry
// multiple changes reprice the initial debt/equity split; everything else is
// held fixed. The cell where both multiples equal the base entry multiple is
// exactly the base case.
func (m *Model) Sensitivity() (*SensitivityGrid, error) {
	base, err := m.baseEntryMultiple()
	if err != nil {
		return nil, err
	}

	axis := multipleAxis(base)
	grid := &SensitivityGrid{
		EntryMultiples: axis,
		ExitMultiples:  axis,
		IRR:            make([][]float64, len(axis)),
		MOIC:           make([][]float64, len(axis)),
	}
	for i, entry := range axis {
		grid.IRR[i] = make([]float64, len(axis))
		grid.MOIC[i] = make([]float64, len(axis))
		for j, exit := range axis {
			res, err := m.RunAt(entry, exit)
			if err != nil {
				grid.IRR[i][j] = math.NaN()
				grid.MOIC[i][j] = math.NaN()
				continue
			}
			grid.IRR[i][j] = res.IRR
			grid.MOIC[i][j] = res.MOIC
		}
	}
	return grid, nil
}

func multipleAxis(base float64) []float64 {
	var axis []float64
	// base is included exactly: the axis is built from offsets, not from
	// accumulating the step, so the diagonal cell reproduces the base case
	// bit for bit.
	for offset := -gridSpan; offset <= gridSpan+1e-9; offset += gridStep {
		v := base + offset
		if offset == 0 {
			v = base
		}
		axis = append(axis, v)
	}
	return axis
}
