package model

import "fmt"

// Unknown-category policies.
const (
	HandleUnknownError  = "error"
	HandleUnknownIgnore = "ignore"
)

// Drop policies.
const (
	DropNone     = ""
	DropFirst    = "first"
	DropIfBinary = "if_binary"
)

// OneHotEncoder maps each categorical column to one indicator per fitted category.
type OneHotEncoder struct {
	Kind          string     `json:"kind" yaml:"kind"`
	Columns       []string   `json:"columns" yaml:"columns"`
	Categories    [][]string `json:"categories" yaml:"categories"`
	HandleUnknown string     `json:"handle_unknown" yaml:"handle_unknown"`
	Drop          string     `json:"drop" yaml:"drop"`

	index  [][]int // index[col][category] -> output position, -1 when dropped
	lookup []map[string]int
	width  int
}

func (e *OneHotEncoder) prepare() error {
	if e.Kind != "" && e.Kind != "onehot" {
		return contractf("encoder", "unsupported kind %q", e.Kind)
	}
	if len(e.Columns) != len(e.Categories) {
		return contractf("encoder", "%d columns but %d category lists", len(e.Columns), len(e.Categories))
	}
	switch e.HandleUnknown {
	case "":
		e.HandleUnknown = HandleUnknownError
	case HandleUnknownError, HandleUnknownIgnore:
	default:
		return contractf("encoder", "unsupported handle_unknown %q", e.HandleUnknown)
	}
	switch e.Drop {
	case DropNone, DropFirst, DropIfBinary:
	default:
		return contractf("encoder", "unsupported drop %q", e.Drop)
	}

	e.index = make([][]int, len(e.Columns))
	e.lookup = make([]map[string]int, len(e.Columns))
	e.width = 0
	for i, cats := range e.Categories {
		if len(cats) == 0 {
			return contractf("encoder", "column %s has no categories", e.Columns[i])
		}
		dropped := -1
		if e.Drop == DropFirst || (e.Drop == DropIfBinary && len(cats) == 2) {
			dropped = 0
		}
		e.lookup[i] = make(map[string]int, len(cats))
		e.index[i] = make([]int, len(cats))
		off := 0
		for j, c := range cats {
			if _, dup := e.lookup[i][c]; dup {
				return contractf("encoder", "column %s lists category %q twice", e.Columns[i], c)
			}
			e.lookup[i][c] = j
			if j == dropped {
				e.index[i][j] = -1
				continue
			}
			e.index[i][j] = e.width + off
			off++
		}
		e.width += off
	}
	return nil
}

// Width is the number of output features.
func (e *OneHotEncoder) Width() int { return e.width }

// FeatureNames returns "column_category" names in output order.
func (e *OneHotEncoder) FeatureNames() []string {
	names := make([]string, 0, e.width)
	for i, cats := range e.Categories {
		for j, c := range cats {
			if e.index[i][j] >= 0 {
				names = append(names, fmt.Sprintf("%s_%s", e.Columns[i], c))
			}
		}
	}
	return names
}

// Transform encodes one row given in Columns order.
func (e *OneHotEncoder) Transform(values []string) ([]float64, error) {
	if len(values) != len(e.Columns) {
		return nil, contractf("encoder", "expected %d values, got %d", len(e.Columns), len(values))
	}
	out := make([]float64, e.width)
	for i, v := range values {
		j, ok := e.lookup[i][v]
		if !ok {
			if e.HandleUnknown == HandleUnknownIgnore {
				continue
			}
			return nil, &UnknownCategoryError{Column: e.Columns[i], Value: v}
		}
		if pos := e.index[i][j]; pos >= 0 {
			out[pos] = 1
		}
	}
	return out, nil
}
