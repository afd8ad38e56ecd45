package model

// Scaler kinds.
const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// Scaler normalizes the numeric columns with fitted per-column parameters.
//
// standard: (x - mean) / scale, a zero scale counts as 1.
// minmax:   x*scale + min.
type Scaler struct {
	Kind    string    `json:"kind" yaml:"kind"`
	Columns []string  `json:"columns" yaml:"columns"`
	Mean    []float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Scale   []float64 `json:"scale" yaml:"scale"`
	Min     []float64 `json:"min,omitempty" yaml:"min,omitempty"`
}

func (s *Scaler) prepare() error {
	if s.Kind == "" {
		s.Kind = ScalerStandard
	}
	n := len(s.Columns)
	if len(s.Scale) != n {
		return contractf("scaler", "%d columns but %d scale values", n, len(s.Scale))
	}
	switch s.Kind {
	case ScalerStandard:
		if len(s.Mean) != n {
			return contractf("scaler", "%d columns but %d mean values", n, len(s.Mean))
		}
	case ScalerMinMax:
		if len(s.Min) != n {
			return contractf("scaler", "%d columns but %d min values", n, len(s.Min))
		}
	default:
		return contractf("scaler", "unsupported kind %q", s.Kind)
	}
	return nil
}

// Width is the number of output features.
func (s *Scaler) Width() int { return len(s.Columns) }

// Transform scales one row given in Columns order.
func (s *Scaler) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.Columns) {
		return nil, contractf("scaler", "expected %d values, got %d", len(s.Columns), len(values))
	}
	out := make([]float64, len(values))
	for i, x := range values {
		switch s.Kind {
		case ScalerMinMax:
			out[i] = x*s.Scale[i] + s.Min[i]
		default:
			scale := s.Scale[i]
			if scale == 0 {
				scale = 1
			}
			out[i] = (x - s.Mean[i]) / scale
		}
	}
	return out, nil
}
