// Package model decodes the pretrained artifact bundle (categorical encoder,
// numeric scaler, regressor) and runs inference with it. The bundle is a
// portable export of fitted parameters; nothing in this package trains.
package model

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bundle formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Bundle holds the three fitted artifacts. It is read-only once decoded and
// safe for concurrent use.
type Bundle struct {
	Encoder   OneHotEncoder     `json:"encoder" yaml:"encoder"`
	Scaler    Scaler            `json:"scaler" yaml:"scaler"`
	Regressor RegressorSpec     `json:"regressor" yaml:"regressor"`
	Meta      map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`

	Source    string `json:"-" yaml:"-"`
	regressor Regressor
}

// LoadBundle reads and prepares a bundle from disk. The format follows the file
// extension (.json, .yaml, .yml), optionally wrapped in .gz.
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip bundle: %w", err)
		}
		defer gz.Close()
		r = gz
		name = strings.TrimSuffix(name, ".gz")
	}
	format := FormatJSON
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	b, err := Decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	b.Source = path
	return b, nil
}

// Decode parses and prepares a bundle.
func Decode(r io.Reader, format string) (*Bundle, error) {
	var b Bundle
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&b); err != nil {
			return nil, fmt.Errorf("decode json bundle: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&b); err != nil {
			return nil, fmt.Errorf("decode yaml bundle: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported bundle format %q", format)
	}
	if err := b.prepare(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Bundle) prepare() error {
	if err := b.Encoder.prepare(); err != nil {
		return err
	}
	if err := b.Scaler.prepare(); err != nil {
		return err
	}
	reg, err := b.Regressor.Build()
	if err != nil {
		return err
	}
	if want := b.Encoder.Width() + b.Scaler.Width(); reg.NumFeatures() != want {
		return contractf("regressor", "expects %d features, encoder+scaler produce %d", reg.NumFeatures(), want)
	}
	b.regressor = reg
	return nil
}

// CheckColumns verifies the encoder and scaler were fit on exactly these columns, in this order.
func (b *Bundle) CheckColumns(categorical, numeric []string) error {
	if !slices.Equal(b.Encoder.Columns, categorical) {
		return contractf("encoder", "fitted columns %v, expected %v", b.Encoder.Columns, categorical)
	}
	if !slices.Equal(b.Scaler.Columns, numeric) {
		return contractf("scaler", "fitted columns %v, expected %v", b.Scaler.Columns, numeric)
	}
	return nil
}

// Features encodes the categorical values, scales the numeric values and
// concatenates them in that order.
func (b *Bundle) Features(categorical []string, numeric []float64) ([]float64, error) {
	enc, err := b.Encoder.Transform(categorical)
	if err != nil {
		return nil, err
	}
	scaled, err := b.Scaler.Transform(numeric)
	if err != nil {
		return nil, err
	}
	return append(enc, scaled...), nil
}

// Predict runs the full transform-then-predict sequence for one row.
func (b *Bundle) Predict(categorical []string, numeric []float64) (float64, error) {
	x, err := b.Features(categorical, numeric)
	if err != nil {
		return 0, err
	}
	return b.regressor.Predict(x)
}

// NumFeatures is the width of the concatenated feature vector.
func (b *Bundle) NumFeatures() int { return b.regressor.NumFeatures() }
