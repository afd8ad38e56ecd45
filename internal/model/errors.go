package model

import (
	"errors"
	"fmt"
)

// ErrUnknownCategory is returned when a categorical value was not seen when the encoder was fit.
var ErrUnknownCategory = errors.New("unknown category")

// ErrContract wraps every column/width mismatch between the bundle and the feature layout.
var ErrContract = errors.New("feature contract mismatch")

// ContractError names the artifact whose declared layout does not match.
type ContractError struct {
	Component string // encoder|scaler|regressor
	Detail    string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrContract.Error(), e.Component, e.Detail)
}

func (e *ContractError) Unwrap() error { return ErrContract }

// UnknownCategoryError reports the column and value the encoder rejected.
type UnknownCategoryError struct {
	Column string
	Value  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("%s %q in column %s", ErrUnknownCategory.Error(), e.Value, e.Column)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

func contractf(component, format string, args ...any) error {
	return &ContractError{Component: component, Detail: fmt.Sprintf(format, args...)}
}
