package persist

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// Definition paths inside schema.cue.
const (
	defCells       = "#Cells"
	defPreferences = "#Preferences"
)

// validator checks stored bytes against the CUE definitions before they are
// decoded. A value that does not unify with its definition is corrupt.
type validator struct {
	ctx   *cue.Context
	cells cue.Value
	prefs cue.Value
}

func newValidator() (*validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	cells := schema.LookupPath(cue.ParsePath(defCells))
	if !cells.Exists() {
		return nil, fmt.Errorf("schema: %s not defined", defCells)
	}
	prefs := schema.LookupPath(cue.ParsePath(defPreferences))
	if !prefs.Exists() {
		return nil, fmt.Errorf("schema: %s not defined", defPreferences)
	}

	return &validator{ctx: ctx, cells: cells, prefs: prefs}, nil
}

// validateCells checks a cells record.
func (v *validator) validateCells(data []byte) error {
	return v.validate(v.cells, data, "cells")
}

// validatePreferences checks a preferences record.
func (v *validator) validatePreferences(data []byte) error {
	return v.validate(v.prefs, data, "preferences")
}

// validate decodes data as JSON, not as CUE source, and unifies the result
// with def. Any string JSON can carry must pass, U+FEFF included.
func (v *validator) validate(def cue.Value, data []byte, name string) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	value := v.ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}
	return nil
}
