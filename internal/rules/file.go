package rules

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// File is a YAML rule set. Each rule names its PUC either by ID or by its
// hierarchy path.
//
//	rules:
//	  - name: dish-soap
//	    pattern: "dish(washing)? (soap|liquid)"
//	    puc:
//	      gen_cat: Home maintenance
//	      prod_fam: cleaning
//	      prod_type: dish soap
type File struct {
	Rules []FileRule `yaml:"rules"`
}

// FileRule is one rule entry in a File.
type FileRule struct {
	Name        string     `yaml:"name"`
	Pattern     string     `yaml:"pattern"`
	Field       Field      `yaml:"field"`
	Description string     `yaml:"description"`
	Active      *bool      `yaml:"active"`
	PUCID       *uuid.UUID `yaml:"puc_id"`
	PUC         *PUCPath   `yaml:"puc"`
}

// PUCPath addresses a PUC by its hierarchy fields.
type PUCPath struct {
	GenCat   string `yaml:"gen_cat"`
	ProdFam  string `yaml:"prod_fam"`
	ProdType string `yaml:"prod_type"`
}

// IsActive reports the entry's active flag, which defaults to true.
func (r FileRule) IsActive() bool {
	return r.Active == nil || *r.Active
}

// LoadFile reads and validates a YAML rule file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes and validates a YAML rule set. Names must be unique, patterns
// must compile, and each rule must reference exactly one PUC.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	seen := make(map[string]bool, len(f.Rules))
	for i := range f.Rules {
		fr := &f.Rules[i]

		cmd := CreateCommand{Name: fr.Name, Pattern: fr.Pattern, Field: fr.Field}
		if err := cmd.normalize(); err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", ErrInvalidFile, i+1, err)
		}
		fr.Name, fr.Field = cmd.Name, cmd.Field

		if seen[fr.Name] {
			return nil, fmt.Errorf("%w: duplicate rule name %q", ErrInvalidFile, fr.Name)
		}
		seen[fr.Name] = true

		if (fr.PUCID == nil) == (fr.PUC == nil) {
			return nil, fmt.Errorf("%w: rule %q must set exactly one of puc_id or puc", ErrInvalidFile, fr.Name)
		}
		if fr.PUC != nil && fr.PUC.GenCat == "" {
			return nil, fmt.Errorf("%w: rule %q: puc.gen_cat required", ErrInvalidFile, fr.Name)
		}
	}

	return &f, nil
}
