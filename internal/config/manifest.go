package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/Kavousi-ar/ForecastNetEval/internal/evaluate"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Manifest holds every analysis parameter of a run.
type Manifest struct {
	Threshold float64           `validate:"gte=-1,lte=1"`
	Dates     []string          `validate:"required,min=1,unique,dive,required,excludesall=/"`
	Roles     []domain.Role     `validate:"min=1,unique,dive,oneof=reference predicted"`
	Bands     []domain.Band     `validate:"required,min=1,unique=Name"`
	Universe  evaluate.Universe `validate:"oneof=full upper"`
	Filter    *domain.Band
}

type manifestFile struct {
	Threshold float64      `hcl:"threshold,attr"`
	Dates     []string     `hcl:"dates,attr"`
	Roles     []string     `hcl:"roles,optional"`
	Universe  string       `hcl:"universe,optional"`
	Bands     []bandBlock  `hcl:"band,block"`
	Filter    *filterBlock `hcl:"filter,block"`
}

type bandBlock struct {
	Name    string  `hcl:"name,label"`
	LeftKm  float64 `hcl:"left_km,attr"`
	RightKm float64 `hcl:"right_km,attr"`
}

type filterBlock struct {
	MinKm float64 `hcl:"min_km,attr"`
	MaxKm float64 `hcl:"max_km,attr"`
}

// LoadManifest parses and validates the HCL manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}
	return decodeManifest(file, filepath.Base(path))
}

// ParseManifest parses and validates manifest source. filename is used in
// diagnostics only.
func ParseManifest(src []byte, filename string) (*Manifest, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	return decodeManifest(file, filename)
}

func decodeManifest(file *hcl.File, filename string) (*Manifest, error) {
	var raw manifestFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", filename, diags)
	}

	m := &Manifest{
		Threshold: raw.Threshold,
		Dates:     raw.Dates,
	}

	if len(raw.Roles) == 0 {
		m.Roles = []domain.Role{domain.RoleReference, domain.RolePredicted}
	}
	for _, r := range raw.Roles {
		m.Roles = append(m.Roles, domain.Role(r))
	}

	u, err := evaluate.ParseUniverse(raw.Universe)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", filename, err)
	}
	m.Universe = u

	for _, b := range raw.Bands {
		m.Bands = append(m.Bands, domain.Band{Name: b.Name, LeftKm: b.LeftKm, RightKm: b.RightKm})
	}
	if raw.Filter != nil {
		f := domain.NewBand(raw.Filter.MinKm, raw.Filter.MaxKm)
		m.Filter = &f
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", filename, err)
	}
	return m, nil
}

// Validate checks the manifest fields and every band's bounds.
func (m *Manifest) Validate() error {
	if err := validator.New().Struct(m); err != nil {
		return err
	}
	for _, b := range m.Bands {
		if err := b.Validate(); err != nil {
			return err
		}
		if strings.ContainsAny(b.Name, `/\`) || b.Name == "." || b.Name == ".." {
			return fmt.Errorf("%w: name %q cannot be used as a file name", domain.ErrInvalidBand, b.Name)
		}
	}
	if m.Filter != nil {
		if err := m.Filter.Validate(); err != nil {
			return fmt.Errorf("filter: %w", err)
		}
	}
	return nil
}

// Band returns the band named name.
func (m *Manifest) Band(name string) (domain.Band, bool) {
	for _, b := range m.Bands {
		if b.Name == name {
			return b, true
		}
	}
	return domain.Band{}, false
}
