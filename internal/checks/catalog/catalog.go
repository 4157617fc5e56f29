// Package catalog holds the check-type registry. Definitions are declarative
// data: adding a check type means adding a YAML entry, never touching the
// validation or assessment rules.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"casecheck/internal/checks/models"
	dErrors "casecheck/pkg/domain-errors"
	pstrings "casecheck/pkg/platform/strings"
)

//go:embed definitions.yaml
var builtinDefinitions []byte

// ErrUnknownCheckType is returned (wrapped) by Lookup for absent ids.
var ErrUnknownCheckType = errors.New("unknown check type")

// Definition is the immutable rule set of one check type.
type Definition struct {
	ID              models.CheckTypeID
	Name            string
	VisibleSections []string
	RelevantTasks   models.TaskSet
	HiddenTasks     models.TaskSet
	DefaultTasks    models.TaskSet
	RequiredTasks   models.TaskSet
}

// IsRelevant reports whether the task may be selected for this check type.
func (d Definition) IsRelevant(t models.TaskType) bool {
	return d.RelevantTasks.Has(t)
}

// IsVisible reports whether the task is shown. Hidden wins over relevant.
func (d Definition) IsVisible(t models.TaskType) bool {
	return d.RelevantTasks.Has(t) && !d.HiddenTasks.Has(t)
}

// VisibleTasks returns relevant minus hidden tasks in priority order.
func (d Definition) VisibleTasks() []models.TaskType {
	return d.RelevantTasks.Without(d.HiddenTasks).Sorted()
}

// HasSection reports whether a UI section is shown for this check type.
func (d Definition) HasSection(section string) bool {
	return slices.Contains(d.VisibleSections, strings.ToLower(section))
}

// Validate enforces defaults ⊆ relevant and required ⊆ relevant.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("check type id is required")
	}
	if len(d.RelevantTasks) == 0 {
		return fmt.Errorf("check type %s: relevant_tasks must not be empty", d.ID)
	}
	if missing := d.RelevantTasks.Missing(d.DefaultTasks); len(missing) > 0 {
		return fmt.Errorf("check type %s: default tasks %v are not relevant", d.ID, missing)
	}
	if missing := d.RelevantTasks.Missing(d.RequiredTasks); len(missing) > 0 {
		return fmt.Errorf("check type %s: required tasks %v are not relevant", d.ID, missing)
	}
	return nil
}

// Catalog is a validated, read-only set of definitions.
type Catalog struct {
	definitions map[models.CheckTypeID]Definition
}

// New validates the definitions and builds a catalog. Duplicate ids are rejected.
func New(defs ...Definition) (*Catalog, error) {
	c := &Catalog{definitions: make(map[models.CheckTypeID]Definition, len(defs))}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.definitions[d.ID]; exists {
			return nil, fmt.Errorf("check type %s defined twice", d.ID)
		}
		c.definitions[d.ID] = d
	}
	return c, nil
}

// Lookup returns the definition for typeID.
func (c *Catalog) Lookup(typeID models.CheckTypeID) (Definition, error) {
	if d, ok := c.definitions[typeID]; ok {
		return d, nil
	}
	return Definition{}, dErrors.Wrap(ErrUnknownCheckType, dErrors.CodeUnknownCheckType,
		"unknown check type: "+string(typeID))
}

// List returns every definition ordered by id.
func (c *Catalog) List() []Definition {
	out := make([]Definition, 0, len(c.definitions))
	for _, d := range c.definitions {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Definition) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

type fileFormat struct {
	CheckTypes []definitionYAML `yaml:"check_types"`
}

type definitionYAML struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	VisibleSections []string `yaml:"visible_sections"`
	RelevantTasks   []string `yaml:"relevant_tasks"`
	HiddenTasks     []string `yaml:"hidden_tasks"`
	DefaultTasks    []string `yaml:"default_tasks"`
	RequiredTasks   []string `yaml:"required_tasks"`
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse check type catalog: %w", err)
	}
	if len(doc.CheckTypes) == 0 {
		return nil, fmt.Errorf("check type catalog is empty")
	}
	defs := make([]Definition, 0, len(doc.CheckTypes))
	for _, raw := range doc.CheckTypes {
		defs = append(defs, Definition{
			ID:              models.CheckTypeID(strings.TrimSpace(raw.ID)),
			Name:            strings.TrimSpace(raw.Name),
			VisibleSections: pstrings.NormalizeKeys(raw.VisibleSections),
			RelevantTasks:   toTaskSet(raw.RelevantTasks),
			HiddenTasks:     toTaskSet(raw.HiddenTasks),
			DefaultTasks:    toTaskSet(raw.DefaultTasks),
			RequiredTasks:   toTaskSet(raw.RequiredTasks),
		})
	}
	return New(defs...)
}

// Load reads a catalog file; an empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(builtinDefinitions)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read check type catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Builtin returns the embedded catalog. It panics if the embedded file is
// invalid, which is caught by the package tests.
func Builtin() *Catalog {
	c, err := Parse(builtinDefinitions)
	if err != nil {
		panic(err)
	}
	return c
}

func toTaskSet(values []string) models.TaskSet {
	set := make(models.TaskSet, len(values))
	for _, v := range pstrings.NormalizeKeys(values) {
		set[models.TaskType(v)] = struct{}{}
	}
	return set
}
