// Package catalog holds the static exercise library and title database.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/progression"
)

//go:embed exercises.yaml
var exercisesYAML []byte

//go:embed titles.yaml
var titlesYAML []byte

// ErrNotFound is returned by lookups for unknown ids or names.
var ErrNotFound = errors.New("not found in catalog")

// Catalog is read-only after Load and safe for concurrent use.
type Catalog struct {
	exercises []models.Exercise
	titles    []models.Title
	byID      map[string]int
	byName    map[string]int // lowercased name and aliases
	titleByID map[string]int
}

type exerciseFile struct {
	Exercises []models.Exercise `yaml:"exercises"`
}

type titleFile struct {
	Titles []models.Title `yaml:"titles"`
}

// Load parses the embedded catalogs.
func Load() (*Catalog, error) {
	return Parse(exercisesYAML, titlesYAML)
}

// Parse builds a catalog from raw YAML documents and validates it.
func Parse(exercises, titles []byte) (*Catalog, error) {
	var ef exerciseFile
	if err := yaml.Unmarshal(exercises, &ef); err != nil {
		return nil, fmt.Errorf("parsing exercises: %w", err)
	}
	var tf titleFile
	if err := yaml.Unmarshal(titles, &tf); err != nil {
		return nil, fmt.Errorf("parsing titles: %w", err)
	}

	c := &Catalog{
		exercises: ef.Exercises,
		titles:    tf.Titles,
		byID:      make(map[string]int, len(ef.Exercises)),
		byName:    make(map[string]int, len(ef.Exercises)*2),
		titleByID: make(map[string]int, len(tf.Titles)),
	}

	for i, e := range c.exercises {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("exercise %s: duplicate id", e.ID)
		}
		c.byID[e.ID] = i
		for _, n := range append([]string{e.Name}, e.Aliases...) {
			key := nameKey(n)
			if j, dup := c.byName[key]; dup {
				return nil, fmt.Errorf("exercise %s: name %q already used by %s", e.ID, n, c.exercises[j].ID)
			}
			c.byName[key] = i
		}
	}

	for _, name := range progression.BigThree {
		if _, err := c.ExerciseByName(name); err != nil {
			return nil, fmt.Errorf("big three lift %q missing from exercises", name)
		}
	}

	for i, t := range c.titles {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.titleByID[t.ID]; dup {
			return nil, fmt.Errorf("title %s: duplicate id", t.ID)
		}
		if t.Requirement.Type == models.RequireExerciseWeight {
			j, ok := c.byName[nameKey(t.Requirement.ExerciseName)]
			if !ok {
				return nil, fmt.Errorf("title %s: unknown exercise %q", t.ID, t.Requirement.ExerciseName)
			}
			// Evaluation compares canonical names.
			c.titles[i].Requirement.ExerciseName = c.exercises[j].Name
		}
		c.titleByID[t.ID] = i
	}

	return c, nil
}

func nameKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Exercise looks up an exercise by id.
func (c *Catalog) Exercise(id string) (models.Exercise, error) {
	i, ok := c.byID[id]
	if !ok {
		return models.Exercise{}, fmt.Errorf("exercise %q: %w", id, ErrNotFound)
	}
	return c.exercises[i], nil
}

// ExerciseByName matches a name or alias, ignoring case.
func (c *Catalog) ExerciseByName(name string) (models.Exercise, error) {
	i, ok := c.byName[nameKey(name)]
	if !ok {
		return models.Exercise{}, fmt.Errorf("exercise %q: %w", name, ErrNotFound)
	}
	return c.exercises[i], nil
}

// Filter narrows Exercises. Zero fields match everything.
type Filter struct {
	MuscleGroup models.MuscleGroup
	Query       string // case-insensitive substring of name or alias
}

func (f Filter) matches(e models.Exercise) bool {
	if f.MuscleGroup != "" && e.MuscleGroup != f.MuscleGroup {
		return false
	}
	q := nameKey(f.Query)
	if q == "" {
		return true
	}
	for _, n := range append([]string{e.Name}, e.Aliases...) {
		if strings.Contains(strings.ToLower(n), q) {
			return true
		}
	}
	return false
}

// Exercises returns the exercises matching f in catalog order.
func (c *Catalog) Exercises(f Filter) []models.Exercise {
	out := make([]models.Exercise, 0, len(c.exercises))
	for _, e := range c.exercises {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Titles returns every title in evaluation order. The slice is a copy.
func (c *Catalog) Titles() []models.Title {
	return append([]models.Title(nil), c.titles...)
}

// Title looks up a title by id.
func (c *Catalog) Title(id string) (models.Title, error) {
	i, ok := c.titleByID[id]
	if !ok {
		return models.Title{}, fmt.Errorf("title %q: %w", id, ErrNotFound)
	}
	return c.titles[i], nil
}
