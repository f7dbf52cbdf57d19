package models

import "fmt"

// Archetype selects the rank scoring divisor for reps-based exercises.
type Archetype string

const (
	ArchetypeStrength   Archetype = "strength"
	ArchetypeIsolation  Archetype = "isolation"
	ArchetypeBodyweight Archetype = "bodyweight"
	ArchetypeCombat     Archetype = "combat"
	ArchetypeEndurance  Archetype = "endurance"
)

// Valid reports whether a is a known archetype.
func (a Archetype) Valid() bool {
	switch a {
	case ArchetypeStrength, ArchetypeIsolation, ArchetypeBodyweight, ArchetypeCombat, ArchetypeEndurance:
		return true
	}
	return false
}

// Metric is how an exercise is measured.
type Metric string

const (
	MetricReps       Metric = "reps"
	MetricTime       Metric = "time"
	MetricTimeWeight Metric = "time_weight"
)

// Valid reports whether m is a known metric type.
func (m Metric) Valid() bool {
	switch m {
	case MetricReps, MetricTime, MetricTimeWeight:
		return true
	}
	return false
}

// MuscleGroup is the primary muscle group an exercise trains.
type MuscleGroup string

const (
	MuscleChest     MuscleGroup = "chest"
	MuscleBack      MuscleGroup = "back"
	MuscleLegs      MuscleGroup = "legs"
	MuscleShoulders MuscleGroup = "shoulders"
	MuscleArms      MuscleGroup = "arms"
	MuscleAbs       MuscleGroup = "abs"
	MuscleCore      MuscleGroup = "core"
	MuscleGrip      MuscleGroup = "grip"
	MuscleFullBody  MuscleGroup = "full_body"
	MuscleCardio    MuscleGroup = "cardio"
)

// Valid reports whether g is a known muscle group.
func (g MuscleGroup) Valid() bool {
	switch g {
	case MuscleChest, MuscleBack, MuscleLegs, MuscleShoulders, MuscleArms,
		MuscleAbs, MuscleCore, MuscleGrip, MuscleFullBody, MuscleCardio:
		return true
	}
	return false
}

// Exercise is an immutable catalog entry.
type Exercise struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Aliases     []string    `json:"aliases,omitempty" yaml:"aliases"`
	MuscleGroup MuscleGroup `json:"muscle_group" yaml:"muscle_group"`
	Specialties []string    `json:"specialties,omitempty" yaml:"specialties"`
	Archetype   Archetype   `json:"archetype" yaml:"archetype"`
	Metric      Metric      `json:"metric" yaml:"metric"`
}

// Validate checks that the catalog entry has an id, a name and known enums.
func (e Exercise) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("exercise %q: id is required", e.Name)
	}
	if e.Name == "" {
		return fmt.Errorf("exercise %s: name is required", e.ID)
	}
	if !e.MuscleGroup.Valid() {
		return fmt.Errorf("exercise %s: unknown muscle group %q", e.ID, e.MuscleGroup)
	}
	if !e.Archetype.Valid() {
		return fmt.Errorf("exercise %s: unknown archetype %q", e.ID, e.Archetype)
	}
	if !e.Metric.Valid() {
		return fmt.Errorf("exercise %s: unknown metric %q", e.ID, e.Metric)
	}
	return nil
}
