package model

import (
	"fmt"
	"strings"
)

// ActiveStatus tells whether the colony is doing something.
type ActiveStatus string

const (
	StatusActive   ActiveStatus = "active"
	StatusInactive ActiveStatus = "inactive"
)

// ActiveStatuses lists the statuses in table order.
var ActiveStatuses = []ActiveStatus{StatusActive, StatusInactive}

// SplitCategory returns the fine grained label, composed labels included.
func SplitCategory(raw string) string {
	return raw
}

// GroupedCategory collapses transport and construction variants into
// GroupTransportConstruction. A composed label that is neither is rejected
// with ErrInvalidComposedCategory.
func GroupedCategory(raw string) (string, error) {
	if strings.Contains(raw, CategoryTransport) || strings.Contains(raw, CategoryConstruction) {
		return GroupTransportConstruction, nil
	}
	if IsComposed(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidComposedCategory, raw)
	}
	return raw, nil
}

// ActiveStatusOf maps "resting" to inactive and everything else to active.
func ActiveStatusOf(raw string) ActiveStatus {
	if raw == CategoryResting {
		return StatusInactive
	}
	return StatusActive
}

// IsComposed reports whether raw joins more than one label with '+'.
func IsComposed(raw string) bool {
	return len(ComposedParts(raw)) > 1
}

// ComposedParts splits a composed label into its base labels.
func ComposedParts(raw string) []string {
	return strings.Split(raw, ComposeSeparator)
}

// Taxonomy is the closed set of labels and cameras accepted in input files.
type Taxonomy struct {
	activities map[string]bool
	predators  map[string]bool
	cameras    map[Camera]bool

	splitOrder   []string
	predatorList []string
	cameraList   []Camera
}

// NewTaxonomy builds a taxonomy from the enumerated label sets.
func NewTaxonomy(activities, predators []string, cameras []Camera) *Taxonomy {
	t := &Taxonomy{
		activities:   make(map[string]bool, len(activities)),
		predators:    make(map[string]bool, len(predators)),
		cameras:      make(map[Camera]bool, len(cameras)),
		splitOrder:   append([]string(nil), activities...),
		predatorList: append([]string(nil), predators...),
		cameraList:   append([]Camera(nil), cameras...),
	}
	for _, a := range activities {
		t.activities[a] = true
	}
	for _, p := range predators {
		t.predators[p] = true
	}
	for _, c := range cameras {
		t.cameras[c] = true
	}
	return t
}

// DefaultTaxonomy returns the taxonomy of the original field protocol.
func DefaultTaxonomy() *Taxonomy {
	return NewTaxonomy(DefaultSplitCategories, DefaultPredators, DefaultCameras)
}

func (t *Taxonomy) KnownActivity(raw string) bool { return t.activities[raw] }
func (t *Taxonomy) KnownPredator(raw string) bool { return t.predators[raw] }
func (t *Taxonomy) KnownCamera(c Camera) bool     { return t.cameras[c] }

// SplitCategories returns the activity labels in configured order.
func (t *Taxonomy) SplitCategories() []string {
	return append([]string(nil), t.splitOrder...)
}

// GroupedCategories returns the distinct grouped labels, in the order their
// first split label appears. Labels that cannot be grouped are skipped.
func (t *Taxonomy) GroupedCategories() []string {
	seen := make(map[string]bool)
	var grouped []string
	for _, raw := range t.splitOrder {
		g, err := GroupedCategory(raw)
		if err != nil || seen[g] {
			continue
		}
		seen[g] = true
		grouped = append(grouped, g)
	}
	return grouped
}

func (t *Taxonomy) Predators() []string { return append([]string(nil), t.predatorList...) }
func (t *Taxonomy) Cameras() []Camera   { return append([]Camera(nil), t.cameraList...) }
