package view

import (
	"strings"

	"adopt-dashboard/internal/errors"
	"adopt-dashboard/internal/models"
	"adopt-dashboard/internal/session"
)

// Event type names accepted from the renderer.
const (
	EventRegionClicked = "region_clicked"
	EventBreedChosen   = "breed_chosen"
	EventTraitChosen   = "trait_chosen"
	EventSessionReset  = "session_reset"
)

// Signals is the payload the dashboard sends with an interaction, either as
// datastar signals or as a JSON request body.
type Signals struct {
	Type   string `json:"type"`
	Region string `json:"region"`
	FIPS   int    `json:"fips"`
	Breed  string `json:"breed"`
	Kind   string `json:"kind"`
	Value  string `json:"value"`
}

// Event converts the payload into a session event. A non-zero FIPS id wins
// over a region code because map clicks carry only the feature id.
func (s Signals) Event() (session.Event, error) {
	switch strings.TrimSpace(s.Type) {
	case EventRegionClicked:
		if s.FIPS != 0 {
			region, err := RegionFromFIPS(s.FIPS)
			if err != nil {
				return nil, err
			}
			return session.RegionClicked{Region: region}, nil
		}
		return session.RegionClicked{Region: s.Region}, nil
	case EventBreedChosen:
		return session.BreedChosen{Breed: s.Breed}, nil
	case EventTraitChosen:
		return session.TraitChosen{
			Kind:  models.TraitKind(strings.ToLower(strings.TrimSpace(s.Kind))),
			Value: s.Value,
		}, nil
	case EventSessionReset:
		return session.SessionReset{}, nil
	default:
		return nil, errors.InvalidSelection("event type", s.Type, "unknown interaction")
	}
}
