package model

import (
	"fmt"
	"strings"
)

// Competency is one of the eight fixed behavioral dimensions the test scores.
type Competency string

const (
	CompetencyDecisionMaking        Competency = "DM"
	CompetencyInitiative            Competency = "IN"
	CompetencyCommunication         Competency = "CM"
	CompetencyTeamwork              Competency = "TW"
	CompetencyAdaptability          Competency = "AD"
	CompetencyProblemSolving        Competency = "PS"
	CompetencyStrategicThinking     Competency = "ST"
	CompetencyEmotionalIntelligence Competency = "EI"
)

// AllCompetencies lists every competency in canonical order.
var AllCompetencies = []Competency{
	CompetencyDecisionMaking,
	CompetencyInitiative,
	CompetencyCommunication,
	CompetencyTeamwork,
	CompetencyAdaptability,
	CompetencyProblemSolving,
	CompetencyStrategicThinking,
	CompetencyEmotionalIntelligence,
}

// ParseCompetency converts a code such as "dm" or "DM" into a Competency.
func ParseCompetency(code string) (Competency, error) {
	c := Competency(strings.ToUpper(strings.TrimSpace(code)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown competency code %q", code)
	}
	return c, nil
}

// Valid reports whether c is one of the eight known codes.
func (c Competency) Valid() bool {
	for _, known := range AllCompetencies {
		if c == known {
			return true
		}
	}
	return false
}

// UnmarshalText rejects unknown codes, so weight maps decoded from JSON never
// carry a key outside the closed set.
func (c *Competency) UnmarshalText(text []byte) error {
	parsed, err := ParseCompetency(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CompetencyDefinition carries the presentation attributes of a competency.
type CompetencyDefinition struct {
	Code        Competency `json:"code"`
	DisplayName string     `json:"display_name"`
	Color       string     `json:"color"`
	Category    string     `json:"category"`
}
