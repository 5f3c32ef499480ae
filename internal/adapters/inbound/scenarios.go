package inbound

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mikey/email-triage/internal/core"
)

// Scenario is a named batch of emails replayed in order
type Scenario struct {
	ID     string        `json:"id"`
	Emails []*core.Email `json:"emails"`
}

// ScenarioSet holds scenarios in file order
type ScenarioSet struct {
	order []string
	byID  map[string]Scenario
}

// LoadScenarios reads a scenario file. A missing file yields an empty set.
func LoadScenarios(path string) (*ScenarioSet, error) {
	if path == "" {
		return NewScenarioSet(nil)
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewScenarioSet(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios file: %w", err)
	}

	var file struct {
		Scenarios []Scenario `json:"scenarios"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios file %s: %w", path, err)
	}
	return NewScenarioSet(file.Scenarios)
}

// NewScenarioSet indexes scenarios by id
func NewScenarioSet(scenarios []Scenario) (*ScenarioSet, error) {
	set := &ScenarioSet{byID: make(map[string]Scenario, len(scenarios))}
	for _, sc := range scenarios {
		if sc.ID == "" {
			return nil, fmt.Errorf("scenario without id")
		}
		if _, dup := set.byID[sc.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario id %q", sc.ID)
		}
		set.order = append(set.order, sc.ID)
		set.byID[sc.ID] = sc
	}
	return set, nil
}

// IDs returns scenario ids in file order
func (s *ScenarioSet) IDs() []string {
	return append([]string(nil), s.order...)
}

// Get returns a copy of the scenario's emails so replays never share state
func (s *ScenarioSet) Get(id string) (Scenario, bool) {
	sc, ok := s.byID[id]
	if !ok {
		return Scenario{}, false
	}
	emails := make([]*core.Email, len(sc.Emails))
	for i, e := range sc.Emails {
		cp := *e
		cp.Attachments = append([]string(nil), e.Attachments...)
		emails[i] = &cp
	}
	return Scenario{ID: sc.ID, Emails: emails}, true
}
