package scenario

import (
	"sort"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// Registry resolves a scenario name to its strategy. The scenario set is
// closed: strategies are registered at construction and the map is read-only
// afterwards.
type Registry struct {
	scenarios map[string]Scenario
}

func NewRegistry(scenarios ...Scenario) *Registry {
	r := &Registry{scenarios: map[string]Scenario{}}

	for _, s := range scenarios {
		r.scenarios[s.Name()] = s
	}

	return r
}

// DefaultRegistry contains all twelve behavior strategies.
func DefaultRegistry() *Registry {
	return NewRegistry(
		ClickStorms{},
		ExcessiveBusinessViews{},
		HighVolumeSearch{},
		FastClickRate{},
		GeoLocatedProxies{},
		InternalIPSpoofing{},
		InvalidAndroidVersionTest{},
		LatencyManipulation{},
		NoJSClicks{},
		SessionPollution{},
		MobileAppClicks{},
		UIOnlyInteraction{},
	)
}

func (r *Registry) Resolve(name string) (Scenario, error) {
	s, ok := r.scenarios[name]
	if !ok {
		return nil, model.UnknownScenarioError{Name: name}
	}

	return s, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
