package signals

import (
	"math/rand/v2"

	"shopsense/internal/models"
)

// Picker returns an index in [0, n).
type Picker func(n int) int

var scenarios = []models.ActivityBundle{
	{
		RecentMessages: []string{
			"Hey, are we still going hiking this weekend?",
			"My back is killing me from that old office chair.",
			"Looking for a gift for Mom's birthday, she loves tea.",
		},
		ContactInterests: []string{"Outdoor Enthusiasts", "Home Office Workers", "Tea Lovers"},
	},
	{
		RecentMessages: []string{
			"Just started training for the marathon!",
			"I need to track my sleep better, any app suggestions?",
			"Can you send me that smoothie recipe?",
		},
		ContactInterests: []string{"Runners", "Bio-hackers", "Health Nuts"},
	},
}

// Generator hands out one of the pre-authored activity scenarios.
type Generator struct {
	pick  Picker
	fixed *models.ActivityBundle
}

func NewGenerator(pick Picker) *Generator {
	if pick == nil {
		pick = rand.IntN
	}
	return &Generator{pick: pick}
}

// Fixed returns a generator that always yields bundle. Used to pin the
// scenario in tests and demos.
func Fixed(bundle models.ActivityBundle) *Generator {
	return &Generator{fixed: &bundle}
}

func (g *Generator) Generate() models.ActivityBundle {
	if g.fixed != nil {
		return clone(*g.fixed)
	}
	return clone(scenarios[g.pick(len(scenarios))])
}

// Scenarios returns the number of available scenarios.
func Scenarios() int {
	return len(scenarios)
}

func clone(b models.ActivityBundle) models.ActivityBundle {
	return models.ActivityBundle{
		RecentMessages:   append([]string(nil), b.RecentMessages...),
		ContactInterests: append([]string(nil), b.ContactInterests...),
	}
}
