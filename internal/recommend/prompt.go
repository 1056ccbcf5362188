package recommend

import (
	"fmt"

	"github.com/goccy/go-json"

	"shopsense/internal/models"
)

// catalogContext describes what the store sells. It carries categories only;
// the service invents plausible items inside them.
const catalogContext = `
You are the recommendation engine of an online lifestyle store called "ShopSense".
The store sells high-quality items in these departments:
- Electronics (Headphones, Smartwatches, Cameras)
- Outdoor Gear (Hiking boots, Tents, Backpacks)
- Home Goods (Blenders, Coffee Makers, Ergonomic Chairs)
- Fashion (Sneakers, Jackets, Sunglasses)
- Wellness (Yoga Mats, Vitamins, Essential Oils)

Read the shopper's recent conversations and the interests of their contacts,
work out what they are likely to need, and suggest products from these departments.
`

const taskTemplate = `
Shopper's recent messages:
%s

Interests common in the shopper's contact network:
%s

Task:
1. Work out the shopper's most likely current needs from the text above.
2. Pick exactly %d distinct products from the store departments that fit those needs best.
3. For each product write a short, friendly "matchReason" that ties it to their recent conversations.
4. Give each product a realistic price estimate.
`

const recommendationCount = 4

func buildPrompt(bundle models.ActivityBundle) (string, error) {
	messages, err := json.Marshal(nonNil(bundle.RecentMessages))
	if err != nil {
		return "", fmt.Errorf("encode recent messages: %w", err)
	}
	interests, err := json.Marshal(nonNil(bundle.ContactInterests))
	if err != nil {
		return "", fmt.Errorf("encode contact interests: %w", err)
	}
	return fmt.Sprintf(taskTemplate, messages, interests, recommendationCount), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
