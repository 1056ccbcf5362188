package recommend

import "shopsense/internal/models"

var fallbackProducts = []models.Product{
	{
		ID:          "1",
		Name:        "Premium Wireless Earbuds",
		Description: "High fidelity sound.",
		Price:       149,
		Category:    "Electronics",
		ImageURL:    "https://picsum.photos/seed/earbuds/400/400",
	},
	{
		ID:          "2",
		Name:        "Classic Leather Wallet",
		Description: "Timeless design.",
		Price:       59,
		Category:    "Accessories",
		ImageURL:    "https://picsum.photos/seed/wallet/400/400",
	},
}

// Fallback is the non-personalized list shown when the shopper has not
// granted access. It is a policy choice, not an error path.
func Fallback() []models.Product {
	return append([]models.Product(nil), fallbackProducts...)
}
