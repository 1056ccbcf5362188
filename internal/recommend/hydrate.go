package recommend

import (
	"fmt"
	"net/url"
	"strconv"

	"shopsense/internal/models"
)

const imageURLTemplate = "https://picsum.photos/seed/%s/400/400"

// ImageURL derives the placeholder image for the product at position idx.
// The index is part of the seed so two products sharing an id still get
// distinct images. The seed is path-escaped because ids come from the model
// and may contain "/" or "?".
func ImageURL(id string, idx int) string {
	return fmt.Sprintf(imageURLTemplate, url.PathEscape(id+strconv.Itoa(idx)))
}

// Hydrate makes every product display-ready. It never modifies its input.
func Hydrate(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	for i, p := range products {
		p.ImageURL = ImageURL(p.ID, i)
		out[i] = p
	}
	return out
}
