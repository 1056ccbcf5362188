package recommend

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/genai"
)

// requiredFields are the product fields the generative service must fill.
// imageUrl is not among them: the service cannot produce a real media URL.
var requiredFields = []string{"id", "name", "description", "price", "category", "matchReason"}

// productListSchema is the output constraint sent with the request.
func productListSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"id":          str,
				"name":        str,
				"description": str,
				"price":       {Type: genai.TypeNumber},
				"category":    str,
				"matchReason": str,
			},
			Required:         requiredFields,
			PropertyOrdering: requiredFields,
		},
	}
}

// productListJSONSchema mirrors productListSchema for validating what came
// back. The service is asked to honour the schema but the response is not
// trusted to.
const productListJSONSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "id":          {"type": "string"},
      "name":        {"type": "string"},
      "description": {"type": "string"},
      "price":       {"type": "number"},
      "category":    {"type": "string"},
      "matchReason": {"type": "string"},
      "imageUrl":    {"type": "string"}
    },
    "required": ["id", "name", "description", "price", "category", "matchReason"]
  }
}`

const productListSchemaURL = "https://shopsense.local/schemas/product-list.schema.json"

func compileProductListSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(productListSchemaURL, strings.NewReader(productListJSONSchema)); err != nil {
		return nil, fmt.Errorf("product schema load failed: %w", err)
	}
	compiled, err := c.Compile(productListSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("product schema compile failed: %w", err)
	}
	return compiled, nil
}
