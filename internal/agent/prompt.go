package agent

import (
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const systemPrompt = `Your task is to convert a data string scraped from the internet into a list of dictionaries.

Step 1: Fetch the HTML text from the given URL using the function fetch_html_text()
Step 2: Process and clean the extracted text for structured output.

Respond with a single JSON object of the form {"dataset": [...]}. Each element
of "dataset" describes one product and has the required string fields
"brand_name" and "product_name" and the optional string fields "price" and
"rating_count". Keep prices and rating counts exactly as they appear on the
page. Omit an optional field when the page does not show it. Return JSON only,
with no markdown fences or commentary.`

const retryPrompt = `The previous response did not conform to the requested schema. Respond again with only a JSON object {"dataset": [...]} where every element has the string fields "brand_name" and "product_name" and optionally "price" and "rating_count".`

const fetchToolName = "fetch_html_text"

func fetchTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        fetchToolName,
			Description: "Fetches the cleaned HTML text from the provided URL.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"url": {
						Type:        jsonschema.String,
						Description: "The page's URL to fetch the HTML text from.",
					},
				},
				Required: []string{"url"},
			},
		},
	}
}
