// internal/pipeline/web-search/models.go
package websearch

import "explainer/internal/models"

type Input struct {
	Query      string `json:"query"`
	SafeSearch bool   `json:"safesearch"`
	Location   string `json:"location,omitempty"`
	Language   string `json:"language,omitempty"`
}

type Output struct {
	Results []models.SearchResult `json:"results"`
}

// searchRequest is the body sent to the search API.
type searchRequest struct {
	Q    string `json:"q"`
	Num  int    `json:"num"`
	Safe string `json:"safe"`
	GL   string `json:"gl"`
	HL   string `json:"hl"`
}

type searchResponse struct {
	Organic []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"organic"`
}

// responseSchema requires an organic array of {title, link} strings.
var responseSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"organic"},
	"properties": map[string]interface{}{
		"organic": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"title", "link"},
				"properties": map[string]interface{}{
					"title": map[string]interface{}{"type": "string"},
					"link":  map[string]interface{}{"type": "string"},
				},
			},
		},
	},
}
