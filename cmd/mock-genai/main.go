// Command mock-genai stands in for the Gemini generateContent endpoint so
// the API can run offline. Point GENAI_BASE_URL at it.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

type product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	MatchReason string  `json:"matchReason"`
}

var outdoorHome = []product{
	{ID: "og-101", Name: "Ridgeline Hiking Boots", Description: "Waterproof leather boots with a grippy sole.", Price: 139, Category: "Outdoor Gear", MatchReason: "Ready for the hike you're planning this weekend."},
	{ID: "hg-204", Name: "Contour Ergonomic Chair", Description: "Adjustable lumbar support for long desk days.", Price: 329, Category: "Home Goods", MatchReason: "Your back will thank you after that old office chair."},
	{ID: "hg-311", Name: "Porcelain Tea Set", Description: "Six-piece set with a glass infuser.", Price: 54, Category: "Home Goods", MatchReason: "A birthday gift for a tea lover."},
	{ID: "og-118", Name: "Trailhead 22L Daypack", Description: "Light pack with hydration sleeve.", Price: 79, Category: "Outdoor Gear", MatchReason: "Carries everything for a day on the trail."},
}

var fitness = []product{
	{ID: "el-402", Name: "Pulse Running Watch", Description: "GPS watch with sleep and heart-rate tracking.", Price: 249, Category: "Electronics", MatchReason: "Tracks both your marathon training and your sleep."},
	{ID: "fa-120", Name: "Stride Road Sneakers", Description: "Cushioned trainers for long distances.", Price: 129, Category: "Fashion", MatchReason: "Built for the miles ahead of your marathon."},
	{ID: "hg-230", Name: "Vortex Blender", Description: "1200W blender for smoothies and shakes.", Price: 99, Category: "Home Goods", MatchReason: "Perfect for that smoothie recipe."},
	{ID: "we-310", Name: "Recovery Yoga Mat", Description: "6mm non-slip mat for stretching.", Price: 45, Category: "Wellness", MatchReason: "Helps recovery between runs."},
}

type generateRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

func main() {
	port := getEnv("MOCK_GENAI_PORT", "8090")
	mode := getEnv("MOCK_GENAI_MODE", "ok")

	slog.Info("Mock GenAI listening", "port", port, "mode", mode)
	if err := http.ListenAndServe(":"+port, newMux(mode)); err != nil {
		slog.Error("Mock GenAI stopped", "error", err)
		os.Exit(1)
	}
}

// newMux serves generateContent. mode is one of ok, error, garbage, empty.
func newMux(mode string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1beta/models/{model}", func(w http.ResponseWriter, r *http.Request) {
		model := r.PathValue("model")
		if !strings.HasSuffix(model, ":generateContent") {
			http.Error(w, `{"error": {"code": 404, "message": "unsupported method"}}`, http.StatusNotFound)
			return
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error": {"code": 400, "message": "bad request"}}`, http.StatusBadRequest)
			return
		}

		slog.Info("generateContent", "model", strings.TrimSuffix(model, ":generateContent"), "mode", mode)

		var text string
		switch mode {
		case "error":
			http.Error(w, `{"error": {"code": 503, "message": "model overloaded", "status": "UNAVAILABLE"}}`, http.StatusServiceUnavailable)
			return
		case "garbage":
			text = `{"foo": "bar"}`
		case "empty":
			text = ""
		default:
			body, err := json.Marshal(pick(req))
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			text = string(body)
		}

		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			}},
			"modelVersion": "mock",
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return mux
}

func pick(req generateRequest) []product {
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			if strings.Contains(strings.ToLower(p.Text), "marathon") {
				return fitness
			}
		}
	}
	return outdoorHome
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
