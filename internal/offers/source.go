package offers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/gatiyaan/internal/models"
)

// Source produces fictional provider records for the initial catalog.
type Source interface {
	Generate(ctx context.Context, n int) ([]models.Offer, error)
}

// GenAIClient asks a Gemini-style generateContent endpoint for fictional
// charging partners. Callers must treat every error as "use the fallback".
type GenAIClient struct {
	Endpoint string
	Model    string
	APIKey   string
	Client   *http.Client
}

func NewGenAIClient(apiKey string) *GenAIClient {
	return &GenAIClient{
		Endpoint: "https://generativelanguage.googleapis.com/v1beta",
		Model:    "gemini-2.5-flash",
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type generatedOffer struct {
	PartnerName string  `json:"partnerName"`
	VanModel    string  `json:"vanModel"`
	Rating      float64 `json:"rating"`
	ETAMinutes  int     `json:"etaMinutes"`
	PricePerKWh float64 `json:"pricePerKWh"`
	CapacityKWh int     `json:"capacityKWh"`
}

func (g *GenAIClient) Generate(ctx context.Context, n int) ([]models.Offer, error) {
	if g.APIKey == "" {
		return nil, fmt.Errorf("genai: no api key configured")
	}

	prompt := fmt.Sprintf("Generate a list of %d fictional mobile EV charging van providers for a roadside assistance app called GatiYaan. They should sound like Indian company names.", n)
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"responseSchema": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"partnerName": map[string]string{"type": "STRING"},
						"vanModel":    map[string]string{"type": "STRING"},
						"rating":      map[string]string{"type": "NUMBER"},
						"etaMinutes":  map[string]string{"type": "INTEGER"},
						"pricePerKWh": map[string]string{"type": "NUMBER"},
						"capacityKWh": map[string]string{"type": "INTEGER"},
					},
					"required": []string{"partnerName", "vanModel", "rating", "etaMinutes", "pricePerKWh", "capacityKWh"},
				},
			},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.Endpoint, g.Model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("genai: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("genai: empty response")
	}
	return decodeOffers([]byte(out.Candidates[0].Content.Parts[0].Text))
}

// decodeOffers turns the model's JSON array into catalog offers, assigning
// IDs and randomized positions near the reference point.
func decodeOffers(raw []byte) ([]models.Offer, error) {
	var generated []generatedOffer
	if err := json.Unmarshal(bytes.TrimSpace(raw), &generated); err != nil {
		return nil, fmt.Errorf("genai: malformed payload: %w", err)
	}
	out := make([]models.Offer, 0, len(generated))
	for _, g := range generated {
		out = append(out, models.Offer{
			ID:          "van-" + newID(),
			PartnerName: g.PartnerName,
			VanModel:    g.VanModel,
			Rating:      g.Rating,
			ETAMinutes:  g.ETAMinutes,
			PricePerKWh: g.PricePerKWh,
			CapacityKWh: g.CapacityKWh,
			Pos:         jitter(0.05),
			Status:      models.OfferApproved,
		})
	}
	return out, nil
}

// Fallback is the fixed built-in fleet used whenever the generative source
// is unavailable or misbehaves.
func Fallback() []models.Offer {
	return []models.Offer{
		{ID: "1", PartnerName: "ChargeUp Now", VanModel: "Tata Ace EV", Rating: 4.8, ETAMinutes: 12, PricePerKWh: 20, CapacityKWh: 30, Pos: models.Coord{Lat: 12.9716, Lng: 77.5946}, Status: models.OfferApproved},
		{ID: "2", PartnerName: "BoltCharge", VanModel: "Mahindra E-Supro", Rating: 4.6, ETAMinutes: 25, PricePerKWh: 18, CapacityKWh: 25, Pos: models.Coord{Lat: 12.9810, Lng: 77.6042}, Status: models.OfferApproved},
		{ID: "3", PartnerName: "EcoBoosters", VanModel: "Ashok Leyland Dost EV", Rating: 4.9, ETAMinutes: 8, PricePerKWh: 22, CapacityKWh: 40, Pos: models.Coord{Lat: 12.9650, Lng: 77.5841}, Status: models.OfferApproved},
	}
}
