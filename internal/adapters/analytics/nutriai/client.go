package nutriai

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"nutrikid-care-access/internal/platform/httpclient"
	"nutrikid-care-access/internal/ports/analytics"
)

// Client consulta el servicio de análisis nutricional (nutri-ai).
// Implementa analytics.Resolver sobre HTTP/JSON.
type Client struct {
	http *httpclient.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	c, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("nutriai: %w", err)
	}
	return &Client{http: c}, nil
}

// NewWithClient permite inyectar el httpclient (tests).
func NewWithClient(c *httpclient.Client) *Client {
	return &Client{http: c}
}

type summaryResponse struct {
	ProfileID       string `json:"profile_id"`
	AvgCaloriesDay  float64 `json:"avg_calories_day"`
	MealsLast7Days  int     `json:"meals_last_7_days"`
	TrendAssessment string  `json:"trend_assessment"`
	NutrientGaps    []struct {
		Nutrient string `json:"nutrient"`
		Status   string `json:"status"`
		Gap      string `json:"gap"`
	} `json:"nutrient_gaps"`
}

func (c *Client) Summarize(ctx context.Context, profileID string) (analytics.Summary, error) {
	var resp summaryResponse
	path := fmt.Sprintf("/v1/profiles/%s/summary", url.PathEscape(profileID))
	if err := c.http.DoJSON(ctx, "GET", path, nil, nil, &resp); err != nil {
		return analytics.Summary{}, fmt.Errorf("nutriai: summarize: %w", err)
	}

	out := analytics.Summary{
		ProfileID:       resp.ProfileID,
		AvgCaloriesDay:  resp.AvgCaloriesDay,
		MealsLast7Days:  resp.MealsLast7Days,
		TrendAssessment: resp.TrendAssessment,
	}
	if out.ProfileID == "" {
		out.ProfileID = profileID
	}
	for _, g := range resp.NutrientGaps {
		out.NutrientGaps = append(out.NutrientGaps, analytics.NutrientGap{
			Nutrient: g.Nutrient,
			Status:   g.Status,
			Gap:      g.Gap,
		})
	}
	return out, nil
}
