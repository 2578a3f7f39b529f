package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Report is a weather observation for a resolved place.
type Report struct {
	Place      string
	TempF      float64
	Conditions string
}

// Client queries the OpenWeather current-conditions endpoint. Construct
// once at process start and share; it holds no per-request state.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithBaseURL is used by tests to point at a stub server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Current fetches the current conditions for a location query such as
// "Lake Tahoe,CA,US". Units are imperial so TempF is already Fahrenheit.
func (c *Client) Current(ctx context.Context, location string) (*Report, error) {
	params := url.Values{}
	params.Add("q", location)
	params.Add("units", "imperial")
	params.Add("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var cur currentResponse
	if err := json.Unmarshal(body, &cur); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	place := cur.Name
	if place == "" {
		// Fall back to the query's city part so the sentence stays readable.
		place = strings.SplitN(location, ",", 2)[0]
	}
	conditions := "clear skies"
	if len(cur.Weather) > 0 && cur.Weather[0].Description != "" {
		conditions = cur.Weather[0].Description
	}

	return &Report{
		Place:      place,
		TempF:      cur.Main.Temp,
		Conditions: conditions,
	}, nil
}

// Sentence renders the fixed report template. The companion UI widget
// pattern-matches this exact shape, so the wording must not drift and the
// temperature is reproduced without rounding.
func (r *Report) Sentence() string {
	return fmt.Sprintf("The weather in %s is currently %s°F with %s.",
		r.Place, formatTemp(r.TempF), r.Conditions)
}

func formatTemp(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
