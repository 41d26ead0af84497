package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NominatimClient обратное геокодирование через HTTP API Nominatim.
type NominatimClient struct {
	BaseURL    string
	UserAgent  string
	Language   string
	HTTPClient *http.Client
}

func NewNominatimClient(baseURL, userAgent string, timeout time.Duration) *NominatimClient {
	return &NominatimClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		Road     string `json:"road"`
		Suburb   string `json:"suburb"`
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
		Country  string `json:"country"`
	} `json:"address"`
}

func (c *NominatimClient) Reverse(ctx context.Context, lat, lng float64) (Address, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	if c.Language != "" {
		query.Set("accept-language", c.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return Address{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Address{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Address{}, fmt.Errorf("сервис геокодирования вернул статус %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Address{}, fmt.Errorf("ошибка разбора ответа геокодирования: %w", err)
	}
	if body.Error != "" {
		return Address{}, fmt.Errorf("сервис геокодирования вернул ошибку: %s", body.Error)
	}

	city := body.Address.City
	if city == "" {
		city = body.Address.Town
	}
	if city == "" {
		city = body.Address.Village
	}

	return Address{
		DisplayName: body.DisplayName,
		Road:        body.Address.Road,
		Suburb:      body.Address.Suburb,
		City:        city,
		State:       body.Address.State,
		Postcode:    body.Address.Postcode,
		Country:     body.Address.Country,
	}, nil
}
