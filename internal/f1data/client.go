// Package f1data imports season calendars and driver line-ups from the
// Jolpica F1 API, an Ergast-compatible JSON service.
package f1data

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

// DefaultBaseURL is the public Jolpica endpoint
const DefaultBaseURL = "https://api.jolpi.ca/ergast/f1"

// pageLimit is large enough for a full season in one response
const pageLimit = 100

// Client reads the Ergast-compatible JSON API
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type mrData[T any] struct {
	MRData T `json:"MRData"`
}

type apiLocation struct {
	Locality string `json:"locality"`
	Country  string `json:"country"`
}

type apiCircuit struct {
	CircuitID   string      `json:"circuitId"`
	CircuitName string      `json:"circuitName"`
	Location    apiLocation `json:"Location"`
}

// APIRace is one entry of a season schedule
type APIRace struct {
	Season   string     `json:"season"`
	Round    string     `json:"round"`
	RaceName string     `json:"raceName"`
	Circuit  apiCircuit `json:"Circuit"`
	Date     string     `json:"date"`
	Time     string     `json:"time"`
}

// APIConstructor is one team entered in a season
type APIConstructor struct {
	ConstructorID string `json:"constructorId"`
	Name          string `json:"name"`
	Nationality   string `json:"nationality"`
}

// APIDriver is one driver entered in a season
type APIDriver struct {
	DriverID        string `json:"driverId"`
	PermanentNumber string `json:"permanentNumber"`
	Code            string `json:"code"`
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
	DateOfBirth     string `json:"dateOfBirth"`
	Nationality     string `json:"nationality"`
}

// Number returns the permanent number, or 0 for drivers without one
func (d APIDriver) Number() int {
	n, _ := strconv.Atoi(d.PermanentNumber)
	return n
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	u := c.baseURL + path + "?limit=" + strconv.Itoa(pageLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Races returns the season's schedule
func (c *Client) Races(ctx context.Context, season int) ([]APIRace, error) {
	var body mrData[struct {
		RaceTable struct {
			Races []APIRace `json:"Races"`
		} `json:"RaceTable"`
	}]
	if err := c.get(ctx, fmt.Sprintf("/%d/races.json", season), &body); err != nil {
		return nil, err
	}
	return body.MRData.RaceTable.Races, nil
}

// Constructors returns the teams entered in the season
func (c *Client) Constructors(ctx context.Context, season int) ([]APIConstructor, error) {
	var body mrData[struct {
		ConstructorTable struct {
			Constructors []APIConstructor `json:"Constructors"`
		} `json:"ConstructorTable"`
	}]
	if err := c.get(ctx, fmt.Sprintf("/%d/constructors.json", season), &body); err != nil {
		return nil, err
	}
	return body.MRData.ConstructorTable.Constructors, nil
}

// Drivers returns the drivers who raced for constructorID in the season
func (c *Client) Drivers(ctx context.Context, season int, constructorID string) ([]APIDriver, error) {
	var body mrData[struct {
		DriverTable struct {
			Drivers []APIDriver `json:"Drivers"`
		} `json:"DriverTable"`
	}]
	path := fmt.Sprintf("/%d/constructors/%s/drivers.json", season, url.PathEscape(constructorID))
	if err := c.get(ctx, path, &body); err != nil {
		return nil, err
	}
	return body.MRData.DriverTable.Drivers, nil
}
