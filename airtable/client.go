package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-logr/logr"
	"github.com/lestrrat-go/pdebug"
	"github.com/pkg/errors"
)

const (
	DefaultEndpoint = "https://api.airtable.com"
	schemaPath      = "/v0/meta/bases/{baseID}/tables"
	userAgent       = "attypes"
	maxDetail       = 512
)

// Client talks to the Airtable metadata API.
type Client struct {
	Client   *http.Client
	Endpoint string
	Token    string
	Logger   logr.Logger
}

func New(token string) *Client {
	return &Client{
		Client:   &http.Client{},
		Endpoint: DefaultEndpoint,
		Token:    token,
	}
}

// FetchError is returned when the schema of a base could not be retrieved,
// either because the request failed or because the server replied with a
// non-success status.
type FetchError struct {
	BaseID     string
	StatusCode int
	Status     string
	Detail     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch schema for base %s: %s", e.BaseID, e.Err)
	}
	return fmt.Sprintf("failed to fetch schema for base %s: status %d: %s", e.BaseID, e.StatusCode, e.Detail)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func schemaURL(endpoint, baseID string) string {
	return strings.TrimSuffix(endpoint, "/") + strings.Replace(schemaPath, "{baseID}", url.PathEscape(baseID), -1)
}

// FetchTables retrieves the table and field definitions of a base. The
// whole schema is expected in a single response.
func (c *Client) FetchTables(ctx context.Context, baseID string) (base *Base, err error) {
	if pdebug.Enabled {
		g := pdebug.Marker("airtable.FetchTables " + baseID).BindError(&err)
		defer g.End()
	}

	u := schemaURL(c.Endpoint, baseID)
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req = req.WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("User-Agent", userAgent)

	c.Logger.V(1).Info("fetching schema", "base", baseID, "url", u)
	if pdebug.Enabled {
		pdebug.Printf("GET to %s", u)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{BaseID: baseID, Err: err}
	}
	defer res.Body.Close()

	jsbuf, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, &FetchError{BaseID: baseID, StatusCode: res.StatusCode, Status: res.Status, Err: errors.Wrap(err, "failed to read response body")}
	}
	if pdebug.Enabled {
		pdebug.Printf("response buffer: %s", jsbuf)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &FetchError{
			BaseID:     baseID,
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Detail:     errorDetail(jsbuf),
		}
	}

	var payload Base
	if err := json.NewDecoder(bytes.NewReader(jsbuf)).Decode(&payload); err != nil {
		return nil, &FetchError{BaseID: baseID, StatusCode: res.StatusCode, Status: res.Status, Err: errors.Wrap(err, "failed to decode schema response")}
	}
	payload.ID = baseID
	if payload.Name == "" {
		payload.Name = baseID
	}
	c.Logger.V(1).Info("fetched schema", "base", baseID, "name", payload.Name, "tables", len(payload.Tables))
	return &payload, nil
}

func errorDetail(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Type != "" {
		if er.Error.Message == "" {
			return er.Error.Type
		}
		return er.Error.Type + ": " + er.Error.Message
	}

	// Some errors come back as {"error": "NOT_FOUND"}
	var simple struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &simple); err == nil && simple.Error != "" {
		return simple.Error
	}

	detail := strings.TrimSpace(string(body))
	if len(detail) > maxDetail {
		n := maxDetail
		for n > 0 && !utf8.RuneStart(detail[n]) {
			n--
		}
		detail = detail[:n]
	}
	return detail
}
