// Package spdx fetches license texts from the SPDX license list.
package spdx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
)

// DefaultBaseURL serves the published SPDX license list as JSON.
const DefaultBaseURL = "https://spdx.org/licenses"

// LicenseRef is one row of licenses.json.
type LicenseRef struct {
	LicenseID     string `json:"licenseId"`
	Name          string `json:"name"`
	DetailsURL    string `json:"detailsUrl"`
	IsDeprecated  bool   `json:"isDeprecatedLicenseId"`
	IsOSIApproved bool   `json:"isOsiApproved"`
}

// License is the detail document for one license.
type License struct {
	LicenseID       string `json:"licenseId"`
	Name            string `json:"name"`
	LicenseText     string `json:"licenseText"`
	LicenseTextHTML string `json:"licenseTextHtml"`
	IsDeprecated    bool   `json:"isDeprecatedLicenseId"`
}

// PlainText returns LicenseText, or the text content of LicenseTextHTML
// when the plain field is empty.
func (l License) PlainText() (string, error) {
	if strings.TrimSpace(l.LicenseText) != "" {
		return l.LicenseText, nil
	}
	if l.LicenseTextHTML == "" {
		return "", nil
	}
	return HTMLText(l.LicenseTextHTML)
}

type listing struct {
	Version  string       `json:"licenseListVersion"`
	Licenses []LicenseRef `json:"licenses"`
}

// Client reads the SPDX license list over HTTP.
type Client struct {
	BaseURL   string
	UserAgent string

	HTTPClient *http.Client
}

// List returns every license in the list, deprecated ones included.
func (c *Client) List(ctx context.Context) ([]LicenseRef, error) {
	var payload listing
	if err := c.getJSON(ctx, "licenses.json", &payload); err != nil {
		return nil, err
	}
	return payload.Licenses, nil
}

// Get returns the detail document for id.
func (c *Client) Get(ctx context.Context, id string) (License, error) {
	var lic License
	if err := c.getJSON(ctx, url.PathEscape(id)+".json", &lic); err != nil {
		return License{}, err
	}
	if lic.LicenseID == "" {
		lic.LicenseID = id
	}
	return lic, nil
}

// Text returns the authoritative plain text for id.
func (c *Client) Text(ctx context.Context, id string) (string, error) {
	lic, err := c.Get(ctx, id)
	if err != nil {
		return "", err
	}
	text, err := lic.PlainText()
	if err != nil {
		return "", fmt.Errorf("spdx %s: %w", id, err)
	}
	if text == "" {
		return "", fmt.Errorf("spdx %s: no license text: %w", id, internalerr.ErrNotFound)
	}
	return text, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	endpoint := strings.TrimRight(c.baseURL(), "/") + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("spdx: %w: %v", internalerr.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("spdx %s: %w (%w)", path, internalerr.ErrNotFound, internalerr.ErrCollaboratorUnavailable)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("spdx %s: status %d: %s: %w", path, resp.StatusCode,
			strings.TrimSpace(string(body)), internalerr.ErrCollaboratorUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("spdx %s: decode: %w: %v", path, internalerr.ErrCollaboratorUnavailable, err)
	}
	return nil
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}
