// Package sheetsvc talks to the spreadsheet-backed persistence endpoint:
// a single Apps-Script-style URL answering GET with the full aggregate
// document and POST {action: "syncAll", data: ...} with a full overwrite.
package sheetsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/nwschool/clubreg/core"
	"github.com/nwschool/clubreg/core/registry"
)

type (
	Client struct {
		url  string
		http *http.Client
	}

	// remoteDoc is the GET payload; the endpoint reports its own failures
	// inside a 200 body.
	remoteDoc struct {
		registry.Snapshot
		Error string `json:"error,omitempty"`
	}

	syncRequest struct {
		Action string            `json:"action"`
		Data   registry.Snapshot `json:"data"`
	}
)

var ErrNotConfigured = errors.New("no sheets endpoint configured")

func NewClient(conf *core.Config) *Client {
	return &Client{
		url:  conf.Sheets.URL,
		http: &http.Client{Timeout: conf.Sheets.Timeout},
	}
}

// Load fetches the full remote state.
func (c *Client) Load(ctx context.Context) (registry.Snapshot, error) {
	if c.url == "" {
		return registry.Snapshot{}, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return registry.Snapshot{}, errors.Wrap(err, "building load request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return registry.Snapshot{}, errors.Wrap(err, "loading remote state")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return registry.Snapshot{}, errors.Errorf("loading remote state: unexpected status %d", resp.StatusCode)
	}
	var doc remoteDoc
	if err = json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return registry.Snapshot{}, errors.Wrap(err, "decoding remote state")
	}
	if doc.Error != "" {
		return registry.Snapshot{}, errors.Errorf("remote error: %s", doc.Error)
	}
	return doc.Snapshot, nil
}

// Save overwrites the full remote state. The Apps-Script transport does not
// return a useful body; only transport-level failures are reported.
func (c *Client) Save(ctx context.Context, snap registry.Snapshot) error {
	if c.url == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(syncRequest{Action: "syncAll", Data: snap})
	if err != nil {
		return errors.Wrap(err, "encoding sync request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building sync request")
	}
	// the Apps-Script endpoint rejects preflighted content types
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "pushing remote state")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("pushing remote state: unexpected status %d", resp.StatusCode)
	}
	return nil
}
