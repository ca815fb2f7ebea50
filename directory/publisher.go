package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// HTTPPublisher pushes room occupancy to a remote directory
type HTTPPublisher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPublisher creates a publisher for the directory at baseURL
func NewHTTPPublisher(baseURL string, client *http.Client) *HTTPPublisher {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPPublisher{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Publish posts a heartbeat
func (p *HTTPPublisher) Publish(ctx context.Context, hb Heartbeat) error {
	body, err := json.Marshal(hb)
	if err != nil {
		return errors.Wrap(err, "marshal heartbeat")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/rooms/heartbeat", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build heartbeat request")
	}
	req.Header.Set("Content-Type", "application/json")
	return errors.Wrapf(p.do(req), "heartbeat for room %s", hb.RoomID)
}

// Remove deletes a room. A room the directory no longer knows is not an error.
func (p *HTTPPublisher) Remove(ctx context.Context, roomID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.baseURL+"/rooms/"+url.PathEscape(roomID), nil)
	if err != nil {
		return errors.Wrap(err, "build delete request")
	}
	err = p.do(req)
	if errors.Is(err, errNotFound) {
		return nil
	}
	return errors.Wrapf(err, "remove room %s", roomID)
}

var errNotFound = errors.New("directory: not found")

func (p *HTTPPublisher) do(req *http.Request) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode >= 300:
		return errors.Errorf("directory: unexpected status %s", resp.Status)
	}
	return nil
}
