package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"chatterbox/internal/domain"
)

// HTTP is the relay client.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for base. A nil client means http.DefaultClient.
func NewHTTP(base string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{Base: base, HTTP: client}
}

var (
	_ domain.NegotiationTransport = (*HTTP)(nil)
	_ domain.EventSource          = (*HTTP)(nil)
)

func (c *HTTP) StartSession(ctx context.Context, req domain.StartRequest) error {
	return c.post(ctx, "/session/start", req, nil)
}

func (c *HTTP) LeaveSession(ctx context.Context, req domain.LeaveRequest) error {
	return c.post(ctx, "/session/leave", req, nil)
}

func (c *HTTP) RespondInvitation(ctx context.Context, resp domain.InvitationResponse) error {
	return c.post(ctx, "/invitation/respond", resp, nil)
}

func (c *HTTP) SendMessage(ctx context.Context, msg domain.OutboundMessage) error {
	return c.post(ctx, "/message", msg, nil)
}

func (c *HTTP) FetchEvents(ctx context.Context, self domain.ParticipantID, limit int) ([]domain.InboundEvent, error) {
	path := "/events/" + self.String()
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var events []domain.InboundEvent
	if err := c.getJSON(ctx, path, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *HTTP) AckEvents(ctx context.Context, self domain.ParticipantID, count int) error {
	return c.post(ctx, "/events/"+self.String()+"/ack", struct {
		Count int `json:"count"`
	}{Count: count}, nil)
}

func (c *HTTP) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay post %s: %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *HTTP) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay get %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
