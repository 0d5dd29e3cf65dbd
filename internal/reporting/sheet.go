package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stemsi/compass-backend/internal/model"
)

// SheetClient posts rows to a spreadsheet-backed webhook (for example an
// Apps Script endpoint). A client with an empty URL is disabled.
type SheetClient struct {
	url        string
	httpClient *http.Client
}

// sheetEnvelope tags each post so one webhook can route both kinds of rows.
type sheetEnvelope struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

const (
	sheetKindEvents = "events"
	sheetKindResult = "result"
)

func NewSheetClient(url string, timeout time.Duration) *SheetClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &SheetClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *SheetClient) Enabled() bool {
	return c != nil && c.url != ""
}

// SendEvents posts one or more tracker batches.
func (c *SheetClient) SendEvents(ctx context.Context, batches []model.EventBatch) error {
	return c.post(ctx, sheetEnvelope{Kind: sheetKindEvents, Data: batches})
}

// SendResult posts the final result of a session.
func (c *SheetClient) SendResult(ctx context.Context, result ResultPayload) error {
	return c.post(ctx, sheetEnvelope{Kind: sheetKindResult, Data: result})
}

func (c *SheetClient) post(ctx context.Context, env sheetEnvelope) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal sheet payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create sheet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheet request failed: %w", err)
	}
	defer resp.Body.Close()

	// Apps Script answers 302 to a result page; any 2xx or 3xx is accepted.
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sheet webhook error %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
