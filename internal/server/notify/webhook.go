package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/server/legacy"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

type webhookPayload struct {
	TrusteeID string `json:"trustee_id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Kind      string `json:"kind"`
}

// WebhookNotifier POSTs every message as JSON to a fixed URL. Any non-2xx
// reply counts as a failed delivery.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookNotifier{url: url, client: client}
}

func (n *WebhookNotifier) Send(ctx context.Context, t *models.Trustee, kind legacy.MessageKind) error {
	body, err := json.Marshal(webhookPayload{
		TrusteeID: t.ID,
		OwnerID:   t.OwnerID,
		Name:      t.Name,
		Email:     t.Email,
		Kind:      string(kind),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrNotificationDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrNotificationDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrNotificationDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: webhook replied %s; body: %s", common.ErrNotificationDelivery, resp.Status, string(b))
	}
	return nil
}
