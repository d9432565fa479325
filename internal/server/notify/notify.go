// Package notify delivers trustee messages. The default Notifier writes a
// structured log record; delivery channels plug in behind the interface.
package notify

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/legacy"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

// Notifier sends one message to one trustee. A returned error means the
// message was not delivered.
type Notifier interface {
	Send(ctx context.Context, t *models.Trustee, kind legacy.MessageKind) error
}

// LogNotifier records each message in the log.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(l logging.Logger) *LogNotifier {
	return &LogNotifier{logger: l.With("module", "notify")}
}

func (n *LogNotifier) Send(ctx context.Context, t *models.Trustee, kind legacy.MessageKind) error {
	if t.Email == "" {
		return fmt.Errorf("%w: trustee %s has no email", common.ErrNotificationDelivery, t.ID)
	}
	n.logger.Info(ctx, "trustee notified",
		"trustee_id", t.ID, "owner_id", t.OwnerID, "email", t.Email, "kind", string(kind))
	return nil
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, t *models.Trustee, kind legacy.MessageKind) error

func (f Func) Send(ctx context.Context, t *models.Trustee, kind legacy.MessageKind) error {
	return f(ctx, t, kind)
}
