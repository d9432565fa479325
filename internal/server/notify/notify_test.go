package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/legacy"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier_Send(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	n := NewLogNotifier(l)

	err := n.Send(context.Background(), &models.Trustee{ID: "t-1", OwnerID: "o-1", Email: "bob@example.com"}, legacy.MessageInactivity)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "module=notify")
	assert.Contains(t, out, "trustee_id=t-1")
	assert.Contains(t, out, "kind=inactivity")
}

func TestLogNotifier_NoEmail(t *testing.T) {
	n := NewLogNotifier(logging.Discard())
	err := n.Send(context.Background(), &models.Trustee{ID: "t-1"}, legacy.MessageManual)
	assert.True(t, errors.Is(err, common.ErrNotificationDelivery))
}

func TestFunc(t *testing.T) {
	var got legacy.MessageKind
	var n Notifier = Func(func(_ context.Context, _ *models.Trustee, kind legacy.MessageKind) error {
		got = kind
		return nil
	})
	require.NoError(t, n.Send(context.Background(), &models.Trustee{}, legacy.MessageTriggerDate))
	assert.Equal(t, legacy.MessageTriggerDate, got)
}
