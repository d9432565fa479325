package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/server/auth"
	"github.com/dmitrijs2005/legacylink/internal/server/config"
	"github.com/dmitrijs2005/legacylink/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--owner", "o1"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	cfg := config.LoadConfig()
	id, err := auth.GetOwnerIDFromToken(strings.TrimSpace(out.String()), []byte(cfg.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "o1", id)
}

func TestTokenCommand_RequiresOwner(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"token"})
	assert.Error(t, root.Execute())
}

func TestTokenCommand_IgnoresServerFlags(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"token", "-d", "postgres://x", "--owner", "o1", "-w", "8"})
	require.NoError(t, root.Execute())
}

func TestPrintReport(t *testing.T) {
	var out bytes.Buffer
	printReport(&out, &services.SweepReport{
		StartedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Owners:    2, Processed: 1, Notified: 3, GrantsReleased: 4,
		Failures: []services.OwnerFailure{{OwnerID: "o2", Err: errors.New("boom")}},
	})
	s := out.String()
	assert.Contains(t, s, "started:          2024-01-01T00:00:00Z")
	assert.Contains(t, s, "grants released:  4")
	assert.Contains(t, s, "failed owner o2: boom")
}
