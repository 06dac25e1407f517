package retention

import (
	"context"
	"testing"
	"time"

	"chatcore/pkg/config"
	"chatcore/pkg/models"
	"chatcore/pkg/persist"
)

func adapterWithVersions(t *testing.T) *persist.Adapter {
	t.Helper()
	a, err := persist.Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	m := models.Message{ID: "m000000", Conversation: "c1", Seq: 0, Text: "v1", Direction: models.DirectionOutgoing, DeliveryState: models.DeliverySent, CreatedAt: 1}
	if err := a.SaveMessage(m, false); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	m.Text = "v2"
	if err := a.SaveMessage(m, true); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	return a
}

func TestRunOncePurgesAgedVersions(t *testing.T) {
	a := adapterWithVersions(t)
	time.Sleep(5 * time.Millisecond)

	RunOnce(config.RetentionConfig{Enabled: true, Period: config.Duration(time.Millisecond)}, a)
	n, err := a.PurgeVersions(time.Now().UTC().Add(time.Hour), false)
	if err != nil {
		t.Fatalf("PurgeVersions: %v", err)
	}
	if n != 0 {
		t.Fatalf("RunOnce left %d versions behind", n)
	}
}

func TestRunOnceDryRunKeepsVersions(t *testing.T) {
	a := adapterWithVersions(t)
	time.Sleep(5 * time.Millisecond)

	RunOnce(config.RetentionConfig{Enabled: true, Period: config.Duration(time.Millisecond), DryRun: true}, a)
	n, err := a.PurgeVersions(time.Now().UTC().Add(time.Hour), true)
	if err != nil {
		t.Fatalf("PurgeVersions: %v", err)
	}
	if n != 1 {
		t.Fatalf("dry-run removed versions: %d left", n)
	}
}

func TestStartDisabled(t *testing.T) {
	cancel, err := Start(context.Background(), config.RetentionConfig{}, nil)
	if err != nil {
		t.Fatalf("disabled retention errored: %v", err)
	}
	cancel()
}

func TestStartRejectsBadConfig(t *testing.T) {
	a := adapterWithVersions(t)
	if _, err := Start(context.Background(), config.RetentionConfig{Enabled: true}, a); err == nil {
		t.Fatalf("missing period accepted")
	}
	cfg := config.RetentionConfig{Enabled: true, Period: config.Duration(time.Hour), Cron: "not a cron"}
	if _, err := Start(context.Background(), cfg, a); err == nil {
		t.Fatalf("invalid cron accepted")
	}
}
