package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/admission"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/stats"
)

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINTRACK_CLI_TEST_VAR=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FINTRACK_CLI_TEST_VAR") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("FINTRACK_CLI_TEST_VAR"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("DATA_BACKEND: memory\nLEDGER_KEY: cli-test\n"), 0o600))
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "8081")

	cfg, err := LoadAndValidateConfig(good)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DataBackend)
	assert.Equal(t, "cli-test", cfg.LedgerKey)

	_, err = LoadAndValidateConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("PORT", "not-a-port")
	_, err = LoadAndValidateConfig("")
	assert.ErrorContains(t, err, "invalid port")
}

func TestGracefulShutdown(t *testing.T) {
	logger := log.Discard()

	assert.NoError(t, GracefulShutdown(logger, time.Second, func(context.Context) error { return nil }))

	boom := errors.New("boom")
	assert.ErrorIs(t, GracefulShutdown(logger, time.Second, func(context.Context) error { return boom }), boom)

	err := GracefulShutdown(logger, 10*time.Millisecond, func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSignalContextStop(t *testing.T) {
	ctx, stop := SignalContext(context.Background(), log.Discard())
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled by stop")
	}
}

func TestRenderTransactions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTransactions(&buf, nil))
	assert.Contains(t, buf.String(), "No transactions found.")

	buf.Reset()
	txns := core.SeedTransactions()[:2]
	require.NoError(t, RenderTransactions(&buf, txns))
	out := buf.String()
	for _, tx := range txns {
		assert.Contains(t, out, tx.ID)
		assert.Contains(t, out, tx.Description)
	}
}

func TestRenderBreakdown(t *testing.T) {
	var buf bytes.Buffer
	b := services.Breakdown{
		Month: "2024-12",
		Total: decimal.NewFromInt(400),
		Categories: []core.CategoryAmount{
			{Name: "Food", Amount: decimal.NewFromInt(300)},
			{Name: "Travel", Amount: decimal.NewFromInt(100)},
		},
	}
	require.NoError(t, RenderBreakdown(&buf, b))
	out := buf.String()
	assert.Contains(t, out, "2024-12")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "25.0%")
	assert.Contains(t, out, "₹400.00")
}

func TestRenderResult(t *testing.T) {
	var buf bytes.Buffer
	denied := services.Result{Decision: admission.Decision{Reason: admission.MonthlyLimitExceeded}}
	require.NoError(t, RenderResult(&buf, "added", denied))
	assert.Contains(t, buf.String(), "Monthly spending limit exceeded")

	buf.Reset()
	tx := core.Transaction{ID: "t1", Description: "Coffee"}
	ok := services.Result{
		Transaction: &tx,
		Decision:    admission.Allow,
		Stats:       services.StatsView{Level: stats.LevelWarning, UsagePercent: decimal.NewFromInt(85)},
	}
	require.NoError(t, RenderResult(&buf, "added", ok))
	assert.Contains(t, buf.String(), "Added Coffee (t1)")
	assert.Contains(t, buf.String(), "85.0%")
}

func TestRenderStatsAndIntent(t *testing.T) {
	var buf bytes.Buffer
	view := services.StatsView{
		DashboardStats: core.DashboardStats{RemainingBalance: decimal.NewFromInt(49580)},
		Month:          "2024-12",
		Level:          stats.LevelNormal,
	}
	require.NoError(t, RenderStats(&buf, view))
	assert.Contains(t, buf.String(), "₹49,580.00")

	buf.Reset()
	require.NoError(t, RenderIntent(&buf, core.PaymentIntent{Merchant: "Coffee Shop", PayeeID: "shop@upi", Amount: decimal.NewFromInt(150)}))
	assert.Contains(t, buf.String(), "Coffee Shop")
	assert.Contains(t, buf.String(), "shop@upi")
}
