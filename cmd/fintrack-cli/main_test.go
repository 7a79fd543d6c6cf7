package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "8081")
	t.Setenv("AMQP_URL", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	_ = closeLedger(nil, nil)
	return out.String(), err
}

func TestStatsCommand(t *testing.T) {
	out, err := execute(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "₹49,580.00")
	assert.Contains(t, out, "₹15,000.00")
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "", "list", "--type", "credit")
	require.NoError(t, err)
	assert.Contains(t, out, "Salary")
	assert.NotContains(t, out, "Groceries")

	_, err = execute(t, "", "list", "--type", "transfers")
	assert.Error(t, err)
}

func TestAddCommandDenied(t *testing.T) {
	out, err := execute(t, "", "add", "--date", "2024-12-20", "--amount", "60000", "--description", "Car")
	require.NoError(t, err)
	assert.Contains(t, out, "Insufficient balance")
}

func TestPayCommandRejectsBadCode(t *testing.T) {
	_, err := execute(t, "", "pay", "not a payment uri")
	assert.ErrorContains(t, err, "invalid code")
}

func TestResetCommandCancelled(t *testing.T) {
	out, err := execute(t, "n\n", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset cancelled")
}

func TestSamplesCommand(t *testing.T) {
	out, err := execute(t, "", "samples")
	require.NoError(t, err)
	assert.Contains(t, out, "UPI ID")
}
