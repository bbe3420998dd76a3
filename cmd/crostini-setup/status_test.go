package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/crostini"
	"github.com/felixgeelhaar/crostini-setup/internal/domain/history"
)

func TestRunStatus_FreshContainer(t *testing.T) {
	t.Parallel()

	env := newTestEnvironment("")
	env.geteuid = func() int { return 1000 }

	require.NoError(t, runStatus(context.Background(), env.environment, ""))

	out := env.out.String()
	assert.Contains(t, out, "PRE-REBOOT")
	assert.Contains(t, out, "POST-REBOOT")
	assert.Contains(t, out, "[PENDING] "+crostini.StepFixKeys)
	assert.Contains(t, out, "[PENDING] "+crostini.StepSetHostname)
	assert.Contains(t, out, "No recorded runs.")
}

func TestRunStatus_ShowsLastRun(t *testing.T) {
	t.Parallel()

	env := newTestEnvironment("")
	journal := history.New(env.fs, "/var/lib/crostini-setup/history.jsonl")
	require.NoError(t, journal.Append(history.Record{
		RunID:      "run-42",
		Phase:      "pre-reboot",
		Outcome:    "halted",
		FinishedAt: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		Steps: []history.StepRecord{
			{Name: crostini.StepFixKeys, Status: "completed"},
			{Name: crostini.StepAddRepo, Status: "failed", Error: "apt-get update: exit status 100"},
		},
	}))

	require.NoError(t, runStatus(context.Background(), env.environment, ""))

	out := env.out.String()
	assert.Contains(t, out, "pre-reboot phase, halted (run-42)")
	assert.Contains(t, out, "failed: "+crostini.StepAddRepo+": apt-get update: exit status 100")
	assert.NotContains(t, out, "failed: "+crostini.StepFixKeys)
}
