package sequencer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/sequencer"
	"github.com/felixgeelhaar/crostini-setup/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSystem is detector-observable state keyed by step name.
type fakeSystem struct {
	applied  map[string]bool
	failing  map[string]error
	executed []string
	detects  map[string]int
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{
		applied: make(map[string]bool),
		failing: make(map[string]error),
		detects: make(map[string]int),
	}
}

func (f *fakeSystem) step(name string, phase sequencer.Phase) sequencer.Step {
	return sequencer.Step{
		Name:        name,
		Description: "does " + name,
		Phase:       phase,
		Detect: func(context.Context) bool {
			f.detects[name]++
			return f.applied[name]
		},
		Apply: func(context.Context) error {
			f.executed = append(f.executed, name)
			if err := f.failing[name]; err != nil {
				return err
			}
			f.applied[name] = true
			return nil
		},
	}
}

func (f *fakeSystem) snapshot() map[string]bool {
	out := make(map[string]bool, len(f.applied))
	for k, v := range f.applied {
		out[k] = v
	}
	return out
}

func crostiniLikeRegistry(f *fakeSystem) *sequencer.Registry {
	r := sequencer.NewRegistry()
	r.Register(f.step("keys", sequencer.PhasePreReboot))
	r.Register(f.step("groups", sequencer.PhasePreReboot))
	r.Register(f.step("apply-groups", sequencer.PhasePostReboot))
	r.Register(f.step("repo", sequencer.PhasePreReboot))
	r.Register(f.step("hostname", sequencer.PhasePostReboot))
	return r
}

type recordingReporter struct {
	plans    []*sequencer.Plan
	started  []string
	finished []sequencer.StepResult
	reports  []*sequencer.Report
}

func (r *recordingReporter) PlanReady(_ context.Context, plan *sequencer.Plan) {
	r.plans = append(r.plans, plan)
}

func (r *recordingReporter) StepStarted(_ context.Context, _, _ int, step sequencer.Step) {
	r.started = append(r.started, step.Name)
}

func (r *recordingReporter) StepFinished(_ context.Context, result sequencer.StepResult) {
	r.finished = append(r.finished, result)
}

func (r *recordingReporter) Finished(_ context.Context, report *sequencer.Report) {
	r.reports = append(r.reports, report)
}

func TestRun_FreshContainerThroughReboot(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	reg := crostiniLikeRegistry(sys)
	ctx := context.Background()

	rep := &recordingReporter{}
	first, err := sequencer.New(reg, mocks.NewPrompter(true), sequencer.WithReporter(rep)).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, sequencer.OutcomeRebootRequired, first.Outcome)
	assert.Equal(t, sequencer.PhasePreReboot, first.Plan.Phase())
	assert.Equal(t, []string{"keys", "groups", "repo"}, first.Plan.PendingNames())
	assert.Equal(t, []string{"keys", "groups", "repo"}, sys.executed)
	assert.Equal(t, []string{"keys", "groups", "repo"}, rep.started)
	require.Len(t, rep.reports, 1)

	second, err := sequencer.New(reg, mocks.NewPrompter(true)).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, sequencer.OutcomeSetupComplete, second.Outcome)
	assert.Equal(t, sequencer.PhasePostReboot, second.Plan.Phase())
	assert.Equal(t, []string{"apply-groups", "hostname"}, second.Plan.PendingNames())
	assert.Equal(t, []string{"keys", "groups", "repo", "apply-groups", "hostname"}, sys.executed)

	third, err := sequencer.New(reg, mocks.NewPrompter()).Run(ctx)
	require.NoError(t, err, "a finished system must not prompt")
	assert.Equal(t, sequencer.OutcomeAlreadyComplete, third.Outcome)
	assert.True(t, third.Plan.Complete())
	assert.Empty(t, third.Results)
}

func TestRun_DetectedStepIsNotPending(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	sys.applied["groups"] = true
	reg := crostiniLikeRegistry(sys)

	plan := sequencer.New(reg, mocks.NewPrompter()).Plan(context.Background())

	assert.Equal(t, []string{"keys", "repo"}, plan.PendingNames())
	assert.NotContains(t, plan.PendingNames(), "groups")
}

func TestPlan_Deterministic(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	sys.applied["repo"] = true
	seq := sequencer.New(crostiniLikeRegistry(sys), mocks.NewPrompter())

	first := seq.Plan(context.Background())
	second := seq.Plan(context.Background())

	assert.Equal(t, first.PendingNames(), second.PendingNames())
	assert.Equal(t, first.Phase(), second.Phase())
}

func TestPlan_SelectsPostRebootWhenPreIsDone(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	for _, n := range []string{"keys", "groups", "repo"} {
		sys.applied[n] = true
	}

	plan := sequencer.New(crostiniLikeRegistry(sys), mocks.NewPrompter()).Plan(context.Background())

	assert.Equal(t, sequencer.PhasePostReboot, plan.Phase())
	assert.False(t, plan.Complete())
	assert.Equal(t, []string{"apply-groups", "hostname"}, plan.PendingNames())
}

func TestPlan_PostDetectorsSkippedWhilePrePending(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	sequencer.New(crostiniLikeRegistry(sys), mocks.NewPrompter()).Plan(context.Background())

	assert.Equal(t, 1, sys.detects["keys"], "each detector runs once per plan")
	assert.Zero(t, sys.detects["apply-groups"])
	assert.Zero(t, sys.detects["hostname"])
}

func TestRun_DeclineLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	sys.applied["keys"] = true
	before := sys.snapshot()
	prompter := mocks.NewPrompter(false)

	report, err := sequencer.New(crostiniLikeRegistry(sys), prompter).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sequencer.OutcomeAborted, report.Outcome)
	assert.Empty(t, sys.executed)
	assert.Empty(t, report.Results)
	assert.Equal(t, before, sys.snapshot())
	assert.Equal(t, []string{sequencer.PromptProceed}, prompter.Questions())
}

func TestRun_FailureThenHaltStopsBeforeNextStep(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	boom := errors.New("apt-get exited with status 100")
	sys.failing["groups"] = boom
	prompter := mocks.NewPrompter(true, false)

	report, err := sequencer.New(crostiniLikeRegistry(sys), prompter).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sequencer.OutcomeHalted, report.Outcome)
	assert.Equal(t, []string{"keys", "groups"}, sys.executed)
	assert.NotContains(t, sys.executed, "repo")
	assert.Equal(t, []string{"keys", "groups"}, report.Executed())

	require.Len(t, report.Results, 3)
	assert.Equal(t, sequencer.StatusCompleted, report.Results[0].Status)
	assert.Equal(t, sequencer.StatusFailed, report.Results[1].Status)
	assert.Equal(t, sequencer.StatusSkipped, report.Results[2].Status)
	assert.Equal(t, "repo", report.Results[2].Name)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0].Err, boom)
	var stepErr *sequencer.StepError
	require.ErrorAs(t, failed[0].Err, &stepErr)
	assert.Equal(t, "groups", stepErr.Step)
	assert.Equal(t, 1, stepErr.Index)

	assert.Equal(t, []string{sequencer.PromptProceed, sequencer.PromptContinue}, prompter.Questions())
}

func TestRun_FailureThenContinue(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	sys.failing["keys"] = errors.New("keyserver unreachable")
	prompter := mocks.NewPrompter(true, true)

	report, err := sequencer.New(crostiniLikeRegistry(sys), prompter).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sequencer.OutcomeRebootRequired, report.Outcome)
	assert.Equal(t, []string{"keys", "groups", "repo"}, sys.executed)
	assert.Len(t, report.Failed(), 1)

	rerun := sequencer.New(crostiniLikeRegistry(sys), mocks.NewPrompter(false)).Plan(context.Background())
	assert.Equal(t, []string{"keys"}, rerun.PendingNames(), "the failed step is re-detected on the next run")
}

func TestRun_AutoConfirm(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	sys.failing["groups"] = errors.New("id: ubuntu: no such user")
	prompter := mocks.NewPrompter()

	report, err := sequencer.New(crostiniLikeRegistry(sys), prompter, sequencer.WithAutoConfirm(true)).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, prompter.Questions())
	assert.Equal(t, sequencer.OutcomeHalted, report.Outcome, "auto-confirm never continues past a failure")
	assert.Equal(t, []string{"keys", "groups"}, sys.executed)
}

func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	rep := &recordingReporter{}

	report, err := sequencer.New(crostiniLikeRegistry(sys), mocks.NewPrompter(),
		sequencer.WithDryRun(true), sequencer.WithReporter(rep)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sequencer.OutcomePlanned, report.Outcome)
	assert.Empty(t, sys.executed)
	require.Len(t, rep.plans, 1)
	assert.Len(t, rep.plans[0].Pending(), 3)
}

func TestRun_PromptError(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	// No scripted answers: the mock errors on the first confirmation.
	_, err := sequencer.New(crostiniLikeRegistry(sys), mocks.NewPrompter()).Run(context.Background())

	require.Error(t, err)
	assert.Empty(t, sys.executed)
}

func TestRun_CanceledBeforeNextStep(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	reg := sequencer.NewRegistry()
	var ran []string
	reg.Register(sequencer.Step{Name: "first", Apply: func(context.Context) error {
		ran = append(ran, "first")
		cancel()
		return nil
	}})
	reg.Register(sequencer.Step{Name: "second", Apply: func(context.Context) error {
		ran = append(ran, "second")
		return nil
	}})

	_, err := sequencer.New(reg, mocks.NewPrompter(true)).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"first"}, ran)
}

func TestRun_EmptyRegistryIsComplete(t *testing.T) {
	t.Parallel()

	report, err := sequencer.New(sequencer.NewRegistry(), mocks.NewPrompter()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sequencer.OutcomeAlreadyComplete, report.Outcome)
}

func TestRun_StepWithoutDetectorIsAlwaysOffered(t *testing.T) {
	t.Parallel()

	reg := sequencer.NewRegistry()
	applied := 0
	reg.Register(sequencer.Step{
		Name:  "hostname",
		Phase: sequencer.PhasePostReboot,
		Apply: func(context.Context) error { applied++; return nil },
	})

	for i := 0; i < 2; i++ {
		report, err := sequencer.New(reg, mocks.NewPrompter(true)).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, sequencer.OutcomeSetupComplete, report.Outcome)
	}
	assert.Equal(t, 2, applied)
}

func TestNew_SnapshotsRegistry(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	reg := sequencer.NewRegistry()
	reg.Register(sys.step("a", sequencer.PhasePreReboot))
	seq := sequencer.New(reg, mocks.NewPrompter())

	reg.Register(sys.step("b", sequencer.PhasePreReboot))

	assert.Equal(t, []string{"a"}, seq.Plan(context.Background()).PendingNames())
}

func TestSurvey_CoversBothPhases(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem()
	sys.applied["hostname"] = true

	entries := sequencer.New(crostiniLikeRegistry(sys), mocks.NewPrompter()).Survey(context.Background())

	require.Len(t, entries, 5)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Step.Name
	}
	assert.Equal(t, []string{"keys", "groups", "repo", "apply-groups", "hostname"}, names)
	assert.True(t, entries[4].Done)
	assert.Equal(t, 4, entries[4].Index)
}

func TestPlan_DetectedListsEveryEvaluatedStep(t *testing.T) {
	t.Parallel()

	t.Run("pre-reboot pending", func(t *testing.T) {
		t.Parallel()
		sys := newFakeSystem()
		sys.applied["keys"] = true

		plan := sequencer.New(crostiniLikeRegistry(sys), mocks.NewPrompter()).Plan(context.Background())
		names := make([]string, 0)
		for _, e := range plan.Detected() {
			names = append(names, e.Step.Name)
		}
		assert.Equal(t, []string{"keys", "groups", "repo"}, names)
		assert.Zero(t, sys.detects["hostname"])
	})

	t.Run("post-reboot selected", func(t *testing.T) {
		t.Parallel()
		sys := newFakeSystem()
		for _, n := range []string{"keys", "groups", "repo"} {
			sys.applied[n] = true
		}

		plan := sequencer.New(crostiniLikeRegistry(sys), mocks.NewPrompter()).Plan(context.Background())
		detected := plan.Detected()
		require.Len(t, detected, 5)
		assert.True(t, detected[0].Done)
		assert.False(t, detected[4].Done)
		assert.Len(t, plan.Entries(), 2)
		for name, n := range sys.detects {
			assert.Equal(t, 1, n, name)
		}
	})
}
