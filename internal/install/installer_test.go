// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hartleyhq/smartrun/internal/testutil"
	"github.com/hartleyhq/smartrun/pkg/types"
)

// fakeManager scripts Importable/Install outcomes and records calls.
type fakeManager struct {
	importable map[types.ModuleName]bool
	installErr map[types.ModuleName]error
	// failuresBeforeSuccess makes Install fail N times, then succeed.
	failuresBeforeSuccess map[types.ModuleName]int

	importableCalls []types.ModuleName
	installCalls    []types.ModuleName
}

func (f *fakeManager) Importable(_ context.Context, module types.ModuleName) (bool, error) {
	f.importableCalls = append(f.importableCalls, module)
	return f.importable[module], nil
}

func (f *fakeManager) Install(_ context.Context, module types.ModuleName) error {
	f.installCalls = append(f.installCalls, module)
	if n := f.failuresBeforeSuccess[module]; n > 0 {
		f.failuresBeforeSuccess[module] = n - 1
		return errors.New("transient registry error")
	}
	if err := f.installErr[module]; err != nil {
		return err
	}
	f.importable[module] = true
	return nil
}

func (f *fakeManager) installCount(module types.ModuleName) int {
	n := 0
	for _, m := range f.installCalls {
		if m == module {
			n++
		}
	}
	return n
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func newTestInstaller(m *fakeManager, opts ...Option) *Installer {
	base := []Option{
		WithClock(testutil.NewFakeClock(time.Unix(0, 0))),
		WithLogger(quietLogger()),
	}
	return New(m, append(base, opts...)...)
}

func TestEnsureAll_SkipsImportableModules(t *testing.T) {
	t.Parallel()

	m := &fakeManager{importable: map[types.ModuleName]bool{"requests": true}}
	inst := newTestInstaller(m)

	if err := inst.EnsureAll(context.Background(), []types.ModuleName{"requests"}); err != nil {
		t.Fatalf("EnsureAll() error = %v", err)
	}
	if len(m.installCalls) != 0 {
		t.Errorf("install calls = %v, want none for an importable module", m.installCalls)
	}
}

func TestEnsureAll_EmptyWorkListIsNoop(t *testing.T) {
	t.Parallel()

	m := &fakeManager{importable: map[types.ModuleName]bool{}}
	inst := newTestInstaller(m)

	if err := inst.EnsureAll(context.Background(), nil); err != nil {
		t.Fatalf("EnsureAll(nil) error = %v", err)
	}
	if len(m.importableCalls)+len(m.installCalls) != 0 {
		t.Error("no manager calls expected for an empty work list")
	}
}

func TestEnsureAll_InstallsMissingModule(t *testing.T) {
	t.Parallel()

	m := &fakeManager{importable: map[types.ModuleName]bool{}}
	inst := newTestInstaller(m)

	if err := inst.EnsureAll(context.Background(), []types.ModuleName{"numpy"}); err != nil {
		t.Fatalf("EnsureAll() error = %v", err)
	}
	if got := m.installCount("numpy"); got != 1 {
		t.Errorf("install calls for numpy = %d, want 1", got)
	}
}

func TestEnsureAll_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	m := &fakeManager{
		importable:            map[types.ModuleName]bool{},
		failuresBeforeSuccess: map[types.ModuleName]int{"numpy": 2},
	}
	clock := testutil.NewFakeClock(time.Unix(0, 0))
	inst := newTestInstaller(m, WithClock(clock))

	if err := inst.EnsureAll(context.Background(), []types.ModuleName{"numpy"}); err != nil {
		t.Fatalf("EnsureAll() error = %v", err)
	}
	if got := m.installCount("numpy"); got != 3 {
		t.Errorf("install calls = %d, want 3 (two failures, then success)", got)
	}

	slept := clock.Slept()
	if len(slept) != 2 {
		t.Fatalf("sleeps = %d, want 2 (one between each attempt)", len(slept))
	}
	for _, d := range slept {
		if d != DefaultDelay.Duration() {
			t.Errorf("sleep = %s, want fixed delay %s", d, DefaultDelay.Duration())
		}
	}
}

func TestEnsureAll_ExhaustionIsFatalAndExact(t *testing.T) {
	t.Parallel()

	permanent := errors.New("no matching distribution found")
	m := &fakeManager{
		importable: map[types.ModuleName]bool{},
		installErr: map[types.ModuleName]error{"nonexistent_module_xyz123": permanent},
	}
	inst := newTestInstaller(m)

	err := inst.EnsureAll(context.Background(), []types.ModuleName{"nonexistent_module_xyz123"})
	if !errors.Is(err, ErrInstallFailed) {
		t.Fatalf("EnsureAll() error = %v, want ErrInstallFailed", err)
	}

	var modErr *ModuleInstallError
	if !errors.As(err, &modErr) {
		t.Fatalf("error %v is not a *ModuleInstallError", err)
	}
	if modErr.Module != "nonexistent_module_xyz123" {
		t.Errorf("Module = %q, want %q", modErr.Module, "nonexistent_module_xyz123")
	}
	if !strings.Contains(err.Error(), "nonexistent_module_xyz123:") {
		t.Errorf("Error() = %q, want it prefixed with the module name", err.Error())
	}

	// Exactly the configured maximum, no more, no fewer.
	if got := m.installCount("nonexistent_module_xyz123"); got != int(DefaultAttempts) {
		t.Errorf("install calls = %d, want exactly %d", got, DefaultAttempts)
	}
}

func TestEnsureAll_FailFastStopsLaterModules(t *testing.T) {
	t.Parallel()

	m := &fakeManager{
		importable: map[types.ModuleName]bool{},
		installErr: map[types.ModuleName]error{"broken": errors.New("permanent")},
	}
	inst := newTestInstaller(m)

	err := inst.EnsureAll(context.Background(), []types.ModuleName{"alpha", "broken", "zeta"})
	if err == nil {
		t.Fatal("EnsureAll() = nil, want error")
	}

	// alpha was installed before the failure and stays installed.
	if got := m.installCount("alpha"); got != 1 {
		t.Errorf("install calls for alpha = %d, want 1", got)
	}
	if !m.importable["alpha"] {
		t.Error("alpha should remain installed after a later module fails")
	}
	// zeta was never reached.
	if got := m.installCount("zeta"); got != 0 {
		t.Errorf("install calls for zeta = %d, want 0 (fail-fast)", got)
	}
}

func TestRetryFixedDelay_AttemptNumbering(t *testing.T) {
	t.Parallel()

	var attempts []int
	err := RetryFixedDelay(context.Background(), 3, 0, testutil.NewFakeClock(time.Unix(0, 0)),
		func(attempt int) error {
			attempts = append(attempts, attempt)
			return errors.New("nope")
		})
	if err == nil {
		t.Fatal("RetryFixedDelay() = nil, want last error")
	}
	want := []int{1, 2, 3}
	if len(attempts) != len(want) {
		t.Fatalf("attempts = %v, want %v", attempts, want)
	}
	for i := range want {
		if attempts[i] != want[i] {
			t.Fatalf("attempts = %v, want monotonic numbering from 1", attempts)
		}
	}
}

func TestRetryFixedDelay_StopsOnSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	err := RetryFixedDelay(context.Background(), 3, 0, testutil.NewFakeClock(time.Unix(0, 0)),
		func(int) error {
			calls++
			return nil
		})
	if err != nil {
		t.Fatalf("RetryFixedDelay() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryFixedDelay_RespectsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryFixedDelay(ctx, 3, 0, testutil.NewFakeClock(time.Unix(0, 0)),
		func(int) error {
			calls++
			cancel()
			return errors.New("fail then cancel")
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RetryFixedDelay() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry after cancellation)", calls)
	}
}

func TestRetryFixedDelay_RejectsInvalidPolicy(t *testing.T) {
	t.Parallel()

	err := RetryFixedDelay(context.Background(), 0, 0, testutil.NewFakeClock(time.Unix(0, 0)),
		func(int) error { return nil })
	if !errors.Is(err, types.ErrInvalidAttemptCount) {
		t.Errorf("error = %v, want ErrInvalidAttemptCount", err)
	}

	err = RetryFixedDelay(context.Background(), 1, types.RetryDelay(-time.Second),
		testutil.NewFakeClock(time.Unix(0, 0)), func(int) error { return nil })
	if !errors.Is(err, types.ErrInvalidRetryDelay) {
		t.Errorf("error = %v, want ErrInvalidRetryDelay", err)
	}
}
