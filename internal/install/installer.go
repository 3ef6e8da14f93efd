// SPDX-License-Identifier: MPL-2.0

// Package install resolves the external modules a candidate program needs
// before it can run. Each module that does not already import is installed
// through the host package manager with bounded, fixed-delay retry.
//
// Installation mutates the host environment's installed-package set and is
// not undone on later failure: when a module exhausts its attempts, modules
// installed before it stay installed. That is a deliberate, irreversible
// side effect of the pipeline, not a transaction.
package install

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hartleyhq/smartrun/internal/testutil"
	"github.com/hartleyhq/smartrun/pkg/types"
)

const (
	// DefaultAttempts is the default maximum number of tries per module.
	DefaultAttempts types.AttemptCount = 3
	// DefaultDelay is the default pause between attempts.
	DefaultDelay = types.RetryDelay(2 * time.Second)
)

// ErrInstallFailed is the sentinel error wrapped by ModuleInstallError.
var ErrInstallFailed = errors.New("module installation failed")

type (
	// PackageManager is the slice of the interpreter adapter the installer
	// needs: an importability probe and a single-attempt install.
	PackageManager interface {
		Importable(ctx context.Context, module types.ModuleName) (bool, error)
		Install(ctx context.Context, module types.ModuleName) error
	}

	// Installer ensures modules are resolvable, installing the missing
	// ones sequentially. Modules are processed one at a time, each to
	// completion including its retries, before the next is considered.
	Installer struct {
		manager  PackageManager
		attempts types.AttemptCount
		delay    types.RetryDelay
		clock    testutil.Clock
		logger   *log.Logger
	}

	// Option configures an Installer.
	Option func(*Installer)

	// ModuleInstallError reports the module whose installation exhausted
	// all attempts, carrying the last attempt's error.
	ModuleInstallError struct {
		Module types.ModuleName
		Err    error
	}
)

// WithAttempts overrides the maximum attempts per module.
func WithAttempts(n types.AttemptCount) Option {
	return func(i *Installer) { i.attempts = n }
}

// WithDelay overrides the pause between attempts.
func WithDelay(d types.RetryDelay) Option {
	return func(i *Installer) { i.delay = d }
}

// WithClock overrides the clock (tests use testutil.FakeClock).
func WithClock(c testutil.Clock) Option {
	return func(i *Installer) { i.clock = c }
}

// WithLogger overrides the audit logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) { i.logger = l }
}

// New creates an Installer backed by manager with the default retry policy.
func New(manager PackageManager, opts ...Option) *Installer {
	i := &Installer{
		manager:  manager,
		attempts: DefaultAttempts,
		delay:    DefaultDelay,
		clock:    testutil.RealClock{},
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// EnsureAll makes every module in modules importable, installing the ones
// that are not. Modules that already resolve are skipped without any
// installation call. The first module to exhaust its attempts aborts the
// whole run with a ModuleInstallError; earlier installs are retained.
func (i *Installer) EnsureAll(ctx context.Context, modules []types.ModuleName) error {
	for _, module := range modules {
		if err := i.ensure(ctx, module); err != nil {
			return err
		}
	}
	return nil
}

func (i *Installer) ensure(ctx context.Context, module types.ModuleName) error {
	importable, err := i.manager.Importable(ctx, module)
	if err != nil {
		return &ModuleInstallError{Module: module, Err: err}
	}
	if importable {
		i.logger.Debug("module already importable, skipping install", "module", module)
		return nil
	}

	i.logger.Info("module not found, attempting installation", "module", module)

	err = RetryFixedDelay(ctx, i.attempts, i.delay, i.clock, func(attempt int) error {
		attemptErr := i.manager.Install(ctx, module)
		if attemptErr != nil {
			i.logger.Warn("install attempt failed",
				"module", module, "attempt", attempt, "max", int(i.attempts), "err", attemptErr)
			return attemptErr
		}
		i.logger.Info("module installed", "module", module, "attempt", attempt)
		return nil
	})
	if err != nil {
		return &ModuleInstallError{Module: module, Err: err}
	}
	return nil
}

// Error implements the error interface.
func (e *ModuleInstallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Module, e.Err)
}

// Unwrap returns ErrInstallFailed for errors.Is() compatibility.
func (e *ModuleInstallError) Unwrap() error { return ErrInstallFailed }
