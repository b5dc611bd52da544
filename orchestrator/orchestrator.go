// Package orchestrator implements the Lifecycle Orchestrator (spec section
// 4.9): it sequences the Secure Application, Label Derivation, Module
// Generator, Compiler Driver, Policy Store Client and Cynagora Permission
// Sync components into the three public operations a caller drives an
// application's lifecycle through: Install, Uninstall, Probe.
//
// Two ambient concerns are added per SPEC_FULL.md section 5: per-id
// serialisation (two concurrent requests naming the same application id
// must not interleave their filesystem/compiler/store/cynagora work) via
// golang.org/x/sync's singleflight, and an admission rate limiter via
// golang.org/x/time/rate that throttles how fast distinct requests are
// accepted regardless of id.
package orchestrator

import (
	"context"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/redpesk-labs/sec-lsm-manager/config"
	"github.com/redpesk-labs/sec-lsm-manager/cynagora"
	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/logger"
	"github.com/redpesk-labs/sec-lsm-manager/osutil"
	"github.com/redpesk-labs/sec-lsm-manager/secapp"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/compiler"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/generator"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/label"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/layout"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/store"
)

// AppSpec is the caller-supplied description of an application to install:
// its identifier, declared paths and declared permissions.
type AppSpec struct {
	ID          string
	Paths       []secapp.Path
	Permissions []string
}

// StoreFactory creates a Policy Store Client. It is a field, not a direct
// call to store.Create, so tests can substitute a fake without a real
// semodule binary.
type StoreFactory func() (StoreClient, error)

// StoreClient is the subset of *store.Client the orchestrator drives.
type StoreClient interface {
	InstallModule(ctx context.Context, ppPath string) error
	RemoveModule(ctx context.Context, id string) error
	ModuleIsPresent(ctx context.Context, id string) (bool, error)
	Destroy()
}

// CynagoraDialer creates a cynagora.Client. Like StoreFactory, it is a
// field so tests can substitute a fake without a real cynagora daemon.
type CynagoraDialer func(ctx context.Context) (cynagora.Client, error)

// Orchestrator sequences the core components behind Install, Uninstall and
// Probe, with per-id serialisation and request admission control.
type Orchestrator struct {
	cfg      config.Config
	compiler *compiler.Driver
	newStore StoreFactory
	dialCyn  CynagoraDialer

	group   singleflight.Group
	limiter *rate.Limiter
}

// New returns an Orchestrator bound to cfg, using drv to compile modules,
// newStore to obtain a Policy Store Client per operation, and dialCyn to
// obtain a Cynagora client per operation. admissionPerSecond/burst bound
// how fast distinct requests are admitted.
func New(cfg config.Config, drv *compiler.Driver, newStore StoreFactory, dialCyn CynagoraDialer, admissionPerSecond float64, burst int) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		compiler: drv,
		newStore: newStore,
		dialCyn:  dialCyn,
		limiter:  rate.NewLimiter(rate.Limit(admissionPerSecond), burst),
	}
}

func buildApp(spec AppSpec) (*secapp.SecureApp, error) {
	app := secapp.New()
	if err := app.SetID(spec.ID); err != nil {
		return nil, err
	}
	for _, p := range spec.Paths {
		if err := app.AddPath(p.Path, p.Type); err != nil {
			return nil, err
		}
	}
	for _, perm := range spec.Permissions {
		if err := app.AddPermission(perm); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// serialize runs fn with at most one operation per id in flight: a call
// for an id that is already busy waits for the running operation to finish,
// then runs its own fn, so two requests naming the same application never
// interleave and neither is dropped.
func (o *Orchestrator) serialize(id string, fn func() (interface{}, error)) error {
	for {
		ran := false
		_, err, _ := o.group.Do(id, func() (interface{}, error) {
			ran = true
			return fn()
		})
		if ran {
			return err
		}
	}
}

// Install synthesizes, compiles and loads the policy module for spec, and
// stages its declared permissions into Cynagora. On any failure past
// module generation, it rolls back everything it already did, in reverse
// order, and returns the first error. A repeated install whose generated
// sources come out byte-identical to what is already on disk, for an id
// already loaded in the policy store, skips recompiling and reinstalling
// the module.
func (o *Orchestrator) Install(ctx context.Context, spec AppSpec) error {
	const op = "orchestrator.Install"
	if err := o.limiter.Wait(ctx); err != nil {
		return errs.Errorf(errs.Forbidden, op, "admission: %w", err)
	}

	return o.serialize(spec.ID, func() (interface{}, error) {
		return nil, o.install(ctx, spec)
	})
}

func (o *Orchestrator) install(ctx context.Context, spec AppSpec) error {
	const op = "orchestrator.Install"

	app, err := buildApp(spec)
	if err != nil {
		return err
	}

	l, err := layout.New(o.cfg, app.ID())
	if err != nil {
		return err
	}
	labels := label.Derive(app.ID())

	changed, err := generator.Generate(l, app, labels)
	if err != nil {
		return err
	}

	st, err := o.newStore()
	if err != nil {
		o.rollbackSources(op, l)
		return err
	}
	defer st.Destroy()

	// An unchanged generation result for an id already loaded in the
	// store means this install is a no-op repeat: compiling and
	// reinstalling an identical module would just waste a semodule
	// transaction. A changed result, or the module being absent despite
	// unchanged sources (a prior attempt died between Generate and
	// InstallModule), always goes through Compile+InstallModule.
	skipModule := false
	if !changed {
		present, err := st.ModuleIsPresent(ctx, app.ID())
		if err != nil {
			o.rollbackSources(op, l)
			return err
		}
		skipModule = present
	}

	if !skipModule {
		if err := o.compiler.Compile(ctx, l); err != nil {
			if rmErr := generator.RemoveSourceArtefacts(l); rmErr != nil {
				logger.Errorf("%s: rollback sources: %v", op, rmErr)
			}
			return err
		}

		if err := st.InstallModule(ctx, l.PPFile); err != nil {
			o.rollbackSources(op, l)
			return err
		}
	}

	if err := o.syncPermissionsForInstall(ctx, app); err != nil {
		if !skipModule {
			if rmErr := st.RemoveModule(ctx, app.ID()); rmErr != nil {
				logger.Errorf("%s: rollback module: %v", op, rmErr)
			}
			o.rollbackSources(op, l)
		}
		return err
	}

	logger.Noticef("%s: installed %s", op, app.ID())
	return nil
}

func (o *Orchestrator) rollbackSources(op string, l layout.Layout) {
	if err := generator.RemoveSourceArtefacts(l); err != nil {
		logger.Errorf("%s: rollback sources: %v", op, err)
	}
	if osutil.FileExists(l.PPFile) {
		if err := osutil.RemoveFile(l.PPFile); err != nil {
			logger.Errorf("%s: rollback pp: %v", op, err)
		}
	}
}

func (o *Orchestrator) syncPermissionsForInstall(ctx context.Context, app *secapp.SecureApp) error {
	const op = "orchestrator.syncPermissionsForInstall"
	cyn, err := o.dialCyn(ctx)
	if err != nil {
		return err
	}
	defer cyn.Close()

	if err := cyn.EnterPermissions(ctx); err != nil {
		return err
	}
	for _, perm := range app.Permissions().Permissions() {
		if err := cyn.SetPermission(ctx, app.ID(), "*", "*", perm); err != nil {
			if cancelErr := cyn.CancelPermissions(ctx); cancelErr != nil {
				logger.Errorf("%s: cancel: %v", op, cancelErr)
			}
			return err
		}
	}
	return cyn.CommitPermissions(ctx)
}

// Uninstall removes the source artefacts, compiled pp and policy module
// for id, then drops its staged permissions. It always attempts every
// step even once an earlier one fails, and reports the first error
// encountered; uninstalling an id that was never installed therefore
// surfaces the remove-file failure from its absent sources rather than
// reporting success.
func (o *Orchestrator) Uninstall(ctx context.Context, id string) error {
	const op = "orchestrator.Uninstall"
	if err := o.limiter.Wait(ctx); err != nil {
		return errs.Errorf(errs.Forbidden, op, "admission: %w", err)
	}

	return o.serialize(id, func() (interface{}, error) {
		return nil, o.uninstall(ctx, id)
	})
}

// uninstall removes sources, then the pp, then the policy module, in
// that order: so a module removal failure still leaves nothing behind
// that a retry can't redo, matching remove_selinux_rules's
// files-then-pp-then-module order. Every step runs regardless of
// earlier failures; the first error encountered is what's returned.
func (o *Orchestrator) uninstall(ctx context.Context, id string) error {
	const op = "orchestrator.Uninstall"

	l, err := layout.New(o.cfg, id)
	if err != nil {
		return err
	}

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := generator.RemoveSourceArtefacts(l); err != nil {
		logger.Errorf("%s: %v", op, err)
		record(err)
	}
	if err := osutil.RemoveFile(l.PPFile); err != nil {
		logger.Errorf("%s: %v", op, err)
		record(err)
	}

	if st, err := o.newStore(); err != nil {
		record(err)
	} else {
		func() {
			defer st.Destroy()
			present, err := st.ModuleIsPresent(ctx, id)
			if err != nil {
				record(err)
				return
			}
			if present {
				if err := st.RemoveModule(ctx, id); err != nil {
					record(err)
				}
			}
		}()
	}

	if err := o.clearPermissions(ctx, id); err != nil {
		record(err)
	}

	if firstErr != nil {
		return firstErr
	}

	logger.Noticef("%s: uninstalled %s", op, id)
	return nil
}

func (o *Orchestrator) clearPermissions(ctx context.Context, id string) error {
	const op = "orchestrator.clearPermissions"
	cyn, err := o.dialCyn(ctx)
	if err != nil {
		return err
	}
	defer cyn.Close()

	if err := cyn.EnterPermissions(ctx); err != nil {
		return err
	}
	if err := cyn.DropPermissions(ctx, id, "*", "*"); err != nil {
		if cancelErr := cyn.CancelPermissions(ctx); cancelErr != nil {
			logger.Errorf("%s: cancel: %v", op, cancelErr)
		}
		return err
	}
	return cyn.CommitPermissions(ctx)
}

// Status reports an application's installed state: whether its source
// artefacts exist and whether its module is loaded in the policy store.
type Status struct {
	SourcesPresent bool
	ModuleLoaded   bool
}

// Installed reports whether both SourcesPresent and ModuleLoaded hold.
func (s Status) Installed() bool { return s.SourcesPresent && s.ModuleLoaded }

// Probe reports id's current installed Status.
func (o *Orchestrator) Probe(ctx context.Context, id string) (Status, error) {
	l, err := layout.New(o.cfg, id)
	if err != nil {
		return Status{}, err
	}

	st, err := o.newStore()
	if err != nil {
		return Status{}, err
	}
	defer st.Destroy()

	loaded, err := st.ModuleIsPresent(ctx, id)
	if err != nil {
		return Status{}, err
	}

	return Status{
		SourcesPresent: generator.FilesExist(l),
		ModuleLoaded:   loaded,
	}, nil
}
