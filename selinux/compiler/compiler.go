// Package compiler implements the Compiler Driver (spec section 4.6):
// invokes the external SELinux policy compiler toolchain against the
// generated te/if/fc sources to produce the loadable pp module.
//
// Spec treats the compiler as opaque ("invokes the external policy
// compiler... either it succeeds or it fails with COMPILE_ERROR"); in
// practice SELinux policy modules are built with the standard two-stage
// toolchain: checkmodule compiles the .te (with the .if available on the
// policy include path) into a binary .mod, then semodule_package links
// that .mod with the .fc into the final loadable .pp.
package compiler

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/juju/ratelimit"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/logger"
	"github.com/redpesk-labs/sec-lsm-manager/osutil"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/layout"
)

// Driver invokes the external compiler toolchain, throttling how often it
// spawns compiler processes so a burst of install requests cannot fork-bomb
// the host.
type Driver struct {
	checkmodule     string
	semodulePackage string
	bucket          *ratelimit.Bucket
}

// New returns a Driver that allows at most ratePerSecond compiler process
// spawns per second, bursting up to burst.
func New(ratePerSecond float64, burst int64) *Driver {
	return &Driver{
		checkmodule:     "checkmodule",
		semodulePackage: "semodule_package",
		bucket:          ratelimit.NewBucketWithRate(ratePerSecond, burst),
	}
}

// modFile returns the intermediate .mod path for l, derived from its .pp
// path. It is not part of spec's Module Layout (which only names te, if,
// fc, pp) because it never survives a successful or failed Compile call.
func modFile(l layout.Layout) string {
	return strings.TrimSuffix(l.PPFile, ".pp") + ".mod"
}

func (d *Driver) run(ctx context.Context, name string, args ...string) error {
	const op = "compiler.Compile"
	d.bucket.Wait(1)

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errs.Errorf(errs.CompileError, op, "%s %s: %w: %s", name, strings.Join(args, " "), err, stderr.String())
	}
	return nil
}

// Compile runs checkmodule then semodule_package against l's sources,
// producing l.PPFile. The intermediate .mod file is always removed,
// whether or not compilation succeeded.
func (d *Driver) Compile(ctx context.Context, l layout.Layout) error {
	mod := modFile(l)
	defer func() {
		if osutil.FileExists(mod) {
			if err := osutil.RemoveFile(mod); err != nil {
				logger.Errorf("compiler.Compile: remove intermediate %s: %v", mod, err)
			}
		}
	}()

	if err := d.run(ctx, d.checkmodule, "-M", "-m", "-o", mod, l.TEFile); err != nil {
		return err
	}
	if err := d.run(ctx, d.semodulePackage, "-o", l.PPFile, "-m", mod, "-f", l.FCFile); err != nil {
		return err
	}
	return nil
}

// DefaultTimeout bounds how long a single compile invocation may run before
// the caller's context should be cancelled; it is not enforced here since
// spec leaves timeout handling to the compiler wrapper's caller (the
// orchestrator derives its context from the enclosing request).
const DefaultTimeout = 30 * time.Second
