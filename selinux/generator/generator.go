// Package generator implements the Module Generator (spec section 4.5):
// produces the te/if/fc source artefacts for an application, rolling back
// partially-written files on failure.
//
// Grounded on generate_app_module_files and generate_app_module_fc in
// original_source/src/selinux-template.c: expand the .te template, expand
// the .if template (removing the .te on failure), then write the .fc file
// directly line by line (removing .if then .te on failure).
package generator

import (
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/logger"
	"github.com/redpesk-labs/sec-lsm-manager/osutil"
	"github.com/redpesk-labs/sec-lsm-manager/secapp"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/label"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/layout"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/template"
)

func fcLine(path string, lbl string) string {
	return fmt.Sprintf("%s(/.*)? gen_context(%s,s0)\n", path, lbl)
}

// renderFC builds the .fc file body for app given the label table: one
// line per declared path, in declaration order.
func renderFC(app *secapp.SecureApp, labels label.Table) string {
	var out []byte
	for _, p := range app.Paths().Paths() {
		out = append(out, fcLine(p.Path, labels.For(p.Type))...)
	}
	return string(out)
}

func fingerprint(b []byte) [blake2b.Size256]byte {
	return blake2b.Sum256(b)
}

// unchanged reports whether path already holds exactly content, so Generate
// can tell the orchestrator a no-op regeneration happened (useful for
// skipping an unnecessary recompile/reinstall on a repeated install of an
// identical application description).
func unchanged(path string, content []byte) bool {
	existing, err := osutil.ReadFile(path)
	if err != nil {
		return false
	}
	return fingerprint(existing) == fingerprint(content)
}

// Generate writes the te, if and fc artefacts named by l for app, using
// labels for the fc body. It reports changed=false when every artefact
// already held byte-identical content (a repeat install of an unchanged
// application), so callers may treat it as a clean no-op.
func Generate(l layout.Layout, app *secapp.SecureApp, labels label.Table) (changed bool, err error) {
	const op = "generator.Generate"

	teBefore, teErr := osutil.ReadFile(l.TEFile)
	ifBefore, ifErr := osutil.ReadFile(l.IFFile)

	if err := template.Process(l.TETemplateFile, l.TEFile, app); err != nil {
		return false, errs.Errorf(errs.TemplateError, op, "te: %w", err)
	}

	if err := template.Process(l.IFTemplateFile, l.IFFile, app); err != nil {
		if rmErr := osutil.RemoveFile(l.TEFile); rmErr != nil {
			logger.Errorf("%s: rollback remove %s: %v", op, l.TEFile, rmErr)
		}
		return false, errs.Errorf(errs.TemplateError, op, "if: %w", err)
	}
	srcChanged := teErr != nil || ifErr != nil ||
		!unchanged(l.TEFile, teBefore) || !unchanged(l.IFFile, ifBefore)

	fc := renderFC(app, labels)
	fcChanged := !unchanged(l.FCFile, []byte(fc))
	if err := osutil.AtomicWriteFile(l.FCFile, []byte(fc), 0644); err != nil {
		if rmErr := osutil.RemoveFile(l.IFFile); rmErr != nil {
			logger.Errorf("%s: rollback remove %s: %v", op, l.IFFile, rmErr)
		}
		if rmErr := osutil.RemoveFile(l.TEFile); rmErr != nil {
			logger.Errorf("%s: rollback remove %s: %v", op, l.TEFile, rmErr)
		}
		return false, errs.Errorf(errs.IOError, op, "fc: %w", err)
	}

	logger.Debugf("%s: generated %s, %s, %s", op, l.TEFile, l.IFFile, l.FCFile)
	return srcChanged || fcChanged, nil
}

// FilesExist reports whether all three source artefacts (te, if, fc) are
// present. It deliberately does not check the compiled pp: spec's Probe
// operation checks source artefacts and loaded-module presence
// independently.
func FilesExist(l layout.Layout) bool {
	return osutil.FileExists(l.TEFile) && osutil.FileExists(l.IFFile) && osutil.FileExists(l.FCFile)
}

// RemoveSourceArtefacts removes the te, if and fc artefacts in that order.
// Every file is attempted even once an earlier one fails to remove, and the
// first error encountered (including a missing file, which callers that
// want idempotent-uninstall semantics must inspect for themselves) is what
// is returned.
func RemoveSourceArtefacts(l layout.Layout) error {
	const op = "generator.RemoveSourceArtefacts"
	var first error
	for _, f := range []string{l.TEFile, l.IFFile, l.FCFile} {
		if err := osutil.RemoveFile(f); err != nil {
			logger.Errorf("%s: %v", op, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
