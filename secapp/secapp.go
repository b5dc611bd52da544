// Package secapp implements the Secure Application aggregate (spec section
// "Secure Application"): an application identifier, its declared path and
// permission sets, and a sticky error flag that forbids installation once
// any mutation has failed.
//
// The C original (github.com/H-H-bin/sec-lsm-manager's secure_app_t, see
// original_source/src/secure-app.h) is a single struct with a boolean
// error_flag consulted by every mutator. Go has no affine types to consume
// a "Building" value into a "Failed" one at compile time, so the flag is
// kept as a runtime field exactly as the header describes it, and every
// mutator consults it first.
package secapp

import (
	"regexp"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/limits"
	"github.com/redpesk-labs/sec-lsm-manager/pathtype"
)

// identifierRE is the character set that is legal both as an SELinux type
// prefix and as a policy module name: letters, digits, underscore.
var identifierRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// SecureApp is the aggregate identity of an application under confinement.
// The zero value, returned by New, is empty: no id, clear error flag, empty
// sets.
type SecureApp struct {
	id           string
	idUnderscore string
	label        string
	permissions  PermissionSet
	paths        PathSet
	errorFlag    bool
}

// New returns a zeroed SecureApp: error flag clear, id unset, empty sets.
func New() *SecureApp {
	return &SecureApp{}
}

// ID returns the application identifier, or "" if not yet set.
func (a *SecureApp) ID() string { return a.id }

// IDUnderscore returns the underscore-normalised identifier variant.
func (a *SecureApp) IDUnderscore() string { return a.idUnderscore }

// Label returns the top-level SELinux label derived from the identifier,
// of the form "system_u:<id>_t".
func (a *SecureApp) Label() string { return a.label }

// Paths returns the application's declared path set.
func (a *SecureApp) Paths() *PathSet { return &a.paths }

// Permissions returns the application's declared permission set.
func (a *SecureApp) Permissions() *PermissionSet { return &a.permissions }

// ErrorFlag reports whether a prior mutation failed, forbidding further
// mutation and installation until Clear is called.
func (a *SecureApp) ErrorFlag() bool { return a.errorFlag }

// idUnderscoreOf computes the underscore-normalised form of id: every
// character outside the identifier charset becomes '_'. For an id that
// already passed SetID's validation this is a no-op, but the computation
// is kept general so a future relaxation of SetID's charset (e.g. allowing
// '.', '-' in application ids) does not silently break substitution.
func idUnderscoreOf(id string) string {
	out := []byte(id)
	for i, b := range out {
		if !(b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_') {
			out[i] = '_'
		}
	}
	return string(out)
}

// SetID validates and sets the application identifier. It may be called
// exactly once on a given SecureApp.
func (a *SecureApp) SetID(id string) error {
	const op = "secapp.SetID"
	if a.errorFlag {
		return errs.New(errs.Forbidden, op, nil)
	}
	if a.id != "" {
		return errs.New(errs.Conflict, op, nil)
	}
	if id == "" || len(id) > limits.MaxID-1 || !identifierRE.MatchString(id) {
		return errs.New(errs.InvalidArgument, op, nil)
	}

	a.id = id
	a.idUnderscore = idUnderscoreOf(id)
	a.label = "system_u:" + id + pathtype.Suffix(pathtype.ID)
	return nil
}

// AddPath validates and appends (path, pathType) to the path set, rejecting
// duplicates. Any failure — including the error flag already being set —
// leaves the set unchanged.
func (a *SecureApp) AddPath(path string, pt pathtype.PathType) error {
	const op = "secapp.AddPath"
	if a.errorFlag {
		return errs.New(errs.Forbidden, op, nil)
	}
	return a.paths.add(path, pt)
}

// AddPermission validates and appends perm to the permission set, rejecting
// duplicates. Any failure — including the error flag already being set —
// leaves the set unchanged.
func (a *SecureApp) AddPermission(perm string) error {
	const op = "secapp.AddPermission"
	if a.errorFlag {
		return errs.New(errs.Forbidden, op, nil)
	}
	return a.permissions.add(perm)
}

// RaiseError unconditionally sets the error flag. It is called by the
// enclosing request handler (not by the core mutators themselves — see
// package doc) whenever a mutation it requested failed, so that any later
// mutation is rejected with Forbidden until Clear.
func (a *SecureApp) RaiseError() {
	a.errorFlag = true
}

// Clear releases the owned path and permission storage, clears the error
// flag, and clears the identifier — returning the SecureApp to its
// pre-SetID state.
func (a *SecureApp) Clear() {
	a.id = ""
	a.idUnderscore = ""
	a.label = ""
	a.paths.clear()
	a.permissions.clear()
	a.errorFlag = false
}

// Destroy releases the aggregate. Go's garbage collector reclaims the
// backing storage Clear does not already release, so Destroy is Clear plus
// an explicit statement of intent at call sites giving up ownership (e.g.
// the orchestrator, once an Install/Uninstall/Probe call returns).
func (a *SecureApp) Destroy() {
	a.Clear()
}

// Ready reports whether the SecureApp may be used to install policy: an id
// must be set and the error flag must be clear.
func (a *SecureApp) Ready() bool {
	return a.id != "" && !a.errorFlag
}
