// Package template implements the Template Engine (spec section 4.4):
// process_template(src, dst, SecureApp) reads a template file, expands a
// fixed placeholder grammar against a secapp.SecureApp, and writes the
// expansion atomically.
//
// Grounded on original_source/src/selinux-template.c's process_template
// call sites (it treats the engine as opaque, calling it once for the .te
// template and once for the .if template) — the grammar itself is not
// specified there either; it is defined here as the smallest grammar that
// satisfies spec's "at minimum ID, ID_UNDERSCORE, and per-permission /
// per-path iteration" requirement.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/osutil"
	"github.com/redpesk-labs/sec-lsm-manager/secapp"
)

// maxExpansion bounds the size of one expanded artefact: each block body is
// repeated once per declared path or permission, so a large block over many
// entries is what this caps.
const maxExpansion = 16 << 20 // 16 MiB

var (
	pathsBlockRE      = regexp.MustCompile(`(?s)@PATHS_BEGIN@(.*?)@PATHS_END@`)
	permissionsBlockRE = regexp.MustCompile(`(?s)@PERMISSIONS_BEGIN@(.*?)@PERMISSIONS_END@`)
	leftoverRE        = regexp.MustCompile(`@[A-Z_]+@`)
)

func scalarReplacer(app *secapp.SecureApp) *strings.Replacer {
	return strings.NewReplacer(
		"@ID@", app.ID(),
		"@ID_UNDERSCORE@", app.IDUnderscore(),
	)
}

func expandPathsBlock(content string, app *secapp.SecureApp) string {
	return pathsBlockRE.ReplaceAllStringFunc(content, func(block string) string {
		m := pathsBlockRE.FindStringSubmatch(block)
		body := m[1]
		var out strings.Builder
		for _, p := range app.Paths().Paths() {
			r := strings.NewReplacer(
				"@PATH@", p.Path,
				"@PATH_TYPE@", p.Type.String(),
			)
			out.WriteString(r.Replace(body))
		}
		return out.String()
	})
}

func expandPermissionsBlock(content string, app *secapp.SecureApp) string {
	return permissionsBlockRE.ReplaceAllStringFunc(content, func(block string) string {
		m := permissionsBlockRE.FindStringSubmatch(block)
		body := m[1]
		var out strings.Builder
		for _, perm := range app.Permissions().Permissions() {
			r := strings.NewReplacer("@PERMISSION@", perm)
			out.WriteString(r.Replace(body))
		}
		return out.String()
	})
}

// Expand renders content against app: each @PATHS_BEGIN@...@PATHS_END@
// block is repeated once per declared path with @PATH@ and @PATH_TYPE@
// substituted, each @PERMISSIONS_BEGIN@...@PERMISSIONS_END@ block once per
// permission with @PERMISSION@ substituted, then @ID@ and @ID_UNDERSCORE@
// are replaced everywhere. Any other @NAME@ token left over is a
// TemplateError.
func Expand(content string, app *secapp.SecureApp) (string, error) {
	const op = "template.Expand"

	out := expandPathsBlock(content, app)
	out = expandPermissionsBlock(out, app)
	out = scalarReplacer(app).Replace(out)

	if len(out) > maxExpansion {
		return "", errs.New(errs.TemplateError, op, fmt.Errorf("expansion exceeds %d bytes", maxExpansion))
	}
	if m := leftoverRE.FindString(out); m != "" {
		return "", errs.Errorf(errs.TemplateError, op, "unresolved placeholder %s", m)
	}
	return out, nil
}

// Process reads srcPath, expands it against app, and writes the result to
// dstPath atomically: either dstPath ends up containing the full
// expansion, or it is left untouched.
func Process(srcPath, dstPath string, app *secapp.SecureApp) error {
	const op = "template.Process"

	raw, err := osutil.ReadFile(srcPath)
	if err != nil {
		return err
	}

	expanded, err := Expand(string(raw), app)
	if err != nil {
		return err
	}

	if err := osutil.AtomicWriteFile(dstPath, []byte(expanded), 0644); err != nil {
		return errs.Errorf(errs.IOError, op, "write %s: %w", dstPath, err)
	}
	return nil
}
