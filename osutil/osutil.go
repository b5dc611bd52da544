// Package osutil collects the trivial file-I/O glue spec section 1 calls
// out as "out of scope... specified only by the contracts the core
// consumes" (original_source/src/utils.h: secure_strncpy, valid_label,
// set_label, get_file_informations, create_file, remove_file, read_file).
// Named after, and shaped like, snapd's own osutil package.
package osutil

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/logger"
)

// FileExists reports whether path names an existing filesystem entry of any
// kind.
func FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// FileInfo reports existence, executability and directory-ness of path in
// one stat call, mirroring get_file_informations's three out-parameters.
func FileInfo(path string) (exists, isExec, isDir bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, false, false
	}
	exists = true
	isDir = fi.IsDir()
	isExec = !isDir && fi.Mode().IsRegular() && fi.Mode()&0111 != 0
	return exists, isExec, isDir
}

// CreateFile creates an empty file at path, truncating it if it already
// exists.
func CreateFile(path string) error {
	const op = "osutil.CreateFile"
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errs.Errorf(errs.IOError, op, "create %s: %w", path, err)
	}
	return f.Close()
}

// RemoveFile removes path. Removing a path that does not exist is reported
// as an IOError rather than silently swallowed; a caller that considers a
// missing file non-fatal has to inspect the error itself (the orchestrator's
// uninstall path does not: it reports it as its first error).
func RemoveFile(path string) error {
	const op = "osutil.RemoveFile"
	if err := os.Remove(path); err != nil {
		return errs.Errorf(errs.IOError, op, "remove %s: %w", path, err)
	}
	return nil
}

// ReadFile reads the full content of path.
func ReadFile(path string) ([]byte, error) {
	const op = "osutil.ReadFile"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Errorf(errs.IOError, op, "read %s: %w", path, err)
	}
	return data, nil
}

// AtomicWriteFile writes data to path such that, with respect to any
// concurrent reader, path either does not exist or exists with the full
// content: it writes to a sibling temp file in the same directory, then
// renames it into place. This is the Template Engine's atomicity contract
// (spec section "Template Engine").
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	const op = "osutil.AtomicWriteFile"
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errs.Errorf(errs.IOError, op, "create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.Errorf(errs.IOError, op, "write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return errs.Errorf(errs.IOError, op, "chmod %s: %w", tmpName, err)
	}
	// A failing Close after a successful write is treated here as a
	// non-fatal secondary diagnostic, per spec's Open Questions: the data
	// is already on the temp file's pages, and the rename below is what
	// actually commits it into visibility.
	if err := tmp.Close(); err != nil {
		logger.Errorf("%s: close %s: %v", op, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errs.Errorf(errs.IOError, op, "rename %s -> %s: %w", tmpName, path, err)
	}
	success = true
	return nil
}

// SetLabel sets extended attribute xattr to value on path. This is the
// xattr-based labelling primitive the Smack backend (out of scope, spec
// section 1) uses in place of SELinux's setfilecon; it is kept here as
// shared glue because utils.h declares it independent of any one backend.
func SetLabel(path, xattr, value string) error {
	const op = "osutil.SetLabel"
	if err := unix.Lsetxattr(path, xattr, []byte(value), 0); err != nil {
		return errs.Errorf(errs.IOError, op, "lsetxattr %s %s: %w", path, xattr, err)
	}
	return nil
}

// GetLabel reads extended attribute xattr from path.
func GetLabel(path, xattr string) (string, error) {
	const op = "osutil.GetLabel"
	buf := make([]byte, 256)
	n, err := unix.Lgetxattr(path, xattr, buf)
	if err != nil {
		return "", errs.Errorf(errs.IOError, op, "lgetxattr %s %s: %w", path, xattr, err)
	}
	return string(buf[:n]), nil
}
