package secapp

import (
	"strings"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/limits"
)

// permissionChars is the restricted character set a permission string may
// be built from: letters, digits, and the separators commonly seen in
// redpesk/AGL permission URNs such as "urn:AGL:permission:demo:public:p1".
const permissionChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789:_-./"

func validLabel(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(permissionChars, r) {
			return false
		}
	}
	return true
}

// PermissionSet is an ordered, duplicate-free sequence of permission
// strings declared for an application.
type PermissionSet struct {
	permissions []string
}

// Permissions returns the declared permissions in insertion order. The
// returned slice must not be mutated by the caller.
func (s *PermissionSet) Permissions() []string { return s.permissions }

// Len reports the number of declared permissions.
func (s *PermissionSet) Len() int { return len(s.permissions) }

func (s *PermissionSet) add(perm string) error {
	const op = "secapp.PermissionSet.Add"
	if len(perm) > limits.MaxLabel-1 || !validLabel(perm) {
		return errs.New(errs.InvalidArgument, op, nil)
	}
	for _, p := range s.permissions {
		if p == perm {
			return errs.New(errs.AlreadyExists, op, nil)
		}
	}
	s.permissions = append(s.permissions, perm)
	return nil
}

func (s *PermissionSet) clear() { s.permissions = nil }
