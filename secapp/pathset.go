package secapp

import (
	"path/filepath"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/limits"
	"github.com/redpesk-labs/sec-lsm-manager/pathtype"
)

// Path is a declared filesystem path tagged with its PathType.
type Path struct {
	Path string
	Type pathtype.PathType
}

// PathSet is an ordered, duplicate-free sequence of Path; order is
// preserved because the .fc file generated from it must be stable and
// readable across installs for the same application.
type PathSet struct {
	paths []Path
}

// Paths returns the declared paths in insertion order. The returned slice
// must not be mutated by the caller.
func (s *PathSet) Paths() []Path { return s.paths }

// Len reports the number of declared paths.
func (s *PathSet) Len() int { return len(s.paths) }

func validatePath(path string) error {
	const op = "secapp.PathSet.Add"
	if path == "" {
		return errs.New(errs.InvalidArgument, op, nil)
	}
	if len(path) > limits.MaxPath-1 {
		return errs.New(errs.InvalidArgument, op, nil)
	}
	if !filepath.IsAbs(path) {
		return errs.New(errs.InvalidArgument, op, nil)
	}
	return nil
}

// add validates and appends path, rejecting duplicate (path, type) pairs.
// It never mutates s on any error path, matching the aggregate invariant
// that a failed mutation leaves previously accepted data intact.
func (s *PathSet) add(path string, pt pathtype.PathType) error {
	const op = "secapp.PathSet.Add"
	if !pt.Valid() {
		return errs.New(errs.InvalidArgument, op, nil)
	}
	if err := validatePath(path); err != nil {
		return err
	}
	for _, p := range s.paths {
		if p.Path == path && p.Type == pt {
			return errs.New(errs.AlreadyExists, op, nil)
		}
	}
	s.paths = append(s.paths, Path{Path: path, Type: pt})
	return nil
}

func (s *PathSet) clear() { s.paths = nil }
