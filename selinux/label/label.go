// Package label implements Label Derivation (spec section 4.2): the pure
// function from an application identifier to its table of SELinux object
// labels, one per pathtype.PathType.
//
// Grounded on init_path_type_definitions in
// original_source/src/selinux-template.c, which snprintf's each slot as
// "system_u:object_r:<id><suffix>" except for the public slot, a literal
// constant independent of id.
package label

import "github.com/redpesk-labs/sec-lsm-manager/pathtype"

// Table is an array of SELinux object labels indexed by PathType.
type Table [pathtype.NumPathType]string

// Derive computes the label table for id. It is pure: the same id always
// yields the same table, and Derive never mutates or retains id.
func Derive(id string) Table {
	var t Table
	for pt := pathtype.PathType(0); pt < pathtype.NumPathType; pt++ {
		if pt == pathtype.Public {
			t[pt] = pathtype.PublicLabel
			continue
		}
		t[pt] = "system_u:object_r:" + id + pathtype.Suffix(pt)
	}
	return t
}

// For returns the label for p's type.
func (t Table) For(p pathtype.PathType) string {
	return t[p]
}
