// Package pathtype defines the closed classification of filesystem
// resources an application can declare (spec section "Data model",
// PathType), and the per-type SELinux label suffixes used to derive object
// labels from an application identifier (spec section "Label strings").
package pathtype

import "fmt"

// PathType is a closed enumeration; NumPathType is its cardinality and
// governs the size of every parallel array keyed by path type (the label
// table, most prominently).
type PathType int

const (
	Conf PathType = iota
	Data
	Exec
	HTTP
	Icon
	ID
	Lib
	Public

	// NumPathType is spec's number_path_type.
	NumPathType
)

// names mirrors the wire vocabulary clients use to name a path type.
var names = [NumPathType]string{
	Conf:   "conf",
	Data:   "data",
	Exec:   "exec",
	HTTP:   "http",
	Icon:   "icon",
	ID:     "id",
	Lib:    "lib",
	Public: "public",
}

func (t PathType) String() string {
	if t < 0 || int(t) >= len(names) {
		return fmt.Sprintf("pathtype(%d)", int(t))
	}
	return names[t]
}

// Valid reports whether t is one of the NumPathType declared values.
func (t PathType) Valid() bool {
	return t >= 0 && t < NumPathType
}

// Parse maps a wire name back to a PathType.
func Parse(s string) (PathType, bool) {
	for i, n := range names {
		if n == s {
			return PathType(i), true
		}
	}
	return 0, false
}

// suffixes are the exact per-type SELinux type suffixes from spec section
// "Label strings"; Public has no suffix because its label is a fixed
// constant rather than one derived from the application id.
var suffixes = [NumPathType]string{
	ID:   "_t",
	Lib:  "_lib_t",
	Conf: "_conf_t",
	Exec: "_exec_t",
	Icon: "_icon_t",
	Data: "_data_t",
	HTTP: "_http_t",
}

// Suffix returns the SELinux type suffix for t. Public is handled
// specially by the label package since it is a literal constant, not an
// id-derived suffix; Suffix returns "" for it.
func Suffix(t PathType) string {
	if !t.Valid() {
		return ""
	}
	return suffixes[t]
}

// PublicLabel is the fixed object label shared by every application for
// paths of type Public; it does not depend on the application id.
const PublicLabel = "system_u:object_r:redpesk_public_t"
