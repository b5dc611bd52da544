// Package layout computes the Module Artefact Layout (spec section 4.3): the
// canonical on-disk paths of an application's four policy artefacts, plus
// the two template source paths, derived from a config.Config and an
// application identifier.
package layout

import (
	"path/filepath"

	"github.com/redpesk-labs/sec-lsm-manager/config"
	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/limits"
)

const (
	teExt = "te"
	ifExt = "if"
	fcExt = "fc"
	ppExt = "pp"
)

// Layout is the derived, immutable set of paths for one application. It
// has no storage of its own beyond these strings; it is recomputed on
// demand from a config.Config and an id.
type Layout struct {
	TEFile string
	IFFile string
	FCFile string
	PPFile string

	TETemplateFile string
	IFTemplateFile string
}

func compose(dir, id, ext string) (string, error) {
	const op = "layout.New"
	p := filepath.Join(dir, id+"."+ext)
	if len(p) > limits.MaxPath-1 {
		return "", errs.New(errs.NameTooLong, op, nil)
	}
	return p, nil
}

// New computes the Layout for id under cfg's rules directory and template
// files.
func New(cfg config.Config, id string) (Layout, error) {
	const op = "layout.New"
	if len(cfg.RulesDir) > limits.MaxDir-1 {
		return Layout{}, errs.New(errs.NameTooLong, op, nil)
	}

	te, err := compose(cfg.RulesDir, id, teExt)
	if err != nil {
		return Layout{}, err
	}
	ifFile, err := compose(cfg.RulesDir, id, ifExt)
	if err != nil {
		return Layout{}, err
	}
	fc, err := compose(cfg.RulesDir, id, fcExt)
	if err != nil {
		return Layout{}, err
	}
	pp, err := compose(cfg.RulesDir, id, ppExt)
	if err != nil {
		return Layout{}, err
	}

	return Layout{
		TEFile:         te,
		IFFile:         ifFile,
		FCFile:         fc,
		PPFile:         pp,
		TETemplateFile: cfg.TETemplateFile,
		IFTemplateFile: cfg.IFTemplateFile,
	}, nil
}
