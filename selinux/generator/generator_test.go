package generator_test

import (
	"os"
	"path/filepath"
	"testing"

	. "gopkg.in/check.v1"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/osutil"
	"github.com/redpesk-labs/sec-lsm-manager/pathtype"
	"github.com/redpesk-labs/sec-lsm-manager/secapp"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/generator"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/label"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/layout"
)

func Test(t *testing.T) { TestingT(t) }

type generatorSuite struct{}

var _ = Suite(&generatorSuite{})

func demoApp(c *C) *secapp.SecureApp {
	app := secapp.New()
	c.Assert(app.SetID("demo"), IsNil)
	c.Assert(app.AddPath("/opt/demo/data", pathtype.Data), IsNil)
	c.Assert(app.AddPermission("urn:demo:perm"), IsNil)
	return app
}

func writeTemplates(c *C, dir string) (tePath, ifPath string) {
	tePath = filepath.Join(dir, "app-template.te")
	ifPath = filepath.Join(dir, "app-template.if")
	c.Assert(os.WriteFile(tePath, []byte("policy_module(@ID@, 1.0)\n"), 0644), IsNil)
	c.Assert(os.WriteFile(ifPath, []byte("interface(@ID@)\n"), 0644), IsNil)
	return tePath, ifPath
}

func demoLayout(c *C) layout.Layout {
	dir := c.MkDir()
	tePath, ifPath := writeTemplates(c, dir)
	return layout.Layout{
		TEFile:         filepath.Join(dir, "demo.te"),
		IFFile:         filepath.Join(dir, "demo.if"),
		FCFile:         filepath.Join(dir, "demo.fc"),
		PPFile:         filepath.Join(dir, "demo.pp"),
		TETemplateFile: tePath,
		IFTemplateFile: ifPath,
	}
}

func (s *generatorSuite) TestGenerateHappyPath(c *C) {
	app := demoApp(c)
	l := demoLayout(c)
	labels := label.Derive(app.ID())

	changed, err := generator.Generate(l, app, labels)
	c.Assert(err, IsNil)
	c.Check(changed, Equals, true)

	c.Check(osutil.FileExists(l.TEFile), Equals, true)
	c.Check(osutil.FileExists(l.IFFile), Equals, true)
	c.Check(osutil.FileExists(l.FCFile), Equals, true)

	fc, err := osutil.ReadFile(l.FCFile)
	c.Assert(err, IsNil)
	c.Check(string(fc), Matches, ".*/opt/demo/data.*gen_context.*\n")
}

func (s *generatorSuite) TestGenerateRollsBackTEOnIFFailure(c *C) {
	app := demoApp(c)
	l := demoLayout(c)
	// Break the if template so its expansion fails: unresolved placeholder.
	c.Assert(os.WriteFile(l.IFTemplateFile, []byte("@NOT_A_PLACEHOLDER@\n"), 0644), IsNil)
	labels := label.Derive(app.ID())

	_, err := generator.Generate(l, app, labels)
	c.Assert(err, NotNil)

	c.Check(osutil.FileExists(l.TEFile), Equals, false)
	c.Check(osutil.FileExists(l.IFFile), Equals, false)
	c.Check(osutil.FileExists(l.FCFile), Equals, false)
}

func (s *generatorSuite) TestGenerateRollsBackIFAndTEOnFCFailure(c *C) {
	app := demoApp(c)
	l := demoLayout(c)
	// Point FCFile at a path whose parent directory does not exist, so the
	// atomic write of the fc body fails.
	l.FCFile = filepath.Join(l.FCFile, "no", "such", "dir", "demo.fc")
	labels := label.Derive(app.ID())

	_, err := generator.Generate(l, app, labels)
	c.Assert(err, NotNil)

	c.Check(osutil.FileExists(l.TEFile), Equals, false)
	c.Check(osutil.FileExists(l.IFFile), Equals, false)
}

func (s *generatorSuite) TestGenerateNoOpOnUnchangedContent(c *C) {
	app := demoApp(c)
	l := demoLayout(c)
	labels := label.Derive(app.ID())

	changed, err := generator.Generate(l, app, labels)
	c.Assert(err, IsNil)
	c.Check(changed, Equals, true)

	changed, err = generator.Generate(l, app, labels)
	c.Assert(err, IsNil)
	c.Check(changed, Equals, false)
}

func (s *generatorSuite) TestFilesExist(c *C) {
	app := demoApp(c)
	l := demoLayout(c)
	c.Check(generator.FilesExist(l), Equals, false)

	labels := label.Derive(app.ID())
	_, err := generator.Generate(l, app, labels)
	c.Assert(err, IsNil)
	c.Check(generator.FilesExist(l), Equals, true)
}

func (s *generatorSuite) TestRemoveSourceArtefacts(c *C) {
	app := demoApp(c)
	l := demoLayout(c)
	labels := label.Derive(app.ID())
	_, err := generator.Generate(l, app, labels)
	c.Assert(err, IsNil)

	c.Assert(generator.RemoveSourceArtefacts(l), IsNil)
	c.Check(osutil.FileExists(l.TEFile), Equals, false)
	c.Check(osutil.FileExists(l.IFFile), Equals, false)
	c.Check(osutil.FileExists(l.FCFile), Equals, false)

	// A second removal has nothing left to remove: it reports the first
	// missing-file error rather than silently succeeding, so a caller
	// that wants idempotent-uninstall semantics can see the difference
	// between "nothing was there" and "all three files were removed".
	c.Assert(errs.KindOf(generator.RemoveSourceArtefacts(l)), Equals, errs.IOError)
}
