package template_test

import (
	"os"
	"path/filepath"
	"testing"

	. "gopkg.in/check.v1"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/pathtype"
	"github.com/redpesk-labs/sec-lsm-manager/secapp"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/template"
)

func Test(t *testing.T) { TestingT(t) }

type templateSuite struct{}

var _ = Suite(&templateSuite{})

func demoApp(c *C) *secapp.SecureApp {
	a := secapp.New()
	c.Assert(a.SetID("demo"), IsNil)
	c.Assert(a.AddPath("/usr/bin/demo", pathtype.Exec), IsNil)
	c.Assert(a.AddPath("/etc/demo", pathtype.Conf), IsNil)
	c.Assert(a.AddPermission("urn:AGL:permission:demo:public:p1"), IsNil)
	return a
}

func (s *templateSuite) TestExpandScalarAndBlocks(c *C) {
	src := `policy_module(@ID@, 1.0.0)
type @ID@_t;
@PATHS_BEGIN@
allow @ID_UNDERSCORE@_t self:file { @PATH_TYPE@ };
@PATHS_END@
@PERMISSIONS_BEGIN@
# @PERMISSION@
@PERMISSIONS_END@
`
	out, err := template.Expand(src, demoApp(c))
	c.Assert(err, IsNil)
	c.Check(out, Matches, `(?s).*type demo_t;.*`)
	c.Check(out, Matches, `(?s).*exec.*conf.*`)
	c.Check(out, Matches, `(?s).*# urn:AGL:permission:demo:public:p1.*`)
}

func (s *templateSuite) TestExpandUnresolvedPlaceholderIsTemplateError(c *C) {
	_, err := template.Expand("@NOT_A_PLACEHOLDER@", demoApp(c))
	c.Assert(errs.KindOf(err), Equals, errs.TemplateError)
}

func (s *templateSuite) TestProcessAtomicity(c *C) {
	dir := c.MkDir()
	src := filepath.Join(dir, "app-template.te")
	dst := filepath.Join(dir, "demo.te")
	c.Assert(os.WriteFile(src, []byte("policy_module(@ID@, 1.0.0)\n"), 0644), IsNil)

	c.Assert(template.Process(src, dst, demoApp(c)), IsNil)
	data, err := os.ReadFile(dst)
	c.Assert(err, IsNil)
	c.Check(string(data), Equals, "policy_module(demo, 1.0.0)\n")
}

func (s *templateSuite) TestProcessMissingSourceIsIOError(c *C) {
	dir := c.MkDir()
	err := template.Process(filepath.Join(dir, "missing.te"), filepath.Join(dir, "demo.te"), demoApp(c))
	c.Assert(errs.KindOf(err), Equals, errs.IOError)
}
