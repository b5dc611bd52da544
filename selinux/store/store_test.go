package store_test

import (
	"context"
	"os"
	"testing"

	. "gopkg.in/check.v1"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/internal/cmdtest"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/store"
)

func Test(t *testing.T) { TestingT(t) }

type storeSuite struct {
	oldPath string
}

var _ = Suite(&storeSuite{})

func (s *storeSuite) SetUpTest(c *C) {
	s.oldPath = os.Getenv("PATH")
}

func (s *storeSuite) TearDownTest(c *C) {
	os.Setenv("PATH", s.oldPath)
}

func (s *storeSuite) mockSemodule(c *C, script string) *cmdtest.MockCmd {
	dir := c.MkDir()
	cmd, err := cmdtest.MockCommand(dir, "semodule", script)
	c.Assert(err, IsNil)
	os.Setenv("PATH", cmd.BinDir()+":"+s.oldPath)
	return cmd
}

func (s *storeSuite) TestCreateMissingBinary(c *C) {
	os.Setenv("PATH", c.MkDir())
	_, err := store.Create()
	c.Assert(errs.KindOf(err), Equals, errs.PolicyStoreError)
}

func (s *storeSuite) TestInstallModule(c *C) {
	cmd := s.mockSemodule(c, "exit 0")
	cl, err := store.Create()
	c.Assert(err, IsNil)

	err = cl.InstallModule(context.Background(), "/tmp/demo.pp")
	c.Assert(err, IsNil)

	calls := cmd.Calls()
	c.Assert(calls, HasLen, 1)
	c.Check(calls[0], Matches, ".*-X 400 -i /tmp/demo\\.pp.*")
}

func (s *storeSuite) TestRemoveModule(c *C) {
	cmd := s.mockSemodule(c, "exit 0")
	cl, err := store.Create()
	c.Assert(err, IsNil)

	err = cl.RemoveModule(context.Background(), "demo")
	c.Assert(err, IsNil)

	calls := cmd.Calls()
	c.Assert(calls, HasLen, 1)
	c.Check(calls[0], Matches, ".*-X 400 -r demo.*")
}

func (s *storeSuite) TestModuleIsPresent(c *C) {
	s.mockSemodule(c, "echo 'demo\t1.0'; echo 'other\t2.0'")
	cl, err := store.Create()
	c.Assert(err, IsNil)

	present, err := cl.ModuleIsPresent(context.Background(), "demo")
	c.Assert(err, IsNil)
	c.Check(present, Equals, true)

	present, err = cl.ModuleIsPresent(context.Background(), "absent")
	c.Assert(err, IsNil)
	c.Check(present, Equals, false)
}

func (s *storeSuite) TestRunFailurePropagatesPolicyStoreError(c *C) {
	s.mockSemodule(c, "echo boom 1>&2; exit 1")
	cl, err := store.Create()
	c.Assert(err, IsNil)

	err = cl.InstallModule(context.Background(), "/tmp/demo.pp")
	c.Assert(errs.KindOf(err), Equals, errs.PolicyStoreError)
}

func (s *storeSuite) TestDestroyThenUseIsRejected(c *C) {
	s.mockSemodule(c, "exit 0")
	cl, err := store.Create()
	c.Assert(err, IsNil)

	cl.Destroy()
	cl.Destroy() // idempotent

	err = cl.InstallModule(context.Background(), "/tmp/demo.pp")
	c.Assert(errs.KindOf(err), Equals, errs.PolicyStoreError)
}
