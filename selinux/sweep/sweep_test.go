package sweep_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	. "gopkg.in/check.v1"

	"github.com/redpesk-labs/sec-lsm-manager/osutil"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/sweep"
)

func Test(t *testing.T) { TestingT(t) }

type sweepSuite struct{}

var _ = Suite(&sweepSuite{})

func touch(c *C, dir, name string) {
	c.Assert(os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644), IsNil)
}

func (s *sweepSuite) TestFindOrphans(c *C) {
	dir := c.MkDir()
	for _, f := range []string{"kept.te", "kept.if", "kept.fc", "kept.pp", "orphan.te", "orphan.if", "orphan.fc", "orphan.pp", "unrelated.txt"} {
		touch(c, dir, f)
	}

	orphans, err := sweep.FindOrphans(dir, map[string]bool{"kept": true})
	c.Assert(err, IsNil)

	sort.Strings(orphans)
	c.Assert(orphans, HasLen, 4)
	for _, p := range orphans {
		c.Check(filepath.Base(p), Matches, "orphan\\..*")
	}
}

func (s *sweepSuite) TestFindOrphansNoneKnown(c *C) {
	dir := c.MkDir()
	touch(c, dir, "a.te")

	orphans, err := sweep.FindOrphans(dir, map[string]bool{})
	c.Assert(err, IsNil)
	c.Assert(orphans, HasLen, 1)
}

func (s *sweepSuite) TestRemoveOrphans(c *C) {
	dir := c.MkDir()
	touch(c, dir, "orphan.te")
	touch(c, dir, "orphan.if")

	orphans, err := sweep.FindOrphans(dir, map[string]bool{})
	c.Assert(err, IsNil)

	c.Assert(sweep.RemoveOrphans(orphans), IsNil)
	for _, p := range orphans {
		c.Check(osutil.FileExists(p), Equals, false)
	}
}

func (s *sweepSuite) TestRemoveOrphansMissingIsError(c *C) {
	dir := c.MkDir()
	missing := filepath.Join(dir, "gone.te")

	err := sweep.RemoveOrphans([]string{missing})
	c.Assert(err, NotNil)
}
