package osutil_test

import (
	"os"
	"path/filepath"
	"testing"

	. "gopkg.in/check.v1"

	"github.com/redpesk-labs/sec-lsm-manager/osutil"
)

func Test(t *testing.T) { TestingT(t) }

type osutilSuite struct{}

var _ = Suite(&osutilSuite{})

func (s *osutilSuite) TestFileExists(c *C) {
	dir := c.MkDir()
	f := filepath.Join(dir, "f")
	c.Check(osutil.FileExists(f), Equals, false)
	c.Assert(os.WriteFile(f, []byte("x"), 0644), IsNil)
	c.Check(osutil.FileExists(f), Equals, true)
}

func (s *osutilSuite) TestFileInfo(c *C) {
	dir := c.MkDir()
	exists, isExec, isDir := osutil.FileInfo(dir)
	c.Check(exists, Equals, true)
	c.Check(isDir, Equals, true)
	c.Check(isExec, Equals, false)

	f := filepath.Join(dir, "f")
	c.Assert(os.WriteFile(f, []byte("x"), 0755), IsNil)
	exists, isExec, isDir = osutil.FileInfo(f)
	c.Check(exists, Equals, true)
	c.Check(isDir, Equals, false)
	c.Check(isExec, Equals, true)

	missing, _, _ := osutil.FileInfo(filepath.Join(dir, "missing"))
	c.Check(missing, Equals, false)
}

func (s *osutilSuite) TestAtomicWriteFileEitherFullOrAbsent(c *C) {
	dir := c.MkDir()
	f := filepath.Join(dir, "f")
	c.Assert(osutil.AtomicWriteFile(f, []byte("hello"), 0644), IsNil)

	data, err := osutil.ReadFile(f)
	c.Assert(err, IsNil)
	c.Check(string(data), Equals, "hello")

	// no leftover temp files
	entries, err := os.ReadDir(dir)
	c.Assert(err, IsNil)
	c.Check(len(entries), Equals, 1)
}

func (s *osutilSuite) TestRemoveFileMissingIsError(c *C) {
	dir := c.MkDir()
	err := osutil.RemoveFile(filepath.Join(dir, "missing"))
	c.Assert(err, NotNil)
}

func (s *osutilSuite) TestCreateAndRemoveFile(c *C) {
	dir := c.MkDir()
	f := filepath.Join(dir, "f")
	c.Assert(osutil.CreateFile(f), IsNil)
	c.Check(osutil.FileExists(f), Equals, true)
	c.Assert(osutil.RemoveFile(f), IsNil)
	c.Check(osutil.FileExists(f), Equals, false)
}
