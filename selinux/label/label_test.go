package label_test

import (
	"strings"
	"testing"

	. "gopkg.in/check.v1"

	"github.com/redpesk-labs/sec-lsm-manager/limits"
	"github.com/redpesk-labs/sec-lsm-manager/pathtype"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/label"
)

func Test(t *testing.T) { TestingT(t) }

type labelSuite struct{}

var _ = Suite(&labelSuite{})

func (s *labelSuite) TestDeriveAllSlotsPresent(c *C) {
	t := label.Derive("demo")
	for pt := pathtype.PathType(0); pt < pathtype.NumPathType; pt++ {
		c.Check(t.For(pt), Not(Equals), "")
		c.Check(len(t.For(pt)) <= limits.MaxLabel-1, Equals, true)
	}
}

func (s *labelSuite) TestDeriveSuffixes(c *C) {
	t := label.Derive("demo")
	c.Check(t.For(pathtype.ID), Equals, "system_u:object_r:demo_t")
	c.Check(t.For(pathtype.Lib), Equals, "system_u:object_r:demo_lib_t")
	c.Check(t.For(pathtype.Conf), Equals, "system_u:object_r:demo_conf_t")
	c.Check(t.For(pathtype.Exec), Equals, "system_u:object_r:demo_exec_t")
	c.Check(t.For(pathtype.Icon), Equals, "system_u:object_r:demo_icon_t")
	c.Check(t.For(pathtype.Data), Equals, "system_u:object_r:demo_data_t")
	c.Check(t.For(pathtype.HTTP), Equals, "system_u:object_r:demo_http_t")
}

func (s *labelSuite) TestDerivePublicIsConstant(c *C) {
	t1 := label.Derive("demo")
	t2 := label.Derive("other")
	c.Check(t1.For(pathtype.Public), Equals, "system_u:object_r:redpesk_public_t")
	c.Check(t1.For(pathtype.Public), Equals, t2.For(pathtype.Public))
}

func (s *labelSuite) TestDeriveLongID(c *C) {
	id := strings.Repeat("a", limits.MaxID-1)
	t := label.Derive(id)
	c.Check(strings.HasPrefix(t.For(pathtype.ID), "system_u:object_r:"), Equals, true)
}
