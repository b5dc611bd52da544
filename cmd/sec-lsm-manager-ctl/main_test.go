package main

import (
	"testing"

	. "gopkg.in/check.v1"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/pathtype"
)

func Test(t *testing.T) { TestingT(t) }

type mainSuite struct{}

var _ = Suite(&mainSuite{})

func (s *mainSuite) TestParsePathValid(c *C) {
	p, err := parsePath("/opt/demo/data:data")
	c.Assert(err, IsNil)
	c.Check(p.Path, Equals, "/opt/demo/data")
	c.Check(p.Type, Equals, pathtype.Data)
}

func (s *mainSuite) TestParsePathMissingType(c *C) {
	_, err := parsePath("/opt/demo/data")
	c.Assert(errs.KindOf(err), Equals, errs.InvalidArgument)
}

func (s *mainSuite) TestParsePathUnknownType(c *C) {
	_, err := parsePath("/opt/demo/data:bogus")
	c.Assert(errs.KindOf(err), Equals, errs.InvalidArgument)
}

func (s *mainSuite) TestParserSubcommandsRegistered(c *C) {
	p := parser()
	names := map[string]bool{}
	for _, cmd := range p.Commands() {
		names[cmd.Name] = true
	}
	c.Check(names["install"], Equals, true)
	c.Check(names["uninstall"], Equals, true)
	c.Check(names["probe"], Equals, true)
}

func (s *mainSuite) TestBoolWord(c *C) {
	c.Check(boolWord(true), Equals, "yes")
	c.Check(boolWord(false), Equals, "no")
}
