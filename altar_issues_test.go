package altar

import (
	"testing"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func TestGocheckSuite(t *testing.T) { TestingT(t) }

type IssueTestSuite struct{}

var _ = Suite(&IssueTestSuite{})

func (s *IssueTestSuite) TestArrayIncludeFallback(c *C) {
	eng := NewEngine("issues", MapLoader{"present.alt": "found"})

	tpl, err := eng.FromString(`{% include ['missing.alt', 'present.alt'] %}`)
	c.Assert(err, IsNil)

	out, err := tpl.Execute(Context{})
	c.Assert(err, IsNil)
	c.Check(out, Equals, "found")
}

func (s *IssueTestSuite) TestUndefinedRendersEmpty(c *C) {
	tpl, err := FromString("[{{ missing_name }}]")
	c.Assert(err, IsNil)

	out, err := tpl.Execute(Context{})
	c.Assert(err, IsNil)
	c.Check(out, Equals, "[]")
}
