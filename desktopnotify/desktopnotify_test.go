package desktopnotify_test

import (
	"os"
	"testing"

	. "gopkg.in/check.v1"

	"github.com/redpesk-labs/sec-lsm-manager/desktopnotify"
)

func Test(t *testing.T) { TestingT(t) }

type desktopnotifySuite struct{}

var _ = Suite(&desktopnotifySuite{})

// TestConnectFailsGracefullyWithoutABus exercises the one behavior this
// package can be tested for without a real session bus: Connect returns an
// error rather than panicking or blocking when no bus is reachable.
func (s *desktopnotifySuite) TestConnectFailsGracefullyWithoutABus(c *C) {
	old := os.Getenv("DBUS_SESSION_BUS_ADDRESS")
	os.Setenv("DBUS_SESSION_BUS_ADDRESS", "unix:path=/nonexistent/does/not/exist")
	defer os.Setenv("DBUS_SESSION_BUS_ADDRESS", old)

	_, err := desktopnotify.Connect()
	c.Assert(err, NotNil)
}
