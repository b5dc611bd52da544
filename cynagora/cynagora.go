// Package cynagora implements the Permission Sync component (supplemented
// from the daemon's stated purpose of keeping Cynagora, the companion
// runtime permission database, in sync with installed applications).
//
// Cynagora's admin protocol is a newline-delimited text protocol over a
// Unix socket. No client library for it exists in the example pack, so
// SocketClient implements just enough of it directly, dialed the way
// godbus/dbus dials a bus connection (a small Dial helper wrapping
// net.Dialer, rather than a long-lived connection pool).
package cynagora

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
)

// DefaultSocketPath is the well-known Cynagora administration socket.
const DefaultSocketPath = "/var/run/cynagora.admin"

// Client is the Permission Sync contract the orchestrator drives: stage
// permission changes inside an Enter/Commit (or Enter/Cancel) bracket.
type Client interface {
	EnterPermissions(ctx context.Context) error
	SetPermission(ctx context.Context, client, session, user, permission string) error
	DropPermissions(ctx context.Context, client, session, user string) error
	CommitPermissions(ctx context.Context) error
	CancelPermissions(ctx context.Context) error
	Close() error
}

// SocketClient is the minimal line-protocol implementation of Client.
type SocketClient struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to socketPath and returns a ready SocketClient.
func Dial(ctx context.Context, socketPath string) (*SocketClient, error) {
	const op = "cynagora.Dial"
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, errs.Errorf(errs.PolicyStoreError, op, "dial %s: %w", socketPath, err)
	}
	return &SocketClient{conn: conn, r: bufio.NewReader(conn)}, nil
}

func deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(5 * time.Second)
}

func (c *SocketClient) request(ctx context.Context, line string) error {
	const op = "cynagora.request"
	if err := c.conn.SetDeadline(deadline(ctx)); err != nil {
		return errs.Errorf(errs.PolicyStoreError, op, "set deadline: %w", err)
	}
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		return errs.Errorf(errs.PolicyStoreError, op, "write %q: %w", line, err)
	}
	reply, err := c.r.ReadString('\n')
	if err != nil {
		return errs.Errorf(errs.PolicyStoreError, op, "read reply to %q: %w", line, err)
	}
	reply = strings.TrimSpace(reply)
	if reply != "done" {
		return errs.Errorf(errs.PolicyStoreError, op, "%q: %s", line, reply)
	}
	return nil
}

// EnterPermissions opens a staging transaction; permission changes made
// with SetPermission are invisible to runtime checks until
// CommitPermissions.
func (c *SocketClient) EnterPermissions(ctx context.Context) error {
	return c.request(ctx, "enter")
}

// SetPermission stages a grant of permission to the (client, session,
// user) tuple.
func (c *SocketClient) SetPermission(ctx context.Context, client, session, user, permission string) error {
	return c.request(ctx, strings.Join([]string{"set", client, session, user, permission, "yes"}, " "))
}

// DropPermissions stages removal of every permission held by the (client,
// session, user) subject, regardless of which permissions the current
// process declared them with; this is the "clear-all-for-subject"
// operation uninstall uses, since the daemon does not keep its own record
// of what it previously granted.
func (c *SocketClient) DropPermissions(ctx context.Context, client, session, user string) error {
	return c.request(ctx, strings.Join([]string{"drop", client, session, user}, " "))
}

// CommitPermissions atomically publishes every change staged since
// EnterPermissions.
func (c *SocketClient) CommitPermissions(ctx context.Context) error {
	return c.request(ctx, "commit")
}

// CancelPermissions discards every change staged since EnterPermissions.
func (c *SocketClient) CancelPermissions(ctx context.Context) error {
	return c.request(ctx, "cancel")
}

// Close releases the underlying socket.
func (c *SocketClient) Close() error {
	return c.conn.Close()
}
