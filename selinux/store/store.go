// Package store implements the Policy Store Client (spec section 4.7): a
// stateful wrapper over the system policy store, exposing
// install/remove/list operations at a fixed module priority.
//
// The C original binds libsemanage directly (semanage_handle_create,
// semanage_connect, semanage_module_install_file, ...). This module has no
// cgo bindings for libsemanage available in the example pack, so the
// wrapper shells out to the semodule(8) CLI the same way snapd's apparmor
// backend shells out to apparmor_parser rather than linking libapparmor:
// each semodule invocation connects, performs one operation, and commits
// atomically, so the C original's separate connect/install/commit steps
// collapse into one call per operation here — the handle still enforces
// the state machine spec's table describes, so a caller cannot use a
// destroyed or never-created Client.
package store

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
)

// Priority is the fixed module priority (spec section "Policy store
// priority") this manager installs at, relative to other system modules.
const Priority = 400

type state int

const (
	stateClosed state = iota
	stateConnected
)

// Client wraps the semodule(8) CLI with the connect/commit lifecycle spec
// describes.
type Client struct {
	semodule string
	state    state
}

// Create instantiates a Client: it resolves the semodule binary (the
// CLI-wrapper equivalent of semanage_handle_create + semanage_connect) and
// fixes the module priority. Any failure collapses the handle cleanly —
// Create never returns a non-nil Client alongside a non-nil error.
func Create() (*Client, error) {
	const op = "store.Create"
	path, err := exec.LookPath("semodule")
	if err != nil {
		return nil, errs.Errorf(errs.PolicyStoreError, op, "semodule not found: %w", err)
	}
	return &Client{semodule: path, state: stateConnected}, nil
}

// Destroy releases the Client. It is safe to call on any non-closed state,
// and safe to call more than once.
func (c *Client) Destroy() {
	c.state = stateClosed
}

func (c *Client) checkConnected(op string) error {
	if c.state != stateConnected {
		return errs.New(errs.PolicyStoreError, op, nil)
	}
	return nil
}

func (c *Client) run(ctx context.Context, op string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.semodule, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errs.Errorf(errs.PolicyStoreError, op, "semodule %s: %w: %s", strings.Join(args, " "), err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// InstallModule installs the compiled module at ppPath, at Priority, and
// commits it into the running policy.
func (c *Client) InstallModule(ctx context.Context, ppPath string) error {
	const op = "store.InstallModule"
	if err := c.checkConnected(op); err != nil {
		return err
	}
	_, err := c.run(ctx, op, "-X", strconv.Itoa(Priority), "-i", ppPath)
	return err
}

// RemoveModule removes the named module from the policy and commits.
func (c *Client) RemoveModule(ctx context.Context, id string) error {
	const op = "store.RemoveModule"
	if err := c.checkConnected(op); err != nil {
		return err
	}
	_, err := c.run(ctx, op, "-X", strconv.Itoa(Priority), "-r", id)
	return err
}

// ModuleIsPresent enumerates loaded modules and reports whether any has
// name id.
func (c *Client) ModuleIsPresent(ctx context.Context, id string) (bool, error) {
	const op = "store.ModuleIsPresent"
	if err := c.checkConnected(op); err != nil {
		return false, err
	}
	out, err := c.run(ctx, op, "-l")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == id {
			return true, nil
		}
	}
	return false, nil
}
