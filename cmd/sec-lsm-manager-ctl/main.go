// Command sec-lsm-manager-ctl is a thin operator convenience wrapper over
// the lifecycle orchestrator: install, uninstall and probe, by
// invoking the same package a long-running daemon would. It is not the
// wire protocol front-end (out of scope per spec's Non-goals) — it links
// the orchestrator directly, a standalone tool an administrator runs by
// hand.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/redpesk-labs/sec-lsm-manager/config"
	"github.com/redpesk-labs/sec-lsm-manager/cynagora"
	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/i18n"
	"github.com/redpesk-labs/sec-lsm-manager/logger"
	"github.com/redpesk-labs/sec-lsm-manager/orchestrator"
	"github.com/redpesk-labs/sec-lsm-manager/pathtype"
	"github.com/redpesk-labs/sec-lsm-manager/secapp"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/compiler"
	"github.com/redpesk-labs/sec-lsm-manager/selinux/store"
)

type options struct {
	ConfigFile string `long:"config-file" description:"path to the daemon's INI configuration file"`
	Yaml       bool   `long:"yaml" description:"emit machine-readable YAML instead of a table"`
}

var opts options

type installCommand struct {
	ID         string   `long:"id" required:"true" description:"application identifier"`
	Path       []string `long:"path" description:"declared path, as path:type (type one of conf,data,exec,http,icon,id,lib,public)"`
	Permission []string `long:"permission" description:"declared permission, repeatable"`
}

type uninstallCommand struct {
	ID string `long:"id" required:"true" description:"application identifier"`
}

type probeCommand struct {
	ID string `long:"id" required:"true" description:"application identifier"`
}

func parser() *flags.Parser {
	p := flags.NewParser(&opts, flags.Default)
	p.AddCommand("install", i18n.G("install an application's policy"), "", &installCommand{})
	p.AddCommand("uninstall", i18n.G("remove an application's policy"), "", &uninstallCommand{})
	p.AddCommand("probe", i18n.G("report an application's installed status"), "", &probeCommand{})
	return p
}

func main() {
	if _, err := parser().Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newOrchestrator() (*orchestrator.Orchestrator, error) {
	cfg, err := config.Resolve(config.Config{}, opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	drv := compiler.New(50, 5)
	newStore := func() (orchestrator.StoreClient, error) {
		return store.Create()
	}
	dialCyn := func(ctx context.Context) (cynagora.Client, error) {
		return cynagora.Dial(ctx, cfg.CynagoraSocket)
	}

	return orchestrator.New(cfg, drv, newStore, dialCyn, 20, 5), nil
}

func parsePath(spec string) (secapp.Path, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return secapp.Path{}, errs.Errorf(errs.InvalidArgument, "parsePath", "%q: want path:type", spec)
	}
	pt, ok := pathtype.Parse(parts[1])
	if !ok {
		return secapp.Path{}, errs.Errorf(errs.InvalidArgument, "parsePath", "%q: unknown path type %q", spec, parts[1])
	}
	return secapp.Path{Path: parts[0], Type: pt}, nil
}

func (cmd *installCommand) Execute(args []string) error {
	orch, err := newOrchestrator()
	if err != nil {
		return err
	}

	spec := orchestrator.AppSpec{ID: cmd.ID, Permissions: cmd.Permission}
	for _, raw := range cmd.Path {
		p, err := parsePath(raw)
		if err != nil {
			return err
		}
		spec.Paths = append(spec.Paths, p)
	}

	if err := orch.Install(context.Background(), spec); err != nil {
		return err
	}
	logger.Noticef(i18n.G("installed %s"), cmd.ID)
	return nil
}

func (cmd *uninstallCommand) Execute(args []string) error {
	orch, err := newOrchestrator()
	if err != nil {
		return err
	}
	if err := orch.Uninstall(context.Background(), cmd.ID); err != nil {
		return err
	}
	logger.Noticef(i18n.G("uninstalled %s"), cmd.ID)
	return nil
}

func (cmd *probeCommand) Execute(args []string) error {
	orch, err := newOrchestrator()
	if err != nil {
		return err
	}
	status, err := orch.Probe(context.Background(), cmd.ID)
	if err != nil {
		return err
	}
	return printStatus(cmd.ID, status)
}

func printStatus(id string, status orchestrator.Status) error {
	if opts.Yaml {
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(map[string]interface{}{
			"id":              id,
			"sources_present": status.SourcesPresent,
			"module_loaded":   status.ModuleLoaded,
			"installed":       status.Installed(),
		})
	}

	headers := []string{"ID", "SOURCES", "MODULE", "INSTALLED"}
	row := []string{id, boolWord(status.SourcesPresent), boolWord(status.ModuleLoaded), boolWord(status.Installed())}
	printTable(headers, [][]string{row})
	return nil
}

func boolWord(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// printTable prints a column-aligned table, padding by display width
// (runewidth.StringWidth) rather than byte length so multi-byte
// identifiers still line up.
func printTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	printRow(headers, widths)
	for _, row := range rows {
		printRow(row, widths)
	}
}

func printRow(cells []string, widths []int) {
	var b strings.Builder
	for i, cell := range cells {
		b.WriteString(cell)
		if pad := widths[i] - runewidth.StringWidth(cell); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		if i < len(cells)-1 {
			b.WriteString("  ")
		}
	}
	fmt.Println(b.String())
}
