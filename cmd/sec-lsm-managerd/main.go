// Command sec-lsm-managerd is the long-running daemon: it resolves its
// configuration, then serves a small HTTP surface over the lifecycle
// orchestrator (POST /modules to install, DELETE /modules/{id} to
// uninstall, GET /status/{id} to probe). This HTTP surface is a
// convenience transport for this implementation, not the wire protocol
// spec's Non-goals exclude designing — any caller may instead link the
// orchestrator package directly, as sec-lsm-manager-ctl does.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/coreos/go-systemd/daemon"
	"github.com/gorilla/mux"
	flags "github.com/jessevdk/go-flags"

	"github.com/redpesk-labs/sec-lsm-manager/config"
	"github.com/redpesk-labs/sec-lsm-manager/cynagora"
	"github.com/redpesk-labs/sec-lsm-manager/desktopnotify"
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
	Listen     string `long:"listen" description:"address the introspection HTTP endpoint listens on" default:"127.0.0.1:4284"`
	Debug      bool   `long:"debug" description:"enable debug logging"`
}

var opts options

// parser builds the command-line parser; provided as a function (rather
// than a package-level *flags.Parser) the way snap-preseed's Parser()
// helper does, so tests can re-parse without process-global state.
func parser() *flags.Parser {
	return flags.NewParser(&opts, flags.Default)
}

func main() {
	if _, err := parser().Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Debug {
		os.Setenv("SEC_LSM_MANAGER_DEBUG", "1")
		if l, err := logger.New(os.Stderr, logger.DefaultFlags); err == nil {
			logger.SetLogger(l)
		}
	}

	if err := run(); err != nil {
		logger.Errorf(i18n.G("sec-lsm-managerd: %v"), err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Resolve(config.Config{}, opts.ConfigFile)
	if err != nil {
		return err
	}

	drv := compiler.New(50, 5)
	newStore := func() (orchestrator.StoreClient, error) {
		cl, err := store.Create()
		if err != nil {
			return nil, err
		}
		return cl, nil
	}
	dialCyn := func(ctx context.Context) (cynagora.Client, error) {
		return cynagora.Dial(ctx, cfg.CynagoraSocket)
	}

	orch := orchestrator.New(cfg, drv, newStore, dialCyn, 20, 5)

	notifier, err := desktopnotify.Connect()
	if err != nil {
		logger.Debugf("desktop notifications unavailable: %v", err)
		notifier = nil
	} else {
		defer notifier.Close()
	}

	srv := &http.Server{
		Addr:    opts.Listen,
		Handler: buildRouter(orch, notifier),
	}

	notified, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Errorf(i18n.G("sd_notify failed: %v"), err)
	} else if notified {
		logger.Debugf("sd_notify(READY=1) delivered")
	}

	logger.Noticef(i18n.G("sec-lsm-managerd listening on %s"), opts.Listen)
	return srv.ListenAndServe()
}

func buildRouter(orch *orchestrator.Orchestrator, notifier *desktopnotify.Notifier) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status/{id}", statusHandler(orch)).Methods(http.MethodGet)
	r.HandleFunc("/modules", installHandler(orch, notifier)).Methods(http.MethodPost)
	r.HandleFunc("/modules/{id}", uninstallHandler(orch, notifier)).Methods(http.MethodDelete)
	return r
}

func statusHandler(orch *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		status, err := orch.Probe(req.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			logger.Errorf("encode status response: %v", err)
		}
	}
}

type installRequestPath struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

type installRequest struct {
	ID          string               `json:"id"`
	Paths       []installRequestPath `json:"paths"`
	Permissions []string             `json:"permissions"`
}

func notifyModuleChanged(notifier *desktopnotify.Notifier, id string, installed bool) {
	if notifier == nil {
		return
	}
	if err := notifier.ModuleChanged(id, installed); err != nil {
		logger.Errorf("desktop notify %s: %v", id, err)
	}
}

func installHandler(orch *orchestrator.Orchestrator, notifier *desktopnotify.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body installRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		spec := orchestrator.AppSpec{ID: body.ID, Permissions: body.Permissions}
		for _, p := range body.Paths {
			pt, ok := pathtype.Parse(p.Type)
			if !ok {
				http.Error(w, "unknown path type "+p.Type, http.StatusBadRequest)
				return
			}
			spec.Paths = append(spec.Paths, secapp.Path{Path: p.Path, Type: pt})
		}

		if err := orch.Install(req.Context(), spec); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		notifyModuleChanged(notifier, body.ID, true)
		w.WriteHeader(http.StatusCreated)
	}
}

func uninstallHandler(orch *orchestrator.Orchestrator, notifier *desktopnotify.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		if err := orch.Uninstall(req.Context(), id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		notifyModuleChanged(notifier, id, false)
		w.WriteHeader(http.StatusNoContent)
	}
}
