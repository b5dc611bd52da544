// Package config resolves the daemon's configuration record (spec section
// "Configuration") from, in order of precedence: an explicit value passed
// by the caller, an environment variable read through a privilege-safe
// accessor, an optional INI-style daemon config file, then a compiled-in
// default. This generalises spec's three-tier (explicit/env/default)
// resolution with a config-file tier — see DESIGN.md's Open Questions
// section for the rationale.
package config

import (
	"os"

	"github.com/mvo5/goconfigparser"

	"github.com/redpesk-labs/sec-lsm-manager/errs"
	"github.com/redpesk-labs/sec-lsm-manager/limits"
)

const defaultDataDir = "/usr/share/sec-lsm-manager"

// Config is the fully resolved set of paths the SELinux backend needs.
type Config struct {
	RulesDir       string
	TETemplateFile string
	IFTemplateFile string

	// CynagoraSocket is the Unix socket path of the Cynagora admin
	// interface; it is not named in spec's configuration table but is
	// needed to wire the supplemented Cynagora Permission Sync component
	// (SPEC_FULL.md section 3.1).
	CynagoraSocket string
}

// Default returns the compiled-in defaults, rooted at the standard data
// directory.
func Default() Config {
	return Config{
		RulesDir:       defaultDataDir + "/selinux-rules",
		TETemplateFile: defaultDataDir + "/app-template.te",
		IFTemplateFile: defaultDataDir + "/app-template.if",
		CynagoraSocket: "/var/run/cynagora.admin",
	}
}

// privilegeSafeGetenv reads an environment variable, but returns "" when
// the process is running set-uid or set-gid ambient: an attacker who
// controls the environment of a privileged binary must not be able to
// redirect it to attacker-controlled templates or rules directories.
// Mirrors glibc's secure_getenv, which the C original calls directly.
func privilegeSafeGetenv(key string) string {
	if os.Getuid() != os.Geteuid() || os.Getgid() != os.Getegid() {
		return ""
	}
	return os.Getenv(key)
}

// fileConfig is the optional INI daemon config file tier, parsed with
// goconfigparser the way snapd parses GRUB's environment block
// (bootloader/grub_test.go in the retrieved pack) — a flat key=value file
// with no mandatory section header.
type fileConfig struct {
	rulesDir, teTemplateFile, ifTemplateFile, cynagoraSocket string
}

func readConfigFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fc, nil
	}

	cfg := goconfigparser.New()
	cfg.AllowNoSectionHeader = true
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, errs.Errorf(errs.IOError, "config.readConfigFile", "read %s: %w", path, err)
	}
	if err := cfg.ReadString(string(data)); err != nil {
		return fc, errs.Errorf(errs.IOError, "config.readConfigFile", "parse %s: %w", path, err)
	}

	fc.rulesDir, _ = cfg.Get("", "rules-dir")
	fc.teTemplateFile, _ = cfg.Get("", "te-template-file")
	fc.ifTemplateFile, _ = cfg.Get("", "if-template-file")
	fc.cynagoraSocket, _ = cfg.Get("", "cynagora-socket")
	return fc, nil
}

func pick(explicit, env, file, def string) string {
	if explicit != "" {
		return explicit
	}
	if env != "" {
		return env
	}
	if file != "" {
		return file
	}
	return def
}

// Resolve builds the effective Config. explicit carries any fields the
// caller wants to force (e.g. CLI flags); its zero fields fall through to
// the environment, then configFile (may be ""), then the compiled-in
// default.
func Resolve(explicit Config, configFile string) (Config, error) {
	const op = "config.Resolve"
	def := Default()
	fc, err := readConfigFile(configFile)
	if err != nil {
		return Config{}, err
	}

	resolved := Config{
		RulesDir: pick(explicit.RulesDir, privilegeSafeGetenv("SELINUX_RULES_DIR"),
			fc.rulesDir, def.RulesDir),
		TETemplateFile: pick(explicit.TETemplateFile, privilegeSafeGetenv("SELINUX_TE_TEMPLATE_FILE"),
			fc.teTemplateFile, def.TETemplateFile),
		IFTemplateFile: pick(explicit.IFTemplateFile, privilegeSafeGetenv("SELINUX_IF_TEMPLATE_FILE"),
			fc.ifTemplateFile, def.IFTemplateFile),
		CynagoraSocket: pick(explicit.CynagoraSocket, privilegeSafeGetenv("CYNAGORA_SOCKET"),
			fc.cynagoraSocket, def.CynagoraSocket),
	}

	if len(resolved.RulesDir) > limits.MaxDir-1 {
		return Config{}, errs.New(errs.NameTooLong, op, nil)
	}
	if len(resolved.TETemplateFile) > limits.MaxPath-1 || len(resolved.IFTemplateFile) > limits.MaxPath-1 {
		return Config{}, errs.New(errs.NameTooLong, op, nil)
	}
	return resolved, nil
}
