package sshconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"

	"github.com/xabinapal/gitflip/internal/profile"
)

// DefaultHostName is written as HostName in generated blocks.
const DefaultHostName = "github.com"

// Host is a host alias declared in the config file.
type Host struct {
	Alias        string `json:"alias"`
	IdentityFile string `json:"identity_file,omitempty"`
	Owned        bool   `json:"owned"`
}

// Entry is a block owned by gitflip.
type Entry struct {
	// Profile is the profile name recorded in the marker.
	Profile      string `json:"profile"`
	Host         string `json:"host"`
	HostName     string `json:"hostname,omitempty"`
	User         string `json:"user,omitempty"`
	IdentityFile string `json:"identity_file"`
}

// Editor reads and rewrites the config file inside an ssh directory.
type Editor struct {
	dir      string
	hostName string
	log      pslog.Logger
}

// NewEditor creates an Editor for the ssh directory dir. hostName is written
// as HostName in new blocks; empty means DefaultHostName.
func NewEditor(dir, hostName string, logger pslog.Logger) *Editor {
	if hostName == "" {
		hostName = DefaultHostName
	}
	return &Editor{dir: dir, hostName: hostName, log: logger}
}

// Dir returns the ssh directory.
func (e *Editor) Dir() string {
	return e.dir
}

// ConfigPath returns the path of the config file.
func (e *Editor) ConfigPath() string {
	return filepath.Join(e.dir, "config")
}

// load reads and parses the config file. A missing file parses as empty
// and reports exists=false.
func (e *Editor) load() (*Document, bool, error) {
	// #nosec G304 - path is the user's ssh config
	data, err := os.ReadFile(e.ConfigPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Parse(""), false, nil
		}
		return nil, false, fmt.Errorf("failed to read ssh config: %w", err)
	}
	return Parse(string(data)), true, nil
}

func (e *Editor) write(content string) error {
	if err := os.WriteFile(e.ConfigPath(), []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write ssh config: %w", err)
	}
	return nil
}

// ListAllHosts returns every non-wildcard alias declared in the file, each
// once, with the last IdentityFile of its first declaring block.
func (e *Editor) ListAllHosts() ([]Host, error) {
	doc, _, err := e.load()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var hosts []Host
	for _, b := range doc.Blocks {
		identity := ""
		for _, line := range doc.Directives(b) {
			if kw, v, ok := directive(line); ok && strings.EqualFold(kw, "IdentityFile") {
				identity = v
			}
		}
		for _, alias := range b.Aliases() {
			if strings.ContainsAny(alias, "*?") || strings.HasPrefix(alias, "!") || seen[alias] {
				continue
			}
			seen[alias] = true
			hosts = append(hosts, Host{Alias: alias, IdentityFile: identity, Owned: b.Owned})
		}
	}
	return hosts, nil
}

// ListOwnedEntries returns the blocks carrying a gitflip marker. Directive
// scanning stops at the first blank or comment line. Blocks without both an
// alias and an IdentityFile are skipped.
func (e *Editor) ListOwnedEntries() ([]Entry, error) {
	doc, _, err := e.load()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, b := range doc.Blocks {
		if !b.Owned {
			continue
		}
		entry := Entry{Profile: b.Marker, Host: b.Patterns}
		for _, line := range doc.Directives(b) {
			kw, v, ok := directive(line)
			if !ok {
				break
			}
			switch strings.ToLower(kw) {
			case "hostname":
				entry.HostName = v
			case "user":
				entry.User = v
			case "identityfile":
				entry.IdentityFile = v
			}
		}
		if entry.Host == "" || entry.IdentityFile == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// AddHostEntry appends an owned block for p. It does nothing when p lacks a
// key path or host alias, or when the alias is already declared anywhere in
// the file. It reports whether a block was written.
func (e *Editor) AddHostEntry(p profile.Profile) (bool, error) {
	if !p.HasSSHBlock() {
		return false, nil
	}

	doc, exists, err := e.load()
	if err != nil {
		return false, err
	}
	if doc.HasAlias(p.SSHHost) {
		if e.log != nil {
			e.log.Debug("ssh host already declared", "host", p.SSHHost)
		}
		return false, nil
	}

	if !exists {
		if err := e.ensureConfig(); err != nil {
			return false, err
		}
	}

	content := doc.String() + e.renderBlock(p)
	if err := e.write(content); err != nil {
		return false, err
	}

	if e.log != nil {
		e.log.Info("ssh host entry added", "host", p.SSHHost, "profile", p.ID)
	}
	return true, nil
}

// RemoveHostEntry deletes the owned blocks declaring exactly alias. Unmarked
// blocks are never touched. It reports whether anything was removed.
func (e *Editor) RemoveHostEntry(alias string) (bool, error) {
	doc, exists, err := e.load()
	if err != nil || !exists {
		return false, err
	}

	next, removed := doc.Without(alias)
	if removed == 0 {
		return false, nil
	}
	if err := e.write(next.String()); err != nil {
		return false, err
	}

	if e.log != nil {
		e.log.Info("ssh host entry removed", "host", alias, "blocks", removed)
	}
	return true, nil
}

// RemoveOwnedEntry deletes the owned blocks declaring exactly alias whose
// marker names marker. Blocks another profile owns under the same alias are
// kept. It reports whether anything was removed.
func (e *Editor) RemoveOwnedEntry(alias, marker string) (bool, error) {
	doc, exists, err := e.load()
	if err != nil || !exists {
		return false, err
	}

	next, removed := doc.WithoutOwned(alias, marker)
	if removed == 0 {
		if e.log != nil {
			e.log.Debug("no ssh host entry owned by profile", "host", alias, "marker", marker)
		}
		return false, nil
	}
	if err := e.write(next.String()); err != nil {
		return false, err
	}

	if e.log != nil {
		e.log.Info("ssh host entry removed", "host", alias, "marker", marker, "blocks", removed)
	}
	return true, nil
}

func (e *Editor) renderBlock(p profile.Profile) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(MarkerPrefix + " " + p.Name + "\n")
	b.WriteString("Host " + p.SSHHost + "\n")
	b.WriteString("  HostName " + e.hostName + "\n")
	b.WriteString("  User git\n")
	b.WriteString("  IdentityFile " + quoteIfNeeded(p.SSHKeyPath) + "\n")
	b.WriteString("  IdentitiesOnly yes\n")
	return b.String()
}

// ensureConfig creates the ssh directory and an empty config file.
func (e *Editor) ensureConfig() error {
	if err := os.MkdirAll(e.dir, 0700); err != nil {
		return fmt.Errorf("failed to create ssh directory: %w", err)
	}
	f, err := os.OpenFile(e.ConfigPath(), os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("failed to create ssh config: %w", err)
	}
	return f.Close()
}
