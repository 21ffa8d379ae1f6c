package sshconfig

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

const keyHeader = "-----BEGIN"

// ignoredFiles are well-known ssh directory entries that are never keys.
var ignoredFiles = map[string]bool{
	"config":          true,
	"known_hosts":     true,
	"known_hosts.old": true,
	"authorized_keys": true,
	"environment":     true,
}

// Key is a private key file found in the ssh directory.
type Key struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	HasPublicKey bool   `json:"has_public_key"`
	// Type and Fingerprint come from the .pub sibling when it parses.
	Type        string `json:"type,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Comment     string `json:"comment,omitempty"`
	// Encrypted is set when the key needs a passphrase.
	Encrypted bool `json:"encrypted,omitempty"`
}

// DiscoverKeys lists private keys in the ssh directory. Dotfiles, .pub
// files, well-known non-key files and files without a PEM-style header are
// skipped, as are entries that cannot be read. A missing directory yields
// no keys.
func (e *Editor) DiscoverKeys() ([]Key, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ssh directory: %w", err)
	}

	pubs := make(map[string]bool)
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".pub") {
			pubs[strings.TrimSuffix(name, ".pub")] = true
		}
	}

	var keys []Key
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".pub") || ignoredFiles[name] {
			continue
		}

		path := filepath.Join(e.dir, name)
		key, ok := inspectKey(path)
		if !ok {
			continue
		}
		key.Name = name
		key.HasPublicKey = pubs[name]
		if key.HasPublicKey {
			key.Type, key.Fingerprint, key.Comment = publicKeyInfo(path + ".pub")
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// inspectKey reports whether path is a regular file starting with a private
// key header.
func inspectKey(path string) (Key, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return Key{}, false
	}

	// #nosec G304 - path is inside the ssh directory
	f, err := os.Open(path)
	if err != nil {
		return Key{}, false
	}
	defer f.Close()

	head := make([]byte, 32)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Key{}, false
	}
	if !strings.HasPrefix(string(head[:n]), keyHeader) {
		return Key{}, false
	}

	key := Key{Path: path}
	rest, err := io.ReadAll(f)
	if err == nil {
		_, perr := ssh.ParseRawPrivateKey(append(head[:n], rest...))
		var missing *ssh.PassphraseMissingError
		key.Encrypted = errors.As(perr, &missing)
	}
	return key, true
}

// publicKeyInfo parses an authorized_keys style public key file. Unreadable
// or unparsable files yield empty values.
func publicKeyInfo(path string) (keyType, fingerprint, comment string) {
	// #nosec G304 - path is inside the ssh directory
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", ""
	}
	pub, comment, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return "", "", ""
	}
	return pub.Type(), ssh.FingerprintSHA256(pub), comment
}
