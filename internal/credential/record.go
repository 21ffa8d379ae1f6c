package credential

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedRecord indicates a protocol line without "=".
var ErrMalformedRecord = errors.New("malformed credential record")

// Record is one credential description exchanged with git. Unknown
// attributes are kept in Extra.
type Record struct {
	Protocol string
	Host     string
	Path     string
	Username string
	Password string
	Extra    map[string]string
}

// Encode renders r as key=value lines followed by a blank line. Empty
// attributes are omitted.
func (r Record) Encode() string {
	var b strings.Builder
	write := func(k, v string) {
		if v != "" {
			b.WriteString(k + "=" + v + "\n")
		}
	}
	write("protocol", r.Protocol)
	write("host", r.Host)
	write("path", r.Path)
	write("username", r.Username)
	write("password", r.Password)
	b.WriteString("\n")
	return b.String()
}

// Matches reports whether r describes host over https. An empty protocol
// matches.
func (r Record) Matches(host string) bool {
	if r.Protocol != "" && r.Protocol != "https" {
		return false
	}
	return strings.EqualFold(r.Host, host)
}

// ParseRecord reads key=value lines up to a blank line or end of input.
func ParseRecord(rd io.Reader) (Record, error) {
	var r Record
	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			break
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return Record{}, fmt.Errorf("%w: %q", ErrMalformedRecord, line)
		}
		switch k {
		case "protocol":
			r.Protocol = v
		case "host":
			r.Host = v
		case "path":
			r.Path = v
		case "username":
			r.Username = v
		case "password":
			r.Password = v
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]string)
			}
			r.Extra[k] = v
		}
	}
	if err := sc.Err(); err != nil {
		return Record{}, fmt.Errorf("failed to read credential record: %w", err)
	}
	return r, nil
}
