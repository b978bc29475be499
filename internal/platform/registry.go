package platform

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gvillage/startupapp/internal/conf"
)

// DefaultRegistry is the user account database on Unix systems.
const DefaultRegistry = "/etc/passwd"

// passwdFields is the number of colon-separated fields in a record.
const passwdFields = 7

// account is one record of the user registry.
type account struct {
	Name  string
	UID   string
	GID   string
	Gecos string
	Home  string
	Shell string
}

// DisplayName is the first comma-separated GECOS field.
func (a account) DisplayName() string {
	name, _, _ := strings.Cut(a.Gecos, ",")
	return strings.TrimSpace(name)
}

// lookupAccount scans r for the first record whose name field is exactly
// userID. Records for userID that lack fields are reported through warnf and
// skipped.
func lookupAccount(r io.Reader, source, userID string, warnf func(string, ...any)) (account, error) {
	malformed := false
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, ":")
		if fields[0] != userID {
			continue
		}
		if len(fields) < passwdFields {
			warnf("%s:%d: record for %s has %d fields, expected %d", source, line, userID, len(fields), passwdFields)
			malformed = true
			continue
		}
		return account{
			Name:  fields[0],
			UID:   fields[2],
			GID:   fields[3],
			Gecos: fields[4],
			Home:  fields[5],
			Shell: fields[6],
		}, nil
	}
	if err := scanner.Err(); err != nil {
		return account{}, fmt.Errorf("reading %s: %w", source, err)
	}
	if malformed {
		return account{}, fmt.Errorf("no complete record in %s for %s: %w", source, userID, ErrMalformedAccount)
	}
	return account{}, fmt.Errorf("%s for %s: %w", source, userID, ErrNoAccount)
}

// registryStep reads the display name and home directory of the user found
// by an earlier step.
func (p *Provider) registryStep() Step {
	return Step{
		Name: "display name",
		Collect: func(known conf.ConfigMap) ([]Fact, error) {
			userID := known.String(conf.KeyUserID)
			if userID == "" {
				return nil, ErrNoUserID
			}

			path := p.Registry
			if path == "" {
				path = DefaultRegistry
			}
			f, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			defer f.Close()

			acct, err := lookupAccount(f, path, userID, p.warnf)
			if err != nil {
				return nil, err
			}
			return []Fact{
				{Key: conf.KeyUserName, Value: acct.DisplayName()},
				{Key: conf.KeyHome, Value: acct.Home},
			}, nil
		},
	}
}
