package cliconfig

import (
	"fmt"
	"net/url"
	"strings"
)

// ConnectFlags holds the individual `--host`/`--port`/... flags spec.md §6
// lists as the alternative to a positional URI.
type ConnectFlags struct {
	Host         string
	Port         int
	Database     string
	Username     string
	Password     string
	AuthDatabase string
	TLS          bool
	TLSInsecure  bool
}

// BuildURI constructs a mongodb:// URI from individual flags when no URI
// was given positionally (spec.md §6 "URI... built from individual flags
// when no URI is given").
func BuildURI(f ConnectFlags) string {
	host := f.Host
	if host == "" {
		host = "localhost"
	}
	port := f.Port
	if port == 0 {
		port = 27017
	}

	var userinfo string
	if f.Username != "" {
		userinfo = url.User(f.Username).String()
		if f.Password != "" {
			userinfo = url.UserPassword(f.Username, f.Password).String()
		}
		userinfo += "@"
	}

	path := ""
	if f.Database != "" {
		path = "/" + f.Database
	}

	var query []string
	authDB := f.AuthDatabase
	if authDB == "" {
		authDB = "admin"
	}
	if f.Username != "" {
		query = append(query, "authSource="+authDB)
	}
	if f.TLS {
		query = append(query, "tls=true")
		if f.TLSInsecure {
			query = append(query, "tlsAllowInvalidCertificates=true")
		}
	}

	uri := fmt.Sprintf("mongodb://%s%s:%d%s", userinfo, host, port, path)
	if len(query) > 0 {
		uri += "?" + strings.Join(query, "&")
	}
	return uri
}

// ResolveDatabase applies spec.md §6's database precedence: `-d` flag wins,
// then the URI path component, then "test".
func ResolveDatabase(flagDB, uri string) string {
	if flagDB != "" {
		return flagDB
	}
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		if name := strings.TrimPrefix(u.Path, "/"); name != "" {
			return name
		}
	}
	return "test"
}
