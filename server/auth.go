package server

import "github.com/mstgnz/flatsql/sqltypes"

// Credentials is the username/password pair a wire-protocol connection
// authenticates against.
type Credentials struct {
	Username string
	Password string
}

// Resolve applies the declarative document's own credential override on
// top of the CLI-supplied defaults: document values win when present,
// per spec.md §6 ("Authentication parameters... may be set in the
// declarative document; when present they override CLI values").
// Re-resolving per connection (rather than once at boot) keeps this
// correct across a hot-reload that changes the document's credentials.
func Resolve(cliUsername, cliPassword string, db *sqltypes.Database) Credentials {
	c := Credentials{Username: cliUsername, Password: cliPassword}
	if db.Username != "" {
		c.Username = db.Username
	}
	if db.Password != "" {
		c.Password = db.Password
	}
	return c
}

// Anonymous reports whether no credential was configured anywhere, in
// which case both protocol state machines accept any username/password
// pair ("An anonymous mode accepts any credentials").
func (c Credentials) Anonymous() bool {
	return c.Username == "" && c.Password == ""
}

// Accepts validates a client-presented username/password pair.
func (c Credentials) Accepts(username, password string) bool {
	if c.Anonymous() {
		return true
	}
	return username == c.Username && password == c.Password
}
