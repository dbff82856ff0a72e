// Package config loads server configuration from flags, environment
// variables, and defaults, in that order of precedence, the way
// Seednode-partybox layers spf13/viper over spf13/pflag.
//
// Unlike Seednode-partybox (which namespaces its env vars under a
// PARTYBOX_ prefix), the env var names here are unprefixed: ADDR,
// ADMIN_PASSWORD, PERSIST_PATH, matching the literal names this
// server's wire contract specifies.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	Addr             string
	AdminPassword    string
	PersistPath      string
	SnapshotDebounce time.Duration
}

// Bind registers flags on fs, bound directly into a Config's fields, then
// backfills any unset flag from its environment variable. Returns a
// loader to call once fs has been parsed.
func Bind(fs *pflag.FlagSet) func() Config {
	cfg := &Config{}

	fs.StringVar(&cfg.Addr, "addr", ":8080", "HTTP listen address (env: ADDR)")
	fs.StringVar(&cfg.AdminPassword, "admin-password", "changeme", "shared secret required to create a game (env: ADMIN_PASSWORD)")
	fs.StringVar(&cfg.PersistPath, "persist-path", "", "path to the snapshot file; empty disables the snapshot store (env: PERSIST_PATH)")
	fs.DurationVar(&cfg.SnapshotDebounce, "snapshot-debounce", 2*time.Second, "minimum interval between coalesced snapshot writes (env: SNAPSHOT_DEBOUNCE)")

	v := viper.New()
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	return func() Config { return *cfg }
}
