// Package roster resolves a guild name and world to the guild's ordered
// member list.
package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/minseo-lab/guildmain/internal/domain/model"
	"github.com/minseo-lab/guildmain/pkg/logger"
)

// ErrNotFound is returned when the upstream has no identifier or no
// basic payload for the requested guild. Request handlers translate it
// to a 404.
var ErrNotFound = errors.New("guild not found")

// API defines the two upstream lookups a roster resolution needs.
type API interface {
	// GuildID resolves guild name + world to the opaque guild id.
	GuildID(ctx context.Context, guild, world string) (string, error)

	// GuildMembers returns the member names for a guild id as of the
	// snapshot date, in upstream order.
	GuildMembers(ctx context.Context, guildID string) ([]string, error)
}

// Lookup resolves guild queries to rosters.
type Lookup struct {
	api API
	log logger.Logger
}

// Option applies a configuration option to the Lookup.
type Option func(*Lookup)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Lookup) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLookup creates a Lookup over the given upstream API.
func NewLookup(api API, opts ...Option) *Lookup {
	l := &Lookup{
		api: api,
		log: logger.Get().Named("roster"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve maps a guild query to its roster. Any upstream failure on
// either step means the guild is not resolvable and surfaces as
// ErrNotFound; per-member degradation happens later, guild-level
// lookups abort the request.
func (l *Lookup) Resolve(ctx context.Context, q model.GuildQuery) (model.GuildRoster, error) {
	id, err := l.api.GuildID(ctx, q.Guild, q.World)
	if err != nil {
		l.log.Warn(ctx, "guild id lookup failed",
			logger.String("guild", q.Guild),
			logger.String("world", q.World),
			logger.Error(err),
		)
		return model.GuildRoster{}, fmt.Errorf("guild id lookup: %w", ErrNotFound)
	}

	members, err := l.api.GuildMembers(ctx, id)
	if err != nil {
		l.log.Warn(ctx, "guild info lookup failed",
			logger.String("guildID", id),
			logger.Error(err),
		)
		return model.GuildRoster{}, fmt.Errorf("guild info lookup: %w", ErrNotFound)
	}
	if members == nil {
		return model.GuildRoster{}, fmt.Errorf("guild info payload missing: %w", ErrNotFound)
	}

	return model.GuildRoster{GuildID: id, World: q.World, Members: members}, nil
}
