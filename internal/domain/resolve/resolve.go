// Package resolve determines, for one guild member, the player's main
// character and its details.
//
// Every step degrades to sentinel values on failure: one member's bad
// lookup never aborts the run, and exactly one MemberResult exists per
// input member.
package resolve

import (
	"context"

	"github.com/minseo-lab/guildmain/internal/domain/model"
	"github.com/minseo-lab/guildmain/internal/domain/retry"
	"github.com/minseo-lab/guildmain/pkg/logger"
	"github.com/minseo-lab/guildmain/pkg/metrics"
)

// API defines the upstream lookups a member resolution needs.
type API interface {
	// CharacterOCID resolves a character name to its opaque id.
	// Empty id means the character does not exist upstream.
	CharacterOCID(ctx context.Context, name string) (string, error)

	// MainCharacter returns the union rank-1 character name for the
	// given id on a world, or empty when no ranking data exists.
	MainCharacter(ctx context.Context, world, ocid string) (string, error)

	// CharacterDetails fetches display details for a character id.
	CharacterDetails(ctx context.Context, ocid string) (model.CharacterDetails, error)
}

// Resolver runs the per-member lookup ladder.
type Resolver struct {
	api    API
	policy *retry.Policy
	log    logger.Logger
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithPolicy sets the retry policy for rate-limited lookups.
func WithPolicy(p *retry.Policy) Option {
	return func(r *Resolver) {
		if p != nil {
			r.policy = p
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a Resolver over the given upstream API. Without an
// explicit policy the default bounded rate-limit retry applies.
func New(api API, opts ...Option) *Resolver {
	r := &Resolver{
		api: api,
		log: logger.Get().Named("resolve"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.policy == nil {
		r.policy = retry.NewPolicy()
	}
	return r
}

// Resolve produces the MemberResult for one member name. The roster set
// is the immutable membership snapshot captured before the run began.
func (r *Resolver) Resolve(ctx context.Context, member, world string, roster model.RosterSet) model.MemberResult {
	metrics.RecordMemberResolved()

	// Step 1: character id. A missing id is a terminal state, not an
	// error that aborts the pipeline.
	ocid, err := retry.Do(ctx, r.policy, func(ctx context.Context) (string, error) {
		return r.api.CharacterOCID(ctx, member)
	})
	if err != nil || ocid == "" {
		if err != nil {
			r.log.Warn(ctx, "character id lookup failed",
				logger.String("member", member),
				logger.Error(err),
			)
		}
		metrics.RecordResolutionFailure("character_id")
		return model.SentinelResult(member)
	}

	res := model.SentinelResult(member)

	// Step 2: main-character check via union rank 1. Exact,
	// case-sensitive name comparison; no ranking data means not main.
	mainName, err := retry.Do(ctx, r.policy, func(ctx context.Context) (string, error) {
		return r.api.MainCharacter(ctx, world, ocid)
	})
	if err != nil {
		r.log.Warn(ctx, "union ranking lookup failed",
			logger.String("member", member),
			logger.Error(err),
		)
		metrics.RecordResolutionFailure("union_ranking")
	} else if mainName != "" {
		name := mainName
		res.MainName = &name
		res.IsMain = mainName == member

		// Step 3: membership test against the roster captured before
		// resolution began.
		res.MainInGuild = roster.Contains(mainName)
	}
	if res.IsMain {
		metrics.RecordMainDetected()
	}

	// Step 4: character details, single attempt. Failure keeps the
	// sentinels but preserves everything computed above.
	details, err := r.api.CharacterDetails(ctx, ocid)
	if err != nil {
		r.log.Warn(ctx, "character details lookup failed",
			logger.String("member", member),
			logger.Error(err),
		)
		metrics.RecordResolutionFailure("character_details")
		return res
	}

	res.CharacterLevel = details.Level
	res.CharacterClass = details.Class
	res.CharacterGuild = details.Guild
	res.CharacterAccess = details.Access
	if details.ImageURL != "" {
		img := details.ImageURL
		res.CharacterImage = &img
	}
	return res
}
