// Package model contains domain models passed between layers.
package model

// NotAvailable is the sentinel shown for fields the upstream could not
// provide. Resolution failures degrade to sentinels, never abort a run.
const NotAvailable = "N/A"

// GuildQuery is the request input: a guild name on a world.
type GuildQuery struct {
	Guild string
	World string
}

// GuildRoster is the ordered member list of a guild as returned by the
// upstream guild lookup. Order is preserved through the whole pipeline.
type GuildRoster struct {
	GuildID string
	World   string
	Members []string
}

// Set returns a membership lookup over the roster, captured once before
// resolution begins. The roster itself is immutable input.
func (r GuildRoster) Set() RosterSet {
	s := make(RosterSet, len(r.Members))
	for _, m := range r.Members {
		s[m] = struct{}{}
	}
	return s
}

// RosterSet is a membership test over roster member names.
type RosterSet map[string]struct{}

// Contains reports whether name is part of the roster.
func (s RosterSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// MainStatus captures whether a character is its player's main, derived
// from the union rank-1 entry for that character's id.
type MainStatus struct {
	IsMain   bool
	MainName string // empty when the ranking had no usable entry
}

// CharacterDetails holds the subset of /character/basic this service
// displays. Zero values double as the documented sentinels.
type CharacterDetails struct {
	Level    int
	Class    string
	Guild    string
	Access   bool
	ImageURL string
}

// MemberResult is the per-member unit record. Exactly one is produced
// for every input member name, in input order, regardless of upstream
// failures.
type MemberResult struct {
	Member          string  `json:"member"`
	IsMain          bool    `json:"isMainCharacter"`
	MainName        *string `json:"mainCharacterName"`
	MainInGuild     bool    `json:"isMainCharacterInGuild"`
	CharacterLevel  int     `json:"characterLevel"`
	CharacterClass  string  `json:"characterClass"`
	CharacterGuild  string  `json:"characterGuild"`
	CharacterAccess bool    `json:"characterAccess"`
	CharacterImage  *string `json:"characterImage"`
}

// SentinelResult returns the fully degraded record for a member whose
// character id could not be resolved.
func SentinelResult(member string) MemberResult {
	return MemberResult{
		Member:         member,
		CharacterClass: NotAvailable,
		CharacterGuild: NotAvailable,
	}
}

// Task is one unit of resolution work flowing through the queue: the
// Seq'th member of batch RunID.
type Task struct {
	RunID  string
	Seq    int
	Member string
	World  string
}
