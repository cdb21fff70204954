package nexon

import (
	"strconv"
	"strings"

	"github.com/minseo-lab/guildmain/internal/domain/model"
)

// Wire shapes mirror the Nexon Open API field names.

type guildIDResponse struct {
	OGuildID string `json:"oguild_id"`
}

type characterIDResponse struct {
	OCID string `json:"ocid"`
}

// GuildBasic is the /guild/basic payload subset this service reads.
type GuildBasic struct {
	WorldName    string   `json:"world_name"`
	GuildName    string   `json:"guild_name"`
	GuildLevel   int      `json:"guild_level"`
	GuildMembers []string `json:"guild_member"`
}

// UnionRankingEntry is one row of /ranking/union.
type UnionRankingEntry struct {
	Ranking       int    `json:"ranking"`
	CharacterName string `json:"character_name"`
	WorldName     string `json:"world_name"`
	UnionLevel    int    `json:"union_level"`
}

// UnionRanking is the /ranking/union payload. The upstream returns the
// queried character's union ranked first when ranking data exists.
type UnionRanking struct {
	Ranking []UnionRankingEntry `json:"ranking"`
}

// CharacterBasic is the /character/basic payload subset this service
// reads. Level and access flag arrive as strings on some API versions,
// so both are kept raw here and normalized in Details.
type CharacterBasic struct {
	CharacterName      string `json:"character_name"`
	CharacterLevel     any    `json:"character_level"`
	CharacterClass     string `json:"character_class"`
	CharacterGuildName string `json:"character_guild_name"`
	AccessFlag         string `json:"access_flag"`
	CharacterImage     string `json:"character_image"`
}

// Details normalizes the wire payload into domain details. Missing or
// unparsable fields fall back to sentinels rather than failing.
func (c *CharacterBasic) Details() model.CharacterDetails {
	d := model.CharacterDetails{
		Level:    parseLevel(c.CharacterLevel),
		Class:    c.CharacterClass,
		Guild:    c.CharacterGuildName,
		Access:   strings.EqualFold(c.AccessFlag, "true"),
		ImageURL: c.CharacterImage,
	}
	if d.Class == "" {
		d.Class = model.NotAvailable
	}
	if d.Guild == "" {
		d.Guild = model.NotAvailable
	}
	return d
}

// parseLevel tolerates both numeric and string level encodings.
func parseLevel(v any) int {
	switch lv := v.(type) {
	case float64:
		return int(lv)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(lv))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
