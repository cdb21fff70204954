// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/minseo-lab/guildmain/internal/domain/grouping"
	"github.com/minseo-lab/guildmain/internal/domain/model"
	"github.com/minseo-lab/guildmain/internal/domain/roster"
)

// membersRequest is the POST /api/guild/members body.
type membersRequest struct {
	Guild string `json:"guild"`
	World string `json:"world"`
}

func (m membersRequest) validate() error {
	switch {
	case strings.TrimSpace(m.Guild) == "":
		return errors.New("guild is required")
	case strings.TrimSpace(m.World) == "":
		return errors.New("world is required")
	}
	return nil
}

// membersResponse carries the ordered member records, plus the grouped
// view when requested.
type membersResponse struct {
	MemberStatus []model.MemberResult `json:"memberStatus"`
	Groups       []grouping.Group     `json:"groups,omitempty"`
}

// MembersHandler handles guild member resolution requests.
type MembersHandler struct {
	deps Dependencies
}

// NewMembersHandler creates a new members handler.
func NewMembersHandler(deps Dependencies) *MembersHandler {
	return &MembersHandler{deps: deps}
}

// HandlePostMembers handles POST /api/guild/members requests.
// With ?view=grouped the response also carries the grouped display view.
func (h *MembersHandler) HandlePostMembers(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_guild_members"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req membersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	results, err := h.deps.MemberStatus(r.Context(), req.Guild, req.World)
	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			writeError(w, http.StatusNotFound, "guild_not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	resp := membersResponse{MemberStatus: results}
	if r.URL.Query().Get("view") == "grouped" {
		resp.Groups = grouping.ByMainCharacter(results)
	}
	writeJSON(w, http.StatusOK, resp)
}
