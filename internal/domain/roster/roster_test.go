package roster_test

import (
	"context"
	"errors"
	"testing"

	"github.com/minseo-lab/guildmain/internal/domain/model"
	"github.com/minseo-lab/guildmain/internal/domain/roster"
	"github.com/minseo-lab/guildmain/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeGuildAPI is a scriptable roster.API.
type fakeGuildAPI struct {
	id      string
	idErr   error
	members []string
	memErr  error

	gotGuild string
	gotWorld string
	gotID    string
}

func (f *fakeGuildAPI) GuildID(ctx context.Context, guild, world string) (string, error) {
	f.gotGuild, f.gotWorld = guild, world
	return f.id, f.idErr
}

func (f *fakeGuildAPI) GuildMembers(ctx context.Context, guildID string) ([]string, error) {
	f.gotID = guildID
	return f.members, f.memErr
}

func TestLookupResolve(t *testing.T) {
	Convey("Given a guild known to the upstream", t, func() {
		api := &fakeGuildAPI{
			id:      "guild-42",
			members: []string{"하나", "둘", "셋"},
		}
		l := roster.NewLookup(api)

		Convey("When resolving its roster", func() {
			r, err := l.Resolve(context.Background(), model.GuildQuery{Guild: "메구밍", World: "엘리시움"})

			Convey("Then it should return the member list in upstream order", func() {
				So(err, ShouldBeNil)
				So(r.GuildID, ShouldEqual, "guild-42")
				So(r.World, ShouldEqual, "엘리시움")
				So(r.Members, ShouldResemble, []string{"하나", "둘", "셋"})
			})

			Convey("And the lookups should carry the query through", func() {
				So(api.gotGuild, ShouldEqual, "메구밍")
				So(api.gotWorld, ShouldEqual, "엘리시움")
				So(api.gotID, ShouldEqual, "guild-42")
			})
		})
	})

	Convey("Given a guild with an empty roster", t, func() {
		api := &fakeGuildAPI{id: "guild-42", members: []string{}}
		l := roster.NewLookup(api)

		Convey("When resolving its roster", func() {
			r, err := l.Resolve(context.Background(), model.GuildQuery{Guild: "빈길드", World: "엘리시움"})

			Convey("Then an empty roster is a valid result", func() {
				So(err, ShouldBeNil)
				So(r.Members, ShouldBeEmpty)
			})
		})
	})
}

func TestLookupResolve_NotFound(t *testing.T) {
	Convey("Given a guild the upstream cannot identify", t, func() {
		api := &fakeGuildAPI{idErr: errors.New("no such guild")}
		l := roster.NewLookup(api)

		Convey("When resolving its roster", func() {
			_, err := l.Resolve(context.Background(), model.GuildQuery{Guild: "없는길드", World: "엘리시움"})

			Convey("Then it should report not found", func() {
				So(errors.Is(err, roster.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a guild whose info lookup fails", t, func() {
		api := &fakeGuildAPI{id: "guild-42", memErr: errors.New("upstream down")}
		l := roster.NewLookup(api)

		Convey("When resolving its roster", func() {
			_, err := l.Resolve(context.Background(), model.GuildQuery{Guild: "메구밍", World: "엘리시움"})

			Convey("Then the guild-level failure surfaces as not found", func() {
				So(errors.Is(err, roster.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a guild whose info payload is missing the member list", t, func() {
		api := &fakeGuildAPI{id: "guild-42", members: nil}
		l := roster.NewLookup(api)

		Convey("When resolving its roster", func() {
			_, err := l.Resolve(context.Background(), model.GuildQuery{Guild: "메구밍", World: "엘리시움"})

			Convey("Then it should report not found", func() {
				So(errors.Is(err, roster.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
