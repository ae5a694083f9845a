package repository_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dugout/internal/adapters/kv"
	"github.com/okian/dugout/internal/adapters/repository"
	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMacroKey(t *testing.T) {
	Convey("Given macro keys", t, func() {
		Convey("String and ParseMacroKey round-trip", func() {
			key := repository.MacroKey{Kind: model.KindPlayer, Subject: "jose_altuve", Season: 2019}
			So(key.String(), ShouldEqual, "macro:player:jose_altuve:2019")

			parsed, err := repository.ParseMacroKey(key.String())
			So(err, ShouldBeNil)
			So(parsed, ShouldResemble, key)

			team := repository.MacroKey{Kind: model.KindTeam, Subject: "bos", Season: 2021}
			parsed, err = repository.ParseMacroKey(team.String())
			So(err, ShouldBeNil)
			So(parsed, ShouldResemble, team)
		})

		Convey("malformed keys are rejected", func() {
			for _, raw := range []string{
				"",
				"macro",
				"macro:player:jose_altuve",
				"macro:player:jose_altuve:2019:extra",
				"game:player:jose_altuve:2019",
				"macro:umpire:jose_altuve:2019",
				"macro:player::2019",
				"macro:player:jose_altuve:noseason",
			} {
				_, err := repository.ParseMacroKey(raw)
				So(errors.Is(err, repository.ErrBadKey), ShouldBeTrue)
			}
		})
	})
}

func TestRawGameKey(t *testing.T) {
	Convey("Given raw game keys", t, func() {
		Convey("String and ParseRawGameKey round-trip", func() {
			key := repository.RawGameKey{Kind: model.KindPlayer, Subject: "jose_altuve", Season: 2019, GameID: "g-001"}
			So(key.String(), ShouldEqual, "game:player:jose_altuve:2019:g-001")

			parsed, err := repository.ParseRawGameKey(key.String())
			So(err, ShouldBeNil)
			So(parsed, ShouldResemble, key)
		})

		Convey("malformed keys are rejected", func() {
			for _, raw := range []string{
				"",
				"game:player:jose_altuve:2019",
				"macro:player:jose_altuve:2019:g-001",
				"game:umpire:jose_altuve:2019:g-001",
				"game:player:jose_altuve:2019:",
				"game:player::2019:g-001",
				"game:player:jose_altuve:nope:g-001",
			} {
				_, err := repository.ParseRawGameKey(raw)
				So(errors.Is(err, repository.ErrBadKey), ShouldBeTrue)
			}
		})
	})
}

func TestPatterns(t *testing.T) {
	Convey("Given a store seeded with macro and game keys", t, func() {
		ctx := context.Background()
		store := kv.NewMem()
		for _, key := range []string{
			"macro:player:jose_altuve:2019",
			"macro:player:mike_trout:2019",
			"macro:player:mike_trout:2018",
			"macro:team:bos:2019",
			"game:player:jose_altuve:2019:g-001",
			"game:player:jose_altuve:2019:g-002",
			"game:player:jose_altuve:2018:g-003",
			"game:team:bos:2019:g-001",
		} {
			So(store.Set(ctx, key, []byte("x")), ShouldBeNil)
		}

		Convey("MacroPattern narrows by kind and season", func() {
			keys, err := store.Keys(ctx, repository.MacroPattern(model.KindPlayer, 2019))
			So(err, ShouldBeNil)
			So(keys, ShouldResemble, []string{
				"macro:player:jose_altuve:2019",
				"macro:player:mike_trout:2019",
			})
		})

		Convey("zero values widen the match", func() {
			keys, err := store.Keys(ctx, repository.MacroPattern("", 0))
			So(err, ShouldBeNil)
			So(len(keys), ShouldEqual, 4)
			for _, key := range keys {
				_, err := repository.ParseMacroKey(key)
				So(err, ShouldBeNil)
			}
		})

		Convey("RawGamePattern selects exactly one subject season", func() {
			keys, err := store.Keys(ctx, repository.RawGamePattern(model.KindPlayer, "jose_altuve", 2019))
			So(err, ShouldBeNil)
			So(keys, ShouldResemble, []string{
				"game:player:jose_altuve:2019:g-001",
				"game:player:jose_altuve:2019:g-002",
			})
		})
	})
}
