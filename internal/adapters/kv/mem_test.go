package kv_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dugout/internal/adapters/kv"
)

func TestMemStore(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		ctx := context.Background()
		store := kv.NewMem()

		Convey("values round-trip and overwrite", func() {
			So(store.Set(ctx, "macro:player:a:2019", []byte("one")), ShouldBeNil)
			val, err := store.Get(ctx, "macro:player:a:2019")
			So(err, ShouldBeNil)
			So(string(val), ShouldEqual, "one")

			So(store.Set(ctx, "macro:player:a:2019", []byte("two")), ShouldBeNil)
			val, err = store.Get(ctx, "macro:player:a:2019")
			So(err, ShouldBeNil)
			So(string(val), ShouldEqual, "two")
		})

		Convey("missing keys return not found", func() {
			_, err := store.Get(ctx, "macro:player:missing:2019")
			So(errors.Is(err, kv.ErrNotFound), ShouldBeTrue)
		})

		Convey("stored and returned values are copies", func() {
			buf := []byte("live")
			So(store.Set(ctx, "macro:player:a:2019", buf), ShouldBeNil)
			buf[0] = 'X'

			val, err := store.Get(ctx, "macro:player:a:2019")
			So(err, ShouldBeNil)
			So(string(val), ShouldEqual, "live")

			val[0] = 'X'
			again, err := store.Get(ctx, "macro:player:a:2019")
			So(err, ShouldBeNil)
			So(string(again), ShouldEqual, "live")
		})

		Convey("scan filters by pattern and sorts by key", func() {
			So(store.Set(ctx, "macro:player:b:2019", []byte("mb")), ShouldBeNil)
			So(store.Set(ctx, "macro:player:a:2019", []byte("ma")), ShouldBeNil)
			So(store.Set(ctx, "macro:team:bos:2019", []byte("mt")), ShouldBeNil)
			So(store.Set(ctx, "game:player:a:2019:g1", []byte("g")), ShouldBeNil)

			got, err := store.Scan(ctx, "macro:player:*")
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 2)
			So(got[0].Key, ShouldEqual, "macro:player:a:2019")
			So(got[1].Key, ShouldEqual, "macro:player:b:2019")
			So(string(got[0].Value), ShouldEqual, "ma")

			keys, err := store.Keys(ctx, "macro:*")
			So(err, ShouldBeNil)
			So(keys, ShouldResemble, []string{
				"macro:player:a:2019",
				"macro:player:b:2019",
				"macro:team:bos:2019",
			})

			none, err := store.Scan(ctx, "macro:team:nyy:*")
			So(err, ShouldBeNil)
			So(none, ShouldBeEmpty)
		})

		Convey("bad patterns are rejected", func() {
			So(store.Set(ctx, "macro:player:a:2019", []byte("ma")), ShouldBeNil)

			_, err := store.Scan(ctx, "macro:[")
			So(errors.Is(err, kv.ErrBadPattern), ShouldBeTrue)

			_, err = store.Keys(ctx, "macro:[")
			So(errors.Is(err, kv.ErrBadPattern), ShouldBeTrue)
		})

		Convey("delete removes keys and tolerates absent ones", func() {
			So(store.Set(ctx, "macro:player:a:2019", []byte("ma")), ShouldBeNil)
			So(store.Delete(ctx, "macro:player:a:2019"), ShouldBeNil)

			_, err := store.Get(ctx, "macro:player:a:2019")
			So(errors.Is(err, kv.ErrNotFound), ShouldBeTrue)

			So(store.Delete(ctx, "macro:player:nobody:2019"), ShouldBeNil)
			So(store.Close(), ShouldBeNil)
		})
	})
}
