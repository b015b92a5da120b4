package ref

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func newOne() int { return 1 }
func newTwo() int { return 2 }

func TestRegistry(t *testing.T) {
	Convey("测试 Registry", t, func() {
		Convey("注册和查找", func() {
			r := NewRegistry[string]("dialect")
			So(r.Register("PostgreSQL", "postgres"), ShouldBeNil)
			So(r.Register("mysql", "mysql"), ShouldBeNil)

			v, err := r.Lookup("postgresql")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "postgres")
			So(r.Names(), ShouldResemble, []string{"mysql", "postgresql"})

			_, err = r.Lookup("oracle")
			So(err, ShouldWrap, ErrNotRegistered)
			So(err.Error(), ShouldContainSubstring, "dialect:oracle")
		})

		Convey("重复注册", func() {
			r := NewRegistry[string]("dialect")
			So(r.Register("pgx", "postgres"), ShouldBeNil)
			So(r.Register("PGX", "postgres"), ShouldBeNil)
			So(r.Register("pgx", "mysql"), ShouldWrap, ErrConflict)
			So(func() { r.MustRegister("pgx", "mysql") }, ShouldPanic)
		})

		Convey("注册构造函数", func() {
			r := NewRegistry[func() int]("ctor")
			So(r.Register("one", newOne), ShouldBeNil)
			So(r.Register("one", newOne), ShouldBeNil)
			So(r.Register("one", newTwo), ShouldWrap, ErrConflict)

			fn, err := r.Lookup("one")
			So(err, ShouldBeNil)
			So(fn(), ShouldEqual, 1)
		})
	})
}
