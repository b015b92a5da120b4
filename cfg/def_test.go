package cfg

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSetDefaults(t *testing.T) {
	Convey("测试 SetDefaults", t, func() {
		type Inner struct {
			Level string `def:"info"`
		}
		type Options struct {
			Host     string        `def:"localhost"`
			Port     int           `def:"5432"`
			MaxConns uint          `def:"10"`
			Ratio    float64       `def:"0.5"`
			Enabled  bool          `def:"true"`
			Timeout  time.Duration `def:"2s"`
			Tags     []string      `def:"a, b"`
			NoDef    string
			Inner    Inner
			Ptr      *Inner
		}

		Convey("零值字段被设置", func() {
			var o Options
			So(SetDefaults(&o), ShouldBeNil)
			So(o.Host, ShouldEqual, "localhost")
			So(o.Port, ShouldEqual, 5432)
			So(o.MaxConns, ShouldEqual, uint(10))
			So(o.Ratio, ShouldEqual, 0.5)
			So(o.Enabled, ShouldBeTrue)
			So(o.Timeout, ShouldEqual, 2*time.Second)
			So(o.Tags, ShouldResemble, []string{"a", "b"})
			So(o.NoDef, ShouldBeEmpty)
			So(o.Inner.Level, ShouldEqual, "info")
			So(o.Ptr, ShouldBeNil)
		})

		Convey("非零值保留", func() {
			o := Options{Host: "db", Port: 1, Ptr: &Inner{}}
			So(SetDefaults(&o), ShouldBeNil)
			So(o.Host, ShouldEqual, "db")
			So(o.Port, ShouldEqual, 1)
			So(o.Ptr.Level, ShouldEqual, "info")
		})

		Convey("非法参数", func() {
			So(SetDefaults(nil), ShouldNotBeNil)
			So(SetDefaults(Options{}), ShouldNotBeNil)

			type Bad struct {
				Port int `def:"abc"`
			}
			So(SetDefaults(&Bad{}), ShouldNotBeNil)
		})
	})
}
