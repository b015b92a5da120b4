package schema

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/smartystreets/goconvey/convey"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestTable(t *testing.T) {
	convey.Convey("测试 Table 查找", t, func() {
		table := NewTable("ticentries",
			&Column{Name: "id", Type: "BIGINT", PrimaryKey: true},
			&Column{Name: "ra", Type: "DOUBLE"},
			&Column{Name: "dec", Type: "DOUBLE"},
		)

		convey.So(table.PrimaryKey, convey.ShouldResemble, []string{"id"})
		convey.So(table.ColumnNames(), convey.ShouldResemble, []string{"id", "ra", "dec"})
		convey.So(table.HasColumn("ra"), convey.ShouldBeTrue)
		convey.So(table.IsPrimaryKey("id"), convey.ShouldBeTrue)
		convey.So(table.IsPrimaryKey("ra"), convey.ShouldBeFalse)

		c, err := table.Column("dec")
		convey.So(err, convey.ShouldBeNil)
		convey.So(c.Type, convey.ShouldEqual, "DOUBLE")

		_, err = table.Column("tmag")
		convey.So(errors.Is(err, ErrNoSuchColumn), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "tmag")

		columns, err := table.Lookup("dec", "id")
		convey.So(err, convey.ShouldBeNil)
		convey.So(columns[0].Name, convey.ShouldEqual, "dec")
		convey.So(columns[1].Name, convey.ShouldEqual, "id")

		_, err = table.Lookup("id", "nope")
		convey.So(errors.Is(err, ErrNoSuchColumn), convey.ShouldBeTrue)

		s := NewSchema(table, NewTable("other"))
		convey.So(s.TableNames(), convey.ShouldResemble, []string{"other", "ticentries"})
		got, err := s.Table("ticentries")
		convey.So(err, convey.ShouldBeNil)
		convey.So(got, convey.ShouldEqual, table)
		_, err = s.Table("missing")
		convey.So(errors.Is(err, ErrNoSuchTable), convey.ShouldBeTrue)
	})
}

func TestGormReflector(t *testing.T) {
	convey.Convey("测试 GormReflector 反射 SQLite", t, func() {
		db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "tic.db")), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		convey.So(err, convey.ShouldBeNil)

		convey.So(db.Exec(`CREATE TABLE ticentries (
			id INTEGER PRIMARY KEY,
			ra REAL NOT NULL,
			dec REAL NOT NULL,
			tmag REAL
		)`).Error, convey.ShouldBeNil)
		convey.So(db.Exec(`CREATE TABLE nokey (id INTEGER, name TEXT)`).Error, convey.ShouldBeNil)

		s, err := NewGormReflector(db).Reflect(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(s.TableNames(), convey.ShouldResemble, []string{"nokey", "ticentries"})

		tic, err := s.Table("ticentries")
		convey.So(err, convey.ShouldBeNil)
		convey.So(tic.ColumnNames(), convey.ShouldResemble, []string{"id", "ra", "dec", "tmag"})
		convey.So(tic.PrimaryKey, convey.ShouldResemble, []string{"id"})

		nokey, err := s.Table("nokey")
		convey.So(err, convey.ShouldBeNil)
		convey.So(nokey.PrimaryKey, convey.ShouldBeEmpty)
		convey.So(nokey.HasColumn("name"), convey.ShouldBeTrue)
	})
}
