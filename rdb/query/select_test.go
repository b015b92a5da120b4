package query

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mit-kavli-institute/ticdb/rdb/schema"
)

func TestSelect(t *testing.T) {
	table := ticentries()

	Convey("测试 Select", t, func() {
		Convey("无条件", func() {
			stmt, err := NewSelect(table, "id", "ra")
			So(err, ShouldBeNil)
			sql, args, err := stmt.ToSQL(ANSI)
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, `SELECT "id", "ra" FROM "ticentries"`)
			So(args, ShouldBeNil)
		})

		Convey("多个条件按 AND 组合并改写占位符", func() {
			stmt, err := NewSelect(table, "id")
			So(err, ShouldBeNil)
			stmt = stmt.Where(&TermQuery{Field: "id", Value: 1}, &RangeQuery{Field: "tmag", Lt: 9})
			sql, args, err := stmt.ToSQL(Dollar)
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, `SELECT "id" FROM "ticentries" WHERE ("id" = $1) AND ("tmag" < $2)`)
			So(args, ShouldResemble, []any{1, 9})
		})

		Convey("Where 不修改原语句", func() {
			stmt, _ := NewSelect(table, "id")
			narrowed := stmt.Where(&ExistsQuery{Field: "tmag"})
			So(stmt.Wheres, ShouldBeEmpty)
			So(narrowed.Wheres, ShouldHaveLength, 1)
		})

		Convey("未知输出列", func() {
			_, err := NewSelect(table, "id", "teff")
			So(err, ShouldWrap, schema.ErrNoSuchColumn)
		})

		Convey("无输出列", func() {
			_, err := NewSelect(table)
			So(err, ShouldEqual, ErrNoFields)
		})
	})
}

func TestApplyFilters(t *testing.T) {
	table := ticentries()

	Convey("测试 ApplyFilters", t, func() {
		stmt, err := NewSelect(table, "id", "tmag")
		So(err, ShouldBeNil)

		Convey("结构化谓词在前，关键字在后", func() {
			filtered, err := ApplyFilters(stmt, table,
				[]Query{NewRadialQuery(10, 20, 0.5)},
				[]Keyword{{Name: "tmag__lt", Value: 12}, {Name: "objtype__eq", Value: "STAR"}},
			)
			So(err, ShouldBeNil)
			sql, args, err := filtered.ToSQL(Dollar)
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, `SELECT "id", "tmag" FROM "ticentries" WHERE (q3c_radial_query("ra", "dec", $1, $2, $3)) AND ("tmag" < $4) AND ("objtype" = $5)`)
			So(args, ShouldResemble, []any{10.0, 20.0, 0.5, 12, "STAR"})
		})

		Convey("eq 关键字与显式等值谓词等价", func() {
			byKeyword, err := ApplyFilters(stmt, table, nil, []Keyword{{Name: "id__eq", Value: 42}})
			So(err, ShouldBeNil)
			byPredicate, err := ApplyFilters(stmt, table, []Query{&TermQuery{Field: "id", Value: 42}}, nil)
			So(err, ShouldBeNil)

			sql1, args1, _ := byKeyword.ToSQL(ANSI)
			sql2, args2, _ := byPredicate.ToSQL(ANSI)
			So(sql1, ShouldEqual, sql2)
			So(args1, ShouldResemble, args2)
		})

		Convey("任一关键字失败则整体失败", func() {
			filtered, err := ApplyFilters(stmt, table, nil, []Keyword{
				{Name: "tmag__lt", Value: 12},
				{Name: "tmag__like", Value: "x"},
			})
			So(err, ShouldWrap, ErrUnsupportedOperator)
			So(filtered, ShouldBeNil)
		})

		Convey("原语句不受影响", func() {
			_, err := ApplyFilters(stmt, table, nil, []Keyword{{Name: "tmag__lt", Value: 12}})
			So(err, ShouldBeNil)
			So(stmt.Wheres, ShouldBeEmpty)
		})
	})
}
