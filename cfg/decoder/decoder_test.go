package decoder

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mit-kavli-institute/ticdb/cfg/storage"
)

func TestForPath(t *testing.T) {
	Convey("测试按扩展名选择解码器", t, func() {
		for path, want := range map[string]any{
			"db.conf":   &IniDecoder{},
			"db":        &IniDecoder{},
			"db.INI":    &IniDecoder{},
			"db.yml":    &YamlDecoder{},
			"db.yaml":   &YamlDecoder{},
			"db.toml":   &TomlDecoder{},
			"/a/b.json": &JsonDecoder{},
		} {
			d, err := ForPath(path)
			So(err, ShouldBeNil)
			So(d, ShouldHaveSameTypeAs, want)
		}

		_, err := ForPath("db.xml")
		So(err, ShouldWrap, ErrUnsupportedFormat)

		Convey("注册新扩展名", func() {
			So(Register(".jsonc", newJson), ShouldBeNil)
			d, err := ForPath("db.jsonc")
			So(err, ShouldBeNil)
			So(d, ShouldHaveSameTypeAs, &JsonDecoder{})

			So(Register(".yml", newToml), ShouldNotBeNil)
		})
	})
}

func TestIniDecoder(t *testing.T) {
	Convey("测试 INI 解码", t, func() {
		s, err := NewIniDecoder().Decode([]byte(`
top = 1

[tic_82]
username = tess
password = 0042 ; comment
port = 5432
`))
		So(err, ShouldBeNil)

		data := s.(*storage.MapStorage).Data().(map[string]any)
		So(data["top"], ShouldEqual, "1")
		So(data["tic_82"], ShouldResemble, map[string]any{
			"username": "tess",
			"password": "0042",
			"port":     "5432",
		})

		_, err = NewIniDecoder().Decode([]byte("[broken"))
		So(err, ShouldNotBeNil)
	})
}

func TestStructuredDecoders(t *testing.T) {
	Convey("测试 YAML/TOML/JSON 解码", t, func() {
		type section struct {
			Port int `cfg:"port"`
		}

		cases := []struct {
			decoder Decoder
			data    string
		}{
			{NewYamlDecoder(), "tic_82:\n  port: 5432\n"},
			{NewTomlDecoder(), "[tic_82]\nport = 5432\n"},
			{NewJsonDecoder(), `{"tic_82": {"port": 5432}}`},
		}
		for _, c := range cases {
			s, err := c.decoder.Decode([]byte(c.data))
			So(err, ShouldBeNil)
			var out section
			So(s.Sub("tic_82").ConvertTo(&out), ShouldBeNil)
			So(out.Port, ShouldEqual, 5432)
		}

		for _, d := range []Decoder{NewYamlDecoder(), NewTomlDecoder(), NewJsonDecoder()} {
			_, err := d.Decode([]byte("{{{ not valid"))
			So(err, ShouldNotBeNil)
		}
	})
}
