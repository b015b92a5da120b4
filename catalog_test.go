package ticdb

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
)

const testDriver = "sqlite3_q3c"

func init() {
	sql.Register(testDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("q3c_radial_query", radial, true)
		},
	})
}

// radial 球面角距离不超过 radius（度）
func radial(ra, dec, ra0, dec0, radius float64) bool {
	rad := math.Pi / 180
	d := math.Sin(dec*rad)*math.Sin(dec0*rad) + math.Cos(dec*rad)*math.Cos(dec0*rad)*math.Cos((ra-ra0)*rad)
	return math.Acos(math.Min(1, math.Max(-1, d)))/rad <= radius
}

// newTestCatalog 创建 sqlite 星表和指向它的凭据文件，返回凭据文件路径
func newTestCatalog(t *testing.T) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "tic.db")

	db, err := sql.Open(testDriver, path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE ticentries (
			id INTEGER PRIMARY KEY,
			ra REAL NOT NULL,
			dec REAL NOT NULL,
			tmag REAL,
			objtype TEXT
		)`,
		`INSERT INTO ticentries (id, ra, dec, tmag, objtype) VALUES
			(1, 10.0, 20.0, 9.5, 'STAR'),
			(2, 10.1, 20.1, 11.0, 'STAR'),
			(3, 200.0, -45.0, NULL, 'EXTENDED'),
			(4, 10.05, 19.95, 12.5, 'STAR'),
			(5, 300.0, 60.0, 8.0, 'STAR'),
			(6, 10.0, 20.3, 13.0, 'EXTENDED'),
			(7, 150.0, 0.0, 10.0, 'STAR')`,
		`CREATE TABLE nopk (id INTEGER, name TEXT)`,
		`INSERT INTO nopk (id, name) VALUES (1, 'a'), (2, 'b')`,
		`CREATE TABLE noid (name TEXT, tmag REAL)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}

	conf := filepath.Join(dir, "db.conf")
	content := fmt.Sprintf(`[tic_82]
username = tic
password = secret
dialect = sqlite
driver = %s
database = %s
maxConns = 4
maxIdle = 4
`, testDriver, path)
	if err := os.WriteFile(conf, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return conf
}

func newTestClient(t *testing.T, options *ClientOptions) *Client {
	if options == nil {
		options = &ClientOptions{}
	}
	if options.ConfigPath == "" && options.Cache == nil {
		options.ConfigPath = newTestCatalog(t)
	}
	if options.Registerer == nil {
		options.Registerer = prometheus.NewRegistry()
	}
	options.EnableMetrics = true

	client, err := NewClientWithOptions(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func resultIDs(t *testing.T, values []any) []int64 {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, ok := v.(int64)
		if !ok {
			t.Fatalf("unexpected id %v (%T)", v, v)
		}
		ids = append(ids, id)
	}
	return ids
}
