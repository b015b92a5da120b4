package storage

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMapStorage_Sub(t *testing.T) {
	s := NewMapStorage(map[string]any{
		"tic_82": map[string]any{"host": "db", "port": "5432"},
		"a.b":    map[string]any{"k": "v"},
		"list":   []any{"x", "y"},
	})

	if got := s.Sub("tic_82.host"); got == nil || got.(*MapStorage).Data() != "db" {
		t.Errorf("Sub(tic_82.host) = %v", got)
	}
	if got := s.Sub("a.b"); got == nil {
		t.Error("Sub should match keys containing dots")
	}
	if got := s.Sub("list.1"); got == nil || got.(*MapStorage).Data() != "y" {
		t.Errorf("Sub(list.1) = %v", got)
	}
	if got := s.Sub("missing"); got != nil {
		t.Errorf("Sub(missing) = %v, want nil", got)
	}
	if got := s.Sub(""); got != s {
		t.Error("Sub(\"\") should return itself")
	}

	keys := s.Keys()
	if len(keys) != 3 || keys[0] != "a.b" || keys[1] != "list" || keys[2] != "tic_82" {
		t.Errorf("Keys() = %v", keys)
	}
	if NewMapStorage("scalar").Keys() != nil {
		t.Error("Keys() of scalar should be nil")
	}
}

func TestMapStorage_ConvertTo(t *testing.T) {
	type Options struct {
		Username string            `cfg:"username"`
		Password string            `cfg:"password"`
		Port     int               `cfg:"port"`
		MaxIdle  uint8             `cfg:"maxIdle"`
		Ratio    float64           `cfg:"ratio"`
		Debug    bool              `cfg:"debug"`
		Timeout  time.Duration     `cfg:"timeout"`
		Hosts    []string          `cfg:"hosts"`
		Labels   map[string]string `cfg:"labels"`
		Extra    any               `cfg:"extra"`
		Ignored  string            `cfg:"-"`
		Plain    string
	}

	tests := []struct {
		name    string
		data    any
		want    func(o *Options) bool
		wantErr bool
	}{
		{
			name: "string values from ini",
			data: map[string]any{
				"username": "u", "password": "007", "port": "5432", "maxIdle": "5",
				"ratio": "0.25", "debug": "true", "timeout": "1m", "hosts": "a, b",
				"ignored": "x", "plain": "p",
			},
			want: func(o *Options) bool {
				return o.Username == "u" && o.Password == "007" && o.Port == 5432 && o.MaxIdle == 5 &&
					o.Ratio == 0.25 && o.Debug && o.Timeout == time.Minute &&
					len(o.Hosts) == 2 && o.Hosts[1] == "b" && o.Ignored == "" && o.Plain == "p"
			},
		},
		{
			name: "typed values from yaml",
			data: map[string]any{
				"password": 1234, "port": 5432, "ratio": 1, "timeout": 1.5,
				"labels": map[string]any{"env": "prod"}, "extra": []any{1},
			},
			want: func(o *Options) bool {
				return o.Password == "1234" && o.Port == 5432 && o.Ratio == 1 &&
					o.Timeout == 1500*time.Millisecond && o.Labels["env"] == "prod" && o.Extra != nil
			},
		},
		{
			name: "json numbers",
			data: map[string]any{"port": json.Number("6543"), "password": json.Number("42")},
			want: func(o *Options) bool { return o.Port == 6543 && o.Password == "42" },
		},
		{name: "bad int", data: map[string]any{"port": "x"}, wantErr: true},
		{name: "non integral", data: map[string]any{"port": 1.5}, wantErr: true},
		{name: "overflow", data: map[string]any{"maxIdle": 300}, wantErr: true},
		{name: "negative uint", data: map[string]any{"maxIdle": -1}, wantErr: true},
		{name: "not a map", data: "scalar", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Options
			err := NewMapStorage(tt.data).ConvertTo(&o)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ConvertTo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want != nil && !tt.want(&o) {
				t.Errorf("unexpected result %+v", o)
			}
		})
	}

	if err := NewMapStorage(map[string]any{}).ConvertTo(Options{}); err == nil {
		t.Error("ConvertTo non-pointer should fail")
	}
}
