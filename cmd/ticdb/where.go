package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mit-kavli-institute/ticdb/rdb/query"
)

// parseWhere 解析 column__operator=value
// in/notin 的值按逗号切分为列表
func parseWhere(expr string) (string, any, error) {
	name, raw, ok := strings.Cut(expr, "=")
	if !ok {
		return "", nil, errors.Wrapf(query.ErrInvalidKeyword, "%q: expected column__operator=value", expr)
	}
	name = strings.TrimSpace(name)
	_, op, err := query.ParseKeyword(name)
	if err != nil {
		return "", nil, err
	}

	if op == "in" || op == "notin" {
		parts := strings.Split(raw, ",")
		values := make([]any, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, parseValue(part))
			}
		}
		return name, values, nil
	}
	return name, parseValue(strings.TrimSpace(raw)), nil
}

// parseValue 依次尝试 null、整数、浮点数、布尔值，引号包围的值保留为字符串
func parseValue(s string) any {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	if strings.EqualFold(s, "null") {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
