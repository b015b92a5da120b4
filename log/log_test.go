package log

import (
	"testing"

	"github.com/mit-kavli-institute/ticdb/log/logger"
)

func TestDefault(t *testing.T) {
	original := Default()
	if original == nil {
		t.Fatal("default logger should be initialized")
	}
	defer SetDefault(original)

	discard := logger.NewDiscard()
	SetDefault(discard)
	if Default() != discard {
		t.Error("SetDefault did not replace the default logger")
	}

	SetDefault(nil)
	if Default() != discard {
		t.Error("SetDefault(nil) should be ignored")
	}
}
