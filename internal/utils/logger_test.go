package utils

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerLevelParsing(t *testing.T) {
	if got := NewLogger(" DEBUG ").GetLevel(); got != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", got)
	}
	if got := NewLogger("warn").GetLevel(); got != logrus.WarnLevel {
		t.Errorf("Expected warn level, got %v", got)
	}
	if got := NewLogger("nonsense").GetLevel(); got != logrus.InfoLevel {
		t.Errorf("Expected info fallback, got %v", got)
	}
}
