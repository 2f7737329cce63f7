package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	got := DedupeAndTrim([]string{" kafka-1:9092", "kafka-2:9092 ", "", "kafka-1:9092", "  "})
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, got)

	assert.Empty(t, DedupeAndTrim(nil))
}
