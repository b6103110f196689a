package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDashHelpers(t *testing.T) {
	assert.Equal(t, "-", stringOrDash(""))
	assert.Equal(t, "", dashToEmpty("-"))
	assert.Equal(t, "site", dashToEmpty("site"))
}

func TestLatestLimitIsClamped(t *testing.T) {
	assert.Equal(t, 20, clampLimit(-1))
	assert.Equal(t, maxLatest, clampLimit(maxLatest+1))
}

func TestConnectRejectsEmptyDSN(t *testing.T) {
	_, err := Connect(context.Background(), "")
	assert.Error(t, err)
}
