package sqlbase

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationManager_LatestVersion(t *testing.T) {
	tests := []struct {
		name       string
		migrations map[int]string
		want       int
	}{
		{name: "no migrations", migrations: map[int]string{}, want: 0},
		{name: "single", migrations: map[int]string{1: "SELECT 1"}, want: 1},
		{name: "unordered", migrations: map[int]string{3: "", 1: "", 2: ""}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMigrationManager(slog.Default(), nil, tt.migrations)
			assert.Equal(t, tt.want, m.LatestVersion())
		})
	}
}
