package data

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goreplicate/domain/core"
)

func TestParseExclusions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []core.SubjectID
	}{
		{"one per line", "4\n9\n\n12\n", []core.SubjectID{"4", "9", "12"}},
		{"header", "sid\n4\n9\n", []core.SubjectID{"4", "9"}},
		{"header in second column", "reason,wid\nlate,4\nbot,9\n", []core.SubjectID{"4", "9"}},
		{"comments and duplicates", "# dropped after session 1\n4\n4\n9.0\n", []core.SubjectID{"4", "9"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExclusions(strings.NewReader(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadExclusions(t *testing.T) {
	r := NewDataReader(nil)

	ids, err := r.ReadExclusions(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, ids)

	ids, err = r.ReadExclusions(context.Background(), writeFile(t, "ex.csv", "sid\n3\n"))
	require.NoError(t, err)
	assert.Equal(t, []core.SubjectID{"3"}, ids)

	_, err = r.ReadExclusions(context.Background(), "/nonexistent/exclusions.csv")
	assert.Error(t, err)
}
