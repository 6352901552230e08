package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFile string
		wantLine int
		wantErr  bool
	}{
		{name: "simple", args: []string{"/tmp/a.go:10"}, wantFile: "/tmp/a.go", wantLine: 10},
		{name: "relative path", args: []string{"main.go:1"}, wantFile: "main.go", wantLine: 1},
		{name: "windows-style drive colon", args: []string{"C:/src/main.go:7"}, wantFile: "C:/src/main.go", wantLine: 7},
		{name: "no colon", args: []string{"main.go"}, wantErr: true},
		{name: "missing line", args: []string{"main.go:"}, wantErr: true},
		{name: "non-numeric line", args: []string{"main.go:ten"}, wantErr: true},
		{name: "zero line", args: []string{"main.go:0"}, wantErr: true},
		{name: "no args", args: nil, wantErr: true},
		{name: "too many args", args: []string{"a.go:1", "b.go:2"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, line, err := parseLocation(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFile, file)
			assert.Equal(t, tt.wantLine, line)
		})
	}
}
