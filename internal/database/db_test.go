package database_test

import (
	"testing"

	"github.com/filerelay/filerelay/internal/database"
)

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "plain path", path: "filerelay.db", want: "filerelay.db"},
		{name: "file url", path: "file:filerelay.db", want: "filerelay.db"},
		{name: "with options", path: "file:filerelay.db?cache=shared&mode=rwc", want: "filerelay.db"},
		{name: "escaped path", path: "file:data%20dir/filerelay.db", want: "data dir/filerelay.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := database.ExtractDBNameFromPath(tt.path); got != tt.want {
				t.Errorf("ExtractDBNameFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
