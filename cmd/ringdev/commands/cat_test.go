package commands

import (
	"testing"

	"github.com/haivivi/ringdev/pkg/devnet"
)

func TestCheckChunk(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{-1, true},
		{0, true},
		{1, false},
		{4096, false},
		{devnet.MaxTransfer, false},
		{devnet.MaxTransfer + 1, true},
	}
	for _, tt := range tests {
		if err := checkChunk(tt.n); (err != nil) != tt.wantErr {
			t.Errorf("checkChunk(%d) err=%v, wantErr %v", tt.n, err, tt.wantErr)
		}
	}
}
