package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type registryRequest struct {
	InstanceCount int `json:"instance_count" yaml:"instance_count"`
	BufferSize    int `json:"buffer_size" yaml:"buffer_size"`
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    string
		want    registryRequest
		wantErr bool
	}{
		{"yaml", "r.yaml", "instance_count: 4\nbuffer_size: 2048\n", registryRequest{4, 2048}, false},
		{"yml", "r.yml", "instance_count: 2\n", registryRequest{2, 0}, false},
		{"json", "r.json", `{"instance_count": 8, "buffer_size": 16}`, registryRequest{8, 16}, false},
		{"sniff json", "r.conf", `{"buffer_size": 64}`, registryRequest{0, 64}, false},
		{"bad json", "r.json", `{"instance_count":`, registryRequest{}, true},
		{"bad yaml", "r.yaml", "instance_count: [", registryRequest{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got registryRequest
			err := ParseRequest([]byte(tt.data), tt.file, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRequest error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseRequest = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	if err := os.WriteFile(path, []byte("instance_count: 3\nbuffer_size: 512\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var got registryRequest
	if err := LoadRequest(path, &got); err != nil {
		t.Fatal(err)
	}
	if got != (registryRequest{3, 512}) {
		t.Errorf("LoadRequest = %+v", got)
	}
	if err := LoadRequest(filepath.Join(t.TempDir(), "missing.yaml"), &got); err == nil {
		t.Error("LoadRequest of missing file should fail")
	}
}

func TestLoadRequestFrom(t *testing.T) {
	var got registryRequest
	if err := LoadRequestFrom(strings.NewReader("buffer_size: 99"), &got); err != nil {
		t.Fatal(err)
	}
	if got.BufferSize != 99 {
		t.Errorf("BufferSize = %d", got.BufferSize)
	}
}
