package platform

import (
	"reflect"
	"testing"
)

func TestBuildGlobalArgs(t *testing.T) {
	tests := []struct {
		name     string
		opts     RunOptions
		expected []string
	}{
		{
			name:     "empty options produce no flags",
			opts:     RunOptions{},
			expected: nil,
		},
		{
			name:     "debug flag",
			opts:     RunOptions{Debug: true},
			expected: []string{"--debug"},
		},
		{
			name:     "proxy flag",
			opts:     RunOptions{Proxy: "socks5://127.0.0.1:1080"},
			expected: []string{"--proxy", "socks5://127.0.0.1:1080"},
		},
		{
			name:     "storage with explicit driver",
			opts:     RunOptions{StorageDriver: "file", StoragePath: "/data/tdl"},
			expected: []string{"--storage", "type=file,path=/data/tdl"},
		},
		{
			name:     "storage defaults to bolt driver",
			opts:     RunOptions{StoragePath: "/data/tdl"},
			expected: []string{"--storage", "type=bolt,path=/data/tdl"},
		},
		{
			name:     "storage path empty omits flag entirely",
			opts:     RunOptions{StorageDriver: "file"},
			expected: nil,
		},
		{
			name:     "non-default namespace",
			opts:     RunOptions{Namespace: "work"},
			expected: []string{"--ns", "work"},
		},
		{
			name:     "default namespace omitted",
			opts:     RunOptions{Namespace: "default"},
			expected: nil,
		},
		{
			name:     "ntp server",
			opts:     RunOptions{NTPServer: "pool.ntp.org"},
			expected: []string{"--ntp", "pool.ntp.org"},
		},
		{
			name:     "non-default reconnect timeout",
			opts:     RunOptions{ReconnectTimeout: "10m"},
			expected: []string{"--reconnect-timeout", "10m"},
		},
		{
			name:     "default reconnect timeout omitted",
			opts:     RunOptions{ReconnectTimeout: "5m"},
			expected: nil,
		},
		{
			name: "combined flags keep stable order",
			opts: RunOptions{
				Debug:            true,
				Proxy:            "http://proxy:8080",
				StoragePath:      "/data/tdl",
				Namespace:        "work",
				NTPServer:        "pool.ntp.org",
				ReconnectTimeout: "10m",
			},
			expected: []string{
				"--debug",
				"--proxy", "http://proxy:8080",
				"--storage", "type=bolt,path=/data/tdl",
				"--ns", "work",
				"--ntp", "pool.ntp.org",
				"--reconnect-timeout", "10m",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildGlobalArgs(tt.opts)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
