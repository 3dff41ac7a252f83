package platform

import "fmt"

// Default values tdl assumes when a flag is omitted
const (
	DefaultNamespace        = "default"
	DefaultStorageDriver    = "bolt"
	DefaultReconnectTimeout = "5m"
)

// RunOptions carries the global tdl flags derived from settings. They are
// read once at job-start time; later settings changes do not retroactively
// apply to a running job.
type RunOptions struct {
	Debug            bool
	Proxy            string
	StorageDriver    string
	StoragePath      string
	Namespace        string
	NTPServer        string
	ReconnectTimeout string
}

// BuildGlobalArgs converts run options into tdl global command-line flags.
// Flags matching tdl's own defaults are omitted to keep command lines short.
func BuildGlobalArgs(opts RunOptions) []string {
	var args []string

	if opts.Debug {
		args = append(args, "--debug")
	}
	if opts.Proxy != "" {
		args = append(args, "--proxy", opts.Proxy)
	}
	if opts.StoragePath != "" {
		driver := opts.StorageDriver
		if driver == "" {
			driver = DefaultStorageDriver
		}
		args = append(args, "--storage", fmt.Sprintf("type=%s,path=%s", driver, opts.StoragePath))
	}
	if opts.Namespace != "" && opts.Namespace != DefaultNamespace {
		args = append(args, "--ns", opts.Namespace)
	}
	if opts.NTPServer != "" {
		args = append(args, "--ntp", opts.NTPServer)
	}
	if opts.ReconnectTimeout != "" && opts.ReconnectTimeout != DefaultReconnectTimeout && opts.ReconnectTimeout != "0s" {
		args = append(args, "--reconnect-timeout", opts.ReconnectTimeout)
	}

	return args
}
