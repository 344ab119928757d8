package sdccc

import (
	"fmt"
	"sort"
)

// Args holds additional command line arguments for the SDCcc executable,
// keyed by flag name without the leading dashes. Boolean true values become
// bare flags, false values are omitted, everything else is rendered with
// fmt.Sprint as a flag value.
type Args map[string]any

// BuildArgs renders an Args map into an argument vector. Keys are emitted
// in sorted order so the resulting command line is deterministic.
func BuildArgs(args Args) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	argv := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		switch v := args[k].(type) {
		case bool:
			if v {
				argv = append(argv, "--"+k)
			}
		default:
			argv = append(argv, "--"+k, fmt.Sprint(v))
		}
	}
	return argv
}
