// Package util holds the wording helpers vmm's command output shares.
package util

import (
	"strconv"
	"strings"
)

// Count renders n with noun, adding "s" unless n is 1: "1 VM", "3 VMs".
func Count(n int, noun string) string {
	if n != 1 {
		noun += "s"
	}
	return strconv.Itoa(n) + " " + noun
}

// OrList renders choices the way they read in a hint: "on", "on or off",
// "on, off or suspend". An empty list is "(none)".
func OrList(choices []string) string {
	switch len(choices) {
	case 0:
		return "(none)"
	case 1:
		return choices[0]
	default:
		last := len(choices) - 1
		return strings.Join(choices[:last], ", ") + " or " + choices[last]
	}
}
