// Package util is a set of utility variables or methods
package util

import (
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

var SupportedExt = mapset.NewSet(
	".png",
	".jpg", ".jpeg",
	".gif",
)

// NormalizedExt returns the lower-cased extension of name and whether uploads with it are accepted.
func NormalizedExt(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	return ext, ext != "" && SupportedExt.Contains(ext)
}
