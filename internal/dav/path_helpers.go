package dav

import (
	"path"
	"strings"
)

// filesPrefix is the URL prefix under which file resources live.
const filesPrefix = "/dav/files"

// parseFilePath extracts the file name from a DAV URL path. Paths are
// cleaned before matching, so traversal segments cannot escape the files
// tree. Returns false for the collection root and anything outside it.
func parseFilePath(rawPath string) (string, bool) {
	cleanPath := path.Clean("/" + rawPath)
	if !strings.HasPrefix(cleanPath, filesPrefix+"/") {
		return "", false
	}
	name := strings.TrimPrefix(cleanPath, filesPrefix+"/")
	if name == "" || name == "." {
		return "", false
	}
	return name, true
}
