package note

import (
	"path"
	"strings"
)

const (
	sidecarDir       = ".metadata"
	primaryExtension = ".md"
	sidecarExtension = ".json"
)

// SidecarSegment is the path segment that marks metadata objects.
const SidecarSegment = "/" + sidecarDir + "/"

// UserPrefix is the namespace every object of the user lives under.
func UserPrefix(email string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "/"
}

// PrimaryKey returns <email>/<id>.md.
func PrimaryKey(email, id string) string {
	return UserPrefix(email) + id + primaryExtension
}

// SidecarKey returns <email>/.metadata/<id>.json.
func SidecarKey(email, id string) string {
	return UserPrefix(email) + sidecarDir + "/" + id + sidecarExtension
}

// IsSidecarKey reports whether the key lives in a metadata namespace.
func IsSidecarKey(key string) bool {
	return strings.Contains(key, SidecarSegment) || strings.HasPrefix(key, sidecarDir+"/")
}

// IsPrimaryKey reports whether the key is a note body.
func IsPrimaryKey(key string) bool {
	return strings.HasSuffix(key, primaryExtension) && !IsSidecarKey(key)
}

// IDFromKey extracts the note id from a primary or sidecar key.
func IDFromKey(key string) string {
	base := path.Base(key)
	base = strings.TrimSuffix(base, primaryExtension)
	return strings.TrimSuffix(base, sidecarExtension)
}

// Folder returns the directory part of a key including the trailing slash,
// which is the attribute the search index filters on.
func Folder(key string) string {
	idx := strings.LastIndex(key, "/")
	if idx < 0 {
		return ""
	}
	return key[:idx+1]
}
