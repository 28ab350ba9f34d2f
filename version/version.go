// Package version reports the version of the trackmix commands.
package version

import "runtime/debug"

// Version can be set at build time with
// go build -ldflags "-X github.com/trackmix/trackmix/version.Version=$(git describe --dirty)"
var Version string

// VersionOrHash is Version if it was set, otherwise the description read
// from the build info of the binary.
var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	info, _ := debug.ReadBuildInfo()
	return FromBuildInfo(info)
}()

// FromBuildInfo describes a build by its short vcs revision, marked -dirty
// when the tree had local changes, or by its module version when the binary
// was built without vcs stamping, e.g. by go install. It returns "" when
// neither is known.
func FromBuildInfo(info *debug.BuildInfo) string {
	if info == nil {
		return ""
	}
	var revision string
	modified := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if revision != "" {
		revision = revision[:min(len(revision), 7)]
		if modified {
			revision += "-dirty"
		}
		return revision
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return ""
}

// Banner returns the name of a command followed by its version, if known.
func Banner(name string) string {
	if VersionOrHash == "" {
		return name
	}
	return name + " " + VersionOrHash
}
