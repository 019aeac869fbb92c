package buildinfo

import "runtime/debug"

// Injectées via -ldflags, par exemple:
//
//	-X github.com/eyalcha/kan-program/internal/buildinfo.Version=v0.3.0
//	-X github.com/eyalcha/kan-program/internal/buildinfo.Commit=abcdef
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"goVersion,omitempty"`
}

// Current complète les valeurs manquantes avec les infos VCS embarquées par go build.
func Current() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		}
	}
	return info
}
