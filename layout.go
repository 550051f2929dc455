package ioc2rules

import (
	"errors"
	"os"
	"path/filepath"
)

// default file system layout
const (
	RuleFileName   = "custom_ioc.rules"
	HostConfigName = "suricata.yaml"
	FeedDirName    = "feeds"
	RulesDirName   = "rules"
)

// Layout resolves the working locations relative to a base dir and a system suricata dir
type Layout struct {
	Base     string // local base dir, holds feeds/, rules/ and an optional suricata.yaml
	Suricata string // system suricata dir, e.g. /etc/suricata
}

// FeedDir ...
func (l Layout) FeedDir() string { return filepath.Join(l.Base, FeedDirName) }

// OutFile returns the system rules file if the system rules dir exists,
// the local fallback otherwise. Local dirs are created on demand.
func (l Layout) OutFile() (string, error) {
	if l.Suricata != _empty {
		if sys := filepath.Join(l.Suricata, RulesDirName); isDir(sys) {
			return filepath.Join(sys, RuleFileName), nil
		}
	}
	dir := filepath.Join(l.Base, RulesDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return _empty, errors.New("[layout] unable to create [" + dir + "] [" + err.Error() + "]")
	}
	return filepath.Join(dir, RuleFileName), nil
}

// HostConfigs lists the host config candidates, local copy first
func (l Layout) HostConfigs() []string {
	c := []string{filepath.Join(l.Base, HostConfigName)}
	if l.Suricata != _empty {
		c = append(c, filepath.Join(l.Suricata, HostConfigName))
	}
	return c
}
