// package ioc2rules compiles ip/cidr ioc feeds into suricata drop rules
package ioc2rules

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"paepcke.de/ioc2rules/feedfetch"
)

// ErrNoRules is returned when no source produced a single rule
var ErrNoRules = errors.New("[ioc2rules] no rules generated, check if feeds were downloaded correctly")

// Config ...
type Config struct {
	Sources       []Source // source table, processed in order
	FeedDir       string   // directory holding the feed files
	OutFile       string   // rule file to (over)write
	HostConfigs   []string // suricata.yaml candidates, first existing one is patched
	Fetch         bool     // fetch missing feeds with an url
	FetchCompress bool     // store fetched feeds zstd compressed
	NoPatch       bool     // skip the host config patch
}

// SourceStat ...
type SourceStat struct {
	Name       string
	Missing    bool // feed file not found
	Loaded     int  // unique valid entries
	Rejected   int  // junk lines
	Duplicates int  // repeated entries
	Rules      int  // emitted drop rules, capped at MaxRulesPerSource
	FirstSID   int
	LastSID    int
}

// Report ...
type Report struct {
	Sources    []SourceStat
	Total      int
	OutFile    string
	HostConfig string
	Patched    bool
}

// GenerateRules loads every source feed, writes the rule file and patches the host config.
// It fails with ErrNoRules before writing anything if no rule was generated.
// Host config problems are reported as warnings only.
func GenerateRules(ctx context.Context, c Config) (Report, error) {
	// setup
	t0 := time.Now()
	report := Report{OutFile: c.OutFile}
	if err := ValidateSources(c.Sources); err != nil {
		return report, err
	}
	if c.OutFile == _empty {
		return report, errors.New("[ioc2rules] no output file defined")
	}
	if err := os.MkdirAll(c.FeedDir, 0o755); err != nil {
		return report, errors.New("[ioc2rules] unable to create feed dir [" + err.Error() + "]")
	}
	info("starting ioc rules generation")

	// load, number
	var rules []Rule
	for _, src := range c.Sources {
		stat, entries := loadSource(ctx, c, src)
		generated := generateDropRules(src, entries)
		stat.Rules = len(generated)
		if stat.Rules > 0 {
			stat.FirstSID = generated[0].SID
			stat.LastSID = generated[len(generated)-1].SID
		}
		report.Sources = append(report.Sources, stat)
		rules = append(rules, generated...)
		reportSource(stat)
	}
	report.Total = len(rules)
	if report.Total == 0 {
		return report, ErrNoRules
	}

	// write
	if err := os.MkdirAll(filepath.Dir(c.OutFile), 0o755); err != nil {
		return report, errors.New("[ioc2rules] unable to create rules dir [" + err.Error() + "]")
	}
	if err := os.WriteFile(c.OutFile, assemble(t0, report.Sources, rules), 0o644); err != nil {
		return report, errors.New("[ioc2rules] unable to write rules [" + err.Error() + "]")
	}
	info(pad("total", 30) + strconv.Itoa(report.Total) + " rule(s) -> " + c.OutFile)

	// patch host config
	if !c.NoPatch {
		file, patched, err := PatchHostConfig(c.HostConfigs, c.OutFile)
		report.HostConfig, report.Patched = file, patched
		name := filepath.Base(c.OutFile)
		switch {
		case errors.Is(err, ErrNoHostConfig):
			warn(HostConfigName + " not found, cannot update config")
			warn("you may need to manually add " + name + " to " + HostConfigName)
		case err != nil:
			warn(err.Error())
		case patched:
			info("added " + name + " to " + file)
		default:
			info(name + " already included in " + file)
		}
	}

	info(pad("time needed", 30) + time.Since(t0).String())
	return report, nil
}

// loadSource resolves, optionally fetches and parses the feed of src
func loadSource(ctx context.Context, c Config, src Source) (SourceStat, []Entry) {
	stat := SourceStat{Name: src.Name}
	base := filepath.Join(c.FeedDir, src.File)
	file, ok := findFeed(base)
	if !ok && c.Fetch {
		f, err := feedfetch.Ensure(ctx, feedfetch.Feed{Name: src.Name, URL: src.URL, File: base}, feedfetch.Options{Compress: c.FetchCompress})
		switch {
		case errors.Is(err, feedfetch.ErrNoURL):
		case err != nil:
			warn("[" + src.Name + "] " + err.Error())
		default:
			file, ok = f, true
		}
	}
	if !ok {
		warn("file " + base + " not found, skipping")
		stat.Missing = true
		return stat, nil
	}
	r, err := getReader(file)
	if err != nil {
		warn(err.Error())
		stat.Missing = true
		return stat, nil
	}
	defer r.Close()
	res, err := parseFeed(r, src.Ranges)
	if err != nil {
		warn("[" + src.Name + "] read error [" + err.Error() + "]")
	}
	stat.Loaded, stat.Rejected, stat.Duplicates = len(res.entries), res.rejected, res.duplicates
	return stat, res.entries
}

// reportSource prints the per source summary line
func reportSource(s SourceStat) {
	if s.Missing {
		return
	}
	name := pad(" + "+s.Name, 30)
	if s.Rules == 0 {
		warn(name + "no valid ips loaded")
		return
	}
	info(name + pad(strconv.Itoa(s.Rules), 7) + " rule(s) [sid " + strconv.Itoa(s.FirstSID) + "-" + strconv.Itoa(s.LastSID) +
		"] [rejected " + strconv.Itoa(s.Rejected) + "] [duplicates " + strconv.Itoa(s.Duplicates) + "]")
}
