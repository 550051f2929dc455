// package main ...
package main

// import ...
import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"paepcke.de/ioc2rules"
)

// const shortcuts
const (
	// DEFAULTS  [convinient build time defaults]
	_APPNAME          = "IOC2RULES"
	_DEFAULT_DIR      = "."
	_DEFAULT_SURICATA = "/etc/suricata"

	// ENV VAR NAMES
	_ENV_DIR      = _APPNAME + "_DIR"
	_ENV_SURICATA = _APPNAME + "_SURICATA"
	_ENV_OUTFILE  = _APPNAME + "_OUTFILE"
	_ENV_SOURCES  = _APPNAME + "_SOURCES"
	_ENV_FETCH    = _APPNAME + "_FETCH"
	_ENV_COMPRESS = _APPNAME + "_COMPRESS"
	_ENV_NOPATCH  = _APPNAME + "_NOPATCH"
)

// main ..
func main() {
	// syntax exit
	if len(os.Args) > 1 {
		syntax()
		os.Exit(0)
	}
	os.Exit(run())
}

// run ...
func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ask env about base and system dir
	layout := ioc2rules.Layout{Base: getEnv(_ENV_DIR, _DEFAULT_DIR), Suricata: getEnv(_ENV_SURICATA, _DEFAULT_SURICATA)}

	// ask env about the source table
	sources := ioc2rules.DefaultSources()
	if file, ok := syscall.Getenv(_ENV_SOURCES); ok {
		s, err := ioc2rules.LoadSources(file)
		if err != nil {
			out(err.Error())
			return 1
		}
		sources = s
	}

	// ask env about target filename
	outfile, ok := syscall.Getenv(_ENV_OUTFILE)
	if !ok {
		f, err := layout.OutFile()
		if err != nil {
			out(err.Error())
			return 1
		}
		outfile = f
	}

	// generate, write, patch
	report, err := ioc2rules.GenerateRules(ctx, ioc2rules.Config{
		Sources:       sources,
		FeedDir:       layout.FeedDir(),
		OutFile:       outfile,
		HostConfigs:   layout.HostConfigs(),
		Fetch:         isEnv(_ENV_FETCH),
		FetchCompress: isEnv(_ENV_COMPRESS),
		NoPatch:       isEnv(_ENV_NOPATCH),
	})
	if errors.Is(err, ioc2rules.ErrNoRules) {
		out(err.Error())
		out("run with " + _ENV_FETCH + "=1 or place the feed files into " + layout.FeedDir() + " first")
		return 1
	}
	if err != nil {
		out(err.Error())
		return 1
	}
	out("done, " + report.OutFile + " written. restart or reload suricata to apply changes")
	out("example: sudo systemctl reload suricata")
	return 0
}

// syntax ...
func syntax() {
	out("syntax : ioc2rules")
	out("compiles ip/cidr ioc feeds from <dir>/feeds into suricata drop rules")
	out("")
	out("env vars")
	out(_ENV_DIR + " [base dir, default " + _DEFAULT_DIR + "]")
	out(_ENV_SURICATA + " [system suricata dir, default " + _DEFAULT_SURICATA + "]")
	out(_ENV_OUTFILE + " [output filename]")
	out(_ENV_SOURCES + " [yaml source table]")
	out(_ENV_FETCH + " [download missing feeds]")
	out(_ENV_COMPRESS + " [store downloaded feeds zstd compressed]")
	out(_ENV_NOPATCH + " [do not touch suricata.yaml]")
	out("HTTPS_PROXY, SSL_CERT_[FILE|DIR]")
}

//
// LITTLE GENERIC HELPER SECTION
//

// out ...
func out(msg string) {
	os.Stdout.Write([]byte(msg + "\n"))
}

// getEnv ...
func getEnv(key, fallback string) string {
	if env, ok := syscall.Getenv(key); ok && env != "" {
		return env
	}
	return fallback
}

// isEnv ...
func isEnv(key string) bool {
	_, ok := syscall.Getenv(key)
	return ok
}
