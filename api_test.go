package ioc2rules

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig returns a config rooted in a fresh temp dir
func testConfig(t *testing.T, src ...Source) Config {
	t.Helper()
	l := Layout{Base: t.TempDir()}
	out, err := l.OutFile()
	require.NoError(t, err)
	return Config{
		Sources:     src,
		FeedDir:     l.FeedDir(),
		OutFile:     out,
		HostConfigs: l.HostConfigs(),
	}
}

func writeFeed(t *testing.T, c Config, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(c.FeedDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(c.FeedDir, name), data, 0o644))
}

func dropLines(t *testing.T, file string) []string {
	t.Helper()
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var drops []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "drop ") {
			drops = append(drops, line)
		}
	}
	return drops
}

// captureStdout returns everything fn writes to os.Stdout
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	done := make(chan string)
	go func() {
		data, _ := io.ReadAll(r)
		done <- string(data)
	}()
	defer func() { os.Stdout = stdout }()
	fn()
	w.Close()
	return <-done
}

func TestGenerateRulesEndToEnd(t *testing.T) {
	src := testSource()
	aws := Source{Name: "aws", File: "aws_ips.txt", BaseSID: 9400000, MsgPrefix: "[IPS] AWS IP", Classtype: "policy-violation"}
	c := testConfig(t, src, aws)
	writeFeed(t, c, src.File, []byte("1.2.3.4\n10.0.0.0/8\n999.1.1.1\n\n"))

	var report Report
	var err error
	output := captureStdout(t, func() { report, err = GenerateRules(context.Background(), c) })
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Regexp(t, `\[info\] total\s+2 rule\(s\) -> `, output)
	require.Len(t, report.Sources, 2)
	assert.Equal(t, SourceStat{Name: "feodo", Loaded: 2, Rejected: 1, Rules: 2, FirstSID: 9000000, LastSID: 9000001}, report.Sources[0])
	assert.True(t, report.Sources[1].Missing)

	drops := dropLines(t, c.OutFile)
	require.Len(t, drops, 2)
	assert.Contains(t, drops[0], "drop ip 1.2.3.4 any -> $HOME_NET any")
	assert.Contains(t, drops[0], "sid:9000000;")
	assert.Contains(t, drops[1], "drop ip 10.0.0.0/8 any -> $HOME_NET any")
	assert.Contains(t, drops[1], "sid:9000001;")
	assert.False(t, report.Patched)
	assert.Empty(t, report.HostConfig)
}

func TestGenerateRulesMissingFeedWarnsOnce(t *testing.T) {
	src := testSource()
	aws := Source{Name: "aws", File: "aws_ips.txt", BaseSID: 9400000, MsgPrefix: "[IPS] AWS IP", Classtype: "policy-violation"}
	c := testConfig(t, src, aws)
	writeFeed(t, c, src.File, []byte("1.2.3.4\n"))

	var err error
	output := captureStdout(t, func() { _, err = GenerateRules(context.Background(), c) })
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(output, "aws_ips.txt not found, skipping"))
	assert.NotContains(t, output, "no valid ips loaded")
}

func TestGenerateRulesLongFeedLine(t *testing.T) {
	src := testSource()
	c := testConfig(t, src)
	writeFeed(t, c, src.File, []byte("1.2.3.4\n5.6.7.8\n"+strings.Repeat("x", 2<<20)+"\n9.9.9.9\n"))

	report, err := GenerateRules(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Sources[0].Rejected)
	assert.Len(t, dropLines(t, c.OutFile), 3)
}

func TestGenerateRulesNoRules(t *testing.T) {
	src := testSource()
	c := testConfig(t, src)
	writeFeed(t, c, src.File, []byte("# nothing here\n999.9.9.9\n"))

	report, err := GenerateRules(context.Background(), c)
	assert.ErrorIs(t, err, ErrNoRules)
	assert.Zero(t, report.Total)
	assert.NoFileExists(t, c.OutFile)
}

func TestGenerateRulesInvalidConfig(t *testing.T) {
	c := testConfig(t)
	_, err := GenerateRules(context.Background(), c)
	assert.Error(t, err)

	c = testConfig(t, testSource())
	c.OutFile = ""
	_, err = GenerateRules(context.Background(), c)
	assert.Error(t, err)
}

func TestGenerateRulesCap(t *testing.T) {
	src := testSource()
	c := testConfig(t, src)
	var b strings.Builder
	for i := 0; i < 1500; i++ {
		fmt.Fprintf(&b, "10.%d.%d.1\n", i/250, i%250)
	}
	writeFeed(t, c, src.File, []byte(b.String()))

	report, err := GenerateRules(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, MaxRulesPerSource, report.Total)
	assert.Equal(t, 1500, report.Sources[0].Loaded)
	assert.Equal(t, src.BaseSID+MaxRulesPerSource-1, report.Sources[0].LastSID)
	assert.Len(t, dropLines(t, c.OutFile), MaxRulesPerSource)
}

func TestGenerateRulesStableOrder(t *testing.T) {
	src := testSource()
	c1, c2 := testConfig(t, src), testConfig(t, src)
	writeFeed(t, c1, src.File, []byte("8.8.8.8\n1.1.1.1\n9.9.9.0/24\n"))
	writeFeed(t, c2, src.File, []byte("9.9.9.0/24\n8.8.8.8\n1.1.1.1\n"))

	_, err := GenerateRules(context.Background(), c1)
	require.NoError(t, err)
	_, err = GenerateRules(context.Background(), c2)
	require.NoError(t, err)
	assert.Equal(t, dropLines(t, c1.OutFile), dropLines(t, c2.OutFile))
}

func TestGenerateRulesCompressedFeeds(t *testing.T) {
	feed := []byte("1.2.3.4\n5.6.7.0/24\n")
	src := testSource()

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write(feed)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := enc.EncodeAll(feed, nil)
	require.NoError(t, enc.Close())

	for suffix, data := range map[string][]byte{"": feed, ".gz": gz.Bytes(), ".zst": zst} {
		t.Run("suffix"+suffix, func(t *testing.T) {
			c := testConfig(t, src)
			writeFeed(t, c, src.File+suffix, data)
			report, err := GenerateRules(context.Background(), c)
			require.NoError(t, err)
			assert.Equal(t, 2, report.Total)
		})
	}
}

func TestGenerateRulesPatchesHostConfig(t *testing.T) {
	src := testSource()
	c := testConfig(t, src)
	writeFeed(t, c, src.File, []byte("1.2.3.4\n"))
	host := c.HostConfigs[0]
	require.NoError(t, os.WriteFile(host, []byte(suricataYAML), 0o644))

	for run := 0; run < 2; run++ {
		report, err := GenerateRules(context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, host, report.HostConfig)
		assert.Equal(t, run == 0, report.Patched)
	}
	data, err := os.ReadFile(host)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), RuleFileName))

	c.NoPatch = true
	report, err := GenerateRules(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, report.HostConfig)
}

func TestGenerateRulesFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "# feodo\n1.2.3.4\n4.3.2.1\n")
	}))
	defer server.Close()

	src := testSource()
	src.URL = server.URL + "/ipblocklist.txt"
	c := testConfig(t, src)
	c.Fetch, c.FetchCompress = true, true

	report, err := GenerateRules(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.FileExists(t, filepath.Join(c.FeedDir, src.File+".zst"))

	// fetch disabled, the cached copy is used
	c.Fetch = false
	report, err = GenerateRules(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
}

func TestGenerateRulesRanges(t *testing.T) {
	src := testSource()
	src.Ranges = true
	c := testConfig(t, src)
	writeFeed(t, c, src.File, []byte("1.2.3.0-1.2.3.255\n10.0.0.0-10.0.0.2\n"))

	report, err := GenerateRules(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	drops := dropLines(t, c.OutFile)
	require.Len(t, drops, 3)
	assert.Contains(t, drops[0], "drop ip 1.2.3.0/24 ")
	assert.Contains(t, drops[1], "drop ip 10.0.0.0/31 ")
	assert.Contains(t, drops[2], "drop ip 10.0.0.2 ")
}
