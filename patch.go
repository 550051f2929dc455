package ioc2rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// host config patch errors, both are warnings for the caller
var (
	ErrNoHostConfig = errors.New("[patch] host config not found")
	ErrNoRuleFiles  = errors.New("[patch] no rule-files section in host config")
)

const (
	_ruleFilesKey  = "rule-files:"
	_defaultIndent = 4
)

// PatchHostConfig adds the base name of ruleFile to the rule-files list of the
// first existing candidate. It returns the patched file and whether it changed.
// Documents already mentioning the rule file name are left untouched.
func PatchHostConfig(candidates []string, ruleFile string) (string, bool, error) {
	file := _empty
	for _, c := range candidates {
		if isFile(c) {
			file = c
			break
		}
	}
	if file == _empty {
		return _empty, false, ErrNoHostConfig
	}
	fi, err := os.Stat(file)
	if err != nil {
		return file, false, errors.New("[patch] unable to stat [" + file + "] [" + err.Error() + "]")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return file, false, errors.New("[patch] unable to read [" + file + "] [" + err.Error() + "]")
	}
	name := filepath.Base(ruleFile)
	patched, changed, err := patchRuleFiles(string(data), name)
	if err != nil || !changed {
		return file, false, err
	}
	if err := os.WriteFile(file, []byte(patched), fi.Mode().Perm()); err != nil {
		return file, false, errors.New("[patch] unable to write [" + file + "] [" + err.Error() + "]")
	}
	return file, true, nil
}

// patchRuleFiles inserts "- name" at the end of the first rule-files list.
// The item indent follows the existing list items, or _defaultIndent for an empty list.
func patchRuleFiles(content, name string) (string, bool, error) {
	if strings.Contains(content, name) {
		return content, false, nil
	}
	content = strings.ReplaceAll(content, "\r\n", _linefeed)
	lines := strings.Split(strings.TrimSuffix(content, _linefeed), _linefeed)
	result := make([]string, 0, len(lines)+1)
	inside, found, done := false, false, false
	indent := -1
	item := func() string {
		n := indent
		if n < 0 {
			n = _defaultIndent
		}
		return strings.Repeat(" ", n) + "- " + name
	}
	for _, line := range lines {
		result = append(result, line)
		if done {
			continue
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, _ruleFilesKey):
			inside, found = true, true
		case inside && strings.HasPrefix(trimmed, "- "):
			indent = len(line) - len(strings.TrimLeft(line, " \t"))
		case inside && line != _empty && line[0] != ' ' && line[0] != '#':
			// next top level key, insert in front of it
			last := result[len(result)-1]
			result = append(result[:len(result)-1], item(), last)
			inside, done = false, true
		}
	}
	if !found {
		return content, false, ErrNoRuleFiles
	}
	if inside {
		result = append(result, item())
	}
	return strings.Join(result, _linefeed) + _linefeed, true, nil
}
