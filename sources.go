package ioc2rules

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Source ...
type Source struct {
	Name      string `yaml:"name"`       // source key, used in header and summary
	File      string `yaml:"file"`       // feed file name inside the feed dir
	BaseSID   int    `yaml:"base_sid"`   // first rule identifier of this source
	MsgPrefix string `yaml:"msg_prefix"` // rule msg prefix
	Classtype string `yaml:"classtype"`  // rule classtype tag
	URL       string `yaml:"url"`        // optional feed download location
	Ranges    bool   `yaml:"ranges"`     // expand a.b.c.d-e.f.g.h lines into cidrs
}

// sourceFile is the on-disk yaml layout
type sourceFile struct {
	Sources []Source `yaml:"sources"`
}

// DefaultSources returns the built-in source table.
// Threat intel feeds first, then cloud provider ranges, then RKN blocklists.
func DefaultSources() []Source {
	return []Source{
		{Name: "feodo", File: "feodo_ips.txt", BaseSID: 9000000, MsgPrefix: "[IPS] Feodo Tracker C&C", Classtype: "trojan-activity", URL: "https://feodotracker.abuse.ch/downloads/ipblocklist.txt"},
		{Name: "urlhaus", File: "urlhaus_ips.txt", BaseSID: 9100000, MsgPrefix: "[IPS] URLhaus Malicious IP", Classtype: "trojan-activity"},
		{Name: "botvrij", File: "botvrij_ips.txt", BaseSID: 9200000, MsgPrefix: "[IPS] Botvrij.eu IoC", Classtype: "trojan-activity"},
		{Name: "google_cloud", File: "google_cloud_ips.txt", BaseSID: 9300000, MsgPrefix: "[IPS] Google Cloud IP", Classtype: "policy-violation"},
		{Name: "aws", File: "aws_ips.txt", BaseSID: 9400000, MsgPrefix: "[IPS] AWS IP", Classtype: "policy-violation"},
		{Name: "azure", File: "azure_ips.txt", BaseSID: 9500000, MsgPrefix: "[IPS] Azure IP", Classtype: "policy-violation"},
		{Name: "cloudflare", File: "cloudflare_ips.txt", BaseSID: 9600000, MsgPrefix: "[IPS] Cloudflare IP", Classtype: "policy-violation", URL: "https://www.cloudflare.com/ips-v4"},
		{Name: "digitalocean", File: "digitalocean_ips.txt", BaseSID: 9700000, MsgPrefix: "[IPS] DigitalOcean IP", Classtype: "policy-violation"},
		{Name: "antifilter", File: "antifilter_ips.txt", BaseSID: 9800000, MsgPrefix: "[IPS] Antifilter (RKN blocked)", Classtype: "policy-violation"},
		{Name: "zapret", File: "zapret_ips.txt", BaseSID: 9900000, MsgPrefix: "[IPS] Zapret-info (RKN blocked)", Classtype: "policy-violation"},
		{Name: "rublacklist", File: "rublacklist_ips.txt", BaseSID: 9910000, MsgPrefix: "[IPS] Роскомсвобода (RKN blocked)", Classtype: "policy-violation"},
	}
}

// LoadSources reads a yaml source table from file
func LoadSources(file string) ([]Source, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.New("[sources] unable to read [" + file + "] [" + err.Error() + "]")
	}
	return ParseSources(data)
}

// ParseSources decodes and validates a yaml source table
func ParseSources(data []byte) ([]Source, error) {
	var sf sourceFile
	if err := yaml.UnmarshalStrict(data, &sf); err != nil {
		return nil, errors.New("[sources] invalid yaml [" + err.Error() + "]")
	}
	if err := ValidateSources(sf.Sources); err != nil {
		return nil, err
	}
	return sf.Sources, nil
}

// ValidateSources checks required fields and that no two sid windows overlap,
// including the fixed allow block window.
func ValidateSources(src []Source) error {
	if len(src) == 0 {
		return errors.New("[sources] no sources defined")
	}
	names := make(map[string]bool, len(src))
	for i, s := range src {
		id := "[" + strconv.Itoa(i) + ":" + s.Name + "]"
		switch {
		case s.Name == "":
			return errors.New("[sources] " + id + " missing name")
		case names[s.Name]:
			return errors.New("[sources] " + id + " duplicate name")
		case s.File == "":
			return errors.New("[sources] " + id + " missing file")
		case s.MsgPrefix == "":
			return errors.New("[sources] " + id + " missing msg_prefix")
		case s.Classtype == "":
			return errors.New("[sources] " + id + " missing classtype")
		case s.BaseSID <= 0:
			return errors.New("[sources] " + id + " base_sid must be positive")
		}
		names[s.Name] = true
		lo, hi := s.BaseSID, s.BaseSID+MaxRulesPerSource-1
		if lo <= _allowLastSID && _allowFirstSID <= hi {
			return errors.New("[sources] " + id + " sid window overlaps allow rules")
		}
		for _, o := range src[:i] {
			if lo <= o.BaseSID+MaxRulesPerSource-1 && o.BaseSID <= hi {
				return errors.New("[sources] " + id + " sid window overlaps [" + o.Name + "]")
			}
		}
	}
	return nil
}
