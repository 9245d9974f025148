package runtime

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/sitekit/sitekit/internal/config"
	"github.com/sitekit/sitekit/internal/indexing"
)

// MinHugoVersion is the oldest Hugo release the theme supports
const MinHugoVersion = "0.62.0"

// Search modes reported by DetectRuntimeInfo
const (
	ModePersisted   = "persisted"
	ModeMemory      = "memory"
	ModeHosted      = "hosted"
	ModeDisabled    = "disabled"
	ModeUnavailable = "unavailable"
)

// probeTimeout bounds the index reachability check
const probeTimeout = 5 * time.Second

// SiteEnvironment describes the tools available to build the site
type SiteEnvironment struct {
	HasHugo      bool   `json:"has_hugo"`
	HugoVersion  string `json:"hugo_version,omitempty"`
	HugoExtended bool   `json:"hugo_extended"`
}

// IndexStatus describes the search index sources named by the config
type IndexStatus struct {
	Location  string `json:"location,omitempty"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`

	PersistedDir     string `json:"persisted_dir,omitempty"`
	PersistedVersion int    `json:"persisted_version,omitempty"`
	VersionMatch     bool   `json:"version_match"`
}

// RuntimeInfo contains complete runtime detection information
type RuntimeInfo struct {
	Environment     *SiteEnvironment `json:"environment"`
	Index           *IndexStatus     `json:"index"`
	SearchType      string           `json:"search_type"`
	SearchMode      string           `json:"search_mode"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Recommendation is one suggested action, ordered by priority
type Recommendation struct {
	Action          string `json:"action"`
	Priority        int    `json:"priority"` // 1 = highest
	Reason          string `json:"reason"`
	Warning         string `json:"warning,omitempty"`
	CommandTemplate string `json:"command_template,omitempty"`
}

// DetectRuntimeInfo inspects the local toolchain and the search index
// sources of cfg
func DetectRuntimeInfo(ctx context.Context, cfg *config.Config) (*RuntimeInfo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return Analyze(DetectEnvironment(), CheckIndex(ctx, cfg.Search), cfg.Search), nil
}

// Analyze derives the search mode and recommendations from detection results
func Analyze(env *SiteEnvironment, index *IndexStatus, search config.SearchConfig) *RuntimeInfo {
	info := &RuntimeInfo{
		Environment: env,
		Index:       index,
		SearchType:  string(search.Type),
	}

	switch {
	case !search.Enable:
		info.SearchMode = ModeDisabled
	case search.Type == config.SearchAlgolia:
		info.SearchMode = ModeHosted
	case index.VersionMatch:
		info.SearchMode = ModePersisted
	case index.Reachable:
		info.SearchMode = ModeMemory
	default:
		info.SearchMode = ModeUnavailable
	}

	info.Recommendations = buildRecommendations(env, index, search, info.SearchMode)
	return info
}

// buildRecommendations creates the ordered list of suggested actions
func buildRecommendations(env *SiteEnvironment, index *IndexStatus, search config.SearchConfig, mode string) []Recommendation {
	var recommendations []Recommendation
	add := func(r Recommendation) {
		r.Priority = len(recommendations) + 1
		recommendations = append(recommendations, r)
	}

	if !env.HasHugo {
		add(Recommendation{
			Action:          "install_hugo",
			Reason:          "Hugo is needed to render the site and emit index.json",
			CommandTemplate: "go install -tags extended github.com/gohugoio/hugo@latest",
		})
	} else {
		var warnings []string
		if env.HugoVersion != "" && !versionAtLeast(env.HugoVersion, MinHugoVersion) {
			warnings = append(warnings, fmt.Sprintf("Hugo v%s is older than the supported v%s", env.HugoVersion, MinHugoVersion))
		}
		if !env.HugoExtended {
			warnings = append(warnings, "the theme's SCSS needs the extended edition")
		}
		if len(warnings) > 0 {
			add(Recommendation{
				Action:          "upgrade_hugo",
				Reason:          "Installed Hugo may not build the theme",
				Warning:         strings.Join(warnings, "; "),
				CommandTemplate: "go install -tags extended github.com/gohugoio/hugo@latest",
			})
		}
	}

	switch mode {
	case ModeUnavailable:
		add(Recommendation{
			Action:          "build_site",
			Reason:          fmt.Sprintf("Search index %q is not reachable", index.Location),
			Warning:         index.Error,
			CommandTemplate: "hugo --minify",
		})
	case ModeMemory:
		if search.PersistedIndex != "" {
			warning := ""
			if index.PersistedVersion != 0 {
				warning = fmt.Sprintf("Persisted index is v%d, current schema is v%d", index.PersistedVersion, indexing.IndexSchemaVersion)
			}
			add(Recommendation{
				Action:          "build_index",
				Reason:          "Persisted index is missing or stale; the index is rebuilt in memory on every start",
				Warning:         warning,
				CommandTemplate: fmt.Sprintf("indexer %s %s", index.Location, search.PersistedIndex),
			})
		} else {
			add(Recommendation{
				Action:          "persist_index",
				Reason:          "A persisted index avoids rebuilding on every start",
				CommandTemplate: fmt.Sprintf("indexer %s search/index", index.Location),
			})
		}
	case ModeHosted:
		add(Recommendation{
			Action: "sync_hosted_index",
			Reason: fmt.Sprintf("Results come from the hosted index %q; upload index.json after each build", search.Algolia.Index),
		})
	}

	return recommendations
}

// CheckIndex reports whether the index source is reachable and whether a
// persisted index matches the current schema
func CheckIndex(ctx context.Context, search config.SearchConfig) *IndexStatus {
	status := &IndexStatus{Location: search.Index, PersistedDir: search.PersistedIndex}

	if search.PersistedIndex != "" {
		if _, err := os.Stat(search.PersistedIndex); err == nil {
			status.PersistedVersion = indexing.ReadVersion(indexing.VersionPath(search.PersistedIndex))
			status.VersionMatch = status.PersistedVersion == indexing.IndexSchemaVersion
		}
	}

	if search.Index == "" {
		status.Error = "no index location configured"
		return status
	}

	if err := probe(ctx, search.Index); err != nil {
		status.Error = err.Error()
	} else {
		status.Reachable = true
	}
	return status
}

// probe checks that location exists without loading it
func probe(ctx context.Context, location string) error {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		info, err := os.Stat(location)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", location)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, location, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("got response %d for %s", resp.StatusCode, location)
	}
	return nil
}

// DetectEnvironment looks for a hugo binary on PATH
func DetectEnvironment() *SiteEnvironment {
	env := &SiteEnvironment{}

	if _, err := exec.LookPath("hugo"); err != nil {
		return env
	}
	env.HasHugo = true

	output, err := exec.Command("hugo", "version").CombinedOutput()
	if err != nil {
		return env
	}
	env.HugoVersion, env.HugoExtended = ParseHugoVersion(string(output))
	return env
}

var hugoVersionRe = regexp.MustCompile(`v(\d+\.\d+(?:\.\d+)?)(?:-[0-9A-Fa-f]+)?(\+extended)?`)

// ParseHugoVersion extracts the version and edition from `hugo version`
// output, e.g. "hugo v0.128.0-e6d2712+extended linux/amd64 BuildDate=..."
func ParseHugoVersion(output string) (version string, extended bool) {
	matches := hugoVersionRe.FindStringSubmatch(output)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], matches[2] != "" || strings.Contains(output, "extended")
}

// versionAtLeast compares dotted versions; anything unparseable is too old
func versionAtLeast(have, want string) bool {
	h, ok := normalizeSemver(have)
	if !ok {
		return false
	}
	w, ok := normalizeSemver(want)
	if !ok {
		return true
	}
	return semver.Compare(h, w) >= 0
}

func normalizeSemver(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", false
	}
	return v, true
}
