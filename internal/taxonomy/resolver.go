package taxonomy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/apex/log"
)

// Resolver maps opaque sensitive-information-type GUIDs to canonical names.
// Resolution is deterministic: the same identifier always yields the same
// name within a run, and across runs while the cache file is unchanged.
type Resolver struct {
	names  map[string]string
	source string
}

// Options configures how the taxonomy mapping is obtained.
type Options struct {
	// LiveURL is the optional taxonomy endpoint returning a JSON array of
	// {"id": "<guid>", "name": "<canonical name>"} objects. Empty disables
	// the live lookup and the resolver runs cache-only.
	LiveURL string
	// CachePath is the fallback cache file, refreshed after a successful
	// live lookup.
	CachePath string
	// Client overrides the HTTP client; the default has a 10s timeout so a
	// slow endpoint falls back to the cache instead of hanging the run.
	Client *http.Client
}

type taxonomyEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewResolver builds the identifier→name mapping: live endpoint first (one
// retry), then the persisted cache, then empty. An empty mapping is not an
// error; every lookup degrades to a synthetic name.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{names: map[string]string{}, source: "none"}

	if opts.LiveURL != "" {
		if names, err := fetchLive(opts.LiveURL, opts.Client); err == nil {
			r.names = names
			r.source = "live"
			if opts.CachePath != "" {
				if err := writeCache(opts.CachePath, names); err != nil {
					log.Warnf("taxonomy cache %s not updated: %v", opts.CachePath, err)
				}
			}
			log.Infof("taxonomy resolved live: %d categories", len(names))
			return r
		} else {
			log.Warnf("live taxonomy lookup failed, trying cache: %v", err)
		}
	}

	if opts.CachePath != "" {
		if names, err := readCache(opts.CachePath); err == nil {
			r.names = names
			r.source = "cache"
			log.Infof("taxonomy loaded from cache: %d categories", len(names))
			return r
		} else if !os.IsNotExist(err) {
			log.Warnf("taxonomy cache %s unreadable: %v", opts.CachePath, err)
		}
	}

	log.Warn("no taxonomy mapping available, unresolved identifiers get synthetic names")
	return r
}

// Resolve returns the canonical name for an identifier. Unknown identifiers
// never abort the analysis; they resolve to a deterministic placeholder.
func (r *Resolver) Resolve(id string) string {
	if name, ok := r.names[id]; ok {
		return name
	}
	return fmt.Sprintf("Custom category (%s)", id)
}

// Source reports where the mapping came from: "live", "cache" or "none".
func (r *Resolver) Source() string { return r.source }

// Size returns the number of known identifier mappings.
func (r *Resolver) Size() int { return len(r.names) }

func fetchLive(url string, client *http.Client) (map[string]string, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := client.Get(url)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("taxonomy endpoint returned %s", resp.Status)
			continue
		}

		var entries []taxonomyEntry
		err = json.NewDecoder(resp.Body).Decode(&entries)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("parse taxonomy response: %w", err)
			continue
		}

		names := make(map[string]string, len(entries))
		for _, e := range entries {
			names[e.ID] = e.Name
		}
		return names, nil
	}
	return nil, lastErr
}

func readCache(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse taxonomy cache: %w", err)
	}
	return names, nil
}

func writeCache(path string, names map[string]string) error {
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
