// Package config loads ringcachectl cache profiles: named parameter sets
// (size, resize policy, target cycle time) that can be selected on the
// command line instead of repeating flags.
//
// Profiles are read as JSONC (JSON with comments and trailing commas, via
// hujson) from a project file and an optional global user file, with the
// project file's values winning on conflict.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

// ProfileFileName is the default project-local profile file name.
const ProfileFileName = ".ringcache.json"

var (
	// ErrProfileFileNotFound is returned when an explicitly named profile
	// file does not exist.
	ErrProfileFileNotFound = errors.New("profile file not found")
	// ErrProfileFileRead is returned when an existing profile file cannot
	// be read.
	ErrProfileFileRead = errors.New("failed to read profile file")
	// ErrProfileInvalid wraps a JSONC parse error with the offending path.
	ErrProfileInvalid = errors.New("invalid profile file")
	// ErrCacheSizeInvalid is returned when the resolved profile's
	// cache_size is zero. Other out-of-range sizes are not rejected here;
	// ringcache.New clamps them to MinCacheSize..MaxCacheSize.
	ErrCacheSizeInvalid = errors.New("cache_size must be positive")
)

// Profile is the on-disk representation of a named ringcache configuration.
type Profile struct {
	CacheSize       uint32 `json:"cache_size"`
	AllowResize     *bool  `json:"allow_resize,omitempty"`
	TargetCycleTime string `json:"target_cycle_time,omitempty"` // parsed with time.ParseDuration
	PinMemory       bool   `json:"pin_memory,omitempty"`
}

// DefaultProfile returns the profile ringcachectl starts from before any
// file or CLI overrides are applied.
func DefaultProfile() Profile {
	return Profile{
		CacheSize:       1 << 20,
		TargetCycleTime: "24h",
	}
}

// TargetCycleTimeDuration parses TargetCycleTime, falling back to 24h if it
// is empty or malformed.
func (p Profile) TargetCycleTimeDuration() time.Duration {
	if p.TargetCycleTime == "" {
		return 24 * time.Hour
	}

	d, err := time.ParseDuration(p.TargetCycleTime)
	if err != nil {
		return 24 * time.Hour
	}

	return d
}

// getGlobalProfilePath returns $XDG_CONFIG_HOME/ringcache/config.json, or
// ~/.config/ringcache/config.json if XDG_CONFIG_HOME is unset. It returns
// "" if the home directory cannot be determined.
func getGlobalProfilePath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "ringcache", "config.json")
		}
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ringcache", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "ringcache", "config.json")
	}

	return ""
}

// Load resolves a profile with the following precedence (highest wins):
//  1. DefaultProfile
//  2. Global user profile
//  3. Project profile (.ringcache.json in workDir, or an explicit path)
func Load(workDir, explicitPath string, env []string) (Profile, error) {
	profile := DefaultProfile()

	global, _, err := loadGlobalProfile(env)
	if err != nil {
		return Profile{}, err
	}

	profile = merge(profile, global)

	project, _, err := loadProjectProfile(workDir, explicitPath)
	if err != nil {
		return Profile{}, err
	}

	profile = merge(profile, project)

	if profile.CacheSize == 0 {
		return Profile{}, ErrCacheSizeInvalid
	}

	return profile, nil
}

func loadGlobalProfile(env []string) (Profile, string, error) {
	path := getGlobalProfilePath(env)
	if path == "" {
		return Profile{}, "", nil
	}

	profile, loaded, err := loadProfileFile(path, false)
	if err != nil {
		return Profile{}, "", err
	}

	if !loaded {
		return Profile{}, "", nil
	}

	return profile, path, nil
}

func loadProjectProfile(workDir, explicitPath string) (Profile, string, error) {
	var path string

	mustExist := explicitPath != ""

	if mustExist {
		path = explicitPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		if _, err := os.Stat(path); err != nil {
			return Profile{}, "", fmt.Errorf("%w: %s", ErrProfileFileNotFound, explicitPath)
		}
	} else {
		path = filepath.Join(workDir, ProfileFileName)
	}

	profile, loaded, err := loadProfileFile(path, mustExist)
	if err != nil {
		return Profile{}, "", err
	}

	if !loaded {
		return Profile{}, "", nil
	}

	return profile, path, nil
}

func loadProfileFile(path string, mustExist bool) (Profile, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled and validated by the caller
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Profile{}, false, nil
		}

		return Profile{}, false, fmt.Errorf("%w: %s", ErrProfileFileRead, path)
	}

	profile, err := Parse(data)
	if err != nil {
		return Profile{}, false, fmt.Errorf("%w %s: %w", ErrProfileInvalid, path, err)
	}

	return profile, true, nil
}

// Parse decodes JSONC (JSON with comments and trailing commas) into a
// Profile.
func Parse(data []byte) (Profile, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Profile{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var p Profile

	if err := json.Unmarshal(standardized, &p); err != nil {
		return Profile{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return p, nil
}

func merge(base, overlay Profile) Profile {
	if overlay.CacheSize != 0 {
		base.CacheSize = overlay.CacheSize
	}

	if overlay.AllowResize != nil {
		base.AllowResize = overlay.AllowResize
	}

	if overlay.TargetCycleTime != "" {
		base.TargetCycleTime = overlay.TargetCycleTime
	}

	if overlay.PinMemory {
		base.PinMemory = overlay.PinMemory
	}

	return base
}

// Format renders a profile as indented JSON, for ringcachectl's "profile"
// command.
func Format(p Profile) (string, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format profile: %w", err)
	}

	return string(data), nil
}
