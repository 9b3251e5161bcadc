// Package pipeline pours, upgrades and removes kegs.
//
// The [Installer] ties the other packages together: descriptors come from a
// [deps.Provider], graphs from [deps.Resolver], bottles from
// [bottle.Fetcher], kegs and receipts from [keg.Layout], prefix links from
// [link.Linker] and removal safety from [safety.Checker].
//
// # Install
//
// For the requested names the installer resolves the dependency graph,
// sorts it so dependencies come first, drops formulae whose opt alias
// already exists, and pours the rest one at a time:
//
//  1. select the bottle for the platform tag
//  2. fetch it into the download cache and verify its checksum
//  3. extract it into a staging directory inside the Cellar
//  4. replace any existing keg with the staged one
//  5. point the opt alias at the keg and write its receipt
//  6. link the keg into the prefix
//
// A fatal error aborts the rest of the queue. Kegs poured before the
// failure stay in place and are skipped by the next run.
//
// # Usage
//
//	inst := pipeline.New(cfg, tag, provider, fetcher, logger)
//	results, err := inst.Install(ctx, []string{"wget"}, pipeline.Options{})
//	for _, r := range results {
//	    fmt.Println(r.Name, r.Status)
//	}
package pipeline

import (
	"fmt"

	"github.com/matzehuels/cellar/pkg/keg"
)

// Options configures Install.
type Options struct {
	IgnoreDependencies bool // Install only the named formulae
	Force              bool // Reinstall formulae that are already installed
	IncludeBuild       bool // Also install build dependencies
	NoLink             bool // Skip linking into the prefix
	DryRun             bool // Report the plan without changing anything
}

// UpgradeOptions configures Upgrade.
type UpgradeOptions struct {
	KeepOld bool // Keep superseded versions
	DryRun  bool
}

// UninstallOptions configures Uninstall.
type UninstallOptions struct {
	Force              bool // Remove every installed version and skip the dependents check
	IgnoreDependencies bool // Skip the dependents check
}

// AutoremoveOptions configures Autoremove.
type AutoremoveOptions struct {
	DryRun bool
}

// Status is the outcome for one formula.
type Status int

const (
	StatusInstalled Status = iota
	StatusAlreadyInstalled
	StatusUpgraded
	StatusUpToDate
	StatusPinned
	StatusUninstalled
	StatusLinked
	StatusAlreadyLinked
	StatusUnlinked
	StatusPlanned
	StatusFailed
)

var statusNames = [...]string{
	StatusInstalled:        "installed",
	StatusAlreadyInstalled: "already installed",
	StatusUpgraded:         "upgraded",
	StatusUpToDate:         "up to date",
	StatusPinned:           "pinned",
	StatusUninstalled:      "uninstalled",
	StatusLinked:           "linked",
	StatusAlreadyLinked:    "already linked",
	StatusUnlinked:         "unlinked",
	StatusPlanned:          "planned",
	StatusFailed:           "failed",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result reports what happened to one formula.
type Result struct {
	Name       string
	Version    string // Version poured, removed or planned
	OldVersion string // Version replaced by an upgrade
	Status     Status
	Requested  bool // Named by the caller rather than pulled in as a dependency
	Keg        keg.Keg
	Linked     int   // Symlinks created or removed in the prefix
	LinkErr    error // Non-fatal: the keg is poured but could not be linked
	CleanupErr error // Non-fatal: superseded versions could not be removed
	Err        error
}

// Outdated describes an installed formula with a newer version available.
type Outdated struct {
	Name      string
	Installed string
	Current   string
	Pinned    bool
}
