package keg

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/errors"
)

// TabFile is the install receipt's file name inside a keg.
const TabFile = "INSTALL_RECEIPT.json"

// Tab is the install receipt written into every keg.
type Tab struct {
	InstalledAsDependency bool                `json:"installed_as_dependency"`
	InstalledOnRequest    bool                `json:"installed_on_request"`
	PouredFromBottle      bool                `json:"poured_from_bottle"`
	Time                  int64               `json:"time"`
	RuntimeDependencies   []RuntimeDependency `json:"runtime_dependencies"`
	Arch                  string              `json:"arch"`
	BuiltOn               BuiltOn             `json:"built_on"`
	Source                *TabSource          `json:"source,omitempty"`
}

// RuntimeDependency records a dependency as it was installed.
type RuntimeDependency struct {
	FullName         string `json:"full_name"`
	Version          string `json:"version"`
	Revision         int    `json:"revision"`
	PkgVersion       string `json:"pkg_version,omitempty"`
	DeclaredDirectly bool   `json:"declared_directly"`
}

// BuiltOn describes the machine that poured the keg.
type BuiltOn struct {
	OS        string `json:"os"`
	OSVersion string `json:"os_version"`
	CPUFamily string `json:"cpu_family"`
}

// TabSource records where the formula came from.
type TabSource struct {
	Tap      string            `json:"tap,omitempty"`
	Versions map[string]string `json:"versions,omitempty"`
}

// Host describes the running machine for receipts.
type Host struct {
	OS        string
	OSVersion string
	CPUFamily string
	Arch      string
}

// CurrentHost derives Host from the Go runtime. OSVersion is left empty;
// callers that know it fill it in.
func CurrentHost() Host {
	h := Host{OS: "Linux", Arch: runtime.GOARCH, CPUFamily: runtime.GOARCH}
	if runtime.GOOS == "darwin" {
		h.OS = "Macintosh"
	}
	switch runtime.GOARCH {
	case "amd64":
		h.Arch, h.CPUFamily = "x86_64", "intel"
	case "arm64":
		h.CPUFamily = "arm"
	}
	return h
}

// TabPath returns the receipt path of k.
func TabPath(k Keg) string { return filepath.Join(k.Path, TabFile) }

// RuntimeDependencies builds receipt entries for f's runtime dependencies
// from their descriptors. Names in direct are marked declared_directly.
func RuntimeDependencies(f *deps.Formula, resolved []*deps.Formula) []RuntimeDependency {
	direct := make(map[string]bool, len(f.Dependencies))
	for _, d := range f.Dependencies {
		direct[deps.ShortName(d)] = true
	}
	out := make([]RuntimeDependency, 0, len(resolved))
	for _, d := range resolved {
		full := d.FullName
		if full == "" {
			full = d.Name
		}
		out = append(out, RuntimeDependency{
			FullName:         full,
			Version:          d.Versions.Stable,
			Revision:         d.Revision,
			PkgVersion:       d.PkgVersion(),
			DeclaredDirectly: direct[d.Name],
		})
	}
	return out
}

// WriteTab writes a fresh receipt for k, replacing any existing one.
// installed_on_request is the negation of asDependency.
func (l *Layout) WriteTab(k Keg, f *deps.Formula, asDependency bool, runtimeDeps []RuntimeDependency) error {
	if runtimeDeps == nil {
		runtimeDeps = []RuntimeDependency{}
	}
	tab := Tab{
		InstalledAsDependency: asDependency,
		InstalledOnRequest:    !asDependency,
		PouredFromBottle:      true,
		Time:                  time.Now().Unix(),
		RuntimeDependencies:   runtimeDeps,
		Arch:                  l.Host.Arch,
		BuiltOn: BuiltOn{
			OS:        l.Host.OS,
			OSVersion: l.Host.OSVersion,
			CPUFamily: l.Host.CPUFamily,
		},
	}
	if f != nil {
		tab.Source = &TabSource{Tap: f.Tap, Versions: map[string]string{"stable": f.Versions.Stable}}
	}
	return l.writeTab(k, &tab)
}

func (l *Layout) writeTab(k Keg, tab *Tab) error {
	data, err := json.MarshalIndent(tab, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := l.FS.WriteFile(TabPath(k), data, 0o644); err != nil {
		return fmt.Errorf("write receipt for %s: %w", k, err)
	}
	return nil
}

// ReadTab reads the receipt of k. A keg without a receipt yields
// NO_SUCH_KEG when the keg itself is missing and a zero Tab otherwise, so
// kegs poured by other tools are still usable.
func (l *Layout) ReadTab(k Keg) (*Tab, error) {
	data, err := l.FS.ReadFile(TabPath(k))
	if errors.IsNotExist(err) {
		if !l.Exists(k) {
			return nil, errors.New(errors.ErrCodeNoSuchKeg, "no such keg: %s", k.Path)
		}
		return &Tab{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read receipt for %s: %w", k, err)
	}
	var tab Tab
	if err := json.Unmarshal(data, &tab); err != nil {
		return nil, fmt.Errorf("parse %s: %w", TabPath(k), err)
	}
	return &tab, nil
}

// MarkInstalledOnRequest flips the receipt of k to installed-on-request.
// It is the only partial update a receipt receives after install.
func (l *Layout) MarkInstalledOnRequest(k Keg) error {
	tab, err := l.ReadTab(k)
	if err != nil {
		return err
	}
	if tab.InstalledOnRequest && !tab.InstalledAsDependency {
		return nil
	}
	tab.InstalledOnRequest = true
	tab.InstalledAsDependency = false
	return l.writeTab(k, tab)
}
