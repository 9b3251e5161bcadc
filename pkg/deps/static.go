package deps

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/cellar/pkg/errors"
)

// StaticProvider serves descriptors from memory. It backs tests and offline
// planning, and counts lookups so callers can check memoisation.
type StaticProvider struct {
	mu       sync.Mutex
	formulae map[string]*Formula
	casks    map[string]*Cask
	calls    map[string]int
}

// NewStaticProvider creates a provider holding the given formulae.
func NewStaticProvider(formulae ...*Formula) *StaticProvider {
	p := &StaticProvider{
		formulae: make(map[string]*Formula),
		casks:    make(map[string]*Cask),
		calls:    make(map[string]int),
	}
	for _, f := range formulae {
		p.Add(f)
	}
	return p
}

// Add registers or replaces a formula.
func (p *StaticProvider) Add(f *Formula) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formulae[f.Name] = f
}

// AddCask registers or replaces a cask.
func (p *StaticProvider) AddCask(c *Cask) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.casks[c.Token] = c
}

// Formula implements Provider.
func (p *StaticProvider) Formula(_ context.Context, name string, _ bool) (*Formula, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name = ShortName(name)
	p.calls[name]++
	f, ok := p.formulae[name]
	if !ok {
		return nil, errors.New(errors.ErrCodePackageNotFound, "no available formula with the name %q", name)
	}
	return f, nil
}

// Cask implements Provider.
func (p *StaticProvider) Cask(_ context.Context, token string) (*Cask, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.casks[token]
	if !ok {
		return nil, errors.New(errors.ErrCodePackageNotFound, "no available cask with the name %q", token)
	}
	return c, nil
}

// FormulaNames implements Lister.
func (p *StaticProvider) FormulaNames(context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.formulae))
	for name := range p.formulae {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Calls returns how many times Formula was asked for name.
func (p *StaticProvider) Calls(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[name]
}
