// Package pkg provides the core libraries of cellar, a bottle-only package
// manager.
//
// # Overview
//
// Cellar installs prebuilt archives ("bottles") of formulae into a versioned
// store (the Cellar) and exposes them through a symlink farm in a shared
// prefix. The pkg directory is organized into four main areas:
//
//  1. Domain logic: [deps], [dag], [keg], [link], [safety]
//  2. Orchestration: [pipeline]
//  3. External access: [integrations], [bottle]
//  4. Support: [config], [errors], [httputil], [observability], [render], [buildinfo]
//
// # Architecture
//
// The typical data flow of an install:
//
//	Formula API (integrations/formulae)
//	         ↓
//	    [deps] Resolver (descriptor crawl → dependency graph)
//	         ↓
//	    [dag] TopologicalSort (install order, cycle detection)
//	         ↓
//	    [bottle] Select → Fetch → Verify → Extract
//	         ↓
//	    [keg] stage-then-swap, receipt, opt alias
//	         ↓
//	    [link] symlinks into <prefix>/bin, lib, share, ...
//
// Removal runs the other way: [safety] decides whether a formula may go,
// [link] removes its symlinks and [keg] deletes the keg.
//
// # Quick Start
//
// Install a formula with its dependencies:
//
//	cfg, _ := config.Load(config.LoadOptions{})
//	tag, _ := bottle.HostTag(cfg.BottleTag)
//	cache, _ := httputil.NewCache(cfg.APICacheDir(), cfg.CacheTTL)
//	provider := formulae.NewClient(cache, cfg.APIURL)
//
//	inst := pipeline.New(cfg, tag, provider, nil, logger)
//	results, err := inst.Install(ctx, []string{"wget"}, pipeline.Options{})
//
// Inspect a dependency graph without installing anything:
//
//	g, _ := deps.NewResolver(provider).Resolve(ctx, []string{"wget"}, deps.Options{})
//	order, _ := g.TopologicalSort()
//	_ = render.Tree(os.Stdout, g, "wget")
//
// # Main Packages
//
// [deps] - Formula and cask descriptors, the Provider interface and the
// resolver that turns requested names into a dependency graph.
//
// [dag] - Directed graph keyed by formula name with cycle detection,
// topological ordering and transitive closures.
//
// [keg] - The on-disk model: kegs under <Cellar>/<name>/<version>, install
// receipts, opt aliases, pins and per-formula advisory locks.
//
// [link] - The symlink farm. Linking is planned in full before anything is
// created, so a conflict leaves the prefix untouched.
//
// [safety] - Reverse-dependency queries used by uninstall, leaves and
// autoremove.
//
// [pipeline] - Install, upgrade, uninstall and autoremove on top of the
// packages above. Used by the CLI.
//
// [bottle] - Platform tags, bottle selection, download cache naming,
// checksum verification and archive extraction.
//
// [integrations] - Shared HTTP client with response caching and retry; the
// formulae subpackage implements [deps.Provider] against the JSON API.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/pipeline/... # Specific package
//	go test -run Example ./... # Examples only
//
// [deps]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/deps
// [dag]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/dag
// [keg]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/keg
// [link]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/link
// [safety]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/safety
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/pipeline
// [bottle]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/bottle
// [integrations]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/integrations
// [config]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/observability
// [render]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/render
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/buildinfo
// [deps.Provider]: https://pkg.go.dev/github.com/matzehuels/cellar/pkg/deps#Provider
package pkg
