package formulae

import "github.com/matzehuels/cellar/pkg/deps"

type formulaDoc struct {
	Name                    string      `json:"name"`
	FullName                string      `json:"full_name"`
	Tap                     string      `json:"tap"`
	Desc                    string      `json:"desc"`
	Homepage                string      `json:"homepage"`
	Versions                versionsDoc `json:"versions"`
	Revision                int         `json:"revision"`
	Dependencies            []string    `json:"dependencies"`
	BuildDependencies       []string    `json:"build_dependencies"`
	TestDependencies        []string    `json:"test_dependencies"`
	RecommendedDependencies []string    `json:"recommended_dependencies"`
	OptionalDependencies    []string    `json:"optional_dependencies"`
	Bottle                  struct {
		Stable *bottleDoc `json:"stable"`
	} `json:"bottle"`
	Pinned  bool `json:"pinned"`
	KegOnly bool `json:"keg_only"`
}

type versionsDoc struct {
	Stable string `json:"stable"`
	Head   string `json:"head"`
}

type bottleDoc struct {
	Rebuild int `json:"rebuild"`
	Files   map[string]struct {
		URL    string `json:"url"`
		SHA256 string `json:"sha256"`
	} `json:"files"`
}

type caskDoc struct {
	Token     string `json:"token"`
	DependsOn struct {
		Formula []string `json:"formula"`
	} `json:"depends_on"`
}

func (d *formulaDoc) toFormula() deps.Formula {
	f := deps.Formula{
		Name:                    d.Name,
		FullName:                d.FullName,
		Tap:                     d.Tap,
		Description:             d.Desc,
		Homepage:                d.Homepage,
		Versions:                deps.Versions{Stable: d.Versions.Stable, Head: d.Versions.Head},
		Revision:                d.Revision,
		Dependencies:            d.Dependencies,
		BuildDependencies:       d.BuildDependencies,
		TestDependencies:        d.TestDependencies,
		RecommendedDependencies: d.RecommendedDependencies,
		OptionalDependencies:    d.OptionalDependencies,
		Pinned:                  d.Pinned,
		KegOnly:                 d.KegOnly,
	}
	if f.FullName == "" {
		f.FullName = f.Name
	}
	if b := d.Bottle.Stable; b != nil && len(b.Files) > 0 {
		f.Bottle = &deps.Bottle{Rebuild: b.Rebuild, Files: make(map[string]deps.BottleFile, len(b.Files))}
		for tag, file := range b.Files {
			f.Bottle.Files[tag] = deps.BottleFile{URL: file.URL, SHA256: file.SHA256}
		}
	}
	return f
}

func (d *caskDoc) toCask() deps.Cask {
	return deps.Cask{Token: d.Token, DependsOnFormulae: d.DependsOn.Formula}
}
