package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DetectBuildArtifactGlobs inspects the project's build manifests
// (package.json, tsconfig.json, Cargo.toml, pyproject.toml) for
// configured output directories and returns doublestar exclusion
// patterns for them, to be appended to Index.ExcludeGlobs before the
// change detector walks the tree. Directories already covered by the
// default exclusion list (target, node_modules) are not repeated.
func DetectBuildArtifactGlobs(root string) []string {
	var patterns []string
	patterns = append(patterns, tsconfigOutDir(root)...)
	patterns = append(patterns, packageJSONOutDir(root)...)
	patterns = append(patterns, cargoTargetDir(root)...)
	patterns = append(patterns, pyprojectTargetDir(root)...)
	return dedupePatterns(patterns)
}

func tsconfigOutDir(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "tsconfig.json"))
	if err != nil {
		return nil
	}
	var tsconfig struct {
		CompilerOptions struct {
			OutDir string `json:"outDir"`
		} `json:"compilerOptions"`
	}
	if json.Unmarshal(data, &tsconfig) != nil {
		return nil
	}
	return dirPattern(tsconfig.CompilerOptions.OutDir)
}

func packageJSONOutDir(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}
	var pkg struct {
		Build struct {
			OutDir string `json:"outDir"`
		} `json:"build"`
	}
	if json.Unmarshal(data, &pkg) != nil {
		return nil
	}
	return dirPattern(pkg.Build.OutDir)
}

func cargoTargetDir(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return nil
	}
	var cargo struct {
		Profile struct {
			Release struct {
				TargetDir string `toml:"target-dir"`
			} `toml:"release"`
		} `toml:"profile"`
	}
	if toml.Unmarshal(data, &cargo) != nil {
		return nil
	}
	return dirPattern(cargo.Profile.Release.TargetDir)
}

func pyprojectTargetDir(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return nil
	}
	var pyproject struct {
		Tool struct {
			Poetry struct {
				Build struct {
					TargetDir string `toml:"target-dir"`
				} `toml:"build"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if toml.Unmarshal(data, &pyproject) != nil {
		return nil
	}
	return dirPattern(pyproject.Tool.Poetry.Build.TargetDir)
}

func dirPattern(dir string) []string {
	if dir == "" || dir == "target" || dir == "node_modules" {
		return nil
	}
	return []string{"**/" + filepath.ToSlash(dir) + "/**"}
}

func dedupePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := patterns[:0]
	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
