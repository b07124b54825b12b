package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectBuildArtifactGlobs_NoManifests(t *testing.T) {
	root := t.TempDir()
	require.Empty(t, DetectBuildArtifactGlobs(root))
}

func TestDetectBuildArtifactGlobs_TsconfigOutDir(t *testing.T) {
	root := t.TempDir()
	content := `{"compilerOptions": {"outDir": "build/out"}}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte(content), 0o644))

	globs := DetectBuildArtifactGlobs(root)
	require.Equal(t, []string{"**/build/out/**"}, globs)
}

func TestDetectBuildArtifactGlobs_CargoCustomTargetDir(t *testing.T) {
	root := t.TempDir()
	content := "[profile.release]\ntarget-dir = \"artifacts\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte(content), 0o644))

	globs := DetectBuildArtifactGlobs(root)
	require.Equal(t, []string{"**/artifacts/**"}, globs)
}

func TestDetectBuildArtifactGlobs_DefaultDirsNotRepeated(t *testing.T) {
	root := t.TempDir()
	content := "[profile.release]\ntarget-dir = \"target\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte(content), 0o644))

	require.Empty(t, DetectBuildArtifactGlobs(root))
}

func TestDetectBuildArtifactGlobs_MalformedManifestIgnored(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte("{not json"), 0o644))
	require.Empty(t, DetectBuildArtifactGlobs(root))
}
