package utils

import (
	"path/filepath"
	"strings"
)

// Artifact extensions written beside the source file.
const (
	TACExt = ".tac"
	AsmExt = ".asm"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// BaseName strips the directory and extension: "src/Demo.java" -> "Demo".
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ArtifactPaths returns the .tac and .asm paths for a source file, in the
// same directory as the source.
func ArtifactPaths(srcPath string) (tacPath, asmPath string) {
	dir := filepath.Dir(srcPath)
	base := BaseName(srcPath)
	return filepath.Join(dir, base+TACExt), filepath.Join(dir, base+AsmExt)
}
