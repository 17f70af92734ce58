package distribution

import "fmt"

// ArtifactSuffixes lists every platform/arch pair that can be published.
func ArtifactSuffixes() []string {
	return []string{"linux-x64", "windows-x86", "windows-x64", "macos-x64"}
}

// ArtifactName returns "{name}-{platform}-{arch}.zip".
func ArtifactName(name string, platform Platform, arch Arch) string {
	return fmt.Sprintf("%s-%s-%s.zip", name, platform, arch)
}

// ArtifactNames returns every candidate artifact file name for name.
func ArtifactNames(name string) []string {
	suffixes := ArtifactSuffixes()
	names := make([]string, 0, len(suffixes))

	for _, suffix := range suffixes {
		names = append(names, name+"-"+suffix+".zip")
	}

	return names
}
