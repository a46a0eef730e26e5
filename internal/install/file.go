package install

import (
	"os"
	"strings"
)

// ReadFile parses the .install-meta file at path.
func ReadFile(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()
	return Parse(f)
}

// WriteFile writes m to path as .install-meta, creating or truncating it.
func WriteFile(path string, m Metadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, m)
}

// ReadActiveVersion reads the .active-version file: the active version
// string plus a trailing newline.
func ReadActiveVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// WriteActiveVersion writes version followed by a newline to path.
func WriteActiveVersion(path, version string) error {
	return os.WriteFile(path, []byte(version+"\n"), 0o644)
}
