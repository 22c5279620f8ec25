package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// SanitizeName drops control characters, replaces anything outside a small
// safe set with '_' and truncates to maxLen runes.
func SanitizeName(s string, maxLen int) string {
	cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case strings.ContainsRune(" -_.,()", r):
			return r
		default:
			return '_'
		}
	}, s))

	if runes := []rune(cleaned); maxLen > 0 && len(runes) > maxLen {
		cleaned = string(runes[:maxLen])
	}
	return cleaned
}

// EDLFilename derives a safe file name from a project title.
func EDLFilename(title string) string {
	name := SanitizeName(title, 80)
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "timeline"
	}
	return name + ".edl"
}

// ValidateOutputDir accepts only clean, existing directories.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("output_dir is required")
	}
	if !filepath.IsAbs(dir) {
		return errors.New("output_dir must be absolute")
	}
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return errors.New("output_dir cannot contain path traversal")
		}
	}
	if filepath.Clean(dir) != dir {
		return errors.New("output_dir must be clean path")
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return errors.New("output_dir does not exist")
	case err != nil:
		return fmt.Errorf("invalid output_dir: %w", err)
	case !info.IsDir():
		return errors.New("output_dir is not a directory")
	}
	return nil
}

// WriteEDL writes content into dir under a name derived from title and
// returns the full path.
func WriteEDL(dir, title, content string) (string, error) {
	if err := ValidateOutputDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, EDLFilename(title))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write edl: %w", err)
	}
	return path, nil
}
