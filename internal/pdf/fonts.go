package pdf

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

// CoreFontFamily is built into every PDF reader and needs no font file.
// It only covers cp1252, so Cyrillic text degrades to dots. It is the last
// resort when no TrueType face can be embedded.
const CoreFontFamily = "Helvetica"

// DefaultFontFamily is compiled into the binary and covers Cyrillic.
const DefaultFontFamily = "DejaVuSans"

var (
	//go:embed fonts/DejaVuSans.ttf
	dejaVuSansRegular []byte
	//go:embed fonts/DejaVuSans-Bold.ttf
	dejaVuSansBold []byte
)

// DefaultFontSet returns the embedded DejaVu Sans family.
func DefaultFontSet() FontSet {
	return FontSet{Family: DefaultFontFamily, Regular: dejaVuSansRegular, Bold: dejaVuSansBold}
}

// FontSet is a TrueType family registered with the generator.
type FontSet struct {
	Family  string
	Regular []byte
	Bold    []byte
}

func (f FontSet) Empty() bool {
	return strings.TrimSpace(f.Family) == "" || len(f.Regular) == 0
}

// LoadFontFiles reads a regular and optional bold TTF file. A missing bold
// file reuses the regular face.
func LoadFontFiles(family, regularPath, boldPath string) (FontSet, error) {
	set := FontSet{Family: strings.TrimSpace(family)}
	if set.Family == "" {
		return set, fmt.Errorf("font family is empty")
	}
	if strings.TrimSpace(regularPath) == "" {
		return set, fmt.Errorf("font %s: regular path is empty", set.Family)
	}

	regular, err := os.ReadFile(regularPath)
	if err != nil {
		return set, fmt.Errorf("font %s: %w", set.Family, err)
	}
	if len(regular) == 0 {
		return set, fmt.Errorf("font %s: %s is empty", set.Family, regularPath)
	}
	set.Regular = regular
	set.Bold = regular

	if strings.TrimSpace(boldPath) != "" {
		bold, err := os.ReadFile(boldPath)
		if err != nil {
			return set, fmt.Errorf("font %s bold: %w", set.Family, err)
		}
		if len(bold) > 0 {
			set.Bold = bold
		}
	}
	return set, nil
}

// face is the typeface chosen for one render call.
type face struct {
	family   string
	embedded bool
	regular  []byte
	bold     []byte
}

var coreFace = face{family: CoreFontFamily}

func embeddedFace(set FontSet) face {
	return face{family: set.Family, embedded: true, regular: set.Regular, bold: set.Bold}
}

func isCoreFamily(family string) bool {
	switch strings.ToLower(family) {
	case "helvetica", "arial", "times", "courier":
		return true
	}
	return false
}
