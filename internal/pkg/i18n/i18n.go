package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

const DefaultLocale = "en"

type Translations map[string]string

//go:embed locales/*/errors.yaml
var embedded embed.FS

var (
	locales = make(map[string]Translations)
	mu      sync.RWMutex
)

// LoadDefault loads the catalogs compiled into the binary.
func LoadDefault() error {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return err
	}
	return Load(sub)
}

// LoadTranslations loads catalogs from a directory on disk, one sub directory
// per locale, overriding any embedded entries with the same key.
func LoadTranslations(localePath string) error {
	return Load(os.DirFS(localePath))
}

func Load(fsys fs.FS) error {
	mu.Lock()
	defer mu.Unlock()

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		locale := entry.Name()
		filePath := path.Join(locale, "errors.yaml")

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			continue
		}

		var catalog struct {
			Errors Translations `yaml:"ERRORS"`
		}
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filePath, err)
		}

		if locales[locale] == nil {
			locales[locale] = make(Translations, len(catalog.Errors))
		}
		for k, v := range catalog.Errors {
			locales[locale][k] = v
		}
	}

	return nil
}

// Locales lists the loaded locales, DefaultLocale first.
func Locales() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(locales))
	for l := range locales {
		if l != DefaultLocale {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	if _, ok := locales[DefaultLocale]; ok {
		out = append([]string{DefaultLocale}, out...)
	}
	return out
}

func Translate(locale, key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if trans, ok := locales[locale]; ok {
		if val, ok := trans[key]; ok {
			return val
		}
	}

	if locale != DefaultLocale {
		if trans, ok := locales[DefaultLocale]; ok {
			if val, ok := trans[key]; ok {
				return val
			}
		}
	}

	return key
}
