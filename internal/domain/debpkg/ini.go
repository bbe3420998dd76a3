package debpkg

import (
	"bytes"
	"fmt"

	"gopkg.in/ini.v1"
)

// PatchINIKey returns a Transform that sets key to value in every section of
// an INI file that already defines it. A file without the key gets it added
// to the first non-default section, or the default section when there is none.
func PatchINIKey(key, value string) Transform {
	return func(content []byte) ([]byte, error) {
		f, err := ini.LoadSources(ini.LoadOptions{
			PreserveSurroundedQuote:  true,
			SpaceBeforeInlineComment: true,
		}, content)
		if err != nil {
			return nil, fmt.Errorf("parse ini: %w", err)
		}

		found := false
		for _, sec := range f.Sections() {
			if sec.HasKey(key) {
				sec.Key(key).SetValue(value)
				found = true
			}
		}
		if !found {
			target := f.Section(ini.DefaultSection)
			if names := f.SectionStrings(); len(names) > 1 {
				target = f.Section(names[1])
			}
			if _, err := target.NewKey(key, value); err != nil {
				return nil, fmt.Errorf("add %s: %w", key, err)
			}
		}

		var buf bytes.Buffer
		if _, err := f.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("write ini: %w", err)
		}
		return buf.Bytes(), nil
	}
}

// INIValue reads key from the first section of content that defines it.
func INIValue(content []byte, key string) (string, bool) {
	f, err := ini.Load(content)
	if err != nil {
		return "", false
	}
	for _, sec := range f.Sections() {
		if sec.HasKey(key) {
			return sec.Key(key).String(), true
		}
	}
	return "", false
}
