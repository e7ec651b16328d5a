package wireguard

import (
	"regexp"
	"strings"
)

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	unsafeChar = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// FileBase возвращает безопасную основу имени файла. Пробелы → "_", только [A-Za-z0-9._-].
func FileBase(name string) string {
	s := spaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
	s = unsafeChar.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, ".")
	if s == "" {
		s = "peer"
	}
	return s
}

// ConfigFilename: имя .conf для Content-Disposition и архивов.
func ConfigFilename(name string) string { return FileBase(name) + ".conf" }
