package main

import (
	"strconv"
	"strings"
)

// OutputTemplate names output files. It may contain {name} (the archive
// name without extension), {level} (the mipmap level) and {ext}.
type OutputTemplate string

// FileName expands the template.
func (t OutputTemplate) FileName(name string, level int, ext string) string {
	s := string(t)
	if s == "" {
		s = "{name}.{ext}"
	}
	s = strings.Replace(s, "{name}", name, -1)
	s = strings.Replace(s, "{level}", strconv.Itoa(level), -1)
	s = strings.Replace(s, "{ext}", ext, -1)
	return s
}
