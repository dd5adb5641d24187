package git

import "strings"

// PatchFiles lists the paths touched by a rendered patch, in order, taken
// from its "diff --git" lines. Quoted paths are unescaped.
func PatchFiles(patch string) []string {
	var files []string
	for line := range strings.SplitSeq(patch, "\n") {
		if path := diffHeaderPath(line); path != "" {
			files = append(files, path)
		}
	}
	return files
}

func diffHeaderPath(line string) string {
	rest, ok := strings.CutPrefix(line, "diff --git ")
	if !ok {
		return ""
	}
	fields := splitQuoted(strings.TrimSpace(rest))
	if len(fields) < 2 {
		return ""
	}
	path := fields[1]
	if p, ok := strings.CutPrefix(path, "b/"); ok {
		return p
	}
	return strings.TrimPrefix(path, "a/")
}

// splitQuoted splits on blanks, keeping double-quoted fields together.
func splitQuoted(s string) []string {
	var fields []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return fields
		}
		if s[0] != '"' {
			end := strings.IndexAny(s, " \t")
			if end < 0 {
				end = len(s)
			}
			fields = append(fields, s[:end])
			s = s[end:]
			continue
		}
		var b strings.Builder
		i := 1
		for ; i < len(s); i++ {
			ch := s[i]
			if ch == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
				continue
			}
			if ch == '"' {
				i++
				break
			}
			b.WriteByte(ch)
		}
		fields = append(fields, b.String())
		s = s[i:]
	}
}
