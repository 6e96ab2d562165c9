package store

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/efinel/node-red/internal/library"
)

// Entry metadata is stored ahead of the body as "// key: value" lines.
// Single-line strings are written verbatim. Every other value is written as
// JSON, which never spans lines.
var metaLine = regexp.MustCompile(`^// (\w+): (.*)$`)

func encodeEntry(meta map[string]any, body string) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "// %s: %s\n", k, encodeMetaValue(meta[k]))
	}
	b.WriteString(body)
	return b.String()
}

func encodeMetaValue(v any) string {
	if s, ok := v.(string); ok && !strings.ContainsAny(s, "\r\n") && !strings.HasPrefix(s, `"`) {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return strconv.Quote(fmt.Sprint(v))
	}
	return string(data)
}

// decodeMetaValue reverses encodeMetaValue for strings. Other values are
// read back in their text form.
func decodeMetaValue(raw string) string {
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s
		}
	}
	return raw
}

// decodeEntry splits stored content into its metadata header and body.
func decodeEntry(content string) (map[string]any, string) {
	meta := make(map[string]any)
	rest := content

	for rest != "" {
		line, tail, found := strings.Cut(rest, "\n")
		m := metaLine.FindStringSubmatch(strings.TrimSuffix(line, "\r"))
		if m == nil {
			break
		}
		meta[m[1]] = decodeMetaValue(m[2])
		if !found {
			rest = ""
			break
		}
		rest = tail
	}

	return meta, rest
}

func withExtension(entryType, path string) string {
	if entryType == library.FlowsType && !strings.HasSuffix(path, ".json") {
		return path + ".json"
	}
	return path
}
