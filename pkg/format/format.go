// Package format renders result envelopes as the text content returned to tool callers.
package format

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/morezero/statsig-mcp/pkg/console"
)

// Kind selects the rendering rules for a family of operations.
type Kind string

const (
	KindList       Kind = "list"
	KindItem       Kind = "item"
	KindCreate     Kind = "create"
	KindUpdate     Kind = "update"
	KindDelete     Kind = "delete"
	KindResults    Kind = "results"
	KindExport     Kind = "export"
	KindEvaluation Kind = "evaluation"
	KindEvent      Kind = "event"
)

// ErrorPrefix starts every rendered failure.
const ErrorPrefix = "Error: "

// Subject names what an operation acted on.
type Subject struct {
	Noun   string // singular, e.g. "gate"
	Plural string // e.g. "gates"
	ID     string // identifier from the arguments, may be empty
	Hint   string // export format requested by the caller
}

var prettyJSON = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

// Format renders env for kind. It never fails: data in an unexpected shape
// is rendered as the raw envelope.
func Format(kind Kind, subject Subject, env console.Envelope) string {
	if !env.Success {
		return Error(env.Error)
	}

	var (
		text string
		ok   bool
	)
	switch kind {
	case KindList:
		text, ok = formatList(subject, env.Data)
	case KindItem:
		text, ok = formatItem(subject, env.Data)
	case KindCreate, KindUpdate, KindDelete:
		text, ok = formatMutation(kind, subject, env.Data)
	case KindResults:
		text, ok = formatResults(subject, env.Data)
	case KindExport:
		text, ok = formatExport(subject, env.Data)
	case KindEvaluation:
		text, ok = formatEvaluation(subject, env.Data)
	case KindEvent:
		text, ok = fmt.Sprintf("Logged event '%s'.", subject.ID), true
	}
	if !ok {
		return Raw(env)
	}
	return text
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Error renders a failure as one line. Line breaks become spaces; other
// spacing is kept.
func Error(msg string) string {
	msg = lineBreaks.Replace(msg)
	if strings.TrimSpace(msg) == "" {
		msg = "unknown error"
	}
	return ErrorPrefix + msg
}

// Raw renders the whole envelope as indented JSON.
func Raw(env console.Envelope) string {
	b, err := prettyJSON.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", env)
	}
	return string(b)
}

// payload returns data["data"] when the upstream wrapped its result, else data itself.
func payload(data map[string]any) any {
	if inner, ok := data["data"]; ok {
		return inner
	}
	return data
}

func formatList(s Subject, data map[string]any) (string, bool) {
	items, ok := payload(data).([]any)
	if !ok {
		if m, isMap := payload(data).(map[string]any); isMap && len(m) > 0 && s.ID != "" {
			return formatItem(s, data)
		}
		return "", false
	}
	plural := s.Plural
	if plural == "" {
		plural = "items"
	}
	if len(items) == 0 {
		return fmt.Sprintf("No %s found.", plural), true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s:\n", len(items), plural)
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, summarize(item))
	}
	if total := paginationTotal(data); total != "" {
		fmt.Fprintf(&b, "Total available: %s\n", total)
	}
	return strings.TrimRight(b.String(), "\n"), true
}

// summarize renders one list item as "name (id: X) [status]".
func summarize(item any) string {
	m, ok := item.(map[string]any)
	if !ok {
		return scalar(item)
	}
	id := firstString(m, "id", "key", "email")
	name := firstString(m, "name", "eventName", "displayName", "email")

	var out string
	switch {
	case id != "" && name != "" && id != name:
		out = fmt.Sprintf("%s (id: %s)", name, id)
	case id != "":
		out = id
	case name != "":
		out = name
	default:
		return compact(m)
	}
	if enabled, ok := m["isEnabled"].(bool); ok {
		if enabled {
			out += " [enabled]"
		} else {
			out += " [disabled]"
		}
	} else if status, ok := m["status"].(string); ok && status != "" {
		out += " [" + status + "]"
	}
	return out
}

func paginationTotal(data map[string]any) string {
	p, ok := data["pagination"].(map[string]any)
	if !ok {
		return ""
	}
	for _, k := range []string{"totalItems", "total"} {
		if v, ok := p[k]; ok && v != nil {
			return scalar(v)
		}
	}
	return ""
}

func formatItem(s Subject, data map[string]any) (string, bool) {
	item, ok := payload(data).(map[string]any)
	if !ok {
		return "", false
	}
	if len(item) == 0 {
		return fmt.Sprintf("%s not found.", titled(s)), true
	}
	return fmt.Sprintf("%s:\n%s", titled(s), indent(item)), true
}

func formatMutation(kind Kind, s Subject, data map[string]any) (string, bool) {
	verb := map[Kind]string{KindCreate: "Created", KindUpdate: "Updated", KindDelete: "Deleted"}[kind]
	line := fmt.Sprintf("%s %s '%s'.", verb, s.Noun, s.ID)

	item, _ := payload(data).(map[string]any)
	if kind == KindCreate {
		if id := firstString(item, "id"); id != "" && id != s.ID {
			line = fmt.Sprintf("%s %s '%s' (id: %s).", verb, s.Noun, s.ID, id)
		}
	}
	if kind != KindDelete && len(item) > 0 {
		return line + "\n" + indent(item), true
	}
	return line, true
}

func formatResults(s Subject, data map[string]any) (string, bool) {
	body := payload(data)
	if body == nil {
		return "", false
	}
	if m, ok := body.(map[string]any); ok && len(m) == 0 {
		return fmt.Sprintf("No results available for %s '%s'.", s.Noun, s.ID), true
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Results for %s '%s':\n", s.Noun, s.ID)
	writeTree(&b, body, 0)
	return strings.TrimRight(b.String(), "\n"), true
}

func formatExport(s Subject, data map[string]any) (string, bool) {
	if content, ok := data["content"].(string); ok {
		lang := s.Hint
		if ct, _ := data["content_type"].(string); lang == "" && strings.Contains(ct, "csv") {
			lang = "csv"
		}
		return fmt.Sprintf("Pulse report for %s '%s' (%s):\n```%s\n%s\n```",
			s.Noun, s.ID, orDefault(lang, "text"), lang, strings.TrimRight(content, "\n")), true
	}
	b, err := prettyJSON.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("Pulse report for %s '%s' (json):\n```json\n%s\n```", s.Noun, s.ID, b), true
}

func formatEvaluation(s Subject, data map[string]any) (string, bool) {
	body := payload(data)
	if body == nil {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s evaluation:\n", titled(s))
	writeTree(&b, body, 0)
	return strings.TrimRight(b.String(), "\n"), true
}

// writeTree renders nested data as indented "key: value" lines, keys sorted,
// scalars verbatim.
func writeTree(b *strings.Builder, v any, depth int) {
	pad := strings.Repeat("  ", depth)
	switch t := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(t) {
			child := t[k]
			if isScalar(child) {
				fmt.Fprintf(b, "%s%s: %s\n", pad, k, scalar(child))
				continue
			}
			fmt.Fprintf(b, "%s%s:\n", pad, k)
			writeTree(b, child, depth+1)
		}
	case []any:
		if len(t) == 0 {
			fmt.Fprintf(b, "%s(none)\n", pad)
		}
		for i, item := range t {
			if isScalar(item) {
				fmt.Fprintf(b, "%s- %s\n", pad, scalar(item))
				continue
			}
			fmt.Fprintf(b, "%s- [%d]\n", pad, i+1)
			writeTree(b, item, depth+1)
		}
	default:
		fmt.Fprintf(b, "%s%s\n", pad, scalar(t))
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}

// scalar renders a leaf without reformatting upstream numbers.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		return compact(t)
	default:
		return fmt.Sprint(t)
	}
}

func indent(v any) string {
	b, err := prettyJSON.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func compact(v any) string {
	b, err := prettyJSON.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func titled(s Subject) string {
	noun := s.Noun
	if noun != "" {
		noun = strings.ToUpper(noun[:1]) + noun[1:]
	}
	if s.ID == "" {
		return noun
	}
	return fmt.Sprintf("%s '%s'", noun, s.ID)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
