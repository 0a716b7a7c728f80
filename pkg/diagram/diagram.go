// Package diagram extracts relationships from C4 PlantUML context diagrams.
//
// Relationship statements
//
//	Rel(portal, orders, "calls", "REST")
//	Rel_D(orders, db, "reads and writes")
//
// become [classify.RawRelationship] values whose hint is the label, so
// diagrams go through the same classification as source records. Element
// declarations (System, System_Ext, Container, ContainerDb, Component) are
// parsed as well so diagram aliases can be mapped to entity ids.
//
// Markdown files are accepted: when the input contains @startuml blocks
// only their content is parsed.
package diagram

import (
	"cmp"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/superrelativity/relgraph/pkg/classify"
)

// Element is a declared diagram element.
type Element struct {
	Alias       string `json:"alias"`
	Name        string `json:"name"`
	Kind        string `json:"kind"` // System, System_Ext, Container, ContainerDb, Component
	Technology  string `json:"technology,omitempty"`
	Description string `json:"description,omitempty"`
}

// Diagram is the parsed content of one file.
type Diagram struct {
	Elements  []Element                  `json:"elements"`
	Relations []classify.RawRelationship `json:"relations"`
}

var (
	blockRe   = regexp.MustCompile(`(?s)@startuml(.*?)@enduml`)
	relRe     = regexp.MustCompile(`\bRel(?:_[UDLR]|_Up|_Down|_Left|_Right)?\s*\(\s*([^,\s]+)\s*,\s*([^,\s]+)\s*,\s*"([^"]+)"(?:\s*,\s*"([^"]+)")?[^)]*\)`)
	systemRe  = regexp.MustCompile(`\b(System(?:_Ext)?)\s*\(\s*([^,\s]+)\s*,\s*"([^"]+)"(?:\s*,\s*"([^"]+)")?[^)]*\)`)
	elementRe = regexp.MustCompile(`\b(ContainerDb|Container|Component)\s*\(\s*([^,\s]+)\s*,\s*"([^"]+)"(?:\s*,\s*"([^"]*)")?(?:\s*,\s*"([^"]*)")?[^)]*\)`)
)

// Content returns the PlantUML source of src: the joined @startuml blocks
// if there are any, src itself otherwise.
func Content(src string) string {
	blocks := blockRe.FindAllStringSubmatch(src, -1)
	if len(blocks) == 0 {
		return src
	}
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = strings.TrimSpace(b[1])
	}
	return strings.Join(parts, "\n")
}

// ParseRelations extracts Rel statements in source order.
func ParseRelations(src string) []classify.RawRelationship {
	var out []classify.RawRelationship
	for _, m := range relRe.FindAllStringSubmatch(Content(src), -1) {
		label := strings.TrimSpace(m[3])
		desc := label
		if tech := strings.TrimSpace(m[4]); tech != "" {
			desc = label + " " + tech
		}
		out = append(out, classify.RawRelationship{
			From:        m[1],
			To:          m[2],
			Type:        label,
			Description: desc,
		})
	}
	return out
}

// ParseElements extracts element declarations in source order.
func ParseElements(src string) []Element {
	src = Content(src)
	type found struct {
		at int
		el Element
	}
	var all []found

	for _, idx := range systemRe.FindAllStringSubmatchIndex(src, -1) {
		all = append(all, found{at: idx[0], el: Element{
			Kind:        src[idx[2]:idx[3]],
			Alias:       src[idx[4]:idx[5]],
			Name:        strings.TrimSpace(src[idx[6]:idx[7]]),
			Description: group(src, idx, 4),
		}})
	}
	for _, idx := range elementRe.FindAllStringSubmatchIndex(src, -1) {
		el := Element{
			Kind:  src[idx[2]:idx[3]],
			Alias: src[idx[4]:idx[5]],
			Name:  strings.TrimSpace(src[idx[6]:idx[7]]),
		}
		// With three strings the second is the technology; with two it is
		// the description.
		third, fourth := group(src, idx, 4), group(src, idx, 5)
		if fourth != "" {
			el.Technology, el.Description = third, fourth
		} else {
			el.Description = third
		}
		all = append(all, found{at: idx[0], el: el})
	}

	slices.SortFunc(all, func(a, b found) int { return cmp.Compare(a.at, b.at) })
	out := make([]Element, len(all))
	for i, f := range all {
		out[i] = f.el
	}
	return out
}

func group(src string, idx []int, n int) string {
	if idx[2*n] < 0 {
		return ""
	}
	return strings.TrimSpace(src[idx[2*n]:idx[2*n+1]])
}

// Parse extracts elements and relations.
func Parse(src string) Diagram {
	return Diagram{Elements: ParseElements(src), Relations: ParseRelations(src)}
}

// ParseFile reads and parses a .puml, .plantuml or markdown file.
func ParseFile(path string) (Diagram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Diagram{}, fmt.Errorf("read diagram: %w", err)
	}
	return Parse(string(data)), nil
}

// Resolve returns the relations with aliases replaced by entity ids.
// Aliases missing from the map are kept as they are.
func (d Diagram) Resolve(aliases map[string]string) []classify.RawRelationship {
	out := make([]classify.RawRelationship, len(d.Relations))
	for i, r := range d.Relations {
		if id, ok := aliases[r.From]; ok {
			r.From = id
		}
		if id, ok := aliases[r.To]; ok {
			r.To = id
		}
		out[i] = r
	}
	return out
}

// IsDiagramPath reports whether path names a file Parse understands.
func IsDiagramPath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".puml", ".plantuml", ".pu", ".md"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
