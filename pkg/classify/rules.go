package classify

import (
	"slices"
	"strings"

	"github.com/superrelativity/relgraph/pkg/entity"
)

// Rule is one row of the classification table.
type Rule struct {
	From     entity.Type
	To       []entity.Type
	Keywords []string // nil means unconditional
	Type     RelationType
	Mode     bool // infer Mode from the hint
	RW       bool // infer RW from the hint
}

// Unconditional reports whether the rule has no keyword gate.
func (r Rule) Unconditional() bool { return len(r.Keywords) == 0 }

func (r Rule) matches(from, to entity.Type, hint string) bool {
	if from != r.From || !slices.Contains(r.To, to) {
		return false
	}
	return r.Unconditional() || containsAny(hint, r.Keywords)
}

var callKeywords = []string{"call", "use", "consume"}

// rules is evaluated top to bottom; the first match wins.
var rules = []Rule{
	{From: entity.Application, To: []entity.Type{entity.Application}, Keywords: []string{"integrate", "connect", "link"}, Type: Relates},
	{From: entity.Application, To: []entity.Type{entity.API}, Keywords: callKeywords, Type: Calls, Mode: true, RW: true},
	{From: entity.Application, To: []entity.Type{entity.BusinessFunction}, Keywords: []string{"own", "support", "provide"}, Type: Owns},
	{From: entity.Application, To: []entity.Type{entity.Component}, Keywords: []string{"own", "contain", "include"}, Type: Owns},
	{From: entity.API, To: []entity.Type{entity.Component}, Keywords: []string{"expose", "provide", "serve"}, Type: Exposes},
	{From: entity.API, To: []entity.Type{entity.DataObject}, Keywords: []string{"work", "operate", "manipulate", "use", "read", "write"}, Type: WorksOn, RW: true},
	{From: entity.Component, To: []entity.Type{entity.API}, Keywords: callKeywords, Type: Calls, Mode: true, RW: true},
	{From: entity.Component, To: []entity.Type{entity.BusinessFunction}, Keywords: []string{"implement", "realize", "execute"}, Type: Implements},
	{From: entity.BusinessFunction, To: []entity.Type{entity.API}, Keywords: []string{"include", "use", "leverage"}, Type: Includes},
	{From: entity.AppChange, To: []entity.Type{entity.Component, entity.BusinessFunction, entity.DataObject}, Type: Changes},
	{From: entity.Table, To: []entity.Type{entity.DataObject}, Keywords: []string{"materialize", "store", "persist"}, Type: Materializes},
	{From: entity.Component, To: []entity.Type{entity.Server}, Keywords: []string{"install", "deploy", "host", "run"}, Type: InstalledOn},
	{From: entity.InfraChange, To: []entity.Type{entity.Server}, Type: Changes},
	{From: entity.Component, To: []entity.Type{entity.Component}, Keywords: []string{"contain", "include"}, Type: Contains},
	{From: entity.Component, To: []entity.Type{entity.Component}, Type: Relates},
	{From: entity.Component, To: []entity.Type{entity.DataObject}, Keywords: worksOnKeywords, Type: WorksOn, RW: true},
	{From: entity.BusinessFunction, To: []entity.Type{entity.DataObject}, Keywords: worksOnKeywords, Type: WorksOn, RW: true},
	{From: entity.BusinessFunction, To: []entity.Type{entity.BusinessFunction}, Type: Relates, Mode: true},
}

var worksOnKeywords = []string{"use", "read", "write", "modify", "inquire", "access", "work"}

// Rules returns a copy of the classification table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		r.To = slices.Clone(r.To)
		r.Keywords = slices.Clone(r.Keywords)
		out[i] = r
	}
	return out
}

// Allowed reports whether any rule exists for the type pair, regardless of
// the hint.
func Allowed(from, to entity.Type) bool {
	for _, r := range rules {
		if r.From == from && slices.Contains(r.To, to) {
			return true
		}
	}
	return false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
