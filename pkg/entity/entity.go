package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type is a coarse entity type tag.
type Type int

// Entity types. The zero value is Unknown.
const (
	Unknown Type = iota
	Application
	API
	BusinessFunction
	Component
	DataObject
	Table
	Server
	AppChange
	InfraChange
)

var typeNames = [...]string{
	Unknown:          "Unknown",
	Application:      "Application",
	API:              "API",
	BusinessFunction: "BusinessFunction",
	Component:        "Component",
	DataObject:       "DataObject",
	Table:            "Table",
	Server:           "Server",
	AppChange:        "AppChange",
	InfraChange:      "InfraChange",
}

// Types returns every known type except Unknown, in declaration order.
func Types() []Type {
	return []Type{Application, API, BusinessFunction, Component, DataObject, Table, Server, AppChange, InfraChange}
}

// String returns the canonical label of the type.
func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return typeNames[Unknown]
	}
	return typeNames[t]
}

// MarshalJSON encodes the type as its label.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a type label. Unrecognized labels decode to Unknown.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("entity type: %w", err)
	}
	*t = ParseType(s)
	return nil
}

// labelAliases maps lower-cased labels to types. Labels are what graph
// stores and source systems call a type; several spellings are in use.
var labelAliases = map[string]Type{
	"application":          Application,
	"app":                  Application,
	"api":                  API,
	"interface":            API,
	"businessfunction":     BusinessFunction,
	"businesscapability":   BusinessFunction,
	"capability":           BusinessFunction,
	"component":            Component,
	"dataobject":           DataObject,
	"data":                 DataObject,
	"table":                Table,
	"server":               Server,
	"infrastructure":       Server,
	"appchange":            AppChange,
	"applicationchange":    AppChange,
	"infrachange":          InfraChange,
	"infrastructurechange": InfraChange,
}

// ParseType maps a type label to a Type. Matching ignores case, spaces,
// hyphens and underscores. Unrecognized labels yield Unknown.
func ParseType(label string) Type {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(label)))
	if t, ok := labelAliases[key]; ok {
		return t
	}
	return Unknown
}

// Entity is an identified element of the architecture repository.
type Entity struct {
	ID   string         `json:"id" bson:"id"`
	Type Type           `json:"type" bson:"type"`
	Name string         `json:"name,omitempty" bson:"name,omitempty"`
	Meta map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// Label returns the display name, falling back to the id.
func (e Entity) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}
