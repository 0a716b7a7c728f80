package classify

import (
	"fmt"

	"github.com/superrelativity/relgraph/pkg/entity"
)

// RelationType is a canonical relationship type.
type RelationType string

// Canonical relationship types.
const (
	Relates      RelationType = "RELATES"
	Calls        RelationType = "CALLS"
	Owns         RelationType = "OWNS"
	Exposes      RelationType = "EXPOSES"
	WorksOn      RelationType = "WORKS_ON"
	Implements   RelationType = "IMPLEMENTS"
	Includes     RelationType = "INCLUDES"
	Changes      RelationType = "CHANGES"
	Materializes RelationType = "MATERIALIZES"
	InstalledOn  RelationType = "INSTALLED_ON"
	Contains     RelationType = "CONTAINS"
)

// RelationTypes lists every canonical type.
var RelationTypes = []RelationType{
	Relates, Calls, Owns, Exposes, WorksOn, Implements,
	Includes, Changes, Materializes, InstalledOn, Contains,
}

// Mode is the data flow direction of a relationship.
type Mode string

const (
	Pushes        Mode = "pushes"
	Pulls         Mode = "pulls"
	Bidirectional Mode = "bidirectional"
)

// RW is the access mode of a relationship.
type RW string

const (
	Reads       RW = "reads"
	Writes      RW = "writes"
	ReadNWrites RW = "read-n-writes"
)

// RawRelationship is an uninterpreted relationship record from a source.
// Type is a free-text hint, not a canonical type.
type RawRelationship struct {
	From        string `json:"from" yaml:"from"`
	To          string `json:"to" yaml:"to"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Properties is the directional metadata of a classified relationship.
type Properties struct {
	Mode        Mode   `json:"mode,omitempty" bson:"mode,omitempty"`
	RW          RW     `json:"rw,omitempty" bson:"rw,omitempty"`
	Description string `json:"description" bson:"description"`
}

// ClassifiedRelationship is a relationship with a canonical type.
type ClassifiedRelationship struct {
	From          string       `json:"from" bson:"from"`
	To            string       `json:"to" bson:"to"`
	CanonicalType RelationType `json:"canonicalType" bson:"type"`
	Properties    Properties   `json:"properties" bson:"properties"`
}

// Key returns the identity used for idempotent upserts.
func (r ClassifiedRelationship) Key() string {
	return fmt.Sprintf("%s|%s|%s", r.From, r.To, r.CanonicalType)
}

// Rejection records a relationship that no rule accepted.
type Rejection struct {
	Relationship RawRelationship `json:"relationship"`
	FromType     entity.Type     `json:"fromType"`
	ToType       entity.Type     `json:"toType"`
}

// Reason describes why the relationship was rejected.
func (r Rejection) Reason() string {
	return fmt.Sprintf("%s→%s with hint %q is not an allowed relationship", r.FromType, r.ToType, r.Relationship.Type)
}
