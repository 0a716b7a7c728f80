package entity

import (
	"encoding/json"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		id   string
		want Type
	}{
		{"APP-123", Application},
		{"API-2", API},
		{"CAP-004", BusinessFunction},
		{"BF-1", BusinessFunction},
		{"COMP-7", Component},
		{"DATA-012", DataObject},
		{"TBL-9", Table},
		{"SRV-001", Server},
		{"ACH-3", AppChange},
		{"ICH-5", InfraChange},
		{"app-123", Application},
		{"REQ-001", Unknown},
		{"APP123", Unknown},
		{"-123", Unknown},
		{"", Unknown},
		{"XYZ-1", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := Resolve(tt.id); got != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestPrefixResolverCustomTable(t *testing.T) {
	r := NewPrefixResolver(map[string]Type{"svc": Application})

	if got := r.Resolve("SVC-1"); got != Application {
		t.Errorf("Resolve(SVC-1) = %v, want %v", got, Application)
	}
	if got := r.Resolve("APP-1"); got != Unknown {
		t.Errorf("Resolve(APP-1) = %v, want %v", got, Unknown)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		label string
		want  Type
	}{
		{"Application", Application},
		{"BusinessCapability", BusinessFunction},
		{"BusinessFunction", BusinessFunction},
		{"business_function", BusinessFunction},
		{"Data Object", DataObject},
		{"InfraChange", InfraChange},
		{"Requirement", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		if got := ParseType(tt.label); got != tt.want {
			t.Errorf("ParseType(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestTypeStringRoundTrip(t *testing.T) {
	for _, typ := range append(Types(), Unknown) {
		if got := ParseType(typ.String()); got != typ {
			t.Errorf("ParseType(%q) = %v, want %v", typ.String(), got, typ)
		}
	}
	if got := Type(99).String(); got != "Unknown" {
		t.Errorf("Type(99).String() = %q, want Unknown", got)
	}
}

func TestTypeJSON(t *testing.T) {
	e := Entity{ID: "APP-1", Type: Application}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"id":"APP-1","type":"Application"}`; string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back Entity
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Type != Application {
		t.Errorf("Type = %v, want %v", back.Type, Application)
	}
}

func TestIndexResolver(t *testing.T) {
	r := NewIndexResolver([]Entity{
		{ID: "orders", Type: Application},
		{ID: "APP-7", Type: Server},
		{ID: "mystery", Type: Unknown},
	}, nil)

	tests := []struct {
		id   string
		want Type
	}{
		{"orders", Application},
		{"APP-7", Server},
		{"API-1", API},
		{"mystery", Unknown},
		{"nothing", Unknown},
	}
	for _, tt := range tests {
		if got := r.Resolve(tt.id); got != tt.want {
			t.Errorf("Resolve(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
