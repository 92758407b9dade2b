// Package schema declares the field tables of the five election collections.
// It is static configuration: the query builder coerces filter values with
// it, the CRUD engine validates and defaults payloads with it and the
// relation populator discovers references with it.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// FieldType is the declared type of a document field.
type FieldType int

const (
	String FieldType = iota + 1
	Number
	Boolean
	Date
	ID
	Object
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	case ID:
		return "id"
	case Object:
		return "object"
	}
	return "unknown"
}

// Field describes one declared field. Column is the table column backing it.
type Field struct {
	Name     string
	Column   string
	Type     FieldType
	Required bool
	Unique   bool
	Default  any
	Enum     []string
}

// Collection names one of the closed set of document collections.
type Collection string

const (
	Users      Collection = "users"
	Positions  Collection = "positions"
	Candidates Collection = "candidates"
	Votes      Collection = "votes"
	Elections  Collection = "elections"
)

// All lists every collection in a stable order.
var All = []Collection{Users, Positions, Candidates, Votes, Elections}

// ErrUnknownCollection is returned by Parse for names outside the closed set.
var ErrUnknownCollection = errors.New("unknown collection")

// Parse resolves a collection name.
func Parse(name string) (Collection, error) {
	for _, c := range All {
		if string(c) == name {
			return c, nil
		}
	}
	names := make([]string, len(All))
	for i, c := range All {
		names[i] = string(c)
	}
	return "", fmt.Errorf("%w %q, valid collections: %s", ErrUnknownCollection, name, strings.Join(names, ", "))
}

// Singular is the entity name used in messages and as the embedded
// relation key ("users" -> "user").
func (c Collection) Singular() string {
	return strings.TrimSuffix(string(c), "s")
}

// Definition is the schema of one collection.
type Definition struct {
	Collection Collection
	Fields     []Field
	// Searchable lists the fields matched by free-text search.
	Searchable []string
	// Hidden fields are stored but never returned to callers.
	Hidden []string
	// Validate returns the structural problems of a create payload.
	Validate func(data map[string]any) []string
}

// Field returns the declared field called name.
func (d *Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Declared reports whether name is a declared field.
func (d *Definition) Declared(name string) bool {
	_, ok := d.Field(name)
	return ok
}

// Lookup returns the definition of c. It panics on a value outside the
// closed set, which Parse never produces.
func Lookup(c Collection) *Definition {
	def, ok := registry[c]
	if !ok {
		panic(fmt.Sprintf("schema: no definition for collection %q", c))
	}
	return def
}

func meta() []Field {
	return []Field{
		{Name: "_id", Column: "id", Type: ID},
		{Name: "created_at", Column: "created_at", Type: Date},
		{Name: "updated_at", Column: "updated_at", Type: Date},
		{Name: "deleted_at", Column: "deleted_at", Type: Date},
	}
}

func fields(own ...Field) []Field {
	for i := range own {
		if own[i].Column == "" {
			own[i].Column = own[i].Name
		}
	}
	return append(own, meta()...)
}

var (
	statusActive   = []string{"active", "inactive"}
	roles          = []string{"voter", "admin"}
	electionStates = []string{"upcoming", "ongoing", "closed"}
)

var registry = map[Collection]*Definition{
	Users: {
		Collection: Users,
		Fields: fields(
			Field{Name: "nis", Type: String, Required: true, Unique: true},
			Field{Name: "password", Type: String, Required: true},
			Field{Name: "nama_lengkap", Type: String, Required: true},
			Field{Name: "role", Type: String, Enum: roles, Default: "voter"},
			Field{Name: "status", Type: String, Enum: statusActive, Default: "active"},
			Field{Name: "last_login_at", Type: Date},
		),
		Searchable: []string{"nis", "nama_lengkap", "role", "status"},
		Hidden:     []string{"password"},
		Validate:   validateUser,
	},
	Positions: {
		Collection: Positions,
		Fields: fields(
			Field{Name: "position_id", Type: Number, Required: true, Unique: true},
			Field{Name: "name", Type: String, Required: true, Unique: true},
			Field{Name: "description", Type: String},
			Field{Name: "status", Type: String, Enum: statusActive, Default: "active"},
		),
		Searchable: []string{"name", "description", "status"},
		Validate:   validatePosition,
	},
	Candidates: {
		Collection: Candidates,
		Fields: fields(
			Field{Name: "position_id", Type: Number, Required: true},
			Field{Name: "candidate_number", Type: Number, Required: true},
			Field{Name: "period_start", Type: Number, Required: true},
			Field{Name: "period_end", Type: Number, Required: true},
			Field{Name: "user_id", Type: ID, Required: true},
			Field{Name: "name", Type: String, Required: true},
			Field{Name: "image", Type: String, Default: "/candidate/default.png"},
			Field{Name: "profile", Type: String, Required: true},
			Field{Name: "vision_mission", Type: Object},
			Field{Name: "program_kerja", Type: String},
			Field{Name: "status", Type: String, Enum: statusActive, Default: "active"},
		),
		Searchable: []string{"name", "profile", "program_kerja", "status"},
		Validate:   validateCandidate,
	},
	Votes: {
		Collection: Votes,
		Fields: fields(
			Field{Name: "user_id", Type: ID, Required: true},
			Field{Name: "candidate_id", Type: ID, Required: true},
			Field{Name: "position_id", Type: Number, Required: true},
			Field{Name: "period_start", Type: Number, Required: true},
			Field{Name: "period_end", Type: Number, Required: true},
		),
		Validate: validateVote,
	},
	Elections: {
		Collection: Elections,
		Fields: fields(
			Field{Name: "period_start", Type: Number, Required: true},
			Field{Name: "period_end", Type: Number, Required: true},
			Field{Name: "voting_start", Type: Date},
			Field{Name: "voting_end", Type: Date},
			Field{Name: "status", Type: String, Enum: electionStates, Default: "upcoming"},
		),
		Searchable: []string{"status"},
		Validate:   validateElection,
	},
}
