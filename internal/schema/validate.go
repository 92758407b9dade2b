package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts a time.Time or a string in one of the common ISO layouts.
func ParseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, true
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ToNumber converts the numeric kinds a decoded payload can carry.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ValidID reports whether v is a string holding a well-formed identifier.
func ValidID(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func present(data map[string]any, key string) bool {
	v, ok := data[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return false
	}
	return true
}

func requireString(errs []string, data map[string]any, key, label string) []string {
	if s, ok := data[key].(string); !ok || s == "" {
		errs = append(errs, label+" is required and must be a string")
	}
	return errs
}

func requireNumber(errs []string, data map[string]any, key, label string) []string {
	n, ok := ToNumber(data[key])
	switch {
	case !ok || n == 0:
		errs = append(errs, label+" is required and must be a number")
	case n != math.Trunc(n):
		errs = append(errs, label+" must be a whole number")
	}
	return errs
}

func requireID(errs []string, data map[string]any, key, label string) []string {
	if !present(data, key) {
		return append(errs, label+" is required")
	}
	if !ValidID(data[key]) {
		errs = append(errs, label+" must be a valid ID")
	}
	return errs
}

func checkEnum(errs []string, data map[string]any, key, msg string, allowed []string) []string {
	if !present(data, key) {
		return errs
	}
	s, ok := data[key].(string)
	if !ok || !slices.Contains(allowed, s) {
		errs = append(errs, msg)
	}
	return errs
}

func checkPeriod(errs []string, data map[string]any) []string {
	start, okStart := ToNumber(data["period_start"])
	end, okEnd := ToNumber(data["period_end"])
	if okStart && okEnd && start != 0 && end != 0 && start >= end {
		errs = append(errs, "Period start must be less than period end")
	}
	return errs
}

func validateUser(data map[string]any) []string {
	var errs []string
	errs = requireString(errs, data, "nis", "NIS")
	errs = requireString(errs, data, "password", "Password")
	errs = requireString(errs, data, "nama_lengkap", "Nama lengkap")
	errs = checkEnum(errs, data, "role", `Role must be either "voter" or "admin"`, roles)
	errs = checkEnum(errs, data, "status", `Status must be either "active" or "inactive"`, statusActive)
	return errs
}

func validatePosition(data map[string]any) []string {
	var errs []string
	errs = requireNumber(errs, data, "position_id", "Position ID")
	errs = requireString(errs, data, "name", "Name")
	errs = checkEnum(errs, data, "status", `Status must be either "active" or "inactive"`, statusActive)
	return errs
}

func validateCandidate(data map[string]any) []string {
	var errs []string
	errs = requireNumber(errs, data, "position_id", "Position ID")
	errs = requireNumber(errs, data, "candidate_number", "Candidate number")
	errs = requireNumber(errs, data, "period_start", "Period start")
	errs = requireNumber(errs, data, "period_end", "Period end")
	errs = requireID(errs, data, "user_id", "User ID")
	errs = requireString(errs, data, "name", "Name")
	errs = requireString(errs, data, "profile", "Profile")
	errs = checkEnum(errs, data, "status", `Status must be either "active" or "inactive"`, statusActive)
	errs = checkPeriod(errs, data)

	if vm, ok := data["vision_mission"]; ok && vm != nil {
		obj, isObj := vm.(map[string]any)
		if !isObj {
			errs = append(errs, "Vision mission must be an object")
		} else {
			if v, has := obj["vision"]; has && v != nil {
				if _, isStr := v.(string); !isStr {
					errs = append(errs, "Vision must be a string")
				}
			}
			if m, has := obj["mission"]; has && m != nil {
				if _, isStr := m.(string); !isStr {
					errs = append(errs, "Mission must be a string")
				}
			}
		}
	}
	return errs
}

func validateVote(data map[string]any) []string {
	var errs []string
	errs = requireID(errs, data, "user_id", "User ID")
	errs = requireID(errs, data, "candidate_id", "Candidate ID")
	errs = requireNumber(errs, data, "position_id", "Position ID")
	errs = requireNumber(errs, data, "period_start", "Period start")
	errs = requireNumber(errs, data, "period_end", "Period end")
	errs = checkPeriod(errs, data)
	return errs
}

func validateElection(data map[string]any) []string {
	var errs []string
	errs = requireNumber(errs, data, "period_start", "Period start")
	errs = requireNumber(errs, data, "period_end", "Period end")
	errs = checkEnum(errs, data, "status", `Status must be "upcoming", "ongoing", or "closed"`, electionStates)
	errs = checkPeriod(errs, data)

	if present(data, "voting_start") && present(data, "voting_end") {
		start, okStart := ParseDate(data["voting_start"])
		end, okEnd := ParseDate(data["voting_end"])
		switch {
		case !okStart || !okEnd:
			errs = append(errs, "Voting start and voting end must be valid dates")
		case !start.Before(end):
			errs = append(errs, "Voting start must be before voting end")
		}
	}
	return errs
}

// ValidatePatch checks the fields present in an update payload: enum
// membership and the declared type of each supplied value. Absent fields
// are not required; required and enum fields cannot be cleared.
func (d *Definition) ValidatePatch(data map[string]any) []string {
	var errs []string
	for _, f := range d.Fields {
		v, ok := data[f.Name]
		if !ok {
			continue
		}
		if v == nil {
			// Only optional, unconstrained fields can be cleared.
			if f.Required || len(f.Enum) > 0 {
				errs = append(errs, f.Name+" cannot be null")
			}
			continue
		}
		if msg := checkType(f, v); msg != "" {
			errs = append(errs, msg)
			continue
		}
		if s, isString := v.(string); isString && f.Required && s == "" {
			errs = append(errs, f.Name+" cannot be empty")
			continue
		}
		if len(f.Enum) > 0 {
			if s, _ := v.(string); !slices.Contains(f.Enum, s) {
				errs = append(errs, fmt.Sprintf("%s must be one of: %s", f.Name, strings.Join(f.Enum, ", ")))
			}
		}
	}
	return errs
}

func checkType(f Field, v any) string {
	switch f.Type {
	case String:
		if _, ok := v.(string); !ok {
			return f.Name + " must be a string"
		}
	case Number:
		n, ok := ToNumber(v)
		if !ok {
			return f.Name + " must be a number"
		}
		if n != math.Trunc(n) {
			return f.Name + " must be a whole number"
		}
	case Boolean:
		if _, ok := v.(bool); !ok {
			return f.Name + " must be a boolean"
		}
	case Date:
		if _, ok := ParseDate(v); !ok {
			return f.Name + " must be a valid date"
		}
	case ID:
		if !ValidID(v) {
			return f.Name + " must be a valid ID"
		}
	case Object:
		if _, ok := v.(map[string]any); !ok {
			return f.Name + " must be an object"
		}
	}
	return ""
}
