package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pemiyos/internal/models"
	"pemiyos/internal/schema"
	"pemiyos/internal/utils"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// NoLimit is the limit value that disables pagination.
	NoLimit = "no_limit"
)

// ListParams is the parameter bag of a list query. Filters holds every
// non-reserved key; values are scalars or slices of scalars.
type ListParams struct {
	Search           string
	Limit            int
	NoLimit          bool
	Page             int
	IsCount          bool
	IncludeRelations bool
	Filters          map[string]any
}

var reservedParams = map[string]bool{
	"search":            true,
	"limit":             true,
	"page":              true,
	"is_count":          true,
	"include_relations": true,
}

// ParseListParams reads a list query from URL query values. Unparseable
// limit and page values fall back to their defaults.
func ParseListParams(values url.Values) ListParams {
	p := ListParams{
		Search:           values.Get("search"),
		Page:             utils.StringToInt(values.Get("page")),
		IsCount:          utils.StringToBool(values.Get("is_count")),
		IncludeRelations: utils.StringToBool(values.Get("include_relations")),
		Filters:          map[string]any{},
	}
	if limit := values.Get("limit"); limit == NoLimit {
		p.NoLimit = true
	} else {
		p.Limit = utils.StringToInt(limit)
	}

	for key, vals := range values {
		if reservedParams[key] {
			continue
		}
		switch len(vals) {
		case 0:
		case 1:
			p.Filters[key] = vals[0]
		default:
			p.Filters[key] = append([]string(nil), vals...)
		}
	}
	return p
}

// Pagination describes one page of a list result.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	PerPage     int   `json:"per_page"`
}

// ListResult is either a count (is_count) or a slice of documents, with
// Pagination set unless the no-limit sentinel was used.
type ListResult struct {
	Count      *int64
	Data       []models.Document
	Pagination *Pagination
}

// DocumentService answers read queries against any collection.
type DocumentService struct {
	db        *gorm.DB
	log       zerolog.Logger
	relations *RelationPopulator
}

func NewDocumentService(db *gorm.DB, log zerolog.Logger) *DocumentService {
	s := &DocumentService{db: db, log: log.With().Str("component", "query").Logger()}
	s.relations = NewRelationPopulator(s, log)
	return s
}

// Relations returns the populator bound to this service.
func (s *DocumentService) Relations() *RelationPopulator {
	return s.relations
}

// FindAll lists the live documents of c matching p.
func (s *DocumentService) FindAll(ctx context.Context, c schema.Collection, p ListParams) (*ListResult, error) {
	def := schema.Lookup(c)
	t := tableFor(c)

	// Count and page are built from the same scope so they agree on the
	// predicate.
	scope := s.scope(def, p.Search, p.Filters)
	query := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(t.model()).Scopes(scope)
	}

	if p.IsCount {
		var n int64
		if err := query().Count(&n).Error; err != nil {
			return nil, Internal(err, "Failed to fetch %s", c)
		}
		return &ListResult{Count: &n}, nil
	}

	ordered := func() *gorm.DB {
		return query().Order("created_at ASC").Order("id ASC")
	}

	if p.NoLimit {
		recs, err := t.find(ordered())
		if err != nil {
			return nil, Internal(err, "Failed to fetch %s", c)
		}
		docs, err := s.documents(ctx, c, recs, p.IncludeRelations)
		if err != nil {
			return nil, err
		}
		return &ListResult{Data: docs}, nil
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	page := p.Page
	if page < 1 {
		page = 1
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, Internal(err, "Failed to fetch %s", c)
	}

	recs, err := t.find(ordered().Offset((page - 1) * limit).Limit(limit))
	if err != nil {
		return nil, Internal(err, "Failed to fetch %s", c)
	}
	docs, err := s.documents(ctx, c, recs, p.IncludeRelations)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Data: docs,
		Pagination: &Pagination{
			CurrentPage: page,
			TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
			TotalItems:  total,
			PerPage:     limit,
		},
	}, nil
}

// FindByID returns the live document of c with the given id. A malformed id
// reads as not found.
func (s *DocumentService) FindByID(ctx context.Context, c schema.Collection, id string) (models.Document, error) {
	rec, err := s.load(s.db.WithContext(ctx), c, id)
	if err != nil {
		return nil, err
	}
	return s.document(c, rec)
}

// load fetches the live record of c with id using tx.
func (s *DocumentService) load(tx *gorm.DB, c schema.Collection, id string) (models.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, NotFound("%s not found", c.Singular())
	}
	t := tableFor(c)
	rec, err := t.first(tx.Where("id = ? AND deleted_at IS NULL", id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("%s not found", c.Singular())
	}
	if err != nil {
		return nil, Internal(err, "Failed to fetch %s", c.Singular())
	}
	return rec, nil
}

func (s *DocumentService) documents(ctx context.Context, c schema.Collection, recs []models.Record, populate bool) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(recs))
	for _, rec := range recs {
		doc, err := s.document(c, rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if populate {
		docs = s.relations.Populate(ctx, c, docs)
	}
	return docs, nil
}

// document renders a record in its wire form: declared fields, schemaless
// attributes and derived content, without hidden fields.
func (s *DocumentService) document(c schema.Collection, rec models.Record) (models.Document, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, Internal(err, "Failed to encode %s", c.Singular())
	}
	doc := models.Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, Internal(err, "Failed to encode %s", c.Singular())
	}

	def := schema.Lookup(c)
	for k, v := range rec.Meta().Attributes {
		if _, exists := doc[k]; !exists && !def.Declared(k) {
			doc[k] = v
		}
	}
	for _, h := range def.Hidden {
		delete(doc, h)
	}
	decorate(c, doc)
	return doc, nil
}

var attributeKey = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// scope builds the shared predicate of a list query: live documents, the
// free-text search and every filter.
func (s *DocumentService) scope(def *schema.Definition, search string, filters map[string]any) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("deleted_at IS NULL")

		if search != "" && len(def.Searchable) > 0 {
			pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
			exprs := make([]clause.Expression, 0, len(def.Searchable))
			for _, name := range def.Searchable {
				f, _ := def.Field(name)
				exprs = append(exprs, clause.Expr{
					SQL:  `LOWER(?) LIKE ? ESCAPE '\'`,
					Vars: []any{clause.Column{Name: f.Column}, pattern},
				})
			}
			tx = tx.Where(clause.Or(exprs...))
		}

		keys := make([]string, 0, len(filters))
		for k := range filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			values := filterValues(filters[key])
			if len(values) == 0 {
				continue
			}
			if f, ok := def.Field(key); ok {
				tx = s.fieldFilter(tx, f, values)
				continue
			}
			tx = s.attributeFilter(tx, key, values)
		}
		return tx
	}
}

func (s *DocumentService) fieldFilter(tx *gorm.DB, f schema.Field, values []any) *gorm.DB {
	coerced := make([]any, 0, len(values))
	for _, v := range values {
		if cv, ok := s.coerce(f, v); ok {
			coerced = append(coerced, cv)
		}
	}
	col := clause.Column{Name: f.Column}
	switch len(coerced) {
	case 0:
		return tx
	case 1:
		return tx.Where(clause.Eq{Column: col, Value: coerced[0]})
	default:
		return tx.Where(clause.IN{Column: col, Values: coerced})
	}
}

// attributeFilter matches keys the schema does not declare against the
// schemaless attributes column.
func (s *DocumentService) attributeFilter(tx *gorm.DB, key string, values []any) *gorm.DB {
	if !attributeKey.MatchString(key) {
		s.log.Warn().Str("field", key).Msg("ignoring filter on unsupported field name")
		return tx
	}
	if len(values) == 1 {
		return tx.Where(datatypes.JSONQuery("attributes").Equals(values[0], key))
	}
	exprs := make([]clause.Expression, 0, len(values))
	for _, v := range values {
		exprs = append(exprs, datatypes.JSONQuery("attributes").Equals(v, key))
	}
	return tx.Where(clause.Or(exprs...))
}

// coerce converts a filter value to the declared field type. ok is false
// when the value cannot be used and the filter is skipped.
func (s *DocumentService) coerce(f schema.Field, v any) (any, bool) {
	switch f.Type {
	case schema.String:
		if str, ok := v.(string); ok {
			return str, true
		}
		return v, true
	case schema.Number:
		var n float64
		switch x := v.(type) {
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil, false
			}
			n = parsed
		default:
			parsed, ok := schema.ToNumber(v)
			if !ok {
				return nil, false
			}
			n = parsed
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, false
		}
		if n == math.Trunc(n) {
			return int64(n), true
		}
		return n, true
	case schema.ID:
		str, _ := v.(string)
		id, err := uuid.Parse(str)
		if err != nil {
			s.log.Warn().Str("field", f.Name).Interface("value", v).Msg("skipping malformed id filter")
			return nil, false
		}
		return id.String(), true
	case schema.Boolean:
		return v == "true" || v == true, true
	case schema.Date:
		t, ok := schema.ParseDate(v)
		if !ok {
			return nil, false
		}
		return t, true
	case schema.Object:
		s.log.Warn().Str("field", f.Name).Msg("skipping filter on object field")
		return nil, false
	}
	return nil, false
}

// filterValues flattens a filter value, dropping nil and empty strings. A
// single-element slice becomes a single value.
func filterValues(v any) []any {
	var out []any
	add := func(x any) {
		if x == nil {
			return
		}
		if s, ok := x.(string); ok && s == "" {
			return
		}
		out = append(out, x)
	}
	switch vals := v.(type) {
	case []string:
		for _, x := range vals {
			add(x)
		}
	case []any:
		for _, x := range vals {
			add(x)
		}
	default:
		add(v)
	}
	return out
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// table is the typed access to one collection's model.
type table interface {
	model() models.Record
	find(tx *gorm.DB) ([]models.Record, error)
	first(tx *gorm.DB) (models.Record, error)
}

type typedTable[T any, P interface {
	*T
	models.Record
}] struct{}

func (typedTable[T, P]) model() models.Record { return P(new(T)) }

func (typedTable[T, P]) find(tx *gorm.DB) ([]models.Record, error) {
	var rows []T
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Record, len(rows))
	for i := range rows {
		out[i] = P(&rows[i])
	}
	return out, nil
}

func (typedTable[T, P]) first(tx *gorm.DB) (models.Record, error) {
	rec := P(new(T))
	if err := tx.First(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

var tables = map[schema.Collection]table{
	schema.Users:      typedTable[models.User, *models.User]{},
	schema.Positions:  typedTable[models.Position, *models.Position]{},
	schema.Candidates: typedTable[models.Candidate, *models.Candidate]{},
	schema.Votes:      typedTable[models.Vote, *models.Vote]{},
	schema.Elections:  typedTable[models.Election, *models.Election]{},
}

func tableFor(c schema.Collection) table {
	t, ok := tables[c]
	if !ok {
		panic("services: no table for collection " + string(c))
	}
	return t
}
