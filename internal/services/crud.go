package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pemiyos/internal/models"
	"pemiyos/internal/schema"
	"pemiyos/internal/utils"
)

// Fields the caller can never set directly.
var immutableFields = []string{"_id", "created_at", "updated_at", "deleted_at"}

// BulkResult reports a committed bulk insert.
type BulkResult struct {
	Message       string   `json:"message"`
	InsertedCount int      `json:"inserted_count"`
	InsertedIDs   []string `json:"inserted_ids"`
}

// FlushOutcome is the result of wiping one collection.
type FlushOutcome struct {
	Collection   string `json:"collection"`
	DeletedCount int64  `json:"deleted_count"`
	Message      string `json:"message"`
	Error        string `json:"error,omitempty"`
}

// FlushResult collects the outcome of every requested collection.
type FlushResult struct {
	Message string         `json:"message"`
	Details []FlushOutcome `json:"details"`
}

// CRUDService owns every write path: validation, defaults, id
// normalization, timestamps, password hashing and uniqueness translation.
type CRUDService struct {
	db   *gorm.DB
	docs *DocumentService
	log  zerolog.Logger
}

func NewCRUDService(db *gorm.DB, docs *DocumentService, log zerolog.Logger) *CRUDService {
	return &CRUDService{db: db, docs: docs, log: log.With().Str("component", "crud").Logger()}
}

func (s *CRUDService) now() time.Time {
	if s.db.NowFunc != nil {
		return s.db.NowFunc()
	}
	return time.Now().UTC()
}

// Create validates and stores one document and returns it as stored.
func (s *CRUDService) Create(ctx context.Context, c schema.Collection, data map[string]any) (models.Document, error) {
	if len(data) == 0 {
		return nil, Validation("Request body is required")
	}
	data = clone(data)
	tx := s.db.WithContext(ctx)

	if c == schema.Votes {
		if err := s.fillVote(tx, data); err != nil {
			return nil, err
		}
	}

	def := schema.Lookup(c)
	if errs := def.Validate(data); len(errs) > 0 {
		return nil, Validation("Validation failed", errs...)
	}

	switch c {
	case schema.Candidates:
		taken, err := s.candidacyTaken(tx, intOf(data["period_start"]), intOf(data["period_end"]), data["user_id"].(string))
		if err != nil {
			return nil, err
		}
		if len(taken) > 0 {
			return nil, Conflict("User is already registered as a candidate for this period. Each user can only be a candidate for one position per period.")
		}
	case schema.Votes:
		voted, err := s.voteExists(tx, data["user_id"].(string), intOf(data["position_id"]), intOf(data["period_start"]), intOf(data["period_end"]))
		if err != nil {
			return nil, err
		}
		if voted {
			return nil, Conflict("User has already voted for this position in this period")
		}
	}

	id, err := s.insert(tx, c, data)
	if err != nil {
		return nil, err
	}
	return s.docs.FindByID(ctx, c, id)
}

// Update applies a partial patch to a live document. Identity and
// lifecycle fields in the patch are ignored.
func (s *CRUDService) Update(ctx context.Context, c schema.Collection, id string, data map[string]any) (models.Document, error) {
	tx := s.db.WithContext(ctx)
	rec, err := s.docs.load(tx, c, id)
	if err != nil {
		return nil, err
	}

	patch := clone(data)
	for _, f := range immutableFields {
		delete(patch, f)
	}

	def := schema.Lookup(c)
	if errs := def.ValidatePatch(patch); len(errs) > 0 {
		return nil, Validation("Validation failed", errs...)
	}

	normalizeIDs(patch)
	if err := hashPassword(c, patch); err != nil {
		return nil, err
	}

	declared, extras := split(c, patch)
	next := tableFor(c).model()
	if err := decode(next, declared); err != nil {
		return nil, Validation("Validation failed", err.Error())
	}

	cols := []string{"updated_at"}
	for name := range declared {
		f, _ := def.Field(name)
		cols = append(cols, f.Column)
	}
	next.Meta().UpdatedAt = s.now()

	if len(extras) > 0 {
		attrs := datatypes.JSONMap{}
		for k, v := range rec.Meta().Attributes {
			attrs[k] = v
		}
		for k, v := range extras {
			if v == nil {
				delete(attrs, k)
				continue
			}
			attrs[k] = v
		}
		next.Meta().Attributes = attrs
		cols = append(cols, "attributes")
	}

	res := tx.Model(rec).Where("deleted_at IS NULL").Select(cols).Updates(next)
	if res.Error != nil {
		return nil, storeError(res.Error, "Failed to update %s", c.Singular())
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("%s not found", c.Singular())
	}
	return s.docs.FindByID(ctx, c, id)
}

// SoftDelete marks a live document deleted. Admin users read as not found.
func (s *CRUDService) SoftDelete(ctx context.Context, c schema.Collection, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return NotFound("%s not found", c.Singular())
	}
	now := s.now()
	res := s.deletable(s.db.WithContext(ctx), c, id).
		Updates(map[string]any{"deleted_at": now, "updated_at": now})
	if res.Error != nil {
		return Internal(res.Error, "Failed to delete %s", c.Singular())
	}
	if res.RowsAffected == 0 {
		return NotFound("%s not found", c.Singular())
	}
	return nil
}

// HardDelete physically removes a live document. Admin users read as not
// found.
func (s *CRUDService) HardDelete(ctx context.Context, c schema.Collection, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return NotFound("%s not found", c.Singular())
	}
	res := s.deletable(s.db.WithContext(ctx), c, id).Delete(tableFor(c).model())
	if res.Error != nil {
		return Internal(res.Error, "Failed to delete %s", c.Singular())
	}
	if res.RowsAffected == 0 {
		return NotFound("%s not found", c.Singular())
	}
	return nil
}

func (s *CRUDService) deletable(tx *gorm.DB, c schema.Collection, id string) *gorm.DB {
	q := tx.Model(tableFor(c).model()).Where("id = ? AND deleted_at IS NULL", id)
	if c == schema.Users {
		q = q.Where("role <> ?", models.RoleAdmin)
	}
	return q
}

// BulkCreate inserts every item or none of them.
func (s *CRUDService) BulkCreate(ctx context.Context, c schema.Collection, items []map[string]any) (*BulkResult, error) {
	if len(items) == 0 {
		return nil, Validation("Request body must be a non-empty array")
	}

	result := &BulkResult{Message: "Bulk create successful"}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		def := schema.Lookup(c)
		prepared := make([]map[string]any, len(items))

		var errs []string
		for i, item := range items {
			data := clone(item)
			if c == schema.Votes {
				if err := s.fillVote(tx, data); err != nil {
					var e *Error
					if !errors.As(err, &e) || e.Kind != KindValidation {
						return err
					}
					for _, d := range e.Details {
						errs = append(errs, fmt.Sprintf("item %d: %s", i, d))
					}
					continue
				}
			}
			for _, msg := range def.Validate(data) {
				errs = append(errs, fmt.Sprintf("item %d: %s", i, msg))
			}
			prepared[i] = data
		}
		if len(errs) > 0 {
			return Validation("Validation failed", errs...)
		}

		switch c {
		case schema.Candidates:
			if err := s.checkCandidacies(tx, prepared); err != nil {
				return err
			}
		case schema.Votes:
			for _, data := range prepared {
				voted, err := s.voteExists(tx, data["user_id"].(string), intOf(data["position_id"]), intOf(data["period_start"]), intOf(data["period_end"]))
				if err != nil {
					return err
				}
				if voted {
					return Conflict("User has already voted for this position in this period")
				}
			}
		}

		for _, data := range prepared {
			id, err := s.insert(tx, c, data)
			if err != nil {
				return err
			}
			result.InsertedIDs = append(result.InsertedIDs, id)
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "Failed to bulk create %s", c.Singular())
	}
	result.InsertedCount = len(result.InsertedIDs)
	return result, nil
}

// checkCandidacies rejects a batch when any listed user already stands in
// the same period, either in the store or twice within the batch.
func (s *CRUDService) checkCandidacies(tx *gorm.DB, items []map[string]any) error {
	type period struct{ start, end int }
	groups := map[period][]string{}
	var order []period
	for _, item := range items {
		p := period{intOf(item["period_start"]), intOf(item["period_end"])}
		if _, ok := groups[p]; !ok {
			order = append(order, p)
		}
		groups[p] = append(groups[p], normalizeID(item["user_id"].(string)))
	}

	for _, p := range order {
		userIDs := groups[p]
		seen := map[string]bool{}
		var dup []string
		for _, id := range userIDs {
			if seen[id] {
				dup = append(dup, id)
			}
			seen[id] = true
		}
		taken, err := s.candidacyTaken(tx, p.start, p.end, userIDs...)
		if err != nil {
			return err
		}
		taken = append(taken, dup...)
		if len(taken) > 0 {
			sort.Strings(taken)
			return Conflict("Some users are already registered as candidates for period %d-%d. User IDs: %s. Each user can only be a candidate for one position per period.",
				p.start, p.end, strings.Join(taken, ", "))
		}
	}
	return nil
}

// candidacyTaken returns which of userIDs already hold a live candidacy in
// the period.
func (s *CRUDService) candidacyTaken(tx *gorm.DB, start, end int, userIDs ...string) ([]string, error) {
	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = normalizeID(id)
	}
	var taken []string
	err := tx.Model(&models.Candidate{}).
		Where("user_id IN ? AND period_start = ? AND period_end = ? AND deleted_at IS NULL", ids, start, end).
		Distinct().
		Pluck("user_id", &taken).Error
	if err != nil {
		return nil, Internal(err, "Failed to check candidates")
	}
	return taken, nil
}

// CheckVoteConstraint reports whether the user already has a live vote for
// the position in the period.
func (s *CRUDService) CheckVoteConstraint(ctx context.Context, userID string, positionID, periodStart, periodEnd int) (bool, error) {
	return s.voteExists(s.db.WithContext(ctx), userID, positionID, periodStart, periodEnd)
}

func (s *CRUDService) voteExists(tx *gorm.DB, userID string, positionID, periodStart, periodEnd int) (bool, error) {
	var n int64
	err := tx.Model(&models.Vote{}).
		Where("user_id = ? AND position_id = ? AND period_start = ? AND period_end = ? AND deleted_at IS NULL",
			normalizeID(userID), positionID, periodStart, periodEnd).
		Count(&n).Error
	if err != nil {
		return false, Internal(err, "Failed to check vote constraint")
	}
	return n > 0, nil
}

// fillVote copies position and period from the referenced candidate into a
// vote payload and rejects values that disagree with it.
func (s *CRUDService) fillVote(tx *gorm.DB, data map[string]any) error {
	id, ok := data["candidate_id"].(string)
	if !ok || !schema.ValidID(id) {
		// Left to structural validation.
		return nil
	}

	var cand models.Candidate
	err := tx.Where("id = ? AND deleted_at IS NULL", normalizeID(id)).First(&cand).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Validation("Validation failed", "Candidate not found")
	}
	if err != nil {
		return Internal(err, "Failed to load candidate")
	}
	if cand.Status != models.StatusActive {
		return Validation("Validation failed", "Candidate is not active")
	}

	var errs []string
	for _, ref := range []struct {
		field, label string
		want         int
	}{
		{"position_id", "Position ID", cand.PositionID},
		{"period_start", "Period start", cand.PeriodStart},
		{"period_end", "Period end", cand.PeriodEnd},
	} {
		v, ok := data[ref.field]
		if !ok || v == nil {
			data[ref.field] = ref.want
			continue
		}
		if n, isNum := schema.ToNumber(v); isNum && n != float64(ref.want) {
			errs = append(errs, ref.label+" does not match the candidate")
		}
	}
	if len(errs) > 0 {
		return Validation("Validation failed", errs...)
	}
	return nil
}

// Flush hard-deletes every document of the given collections, keeping admin
// users. A failing collection is reported and the rest still run.
func (s *CRUDService) Flush(ctx context.Context, colls []schema.Collection) (*FlushResult, error) {
	if len(colls) == 0 {
		return nil, Validation("Collections must be a non-empty array")
	}

	result := &FlushResult{Message: "All specified collections flushed successfully"}
	for _, c := range colls {
		q := s.db.WithContext(ctx)
		if c == schema.Users {
			q = q.Where("role <> ?", models.RoleAdmin)
		} else {
			q = q.Where("1 = 1")
		}
		res := q.Delete(tableFor(c).model())

		outcome := FlushOutcome{Collection: string(c)}
		if res.Error != nil {
			s.log.Error().Err(res.Error).Str("collection", string(c)).Msg("flush failed")
			outcome.Message = fmt.Sprintf("%s could not be flushed", c)
			outcome.Error = res.Error.Error()
			result.Message = "Some collections could not be flushed"
		} else {
			outcome.DeletedCount = res.RowsAffected
			outcome.Message = fmt.Sprintf("%s flushed successfully", c)
		}
		result.Details = append(result.Details, outcome)
	}
	return result, nil
}

// insert turns a validated payload into a stored record and returns its id.
func (s *CRUDService) insert(tx *gorm.DB, c schema.Collection, data map[string]any) (string, error) {
	def := schema.Lookup(c)
	for _, f := range immutableFields {
		delete(data, f)
	}
	applyDefaults(def, data)
	normalizeIDs(data)
	if err := hashPassword(c, data); err != nil {
		return "", err
	}

	declared, extras := split(c, data)
	rec := tableFor(c).model()
	if err := decode(rec, declared); err != nil {
		return "", Validation("Validation failed", err.Error())
	}

	now := s.now()
	meta := rec.Meta()
	meta.ID = uuid.NewString()
	meta.CreatedAt = now
	meta.UpdatedAt = now
	if len(extras) > 0 {
		meta.Attributes = datatypes.JSONMap(extras)
	}

	if err := tx.Create(rec).Error; err != nil {
		return "", storeError(err, "Failed to create %s", c.Singular())
	}
	return meta.ID, nil
}

func applyDefaults(def *schema.Definition, data map[string]any) {
	for _, f := range def.Fields {
		if f.Default == nil {
			continue
		}
		if _, ok := data[f.Name]; !ok {
			data[f.Name] = f.Default
		}
	}
}

// normalizeIDs canonicalizes every reference field except position_id,
// which is a plain number.
func normalizeIDs(data map[string]any) {
	for k, v := range data {
		if k == "position_id" || !strings.HasSuffix(k, "_id") {
			continue
		}
		if s, ok := v.(string); ok {
			data[k] = normalizeID(s)
		}
	}
}

func normalizeID(s string) string {
	if id, err := uuid.Parse(s); err == nil {
		return id.String()
	}
	return s
}

func hashPassword(c schema.Collection, data map[string]any) error {
	if c != schema.Users {
		return nil
	}
	pw, ok := data["password"].(string)
	if !ok || pw == "" {
		return nil
	}
	hash, err := utils.HashPassword(pw)
	if err != nil {
		return Internal(err, "Failed to hash password")
	}
	data["password"] = hash
	return nil
}

// split separates declared fields from schemaless ones. Lifecycle and
// derived fields belong to neither.
func split(c schema.Collection, data map[string]any) (declared, extras map[string]any) {
	def := schema.Lookup(c)
	declared = map[string]any{}
	extras = map[string]any{}
	for k, v := range data {
		switch {
		case isImmutable(k) || derivedField(c, k):
		case def.Declared(k):
			declared[k] = v
		default:
			extras[k] = v
		}
	}
	return declared, extras
}

func isImmutable(name string) bool {
	for _, f := range immutableFields {
		if f == name {
			return true
		}
	}
	return false
}

var timeType = reflect.TypeOf(time.Time{})

func dateHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	t, ok := schema.ParseDate(data)
	if !ok {
		return nil, fmt.Errorf("invalid date %q", data)
	}
	return t, nil
}

// decode fills a model from a payload keyed by JSON field names.
func decode(out models.Record, data map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Squash:     true,
		DecodeHook: dateHook,
		Result:     out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}

func clone(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func intOf(v any) int {
	n, _ := schema.ToNumber(v)
	return int(n)
}
