package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pemiyos/internal/models"
	"pemiyos/internal/schema"
	"pemiyos/internal/utils"
)

const (
	populateConcurrency = 8
	populateMemoSize    = 256
)

// relation is a reference field and the collection it points into.
type relation struct {
	field   string
	target  schema.Collection
	byID    bool
	embedAs string
}

// RelationPopulator embeds the documents referenced by *_id fields.
type RelationPopulator struct {
	docs *DocumentService
	log  zerolog.Logger
}

func NewRelationPopulator(docs *DocumentService, log zerolog.Logger) *RelationPopulator {
	return &RelationPopulator{docs: docs, log: log.With().Str("component", "relations").Logger()}
}

// relationsOf lists the reference fields of c. The target collection is the
// field name without "_id", pluralized; fields pointing back at c itself are
// skipped.
func relationsOf(c schema.Collection) []relation {
	var out []relation
	for _, f := range schema.Lookup(c).Fields {
		if f.Name == "_id" || !strings.HasSuffix(f.Name, "_id") {
			continue
		}
		if f.Type != schema.ID && f.Type != schema.Number {
			continue
		}
		target, err := schema.Parse(strings.TrimSuffix(f.Name, "_id") + "s")
		if err != nil || target == c {
			continue
		}
		out = append(out, relation{
			field:   f.Name,
			target:  target,
			byID:    f.Type == schema.ID,
			embedAs: target.Singular(),
		})
	}
	return out
}

// Populate returns copies of docs with their related documents embedded.
// A relation that cannot be resolved is logged and left out; it never fails
// the call.
func (p *RelationPopulator) Populate(ctx context.Context, c schema.Collection, docs []models.Document) []models.Document {
	rels := relationsOf(c)
	if len(rels) == 0 || len(docs) == 0 {
		return docs
	}

	memo := utils.NewCache[models.Document](populateMemoSize)
	out := make([]models.Document, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(populateConcurrency)
	for i, doc := range docs {
		g.Go(func() error {
			populated := make(models.Document, len(doc)+len(rels))
			for k, v := range doc {
				populated[k] = v
			}
			for _, rel := range rels {
				value, ok := doc[rel.field]
				if !ok || value == nil {
					continue
				}
				related, err := p.resolve(gctx, memo, rel, value)
				if err != nil {
					p.log.Warn().Err(err).
						Str("collection", string(c)).
						Str("field", rel.field).
						Str("document", doc.ID()).
						Msg("failed to populate relation")
					continue
				}
				if related != nil {
					populated[rel.embedAs] = related
				}
			}
			out[i] = populated
			return nil
		})
	}
	// Workers never return an error.
	_ = g.Wait()
	return out
}

func (p *RelationPopulator) resolve(ctx context.Context, memo *utils.Cache[models.Document], rel relation, value any) (models.Document, error) {
	key := fmt.Sprintf("%s:%s:%v", rel.target, rel.field, value)
	if doc, ok := memo.Get(key); ok {
		return doc, nil
	}

	var doc models.Document
	if rel.byID {
		id, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("reference %v is not an id", value)
		}
		found, err := p.docs.FindByID(ctx, rel.target, id)
		if err != nil {
			return nil, err
		}
		doc = found
	} else {
		res, err := p.docs.FindAll(ctx, rel.target, ListParams{
			Limit:   1,
			Page:    1,
			Filters: map[string]any{rel.field: value},
		})
		if err != nil {
			return nil, err
		}
		if len(res.Data) > 0 {
			doc = res.Data[0]
		}
	}

	memo.Set(key, doc)
	return doc, nil
}
