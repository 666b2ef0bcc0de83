package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
)

// Loader reads the entity and relation datasets into flat mention tables.
type Loader struct {
	schema   *model.Schema
	validate *validator.Validate
	log      *slog.Logger
}

// Stats counts vocabulary mismatches found while loading.
type Stats struct {
	UnknownEntityTypes    int
	UnknownRelationLabels int
}

// NewLoader creates a loader checking types and relation labels against schema.
// A nil schema accepts every type and label.
func NewLoader(schema *model.Schema, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		schema:   schema,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logger,
	}
}

// ReadEntities decodes and validates an entity dataset.
func (l *Loader) ReadEntities(r io.Reader) ([]model.EntityMention, Stats, error) {
	var chunks []model.EntityChunk
	if err := decodeStrict(r, &chunks); err != nil {
		return nil, Stats{}, helper.NewError("decode entity dataset", err)
	}

	stats := Stats{}
	var mentions []model.EntityMention
	for i := range chunks {
		chunk := &chunks[i]
		for j := range chunk.Entities {
			chunk.Entities[j].Name = strings.TrimSpace(chunk.Entities[j].Name)
			chunk.Entities[j].Type = strings.TrimSpace(chunk.Entities[j].Type)
		}

		if err := l.validate.Struct(chunk); err != nil {
			return nil, Stats{}, helper.NewError(fmt.Sprintf("validate entity chunk %d", i), err)
		}

		for _, e := range chunk.Entities {
			if e.Type != "" && !l.schema.HasEntityType(e.Type) {
				stats.UnknownEntityTypes++
				l.log.Warn("Entity type not in schema", slog.String("chunk_id", string(chunk.ChunkID)), slog.String("name", e.Name), slog.String("type", e.Type))
			}
			mentions = append(mentions, model.EntityMention{
				ChunkID:    chunk.ChunkID,
				Type:       e.Type,
				Name:       e.Name,
				Attributes: e.Attributes,
			})
		}
	}

	l.log.Info("Loaded entity dataset", slog.Int("chunks", len(chunks)), slog.Int("mentions", len(mentions)))

	return mentions, stats, nil
}

// ReadRelations decodes and validates a relation dataset. Heads and tails
// are trimmed but may be empty, those relations are dropped when the graph is built.
func (l *Loader) ReadRelations(r io.Reader) ([]model.RelationMention, Stats, error) {
	var chunks []model.RelationChunk
	if err := decodeStrict(r, &chunks); err != nil {
		return nil, Stats{}, helper.NewError("decode relation dataset", err)
	}

	stats := Stats{}
	var mentions []model.RelationMention
	for i := range chunks {
		chunk := &chunks[i]
		if err := l.validate.Struct(chunk); err != nil {
			return nil, Stats{}, helper.NewError(fmt.Sprintf("validate relation chunk %d", i), err)
		}

		for _, rel := range chunk.RelationSet {
			relation := strings.TrimSpace(rel.Relation)
			if relation != "" && !l.schema.HasRelationLabel(relation) {
				stats.UnknownRelationLabels++
				l.log.Warn("Relation label not in schema", slog.String("chunk_id", string(chunk.ChunkID)), slog.String("relation", relation))
			}
			mentions = append(mentions, model.RelationMention{
				ChunkID:  chunk.ChunkID,
				Head:     strings.TrimSpace(rel.Head),
				Relation: relation,
				Tail:     rel.Tail.Map(strings.TrimSpace),
			})
		}
	}

	l.log.Info("Loaded relation dataset", slog.Int("chunks", len(chunks)), slog.Int("mentions", len(mentions)))

	return mentions, stats, nil
}

// LoadEntities reads an entity dataset from a file.
func (l *Loader) LoadEntities(path string) ([]model.EntityMention, Stats, error) {
	f, err := os.Open(path) // #nosec G304 -- dataset path is operator supplied
	if err != nil {
		return nil, Stats{}, helper.NewError("open entity dataset", err)
	}
	defer f.Close()

	return l.ReadEntities(f)
}

// LoadRelations reads a relation dataset from a file.
func (l *Loader) LoadRelations(path string) ([]model.RelationMention, Stats, error) {
	f, err := os.Open(path) // #nosec G304 -- dataset path is operator supplied
	if err != nil {
		return nil, Stats{}, helper.NewError("open relation dataset", err)
	}
	defer f.Close()

	return l.ReadRelations(f)
}

// Vocabulary returns the distinct entity names in first seen order.
func Vocabulary(entities []model.EntityMention) []string {
	seen := make(map[string]struct{}, len(entities))
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		if _, ok := seen[e.Name]; ok {
			continue
		}
		seen[e.Name] = struct{}{}
		names = append(names, e.Name)
	}
	return names
}

// Frequencies counts the mentions per entity name.
func Frequencies(entities []model.EntityMention) map[string]int {
	counts := make(map[string]int, len(entities))
	for _, e := range entities {
		counts[e.Name]++
	}
	return counts
}

func decodeStrict(r io.Reader, v interface{}) error {
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(v); err != nil {
		if err == io.EOF {
			return fmt.Errorf("dataset is empty")
		}
		return err
	}
	if decoder.More() {
		return fmt.Errorf("unexpected data after dataset")
	}
	return nil
}
