package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Harshitk-cp/strainfeed/internal/domain"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	SchemaLegacy  = 1
	SchemaCurrent = 2
)

var ErrUnsupportedSchema = errors.New("unsupported seed schema version")

// seedDocument covers both on-disk shapes. Version 1 files predate the
// schema_version field, so a missing version means 1.
type seedDocument struct {
	SchemaVersion int `json:"schema_version" yaml:"schema_version"`

	// version 2
	Nodes []domain.Node `json:"nodes" yaml:"nodes"`
	Edges []domain.Edge `json:"edges" yaml:"edges"`

	// version 1
	Agents        []legacyAgent        `json:"agents" yaml:"agents"`
	Entities      []legacyEntity       `json:"entities" yaml:"entities"`
	Relationships []legacyRelationship `json:"relationships" yaml:"relationships"`
}

type legacyAgent struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Agent         string   `json:"agent" yaml:"agent"`
	Domain        string   `json:"domain" yaml:"domain"`
	CurrentStrain *float64 `json:"current_strain" yaml:"current_strain"`
	Mass          *float64 `json:"gravitational_mass" yaml:"gravitational_mass"`
	AccessCount   *int     `json:"access_count" yaml:"access_count"`
	LastAccessed  any      `json:"last_accessed" yaml:"last_accessed"`
}

type legacyEntity struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	EntityType       string   `json:"entity_type" yaml:"entity_type"`
	Description      string   `json:"description" yaml:"description"`
	StrainAmplitude  *float64 `json:"strain_amplitude" yaml:"strain_amplitude"`
	StrainResistance *float64 `json:"strain_resistance" yaml:"strain_resistance"`
	StrainFrequency  *float64 `json:"strain_frequency" yaml:"strain_frequency"`
	MusicalFrequency *int     `json:"musical_frequency" yaml:"musical_frequency"`
	Mass             *float64 `json:"gravitational_mass" yaml:"gravitational_mass"`
	AccessCount      *int     `json:"access_count" yaml:"access_count"`
	LastAccessed     any      `json:"last_accessed" yaml:"last_accessed"`
	Modified         string   `json:"modified" yaml:"modified"`
}

type legacyRelationship struct {
	ID               string   `json:"id" yaml:"id"`
	From             string   `json:"from" yaml:"from"`
	To               string   `json:"to" yaml:"to"`
	FromEntity       string   `json:"from_entity" yaml:"from_entity"`
	ToEntity         string   `json:"to_entity" yaml:"to_entity"`
	Type             string   `json:"type" yaml:"type"`
	RelationshipType string   `json:"relationship_type" yaml:"relationship_type"`
	Strength         *float64 `json:"strength" yaml:"strength"`
	Weight           *float64 `json:"weight" yaml:"weight"`
}

// FileSeedSource reads a JSON or YAML seed document from disk.
type FileSeedSource struct {
	path string
	now  func() time.Time
}

func NewFileSeedSource(path string) *FileSeedSource {
	return &FileSeedSource{path: path, now: time.Now}
}

func (f *FileSeedSource) Load(ctx context.Context) (*domain.Seed, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	format := "json"
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	return DecodeSeed(data, format, f.now())
}

// DecodeSeed parses a seed document and migrates it to fully shaped records.
func DecodeSeed(data []byte, format string, now time.Time) (*domain.Seed, error) {
	var doc seedDocument
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml seed: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json seed: %w", err)
		}
	}

	switch doc.SchemaVersion {
	case 0, SchemaLegacy:
		return migrateLegacy(doc, now), nil
	case SchemaCurrent:
		return currentSeed(doc, now), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSchema, doc.SchemaVersion)
	}
}

func currentSeed(doc seedDocument, now time.Time) *domain.Seed {
	seed := &domain.Seed{}
	for _, n := range doc.Nodes {
		if n.Mass <= 0 {
			n.Mass = domain.DefaultMass
		}
		if n.Frequency == 0 {
			n.Frequency = domain.DefaultFrequency
		}
		if n.LastAccessed.IsZero() {
			n.LastAccessed = now
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = n.LastAccessed
		}
		seed.Nodes = append(seed.Nodes, n.Normalize())
	}
	for _, e := range doc.Edges {
		seed.Edges = append(seed.Edges, normalizeEdge(e))
	}
	return seed
}

func migrateLegacy(doc seedDocument, now time.Time) *domain.Seed {
	seed := &domain.Seed{}

	for _, a := range doc.Agents {
		name := a.Name
		if name == "" {
			name = a.Agent
		}
		n := domain.NewNode(a.ID, name, now)
		n.Kind = domain.NodeKindAgent
		if a.Domain != "" {
			n.Category = a.Domain
		}
		if a.CurrentStrain != nil {
			n.Amplitude = *a.CurrentStrain
		}
		if a.Mass != nil && *a.Mass > 0 {
			n.Mass = *a.Mass
		}
		if a.AccessCount != nil {
			n.AccessCount = *a.AccessCount
		}
		if t, ok := parseTimestamp(a.LastAccessed); ok {
			n.LastAccessed = t
		}
		seed.Nodes = append(seed.Nodes, n.Normalize())
	}

	for _, e := range doc.Entities {
		n := domain.NewNode(e.ID, e.Name, now)
		n.Description = e.Description
		if e.EntityType != "" {
			n.Category = e.EntityType
		}
		if e.StrainAmplitude != nil {
			n.Amplitude = *e.StrainAmplitude
		}
		switch {
		case e.MusicalFrequency != nil:
			n.Frequency = *e.MusicalFrequency
		case e.StrainFrequency != nil:
			n.Frequency = frequencyToNote(*e.StrainFrequency)
		}
		if e.Mass != nil && *e.Mass > 0 {
			n.Mass = *e.Mass
		}
		if e.AccessCount != nil {
			n.AccessCount = *e.AccessCount
		}
		if t, ok := parseTimestamp(e.LastAccessed); ok {
			n.LastAccessed = t
		} else if t, ok := parseTimestamp(e.Modified); ok {
			n.LastAccessed = t
		}
		// The legacy strain_resistance value is discarded: resistance is
		// derived from amplitude.
		seed.Nodes = append(seed.Nodes, n.Normalize())
	}

	for _, r := range doc.Relationships {
		e := domain.Edge{ID: r.ID, From: r.From, To: r.To, Type: r.Type}
		if e.From == "" {
			e.From = r.FromEntity
		}
		if e.To == "" {
			e.To = r.ToEntity
		}
		if e.Type == "" {
			e.Type = r.RelationshipType
		}
		switch {
		case r.Weight != nil:
			e.Weight = *r.Weight
		case r.Strength != nil:
			e.Weight = *r.Strength
		}
		seed.Edges = append(seed.Edges, normalizeEdge(e))
	}

	return seed
}

func normalizeEdge(e domain.Edge) domain.Edge {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Type == "" {
		e.Type = domain.DefaultEdgeType
	}
	return e
}

// frequencyToNote maps the old strain_frequency counter onto a musical note.
func frequencyToNote(old float64) int {
	switch {
	case old <= 5:
		return 261 // C4
	case old <= 10:
		return 293 // D4
	case old <= 15:
		return 329 // E4
	case old <= 20:
		return 349 // F4
	default:
		return 440 // A4
	}
}

// parseTimestamp accepts unix seconds (number or numeric string), RFC3339
// strings (with or without a zone) and native YAML timestamps.
func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return unixSeconds(f), true
	case float64:
		return unixSeconds(t), true
	case int:
		return time.Unix(int64(t), 0), true
	case string:
		if t == "" {
			return time.Time{}, false
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return unixSeconds(f), true
		}
		s := strings.Replace(t, "Z", "+00:00", 1)
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999-07:00", "2006-01-02T15:04:05.999999", "2006-01-02"} {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func unixSeconds(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// Populate installs a seed into the stores. Duplicate ids are reported
// rather than silently overwritten.
func Populate(ctx context.Context, seed *domain.Seed, nodes domain.NodeStore, edges domain.EdgeStore) error {
	for _, n := range seed.Nodes {
		if err := nodes.Create(ctx, n); err != nil {
			return fmt.Errorf("seed node: %w", err)
		}
	}
	for _, e := range seed.Edges {
		if err := edges.Create(ctx, e); err != nil {
			return fmt.Errorf("seed edge: %w", err)
		}
	}
	return nil
}
