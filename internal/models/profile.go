package models

import (
	"encoding/json"
	"fmt"
)

// Reserved keys of a serialized SourceRecord. Everything else is a field.
const (
	sourceKey    = "source"
	infoboxKey   = "infobox"
	suppliersKey = "suppliers"
)

// Supplier is one row of a trade-data supplier table
type Supplier struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// SourceRecord holds what one source extractor found. Fields is sparse: a key
// is present only when its pattern matched.
type SourceRecord struct {
	Source    string
	Fields    map[string]string
	Infobox   map[string]string
	Suppliers []Supplier
}

// NewSourceRecord returns an empty record tagged with kind.
func NewSourceRecord(kind string) SourceRecord {
	return SourceRecord{Source: kind, Fields: map[string]string{}}
}

// Get returns the field value and whether it is present and non-empty.
func (r SourceRecord) Get(field string) (string, bool) {
	v, ok := r.Fields[field]
	return v, ok && v != ""
}

// MarshalJSON flattens the record into {"source": kind, field: value, ...}.
func (r SourceRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[sourceKey] = r.Source
	if len(r.Infobox) > 0 {
		out[infoboxKey] = r.Infobox
	}
	if len(r.Suppliers) > 0 {
		out[suppliersKey] = r.Suppliers
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON.
func (r *SourceRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	rec := SourceRecord{Fields: map[string]string{}}
	for k, v := range raw {
		switch k {
		case sourceKey:
			if err := json.Unmarshal(v, &rec.Source); err != nil {
				return fmt.Errorf("source record %q: %w", k, err)
			}
		case infoboxKey:
			if err := json.Unmarshal(v, &rec.Infobox); err != nil {
				return fmt.Errorf("source record %q: %w", k, err)
			}
		case suppliersKey:
			if err := json.Unmarshal(v, &rec.Suppliers); err != nil {
				return fmt.Errorf("source record %q: %w", k, err)
			}
		default:
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("source record %q: %w", k, err)
			}
			rec.Fields[k] = s
		}
	}
	*r = rec
	return nil
}

// AggregationResult contains the per-source records and the merged profile.
// SourceOrder lists source kinds in the order they were first declared.
type AggregationResult struct {
	CompanyName string                  `json:"company_name"`
	Sources     map[string]SourceRecord `json:"sources"`
	SourceOrder []string                `json:"source_order"`
	Profile     map[string]string       `json:"profile"`
}

// NewAggregationResult returns an empty result for companyName.
func NewAggregationResult(companyName string) *AggregationResult {
	return &AggregationResult{
		CompanyName: companyName,
		Sources:     map[string]SourceRecord{},
		SourceOrder: []string{},
		Profile:     map[string]string{},
	}
}

// PutSource stores rec under its kind. A kind seen before keeps its position
// and has its record replaced.
func (r *AggregationResult) PutSource(rec SourceRecord) {
	if _, exists := r.Sources[rec.Source]; !exists {
		r.SourceOrder = append(r.SourceOrder, rec.Source)
	}
	r.Sources[rec.Source] = rec
}

// OrderedSources returns the records in declaration order.
func (r *AggregationResult) OrderedSources() []SourceRecord {
	out := make([]SourceRecord, 0, len(r.SourceOrder))
	for _, kind := range r.SourceOrder {
		if rec, ok := r.Sources[kind]; ok {
			out = append(out, rec)
		}
	}
	return out
}
