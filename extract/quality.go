package extract

// Field reports one extracted field's presence and validity for
// completeness scoring.
type Field struct {
	Present bool
	Valid   bool
}

// invalidPenalty is the weight multiplier applied when a field is present
// but failed validation (malformed date, short identifier).
const invalidPenalty = 0.7

type fieldWeight struct {
	name   string
	weight int
}

// requiredFields carries the per-document-type field weights used for
// completeness scoring. Document types absent from the table score 0.
var requiredFields = map[string][]fieldWeight{
	"booking_confirmation": {
		{"booking_number", 30},
		{"vessel", 15},
		{"voyage", 10},
		{"etd", 20},
		{"port_of_loading", 15},
		{"port_of_discharge", 10},
	},
	"si_draft": {
		{"booking_number", 35},
		{"container_number", 25},
		{"port_of_loading", 20},
		{"port_of_discharge", 20},
	},
	"bl_draft": {
		{"bl_number", 30},
		{"container_number", 25},
		{"vessel", 15},
		{"port_of_loading", 15},
		{"port_of_discharge", 15},
	},
	"hbl": {
		{"bl_number", 30},
		{"container_number", 25},
		{"vessel", 15},
		{"port_of_loading", 15},
		{"port_of_discharge", 15},
	},
	"mbl": {
		{"bl_number", 35},
		{"container_number", 25},
		{"vessel", 20},
		{"voyage", 20},
	},
	"arrival_notice": {
		{"bl_number", 25},
		{"eta", 30},
		{"port_of_discharge", 25},
		{"container_number", 20},
	},
	"customs_entry": {
		{"entry_number", 50},
		{"eta", 20},
		{"port_of_discharge", 30},
	},
	"delivery_order": {
		{"bl_number", 30},
		{"container_number", 40},
		{"port_of_discharge", 30},
	},
	"vgm_filing": {
		{"booking_number", 40},
		{"container_number", 60},
	},
}

// ScoreCompleteness computes the weighted completeness score for a
// document type given its extracted fields. A present valid field earns
// full weight, a present invalid field earns 70% of it, an absent field
// earns nothing. The result is earned/total scaled to [0,100].
func ScoreCompleteness(documentType string, fields map[string]Field) int {
	weights, ok := requiredFields[documentType]
	if !ok {
		return 0
	}

	total := 0.0
	earned := 0.0
	for _, fw := range weights {
		total += float64(fw.weight)

		f, ok := fields[fw.name]
		if !ok || !f.Present {
			continue
		}
		if f.Valid {
			earned += float64(fw.weight)
		} else {
			earned += float64(fw.weight) * invalidPenalty
		}
	}

	if total == 0 {
		return 0
	}

	score := int(earned / total * 100)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// FieldsFromEntities folds an extracted entity set into the field map
// ScoreCompleteness consumes. Port entities contribute under their role
// label when present.
func FieldsFromEntities(entities []Entity) map[string]Field {
	fields := make(map[string]Field)

	record := func(name string, valid bool) {
		f := fields[name]
		f.Present = true
		f.Valid = f.Valid || valid
		fields[name] = f
	}

	for _, e := range entities {
		switch e.Type {
		case EntityBookingNumber:
			record("booking_number", len(e.Value) >= 6)
		case EntityContainerNumber:
			record("container_number", true)
		case EntityBLNumber:
			record("bl_number", len(e.Value) >= 8)
		case EntityEntryNumber:
			record("entry_number", true)
		case EntityETD:
			record("etd", true)
		case EntityETA:
			record("eta", true)
		case EntityCutoff:
			if e.Label != "" {
				record(e.Label, true)
			}
		case EntityPort:
			if e.Label != "" {
				record(e.Label, true)
			}
		case EntityVessel:
			record("vessel", true)
		case EntityVoyage:
			record("voyage", true)
		}
	}

	return fields
}
