package extract_test

import (
	"testing"

	"github.com/lodestarfreight/mailroom/extract"
)

func ofType(entities []extract.Entity, t extract.EntityType) []extract.Entity {
	var out []extract.Entity
	for _, e := range entities {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestValidContainerNumber(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"MSKU1234565", true},
		{"MSCU1234566", true},
		{"MSCU1234567", false},
		{"MSKU123456", false},
		{"MSKU12345655", false},
		{"1234AAAAAAA", false},
		{"MSKU12345A5", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			if got := extract.ValidContainerNumber(tt.number); got != tt.want {
				t.Errorf("ValidContainerNumber(%q) = %v, want %v", tt.number, got, tt.want)
			}
		})
	}
}

func TestExtractContainerNumbers(t *testing.T) {
	text := "Containers MSKU1234565 and MSCU1234567 loaded at terminal"

	got := extract.ExtractContainerNumbers(text)
	if len(got) != 1 {
		t.Fatalf("entities: got %d, want 1 (invalid check digit must be discarded)", len(got))
	}
	if got[0].Value != "MSKU1234565" {
		t.Errorf("value: got %s, want MSKU1234565", got[0].Value)
	}
	if got[0].Confidence != 95 {
		t.Errorf("confidence: got %d, want 95", got[0].Confidence)
	}
}

func TestDetectCarrier(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"name keyword", "Maersk booking confirmed", "maersk"},
		{"scac keyword", "per MEDU bill of lading", "msc"},
		{"declaration order tie", "Maersk and Hapag rates attached", "maersk"},
		{"no signal", "please see attached documents", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extract.DetectCarrier(tt.text); got != tt.want {
				t.Errorf("DetectCarrier(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractBookingNumbersCarrierBoost(t *testing.T) {
	got := extract.Dedupe(extract.ExtractBookingNumbers("Booking No: 123456789", "maersk"))
	if len(got) != 1 {
		t.Fatalf("entities: got %d, want 1", len(got))
	}
	if got[0].Value != "123456789" {
		t.Errorf("value: got %s", got[0].Value)
	}
	if got[0].Confidence != 85 {
		t.Errorf("confidence: got %d, want 85 (carrier shape beats generic)", got[0].Confidence)
	}
	if got[0].CarrierID != "maersk" {
		t.Errorf("carrier: got %s, want maersk", got[0].CarrierID)
	}
}

func TestExtractBookingNumbersGeneric(t *testing.T) {
	got := extract.ExtractBookingNumbers("Booking Ref: ABCD-1234", "")
	if len(got) != 1 {
		t.Fatalf("entities: got %d, want 1", len(got))
	}
	if got[0].Value != "ABCD-1234" {
		t.Errorf("value: got %s, want ABCD-1234", got[0].Value)
	}
	if got[0].Confidence != 75 {
		t.Errorf("confidence: got %d, want 75", got[0].Confidence)
	}
}

func TestExtractBLNumbers(t *testing.T) {
	t.Run("scac prefix without context", func(t *testing.T) {
		got := extract.ExtractBLNumbers("Ref MAEU123456789 enclosed", "")
		if len(got) != 1 {
			t.Fatalf("entities: got %d, want 1", len(got))
		}
		if got[0].Confidence != 92 {
			t.Errorf("confidence: got %d, want 92", got[0].Confidence)
		}
		if got[0].CarrierID != "maersk" {
			t.Errorf("carrier: got %s, want maersk", got[0].CarrierID)
		}
	})

	t.Run("context carrier boost", func(t *testing.T) {
		got := extract.ExtractBLNumbers("Ref HLCU1234567890", "hapag")
		if len(got) != 1 {
			t.Fatalf("entities: got %d, want 1", len(got))
		}
		if got[0].Confidence != 97 {
			t.Errorf("confidence: got %d, want 97", got[0].Confidence)
		}
	})

	t.Run("generic keyword anchored", func(t *testing.T) {
		got := extract.ExtractBLNumbers("Bill of Lading No: ABCD123456", "")
		if len(got) != 1 {
			t.Fatalf("entities: got %d, want 1", len(got))
		}
		if got[0].Value != "ABCD123456" {
			t.Errorf("value: got %s", got[0].Value)
		}
		if got[0].Confidence != 72 {
			t.Errorf("confidence: got %d, want 72", got[0].Confidence)
		}
	})
}

func TestExtractEntryNumbers(t *testing.T) {
	got := extract.ExtractEntryNumbers("Entry ABC-1234567-8 filed with CBP")
	if len(got) != 1 {
		t.Fatalf("entities: got %d, want 1", len(got))
	}
	if got[0].Value != "ABC-1234567-8" {
		t.Errorf("value: got %s", got[0].Value)
	}
	if got[0].Confidence != 80 {
		t.Errorf("confidence: got %d, want 80", got[0].Confidence)
	}
}

func TestExtractDates(t *testing.T) {
	t.Run("value after keyword", func(t *testing.T) {
		got := extract.ExtractDates("ETD: 2026-09-14")
		if len(got) != 1 {
			t.Fatalf("entities: got %d, want 1", len(got))
		}
		if got[0].Type != extract.EntityETD {
			t.Errorf("type: got %s, want etd", got[0].Type)
		}
		if got[0].Value != "2026-09-14" {
			t.Errorf("value: got %s, want 2026-09-14", got[0].Value)
		}
		if got[0].Confidence != 97 {
			t.Errorf("confidence: got %d, want 97", got[0].Confidence)
		}
	})

	t.Run("value before keyword", func(t *testing.T) {
		got := extract.ExtractDates("2026-10-02 ETA at destination port")
		if len(got) != 1 {
			t.Fatalf("entities: got %d, want 1", len(got))
		}
		if got[0].Type != extract.EntityETA {
			t.Errorf("type: got %s, want eta", got[0].Type)
		}
		if got[0].Value != "2026-10-02" {
			t.Errorf("value: got %s, want 2026-10-02", got[0].Value)
		}
		if got[0].Confidence != 92 {
			t.Errorf("confidence: got %d, want 92 (no after-side boost)", got[0].Confidence)
		}
	})

	t.Run("keyword without nearby date", func(t *testing.T) {
		if got := extract.ExtractDates("ETD to be advised"); len(got) != 0 {
			t.Errorf("entities: got %d, want 0", len(got))
		}
	})
}

func TestExtractCutoffs(t *testing.T) {
	got := extract.ExtractCutoffs("SI Cutoff: 12-Sep-2026 18:00 LT")
	if len(got) != 1 {
		t.Fatalf("entities: got %d, want 1", len(got))
	}
	if got[0].Label != "si_cutoff" {
		t.Errorf("label: got %s, want si_cutoff", got[0].Label)
	}
	if got[0].Value != "2026-09-12" {
		t.Errorf("value: got %s, want 2026-09-12 (normalized)", got[0].Value)
	}
	if got[0].Confidence != 97 {
		t.Errorf("confidence: got %d, want 97", got[0].Confidence)
	}

	got = extract.ExtractCutoffs("Please note 2026-09-10 is the VGM cutoff")
	if len(got) != 1 {
		t.Fatalf("entities: got %d, want 1", len(got))
	}
	if got[0].Label != "vgm_cutoff" {
		t.Errorf("label: got %s, want vgm_cutoff", got[0].Label)
	}
	if got[0].Confidence != 93 {
		t.Errorf("confidence: got %d, want 93", got[0].Confidence)
	}
}

func TestExtractPorts(t *testing.T) {
	text := "Port of Loading: Nhava Sheva\nPort of Discharge: Los Angeles, USA\nRouting INNSA to USLAX"

	got := extract.ExtractPorts(text)
	if len(got) != 4 {
		t.Fatalf("entities: got %d, want 4", len(got))
	}

	if got[0].Value != "Nhava Sheva" || got[0].Label != "port_of_loading" {
		t.Errorf("labeled pol: got %s (%s)", got[0].Value, got[0].Label)
	}
	if got[1].Value != "Los Angeles" || got[1].Label != "port_of_discharge" {
		t.Errorf("labeled pod: got %s (%s)", got[1].Value, got[1].Label)
	}
	if got[0].Confidence != 85 {
		t.Errorf("labeled confidence: got %d, want 85", got[0].Confidence)
	}

	if got[2].Value != "INNSA" || got[3].Value != "USLAX" {
		t.Errorf("locodes: got %s, %s", got[2].Value, got[3].Value)
	}
	if got[2].Confidence != 80 {
		t.Errorf("locode confidence: got %d, want 80", got[2].Confidence)
	}
}

func TestExtractPortsRejectsUnknownLocodes(t *testing.T) {
	if got := extract.ExtractPorts("HELLO WORLD TODAY"); len(got) != 0 {
		t.Errorf("entities: got %d, want 0 (bare tokens need a known code)", len(got))
	}
}

func TestExtractVesselVoyage(t *testing.T) {
	got := extract.ExtractVesselVoyage("Vessel MAERSK EDINBURGH Voy 429W sailing as scheduled")
	vessels := ofType(got, extract.EntityVessel)
	voyages := ofType(got, extract.EntityVoyage)

	if len(vessels) != 1 || vessels[0].Value != "MAERSK EDINBURGH" {
		t.Fatalf("vessels: got %+v", vessels)
	}
	if len(voyages) != 1 || voyages[0].Value != "429W" {
		t.Fatalf("voyages: got %+v", voyages)
	}
	if vessels[0].Confidence != 88 || voyages[0].Confidence != 88 {
		t.Errorf("paired confidence: got %d/%d, want 88/88", vessels[0].Confidence, voyages[0].Confidence)
	}
}

func TestExtractVoyageOnly(t *testing.T) {
	got := extract.ExtractVesselVoyage("Voyage No. 118E departing next week")
	if len(got) != 1 {
		t.Fatalf("entities: got %d, want 1", len(got))
	}
	if got[0].Type != extract.EntityVoyage || got[0].Value != "118E" {
		t.Errorf("voyage: got %+v", got[0])
	}
	if got[0].Confidence != 75 {
		t.Errorf("confidence: got %d, want 75", got[0].Confidence)
	}
}

func TestDedupe(t *testing.T) {
	in := []extract.Entity{
		{Type: extract.EntityContainerNumber, Value: "MSKU1234565", Confidence: 80},
		{Type: extract.EntityContainerNumber, Value: " msku1234565 ", Confidence: 95},
		{Type: extract.EntityBookingNumber, Value: "MSKU1234565", Confidence: 75},
	}

	got := extract.Dedupe(in)
	if len(got) != 2 {
		t.Fatalf("entities: got %d, want 2", len(got))
	}
	if got[0].Type != extract.EntityContainerNumber || got[0].Confidence != 95 {
		t.Errorf("survivor: got %+v, want higher-confidence duplicate", got[0])
	}
	if got[1].Type != extract.EntityBookingNumber {
		t.Errorf("distinct type must survive: got %+v", got[1])
	}
}

func TestExtract(t *testing.T) {
	subject := "Shipment update"
	body := "Maersk advises your Booking No: 123456789 is confirmed.\n" +
		"Vessel MAERSK EDINBURGH Voy 429W\n" +
		"ETD: 2026-09-14\n" +
		"Port of Loading: Newark\n" +
		"SI Cutoff: 12-Sep-2026\n" +
		"Container MSKU1234565"

	got := extract.Extract(subject, body)

	wantOne := func(typ extract.EntityType, value string) extract.Entity {
		t.Helper()
		matches := ofType(got, typ)
		if len(matches) != 1 {
			t.Fatalf("%s entities: got %d, want 1 (%+v)", typ, len(matches), matches)
		}
		if matches[0].Value != value {
			t.Fatalf("%s value: got %s, want %s", typ, matches[0].Value, value)
		}
		return matches[0]
	}

	booking := wantOne(extract.EntityBookingNumber, "123456789")
	if booking.Confidence != 85 {
		t.Errorf("booking confidence: got %d, want 85 (carrier shape deduped over generic)", booking.Confidence)
	}
	if booking.CarrierID != "maersk" {
		t.Errorf("booking carrier: got %s, want maersk", booking.CarrierID)
	}

	wantOne(extract.EntityContainerNumber, "MSKU1234565")
	wantOne(extract.EntityVessel, "MAERSK EDINBURGH")
	wantOne(extract.EntityVoyage, "429W")
	wantOne(extract.EntityETD, "2026-09-14")

	cutoff := wantOne(extract.EntityCutoff, "2026-09-12")
	if cutoff.Label != "si_cutoff" {
		t.Errorf("cutoff label: got %s, want si_cutoff", cutoff.Label)
	}

	port := wantOne(extract.EntityPort, "Newark")
	if port.Label != "port_of_loading" {
		t.Errorf("port label: got %s, want port_of_loading", port.Label)
	}
}

func TestScoreCompleteness(t *testing.T) {
	tests := []struct {
		name         string
		documentType string
		fields       map[string]extract.Field
		want         int
	}{
		{
			name:         "partial booking confirmation",
			documentType: "booking_confirmation",
			fields: map[string]extract.Field{
				"booking_number": {Present: true, Valid: true},
				"vessel":         {Present: true, Valid: true},
				"voyage":         {Present: true, Valid: true},
				"etd":            {Present: true, Valid: true},
			},
			want: 75,
		},
		{
			name:         "invalid field earns reduced weight",
			documentType: "booking_confirmation",
			fields: map[string]extract.Field{
				"booking_number": {Present: true, Valid: false},
			},
			want: 21,
		},
		{
			name:         "complete vgm filing",
			documentType: "vgm_filing",
			fields: map[string]extract.Field{
				"booking_number":   {Present: true, Valid: true},
				"container_number": {Present: true, Valid: true},
			},
			want: 100,
		},
		{
			name:         "absent fields earn nothing",
			documentType: "vgm_filing",
			fields:       map[string]extract.Field{},
			want:         0,
		},
		{
			name:         "unknown document type",
			documentType: "general_correspondence",
			fields: map[string]extract.Field{
				"booking_number": {Present: true, Valid: true},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extract.ScoreCompleteness(tt.documentType, tt.fields); got != tt.want {
				t.Errorf("ScoreCompleteness() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFieldsFromEntities(t *testing.T) {
	entities := []extract.Entity{
		{Type: extract.EntityBookingNumber, Value: "12345"},
		{Type: extract.EntityBLNumber, Value: "MAEU123456789"},
		{Type: extract.EntityContainerNumber, Value: "MSKU1234565"},
		{Type: extract.EntityPort, Value: "Newark", Label: "port_of_loading"},
		{Type: extract.EntityPort, Value: "USLAX"},
		{Type: extract.EntityCutoff, Value: "2026-09-12", Label: "si_cutoff"},
		{Type: extract.EntityVessel, Value: "MAERSK EDINBURGH"},
	}

	fields := extract.FieldsFromEntities(entities)

	if f := fields["booking_number"]; !f.Present || f.Valid {
		t.Errorf("short booking number should be present but invalid: %+v", f)
	}
	if f := fields["bl_number"]; !f.Present || !f.Valid {
		t.Errorf("bl_number: %+v", f)
	}
	if f := fields["container_number"]; !f.Present || !f.Valid {
		t.Errorf("container_number: %+v", f)
	}
	if f := fields["port_of_loading"]; !f.Present {
		t.Errorf("port_of_loading: %+v", f)
	}
	if _, ok := fields["port_of_discharge"]; ok {
		t.Error("unlabeled port must not contribute a role field")
	}
	if f := fields["si_cutoff"]; !f.Present {
		t.Errorf("si_cutoff: %+v", f)
	}
	if f := fields["vessel"]; !f.Present {
		t.Errorf("vessel: %+v", f)
	}
}
