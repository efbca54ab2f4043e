package usage

import (
	"errors"
	"strings"
	"testing"
)

// ============================================================================
// Row Parsing Tests
// ============================================================================

func TestParseRows_Valid(t *testing.T) {
	parser := &Parser{}

	result, err := parser.ParseRows([]Row{
		{"email": "alice@example.com", "credits_used": "1200", "name": "Alice"},
		{"email": "bob@example.com", "credits_used": "0"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result.Records))
	}
	if result.Records[0].Email != "alice@example.com" {
		t.Errorf("Expected alice@example.com, got %s", result.Records[0].Email)
	}
	if result.Records[0].Name != "Alice" {
		t.Errorf("Expected name Alice, got %q", result.Records[0].Name)
	}
	if result.Records[0].CreditsUsed != 1200 {
		t.Errorf("Expected 1200 credits, got %d", result.Records[0].CreditsUsed)
	}
	if result.Records[1].CreditsUsed != 0 {
		t.Errorf("Expected 0 credits, got %d", result.Records[1].CreditsUsed)
	}
}

func TestParseRows_Validation(t *testing.T) {
	tests := []struct {
		name  string
		row   Row
		field string
	}{
		{"missing email", Row{"credits_used": "100"}, FieldEmail},
		{"empty email", Row{"email": "", "credits_used": "100"}, FieldEmail},
		{"no at sign", Row{"email": "alice.example.com", "credits_used": "100"}, FieldEmail},
		{"two at signs", Row{"email": "a@b@example.com", "credits_used": "100"}, FieldEmail},
		{"missing credits", Row{"email": "a@example.com"}, FieldCreditsUsed},
		{"non-numeric credits", Row{"email": "a@example.com", "credits_used": "lots"}, FieldCreditsUsed},
		{"negative credits", Row{"email": "a@example.com", "credits_used": "-5"}, FieldCreditsUsed},
		{"fractional credits", Row{"email": "a@example.com", "credits_used": "10.5"}, FieldCreditsUsed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &Parser{}
			_, err := parser.ParseRows([]Row{tt.row})

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, verr.Field)
			}
			if verr.Row != 1 {
				t.Errorf("Expected row 1, got %d", verr.Row)
			}
		})
	}
}

func TestParseRows_Duplicate(t *testing.T) {
	parser := &Parser{}

	_, err := parser.ParseRows([]Row{
		{"email": "alice@example.com", "credits_used": "100"},
		{"email": "bob@example.com", "credits_used": "200"},
		{"email": "alice@example.com", "credits_used": "300"},
	})

	var derr *DuplicateError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected DuplicateError, got %v", err)
	}
	if derr.Email != "alice@example.com" {
		t.Errorf("Expected alice@example.com, got %s", derr.Email)
	}
	if derr.FirstRow != 1 || derr.Row != 3 {
		t.Errorf("Expected rows 1 and 3, got %d and %d", derr.FirstRow, derr.Row)
	}
}

func TestParseRows_SkipInvalid(t *testing.T) {
	parser := &Parser{SkipInvalid: true}

	result, err := parser.ParseRows([]Row{
		{"email": "alice@example.com", "credits_used": "100"},
		{"email": "not-an-email", "credits_used": "200"},
		{"email": "bob@example.com", "credits_used": "banana"},
		{"email": "carol@example.com", "credits_used": "300"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result.Records))
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("Expected 2 skipped rows, got %d", len(result.Skipped))
	}
	if result.Skipped[0].Row != 2 || result.Skipped[1].Row != 3 {
		t.Errorf("Expected skipped rows 2 and 3, got %d and %d",
			result.Skipped[0].Row, result.Skipped[1].Row)
	}
}

func TestParseRows_SkipInvalidStillRejectsDuplicates(t *testing.T) {
	parser := &Parser{SkipInvalid: true}

	_, err := parser.ParseRows([]Row{
		{"email": "alice@example.com", "credits_used": "100"},
		{"email": "alice@example.com", "credits_used": "100"},
	})

	var derr *DuplicateError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected DuplicateError, got %v", err)
	}
}

// ============================================================================
// CSV Parsing Tests
// ============================================================================

func TestParseCSV_Basic(t *testing.T) {
	input := "email,credits_used,name\n" +
		"alice@example.com,1200,Alice\n" +
		"bob@example.com,450,\n"

	parser := &Parser{}
	result, err := parser.ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result.Records))
	}
	if result.Records[0].Name != "Alice" {
		t.Errorf("Expected name Alice, got %q", result.Records[0].Name)
	}
	if result.Records[1].Email != "bob@example.com" {
		t.Errorf("Expected bob@example.com, got %s", result.Records[1].Email)
	}
}

func TestParseCSV_ColumnOrderIrrelevant(t *testing.T) {
	input := "name,credits_used,email\n" +
		"Alice,1200,alice@example.com\n"

	parser := &Parser{}
	result, err := parser.ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Records[0].Email != "alice@example.com" {
		t.Errorf("Expected alice@example.com, got %s", result.Records[0].Email)
	}
	if result.Records[0].CreditsUsed != 1200 {
		t.Errorf("Expected 1200, got %d", result.Records[0].CreditsUsed)
	}
}

func TestParseCSV_MissingColumn(t *testing.T) {
	input := "email,name\nalice@example.com,Alice\n"

	parser := &Parser{}
	_, err := parser.ParseCSV(strings.NewReader(input))
	if err == nil {
		t.Fatal("Expected error for missing credits_used column")
	}
	if !strings.Contains(err.Error(), "credits_used") {
		t.Errorf("Expected error to name the missing column, got: %v", err)
	}
}

func TestParseCSV_Empty(t *testing.T) {
	parser := &Parser{}
	_, err := parser.ParseCSV(strings.NewReader(""))
	if err == nil {
		t.Fatal("Expected error for empty input")
	}
}

func TestParseCSV_UnknownColumnsIgnored(t *testing.T) {
	input := "email,credits_used,team,region\n" +
		"alice@example.com,100,platform,eu\n"

	parser := &Parser{}
	result, err := parser.ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(result.Records))
	}
}
