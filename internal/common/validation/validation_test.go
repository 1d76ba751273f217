// internal/common/validation/validation_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formSchema = `{
  "type": "object",
  "required": ["fields"],
  "properties": {
    "fields":  {"type": "object", "additionalProperties": {"type": "string"}},
    "answers": {"type": "object", "additionalProperties": {"enum": ["yes", "no", ""]}}
  }
}`

func TestValidateSchemaJSON(t *testing.T) {
	tests := []struct {
		name      string
		doc       interface{}
		wantValid bool
		wantField string
	}{
		{
			name:      "valid document",
			doc:       map[string]interface{}{"fields": map[string]interface{}{"companyName": "Acme"}},
			wantValid: true,
		},
		{
			name:      "missing fields",
			doc:       map[string]interface{}{"answers": map[string]interface{}{}},
			wantValid: false,
			wantField: "(root)",
		},
		{
			name: "bad answer",
			doc: map[string]interface{}{
				"fields":  map[string]interface{}{},
				"answers": map[string]interface{}{"hasGBP": "maybe"},
			},
			wantValid: false,
			wantField: "answers.hasGBP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ValidateSchemaJSON(formSchema, tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			if tt.wantField != "" {
				assert.True(t, res.HasErrors(tt.wantField), "errors: %v", res.GetErrorMessages())
			}
		})
	}
}

func TestValidateSchema_EmptySchemaAccepts(t *testing.T) {
	res, err := ValidateSchema(nil, map[string]interface{}{"anything": 1})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateSchemaJSON_BadSchema(t *testing.T) {
	_, err := ValidateSchemaJSON("{not json", map[string]interface{}{})
	assert.Error(t, err)
}

func TestFormatValidators(t *testing.T) {
	assert.True(t, ValidateEmail("owner@acme.com"))
	assert.False(t, ValidateEmail("owner@"))
	assert.False(t, ValidateEmail(""))

	assert.True(t, ValidatePhone("555-1234"))
	assert.True(t, ValidatePhone("+1 (312) 555-0100"))
	assert.False(t, ValidatePhone("12345"))
	assert.False(t, ValidatePhone("call me"))

	assert.True(t, ValidateURL("https://g.page/acme"))
	assert.False(t, ValidateURL("g.page acme"))

	assert.True(t, ValidateDomain("acme.com"))
	assert.False(t, ValidateDomain("acme"))
}

func TestCheckFormats(t *testing.T) {
	values := map[string]string{
		"businessEmail": "not-an-email",
		"leadEmail":     "lead@acme.com",
		"phone":         "   ",
		"gbpLink":       "https://g.page/acme",
		"domainName":    "acme",
	}
	rules := map[string]string{
		"businessEmail": FormatEmail,
		"leadEmail":     FormatEmail,
		"phone":         FormatPhone,
		"gbpLink":       FormatURL,
		"domainName":    FormatDomain,
		"missing":       FormatEmail,
	}

	errs := CheckFormats(values, rules)
	require.Len(t, errs, 2)
	assert.Equal(t, "businessEmail", errs[0].Field)
	assert.Equal(t, "domainName", errs[1].Field)
	assert.Equal(t, "INVALID_FORMAT", errs[0].Code)
}

func TestValidationResult_Merge(t *testing.T) {
	res := &ValidationResult{Valid: true}
	res.Merge(nil)
	assert.True(t, res.Valid)

	res.Merge([]ValidationError{{Field: "fields.phone", Message: "bad"}})
	assert.False(t, res.Valid)
	assert.Len(t, res.GetErrorsForField("fields"), 1)
	assert.Equal(t, []string{"fields.phone: bad"}, res.GetErrorMessages())
}
