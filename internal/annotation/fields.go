package annotation

// Category groups an ordered set of field names under a display name. The
// grouping and the order are fixed configuration: the review screen always
// renders the full schema, whatever the document happened to contain.
type Category struct {
	Name   string
	Fields []string
}

// Categories is the review schema, in render order.
var Categories = []Category{
	{
		Name: "Document Info",
		Fields: []string{
			"DOCUMENT_TYPE",
			"DOCUMENT_DATE",
			"DOCUMENT_NUMBER",
			"ORDER_NUMBER",
			"PAYMENT_DUE_DATE",
			"CURRENCY",
			"PAYMENT_METHOD",
			"CREDIT_CARD_LAST_FOUR",
		},
	},
	{
		Name: "Supplier",
		Fields: []string{
			"SUPPLIER_NAME",
			"SUPPLIER_ADDRESS",
			"SUPPLIER_COUNTRY_CODE",
			"SUPPLIER_VAT_NUMBER",
			"SUPPLIER_ORGANISATION_NUMBER",
		},
	},
	{
		Name: "Recipient",
		Fields: []string{
			"RECEIVER_NAME",
			"RECEIVER_ADDRESS",
			"RECEIVER_COUNTRY_CODE",
			"RECEIVER_VAT_NUMBER",
			"RECEIVER_ORDER_NUMBER",
		},
	},
	{
		Name: "Totals",
		Fields: []string{
			"TOTAL_EXCL_VAT",
			"TOTAL_VAT",
			"TOTAL_INCL_VAT",
		},
	},
	{
		Name: "Banking",
		Fields: []string{
			"IBAN",
			"BIC",
			"BANK_ACCOUNT_NUMBER",
			"BANK_REGISTRATION_NUMBER",
		},
	},
}

// AllFields returns every schema field name in render order.
func AllFields() []string {
	var fields []string
	for _, c := range Categories {
		fields = append(fields, c.Fields...)
	}
	return fields
}

// FieldRecord is one renderable/editable field slot.
type FieldRecord struct {
	Field           string `json:"field"`
	Category        string `json:"category"`
	Present         bool   `json:"present"`
	Value           string `json:"value"`
	ConfidenceLevel string `json:"confidence_level"`
}

// RenderFields resolves the requested field names through the index, in the
// given order. Absent fields still render as empty editable slots so the
// reviewer can fill them in.
func RenderFields(ix *Index, fields []string) []FieldRecord {
	records := make([]FieldRecord, 0, len(fields))
	for _, name := range fields {
		record := FieldRecord{
			Field:           name,
			Category:        categoryOf(name),
			ConfidenceLevel: "missing",
		}
		if fv, ok := ix.Lookup(name); ok {
			record.Present = true
			record.Value = fv.Value
			record.ConfidenceLevel = fv.ConfidenceLevel
		}
		records = append(records, record)
	}
	return records
}

// RenderAllFields renders the full review schema.
func RenderAllFields(ix *Index) []FieldRecord {
	return RenderFields(ix, AllFields())
}

func categoryOf(field string) string {
	for _, c := range Categories {
		for _, f := range c.Fields {
			if f == field {
				return c.Name
			}
		}
	}
	return ""
}
