package annotation

// Line item column keys, in render order. The schema is fixed and indexed by
// position; it is never inferred from rendered headers.
const (
	ColumnCode             = "code"
	ColumnItemNumber       = "itemNumber"
	ColumnDescription      = "description"
	ColumnQuantity         = "quantity"
	ColumnUnit             = "unit"
	ColumnUnitPrice        = "unitPrice"
	ColumnUnitPriceExclVat = "unitPriceExclVat"
	ColumnUnitPriceInclVat = "unitPriceInclVat"
	ColumnTotalAmount      = "totalAmount"
	ColumnTotalExclVat     = "totalExclVat"
	ColumnTotalInclVat     = "totalInclVat"
	ColumnTotalVat         = "totalVat"
	ColumnPercentageVat    = "percentageVat"
	ColumnPageRef          = "pageRef"
)

// LineColumns is the ordered column schema for purchase line rows.
var LineColumns = []string{
	ColumnCode,
	ColumnItemNumber,
	ColumnDescription,
	ColumnQuantity,
	ColumnUnit,
	ColumnUnitPrice,
	ColumnUnitPriceExclVat,
	ColumnUnitPriceInclVat,
	ColumnTotalAmount,
	ColumnTotalExclVat,
	ColumnTotalInclVat,
	ColumnTotalVat,
	ColumnPercentageVat,
	ColumnPageRef,
}

// LineRecord is one renderable/editable purchase line row. Cells holds every
// schema column; missing cells are empty strings.
type LineRecord struct {
	Cells map[string]string `json:"cells"`
}

// ExtractLines maps the purchase line annotation onto the fixed column
// schema, preserving source order. A missing annotation or an empty row
// collection yields an empty slice: "no line items found" is a normal state,
// not an error. The totalAmount column prefers the totalAmount cell and
// falls back to its legacy total alias.
func ExtractLines(ix *Index) []LineRecord {
	items := ix.Lines()
	records := make([]LineRecord, 0, len(items))
	for _, item := range items {
		cells := make(map[string]string, len(LineColumns))
		for _, column := range LineColumns {
			cells[column] = valueText(item[column])
		}
		if item[ColumnTotalAmount] == nil {
			cells[ColumnTotalAmount] = valueText(item["total"])
		}
		records = append(records, LineRecord{Cells: cells})
	}
	return records
}
