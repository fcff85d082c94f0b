package annotation

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EditState", func() {
	var state *EditState

	BeforeEach(func() {
		fields := []FieldRecord{
			{Field: "SUPPLIER_NAME", Present: true, Value: "Acme Corp"},
			{Field: "CURRENCY", Value: ""},
		}
		lines := []LineRecord{
			{Cells: map[string]string{ColumnDescription: "Widget", ColumnQuantity: "2"}},
		}
		state = NewEditState("txn-123", fields, lines)
	})

	It("should carry the correlation id unmodified", func() {
		Expect(state.DocumentID()).To(Equal("txn-123"))
	})

	It("should seed scalar slots from the rendered records", func() {
		Expect(state.Field("SUPPLIER_NAME")).To(Equal("Acme Corp"))
		Expect(state.Field("CURRENCY")).To(Equal(""))
	})

	It("should seed every schema column for each row", func() {
		rows := state.Rows()
		Expect(rows).To(HaveLen(1))
		Expect(rows[0]).To(HaveLen(len(LineColumns)))
		Expect(rows[0][ColumnDescription]).To(Equal("Widget"))
		Expect(rows[0][ColumnUnit]).To(Equal(""))
	})

	Describe("SetField", func() {
		It("should overwrite the slot, last write wins", func() {
			state.SetField("SUPPLIER_NAME", "Acme GmbH")
			state.SetField("SUPPLIER_NAME", "Acme SA")
			Expect(state.Field("SUPPLIER_NAME")).To(Equal("Acme SA"))
		})

		It("should not disturb other slots", func() {
			state.SetField("CURRENCY", "EUR")
			Expect(state.Field("SUPPLIER_NAME")).To(Equal("Acme Corp"))
		})
	})

	Describe("SetCell", func() {
		It("should overwrite the cell, last write wins", func() {
			Expect(state.SetCell(0, ColumnQuantity, "3")).To(Succeed())
			Expect(state.SetCell(0, ColumnQuantity, "4")).To(Succeed())
			Expect(state.Rows()[0][ColumnQuantity]).To(Equal("4"))
		})

		It("should reject an out of range row", func() {
			Expect(state.SetCell(5, ColumnQuantity, "1")).To(HaveOccurred())
			Expect(state.SetCell(-1, ColumnQuantity, "1")).To(HaveOccurred())
		})
	})

	It("should not expose internal rows through the snapshot", func() {
		rows := state.Rows()
		rows[0][ColumnDescription] = "mutated"
		Expect(state.Rows()[0][ColumnDescription]).To(Equal("Widget"))
	})
})
