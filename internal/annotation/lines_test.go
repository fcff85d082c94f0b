package annotation

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractLines", func() {
	var (
		annotations []Annotation
		records     []LineRecord
	)

	JustBeforeEach(func() {
		records = ExtractLines(NewIndex(annotations))
	})

	When("the document has no purchase lines annotation", func() {
		BeforeEach(func() {
			annotations = nil
		})

		It("should return an empty slice, never nil", func() {
			Expect(records).NotTo(BeNil())
			Expect(records).To(BeEmpty())
		})
	})

	When("the purchase lines annotation has zero rows", func() {
		BeforeEach(func() {
			annotations = []Annotation{{Feature: FeaturePurchaseLines}}
		})

		It("should return an empty slice", func() {
			Expect(records).To(BeEmpty())
		})
	})

	When("rows have missing cells", func() {
		BeforeEach(func() {
			annotations = []Annotation{
				{
					Feature: FeaturePurchaseLines,
					PurchaseLineCandidates: []LineItem{
						{"description": "Widget", "quantity": float64(2)},
					},
				},
			}
		})

		It("should render every schema column", func() {
			Expect(records[0].Cells).To(HaveLen(len(LineColumns)))
		})

		It("should render missing cells as empty strings", func() {
			Expect(records[0].Cells[ColumnUnitPrice]).To(Equal(""))
			Expect(records[0].Cells[ColumnPageRef]).To(Equal(""))
		})

		It("should render present cells as text", func() {
			Expect(records[0].Cells[ColumnDescription]).To(Equal("Widget"))
			Expect(records[0].Cells[ColumnQuantity]).To(Equal("2"))
		})
	})

	When("a row has only the legacy total cell", func() {
		BeforeEach(func() {
			annotations = []Annotation{
				{
					Feature: FeaturePurchaseLines,
					PurchaseLineCandidates: []LineItem{
						{"total": "10"},
					},
				},
			}
		})

		It("should render the alias into the totalAmount slot", func() {
			Expect(records[0].Cells[ColumnTotalAmount]).To(Equal("10"))
		})
	})

	When("a row has both totalAmount and total", func() {
		BeforeEach(func() {
			annotations = []Annotation{
				{
					Feature: FeaturePurchaseLines,
					PurchaseLineCandidates: []LineItem{
						{"totalAmount": "12.50", "total": "10"},
					},
				},
			}
		})

		It("should prefer totalAmount", func() {
			Expect(records[0].Cells[ColumnTotalAmount]).To(Equal("12.50"))
		})
	})

	When("multiple rows are present", func() {
		BeforeEach(func() {
			annotations = []Annotation{
				{
					Feature: FeaturePurchaseLines,
					PurchaseLineCandidates: []LineItem{
						{"itemNumber": "3"},
						{"itemNumber": "1"},
						{"itemNumber": "2"},
					},
				},
			}
		})

		It("should retain source order without sorting or dedup", func() {
			Expect(records).To(HaveLen(3))
			Expect(records[0].Cells[ColumnItemNumber]).To(Equal("3"))
			Expect(records[1].Cells[ColumnItemNumber]).To(Equal("1"))
			Expect(records[2].Cells[ColumnItemNumber]).To(Equal("2"))
		})
	})
})
