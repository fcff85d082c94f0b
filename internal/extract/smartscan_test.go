package extract

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/danielmagalmeida/smartscan/internal/annotation"
)

var _ = Describe("SmartScan", func() {
	var (
		apiServer *ghttp.Server
		client    *SmartScan
		err       error
	)

	BeforeEach(func() {
		apiServer = ghttp.NewServer()
		client, err = NewSmartScan(apiServer.URL()+"/v1/transactions", "test-token", 10*time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		apiServer.Close()
	})

	Describe("NewSmartScan", func() {
		It("should require a base url", func() {
			_, newErr := NewSmartScan("", "token", time.Second)
			Expect(newErr).To(HaveOccurred())
		})
	})

	Describe("Extract", func() {
		var result *annotation.DocumentResult

		When("the transaction completes", func() {
			BeforeEach(func() {
				apiServer.AppendHandlers(
					ghttp.CombineHandlers(
						ghttp.VerifyRequest("POST", "/v1/transactions"),
						ghttp.VerifyHeaderKV("Authorization", "Bearer test-token"),
						ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"id": "txn-1"}),
					),
					ghttp.CombineHandlers(
						ghttp.VerifyRequest("GET", "/v1/transactions/txn-1/status"),
						ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"status": "RUNNING"}),
					),
					ghttp.CombineHandlers(
						ghttp.VerifyRequest("GET", "/v1/transactions/txn-1/status"),
						ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"status": "DONE"}),
					),
					ghttp.CombineHandlers(
						ghttp.VerifyRequest("GET", "/v1/transactions/txn-1/results"),
						ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
							"annotations": []map[string]any{
								{"feature": "SUPPLIER_NAME", "candidates": []map[string]any{
									{"value": "Acme Corp", "confidence": map[string]string{"level": "HIGH"}},
								}},
							},
						}),
					),
				)

				result, err = client.Extract(context.Background(), []byte("%PDF-1.4 fake"), "application/pdf")
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should poll until the transaction is done", func() {
				Expect(apiServer.ReceivedRequests()).To(HaveLen(4))
			})

			It("should fall back to the transaction id as correlation id", func() {
				Expect(result.ID).To(Equal("txn-1"))
			})

			It("should decode the annotations", func() {
				Expect(result.Annotations).To(HaveLen(1))
				Expect(result.Annotations[0].Feature).To(Equal("SUPPLIER_NAME"))
				Expect(result.Annotations[0].Candidates[0].Value).To(Equal("Acme Corp"))
				Expect(result.Annotations[0].Candidates[0].Confidence.Level).To(Equal("HIGH"))
			})
		})

		When("the results body carries its own id", func() {
			BeforeEach(func() {
				apiServer.AppendHandlers(
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"id": "txn-2"}),
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"status": "DONE"}),
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"id": "result-7", "annotations": []any{}}),
				)

				result, err = client.Extract(context.Background(), []byte("doc"), "application/pdf")
			})

			It("should keep the result's own id", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(result.ID).To(Equal("result-7"))
			})
		})

		When("the transaction fails during processing", func() {
			BeforeEach(func() {
				apiServer.AppendHandlers(
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"id": "txn-3"}),
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"status": "FAILED"}),
				)

				result, err = client.Extract(context.Background(), []byte("doc"), "application/pdf")
			})

			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed during processing"))
			})
		})

		When("the API rejects the upload", func() {
			BeforeEach(func() {
				apiServer.AppendHandlers(
					ghttp.RespondWith(http.StatusUnauthorized, "invalid token"),
				)

				result, err = client.Extract(context.Background(), []byte("doc"), "application/pdf")
			})

			It("surfaces the status and body verbatim", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("status 401"))
				Expect(err.Error()).To(ContainSubstring("invalid token"))
			})

			It("does not retry", func() {
				Expect(apiServer.ReceivedRequests()).To(HaveLen(1))
			})
		})

		When("the context is cancelled while polling", func() {
			BeforeEach(func() {
				apiServer.AppendHandlers(
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"id": "txn-4"}),
				)
				apiServer.RouteToHandler("GET", "/v1/transactions/txn-4/status",
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"status": "RUNNING"}))

				ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
				defer cancel()
				result, err = client.Extract(ctx, []byte("doc"), "application/pdf")
			})

			It("returns the context error", func() {
				Expect(err).To(MatchError(context.DeadlineExceeded))
			})
		})
	})

	Describe("SubmitFeedback", func() {
		var payload *annotation.FeedbackPayload

		BeforeEach(func() {
			payload = &annotation.FeedbackPayload{
				TransactionID: "txn-1",
				Fields:        map[string]any{"SUPPLIER_NAME": "Acme GmbH"},
			}
		})

		When("the API accepts the payload", func() {
			BeforeEach(func() {
				apiServer.AppendHandlers(
					ghttp.CombineHandlers(
						ghttp.VerifyRequest("POST", "/v1/transactions/txn-1/feedback"),
						ghttp.VerifyJSONRepresenting(payload),
						ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"message": "ok"}),
					),
				)

				err = client.SubmitFeedback(context.Background(), payload)
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})
		})

		When("the API rejects the payload", func() {
			BeforeEach(func() {
				apiServer.AppendHandlers(
					ghttp.RespondWith(http.StatusBadGateway, "upstream down"),
				)

				err = client.SubmitFeedback(context.Background(), payload)
			})

			It("surfaces the failure without retrying", func() {
				Expect(err).To(HaveOccurred())
				Expect(apiServer.ReceivedRequests()).To(HaveLen(1))
			})
		})
	})
})
