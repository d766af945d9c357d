package bill

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/billscan/billscan/internal/scanning"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		fetcher     *mockFetcher
		rasterizer  *mockRasterizer
		recognizer  *mockRecognizer
		extractor   *mockExtractor
		service     *Service
		auth        BasicAuth
		server      *Server
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	postExtract := func(body string) *http.Response {
		resp, err := http.Post(ghttpServer.URL()+"/extract-bill-data", "application/json", bytes.NewBufferString(body))
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decodeEnvelope := func(resp *http.Response) map[string]any {
		defer resp.Body.Close()
		var payload map[string]any
		Expect(json.NewDecoder(resp.Body).Decode(&payload)).To(Succeed())
		return payload
	}

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		fetcher = &mockFetcher{data: []byte("%PDF-fake"), contentType: "application/pdf"}
		rasterizer = &mockRasterizer{pages: [][]byte{[]byte("page-1-png"), []byte("page-2-png")}}
		recognizer = &mockRecognizer{texts: map[string]string{
			"page-1-png": "page one text",
			"page-2-png": "page two text",
		}}
		extractor = &mockExtractor{
			rows: map[string][]scanning.RawLineItem{
				"page one text": {
					{ItemName: strPtr("Widget"), ItemQuantity: 2.0, ItemRate: 5.0, ItemAmount: nil},
				},
				"page two text": {
					{ItemName: strPtr("Gadget"), ItemAmount: 20.0},
				},
			},
			errFor: map[string]error{},
		}
		service = NewServiceWithDeps(
			db, storage, fetcher, rasterizer, recognizer, extractor,
			&fixedIDGenerator{id: "test-id"}, &fixedTimeSource{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		)
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("POST /extract-bill-data", func() {
		When("the document extracts cleanly", func() {
			It("should return status OK", func() {
				resp := postExtract(`{"document": "https://example.com/bill.pdf"}`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})

			It("should return a success envelope with the reconciled data", func() {
				payload := decodeEnvelope(postExtract(`{"document": "https://example.com/bill.pdf"}`))
				Expect(payload["is_success"]).To(BeTrue())

				data := payload["data"].(map[string]any)
				Expect(data["total_item_count"]).To(BeNumerically("==", 2))
				Expect(data["reconciled_amount"]).To(BeNumerically("==", 30.0))

				pages := data["pagewise_line_items"].([]any)
				Expect(pages).To(HaveLen(2))
				page1 := pages[0].(map[string]any)
				Expect(page1["page_no"]).To(BeNumerically("==", 1))
				Expect(page1["bill_items"].([]any)).To(HaveLen(1))
			})

			It("should serialize absent fields as null", func() {
				payload := decodeEnvelope(postExtract(`{"document": "https://example.com/bill.pdf"}`))
				data := payload["data"].(map[string]any)
				pages := data["pagewise_line_items"].([]any)
				gadget := pages[1].(map[string]any)["bill_items"].([]any)[0].(map[string]any)
				Expect(gadget).To(HaveKey("item_quantity"))
				Expect(gadget["item_quantity"]).To(BeNil())
				Expect(gadget["item_rate"]).To(BeNil())
				Expect(gadget["item_amount"]).To(BeNumerically("==", 20.0))
			})
		})

		When("the document field is missing", func() {
			It("should return a 400 failure envelope", func() {
				resp := postExtract(`{}`)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				payload := decodeEnvelope(resp)
				Expect(payload["is_success"]).To(BeFalse())
				Expect(payload["error"]).To(Equal("Missing 'document'"))
			})
		})

		When("the request body is not JSON", func() {
			It("should return a 400 failure envelope", func() {
				resp := postExtract(`not json at all`)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				payload := decodeEnvelope(resp)
				Expect(payload["is_success"]).To(BeFalse())
			})
		})

		When("the download fails", func() {
			BeforeEach(func() {
				fetcher.err = ErrDownloadFailed
			})

			It("should return a 400 failure envelope", func() {
				resp := postExtract(`{"document": "https://example.com/bill.pdf"}`)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				payload := decodeEnvelope(resp)
				Expect(payload["is_success"]).To(BeFalse())
				Expect(payload["error"]).To(Equal("Download failed"))
			})
		})

		When("a page fails extraction", func() {
			BeforeEach(func() {
				extractor.errFor["page two text"] = errors.New("model returned garbage")
			})

			It("should still succeed with an empty page", func() {
				resp := postExtract(`{"document": "https://example.com/bill.pdf"}`)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				payload := decodeEnvelope(resp)
				Expect(payload["is_success"]).To(BeTrue())
				data := payload["data"].(map[string]any)
				pages := data["pagewise_line_items"].([]any)
				Expect(pages[1].(map[string]any)["bill_items"].([]any)).To(BeEmpty())
			})
		})
	})

	Describe("GET /api/extractions", func() {
		BeforeEach(func() {
			db.extractions["abc"] = &Extraction{ID: "abc", DocumentURL: "https://example.com/a.png"}
		})

		It("should list extraction history in an envelope", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/extractions")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			payload := decodeEnvelope(resp)
			Expect(payload["is_success"]).To(BeTrue())
			Expect(payload["data"].([]any)).To(HaveLen(1))
		})
	})

	Describe("GET /api/extractions/{id}", func() {
		BeforeEach(func() {
			db.extractions["abc"] = &Extraction{ID: "abc", DocumentURL: "https://example.com/a.png"}
		})

		When("the record exists", func() {
			It("should return it", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/extractions/abc")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				payload := decodeEnvelope(resp)
				Expect(payload["data"].(map[string]any)["id"]).To(Equal("abc"))
			})
		})

		When("the record does not exist", func() {
			It("should return 404", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/extractions/missing")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})
		})
	})

	Describe("GET /api/extractions/{id}/file", func() {
		BeforeEach(func() {
			db.extractions["abc"] = &Extraction{ID: "abc", Filename: "abc.pdf", ContentType: "application/pdf"}
			storage.files["abc.pdf"] = []byte("document bytes")
		})

		It("should return the archived document with its content type", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/extractions/abc/file")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/pdf"))
		})
	})

	Describe("DELETE /api/extractions/{id}", func() {
		BeforeEach(func() {
			db.extractions["abc"] = &Extraction{ID: "abc", Filename: "abc.pdf"}
			storage.files["abc.pdf"] = []byte("data")
		})

		It("should return 204 and remove the record", func() {
			req, err := http.NewRequest("DELETE", ghttpServer.URL()+"/api/extractions/abc", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.extractions).NotTo(HaveKey("abc"))
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "user", Password: "secret"}
			setupServer()
		})

		When("no credentials are provided", func() {
			It("should return 401", func() {
				resp := postExtract(`{"document": "https://example.com/bill.pdf"}`)
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})

		When("correct credentials are provided", func() {
			It("should process the request", func() {
				req, err := http.NewRequest("POST", ghttpServer.URL()+"/extract-bill-data",
					bytes.NewBufferString(`{"document": "https://example.com/bill.pdf"}`))
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:secret")))
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})

		When("wrong credentials are provided", func() {
			It("should return 401", func() {
				req, err := http.NewRequest("POST", ghttpServer.URL()+"/extract-bill-data",
					bytes.NewBufferString(`{"document": "https://example.com/bill.pdf"}`))
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:wrong")))
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})
	})
})
