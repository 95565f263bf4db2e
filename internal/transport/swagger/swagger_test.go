package swagger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/permit-to-work/internal/transport/swagger"
)

func TestSwagger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Swagger Suite")
}

var specPath = filepath.Join("..", "..", "..", "api", "openapi.yml")

var _ = Describe("Load", func() {
	It("accepts the shipped document", func() {
		doc, err := swagger.Load(context.Background(), specPath)

		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Title()).To(Equal("Permit-to-Work API"))
		Expect(doc.Documents(http.MethodPost, "/permits/{id}/approvals/{role}")).To(BeTrue())
		Expect(doc.Documents(http.MethodPut, "/permits/{id}/work-status")).To(BeTrue())
		Expect(doc.Documents(http.MethodGet, "/admin/daily-reset")).To(BeFalse())
		Expect(doc.Operations()).To(ContainElement("POST /admin/daily-reset"))
	})

	It("rejects a document that does not validate", func() {
		path := filepath.Join(GinkgoT().TempDir(), "broken.yml")
		Expect(os.WriteFile(path, []byte("openapi: 3.0.3\ninfo:\n  version: 1.0.0\npaths: {}\n"), 0o600)).To(Succeed())

		_, err := swagger.Load(context.Background(), path)

		Expect(err).To(HaveOccurred())
	})

	It("reports a missing file", func() {
		_, err := swagger.Load(context.Background(), "does-not-exist.yml")

		Expect(err).To(MatchError(ContainSubstring("read openapi document")))
	})

	It("serves the raw document", func() {
		doc, err := swagger.Load(context.Background(), specPath)
		Expect(err).NotTo(HaveOccurred())
		w := httptest.NewRecorder()

		doc.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yml", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(HavePrefix("openapi: 3.0.3"))
	})
})
