package validation

import (
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	errors "github.com/frahmantamala/permit-to-work/internal"
)

func TestValidation(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Validation Suite")
}

type sampleDTO struct {
	Name   string `json:"name" validate:"required,max=10"`
	Status string `json:"status" validate:"required,oneof=planning active"`
	Day    string `json:"day" validate:"omitempty,ymd"`
}

var _ = ginkgo.Describe("Struct", func() {
	ginkgo.It("accepts a valid DTO", func() {
		gomega.Expect(Struct(sampleDTO{Name: "ok", Status: "active", Day: "2024-03-01"})).To(gomega.BeNil())
	})

	ginkgo.It("reports every failing field by its json name", func() {
		// When
		err := Struct(sampleDTO{Status: "done", Day: "2024-13-01"})

		// Then
		gomega.Expect(err).ToNot(gomega.BeNil())
		gomega.Expect(err.Type).To(gomega.Equal(errors.ErrorTypeValidation))
		details, ok := err.Details.(errors.ValidationErrors)
		gomega.Expect(ok).To(gomega.BeTrue())

		fields := map[string]string{}
		for _, fe := range details.Errors {
			fields[fe.Field] = fe.Code
		}
		gomega.Expect(fields).To(gomega.HaveKey("name"))
		gomega.Expect(fields).To(gomega.HaveKeyWithValue("status", string(errors.ErrCodeInvalidPermitStatus)))
		gomega.Expect(fields).To(gomega.HaveKeyWithValue("day", string(errors.ErrCodeInvalidDate)))
	})
})

var _ = ginkgo.Describe("ValidationBuilder", func() {
	ginkgo.DescribeTable("Hours",
		func(hours float64, valid bool) {
			v := NewValidator()
			v.Field("hours", hours).Hours()
			if valid {
				gomega.Expect(v.Validate()).To(gomega.BeNil())
			} else {
				gomega.Expect(v.Validate()).ToNot(gomega.BeNil())
			}
		},
		ginkgo.Entry("zero", 0.0, false),
		ginkgo.Entry("negative", -1.0, false),
		ginkgo.Entry("half hour", 0.5, true),
		ginkgo.Entry("full day", 24.0, true),
		ginkgo.Entry("over a day", 24.5, false),
	)

	ginkgo.It("collects errors across fields", func() {
		v := NewValidator()
		v.Field("description", "").Required()
		v.Field("work_date", "01-02-2024").Date()

		err := v.Validate()

		gomega.Expect(err).ToNot(gomega.BeNil())
		gomega.Expect(err.Details.(errors.ValidationErrors).Errors).To(gomega.HaveLen(2))
	})
})
