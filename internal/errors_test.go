package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/permit-to-work/internal"
)

var _ = Describe("AppError", func() {
	sentinel := internal.NewNotReadyError("all three approvals required first", internal.ErrCodeApprovalsMissing)

	It("matches its sentinel after WithCause without mutating it", func() {
		wrapped := fmt.Errorf("set work status: %w", sentinel.WithCause(errors.New("gate")))

		Expect(errors.Is(wrapped, sentinel)).To(BeTrue())
		Expect(sentinel.Cause).To(BeNil())
		Expect(errors.Is(wrapped, internal.NewNotReadyError("x", internal.ErrCodePermitNotActive))).To(BeFalse())
	})

	It("is found through wrapping", func() {
		appErr, ok := internal.IsAppError(fmt.Errorf("outer: %w", sentinel))

		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusConflict))
		Expect(internal.IsType(sentinel, internal.ErrorTypeNotReady)).To(BeTrue())
	})

	It("never serialises the cause", func() {
		err := internal.NewPersistenceError("please try again later", errors.New("pq: relation permits does not exist"))
		status, body := err.ToHTTPResponse()

		raw, marshalErr := json.Marshal(body)
		Expect(marshalErr).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(string(raw)).To(Equal(`{"error":{"type":"PERSISTENCE_ERROR","code":"STORE_FAILURE","message":"please try again later"}}`))
		Expect(err.Error()).To(ContainSubstring("relation permits"))
	})

	It("reports the first field message for validation errors", func() {
		err := internal.NewValidationFieldError("hours", "hours must be greater than 0", internal.ErrCodeInvalidHours)

		Expect(err.Error()).To(Equal("hours must be greater than 0"))
		Expect(err.StatusCode).To(Equal(http.StatusBadRequest))
	})
})
