package permit

import (
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/permit-to-work/internal/auth"
)

var _ = ginkgo.Describe("ApprovalView", func() {
	var p *Permit

	ginkgo.BeforeEach(func() {
		p = activePermit(39, "Acme A/S")
		p.Approvals[auth.RoleOpgaveansvarlig] = "2024-01-10"
		p.Approvals[auth.RoleDrift] = "2024-01-09"
		p.History = []HistoryEntry{
			{Timestamp: time.Date(2024, 1, 9, 8, 0, 0, 0, copenhagen), UserID: 2, Role: auth.RoleDrift},
			{Timestamp: time.Date(2024, 1, 10, 7, 30, 0, 0, copenhagen), UserID: 1, Role: auth.RoleOpgaveansvarlig},
		}
	})

	ginkgo.It("lists the three roles in display order with today's state", func() {
		view := NewApprovalView(p, "2024-01-10", copenhagen, drift)

		gomega.Expect(view.Date).To(gomega.Equal("2024-01-10"))
		gomega.Expect(view.ApprovedCount).To(gomega.Equal(1))
		gomega.Expect(view.FullyApproved).To(gomega.BeFalse())
		gomega.Expect(view.Roles).To(gomega.HaveLen(3))

		gomega.Expect(view.Roles[0].Role).To(gomega.Equal(auth.RoleOpgaveansvarlig))
		gomega.Expect(view.Roles[0].ApprovedToday).To(gomega.BeTrue())
		gomega.Expect(view.Roles[0].TimestampToday).ToNot(gomega.BeNil())
		gomega.Expect(view.Roles[0].CanApprove).To(gomega.BeFalse())

		gomega.Expect(view.Roles[1].Role).To(gomega.Equal(auth.RoleDrift))
		gomega.Expect(view.Roles[1].ApprovedToday).To(gomega.BeFalse())
		gomega.Expect(view.Roles[1].TimestampToday).To(gomega.BeNil())
		gomega.Expect(view.Roles[1].CanApprove).To(gomega.BeTrue())

		gomega.Expect(view.Roles[2].Label).To(gomega.Equal("Entreprenør"))
		gomega.Expect(view.Roles[2].CanApprove).To(gomega.BeFalse())
	})

	ginkgo.It("buckets history timestamps by the local calendar day", func() {
		// 23:30 UTC on Jan 9 is already Jan 10 in Copenhagen.
		p.History = append(p.History, HistoryEntry{
			Timestamp: time.Date(2024, 1, 9, 23, 30, 0, 0, time.UTC),
			UserID:    3,
			Role:      auth.RoleEntreprenor,
		})
		p.Approvals[auth.RoleEntreprenor] = "2024-01-10"

		view := NewApprovalView(p, "2024-01-10", copenhagen, acmeContractor)

		gomega.Expect(view.Roles[2].TimestampToday).ToNot(gomega.BeNil())
	})

	ginkgo.It("offers a contractor only their own firm's slot", func() {
		gomega.Expect(CanApprove(p, auth.RoleEntreprenor, acmeContractor, "2024-01-10")).To(gomega.BeTrue())
		gomega.Expect(CanApprove(p, auth.RoleEntreprenor, betaContractor, "2024-01-10")).To(gomega.BeFalse())
		gomega.Expect(CanApprove(p, auth.RoleDrift, acmeContractor, "2024-01-10")).To(gomega.BeFalse())
	})

	ginkgo.It("offers an admin every open slot", func() {
		view := NewApprovalView(p, "2024-01-10", copenhagen, admin)

		gomega.Expect(view.Roles[0].CanApprove).To(gomega.BeFalse())
		gomega.Expect(view.Roles[1].CanApprove).To(gomega.BeTrue())
		gomega.Expect(view.Roles[2].CanApprove).To(gomega.BeTrue())
	})
})
