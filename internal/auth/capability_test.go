package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Capabilities", func() {
	var (
		admin  = Identity{UserID: 1, Role: RoleAdmin}
		owner  = Identity{UserID: 2, Role: RoleOpgaveansvarlig}
		drift  = Identity{UserID: 3, Role: RoleDrift}
		acme   = Identity{UserID: 4, Role: RoleEntreprenor, Firma: "Acme A/S"}
		beta   = Identity{UserID: 5, Role: RoleEntreprenor, Firma: "Beta ApS"}
		nofirm = Identity{UserID: 6, Role: RoleEntreprenor}
	)

	ginkgo.DescribeTable("CanActAs",
		func(id Identity, required Role, firm string, allowed bool, reason string) {
			d := CanActAs(id, required, firm)
			gomega.Expect(d.Allowed).To(gomega.Equal(allowed))
			gomega.Expect(d.Reason).To(gomega.Equal(reason))
		},
		ginkgo.Entry("role holder", drift, RoleDrift, "Acme A/S", true, ""),
		ginkgo.Entry("wrong role", owner, RoleDrift, "Acme A/S", false, ReasonInsufficientRole),
		ginkgo.Entry("contractor of the firm", acme, RoleEntreprenor, "Acme A/S", true, ""),
		ginkgo.Entry("contractor of another firm", beta, RoleEntreprenor, "Acme A/S", false, ReasonTenantIsolation),
		ginkgo.Entry("contractor without firm", nofirm, RoleEntreprenor, "", false, ReasonMissingFirm),
		ginkgo.Entry("admin as contractor of any firm", admin, RoleEntreprenor, "Beta ApS", true, ""),
		ginkgo.Entry("admin as drift", admin, RoleDrift, "Acme A/S", true, ""),
		ginkgo.Entry("admin is not an approver slot", admin, RoleAdmin, "Acme A/S", false, ReasonUnknownRole),
		ginkgo.Entry("unknown role", drift, Role("foreman"), "Acme A/S", false, ReasonUnknownRole),
	)

	ginkgo.DescribeTable("CanView",
		func(id Identity, firm string, allowed bool) {
			gomega.Expect(CanView(id, firm).Allowed).To(gomega.Equal(allowed))
		},
		ginkgo.Entry("drift sees every firm", drift, "Beta ApS", true),
		ginkgo.Entry("contractor sees own firm", acme, "Acme A/S", true),
		ginkgo.Entry("contractor is kept out of other firms", acme, "Beta ApS", false),
		ginkgo.Entry("contractor without firm sees nothing", nofirm, "", false),
		ginkgo.Entry("unknown role sees nothing", Identity{Role: "guest"}, "Acme A/S", false),
	)

	ginkgo.DescribeTable("CanEdit and CanAdminister",
		func(id Identity, edit, administer bool) {
			gomega.Expect(CanEdit(id).Allowed).To(gomega.Equal(edit))
			gomega.Expect(CanAdminister(id).Allowed).To(gomega.Equal(administer))
		},
		ginkgo.Entry("admin", admin, true, true),
		ginkgo.Entry("opgaveansvarlig", owner, true, false),
		ginkgo.Entry("drift", drift, true, false),
		ginkgo.Entry("entreprenor", acme, false, false),
	)

	ginkgo.It("parses roles case-insensitively and restricts approver slots", func() {
		r, ok := ParseRole(" Drift ")
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(r).To(gomega.Equal(RoleDrift))

		_, ok = ParseApproverRole("admin")
		gomega.Expect(ok).To(gomega.BeFalse())
	})

	ginkgo.It("drops the firm from non-contractor identities", func() {
		u := &User{ID: 9, Role: RoleDrift, Firma: "Acme A/S"}
		gomega.Expect(u.Identity().Firma).To(gomega.BeEmpty())
	})
})
