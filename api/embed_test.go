package api_test

import (
	"context"

	"github.com/frahmantamala/recognition-portal/api"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OpenAPI document", func() {
	It("loads and validates", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Info.Title).To(Equal("Recognition Portal API"))
	})

	DescribeTable("documents the route",
		func(path, method string) {
			doc, err := api.Load(context.Background())
			Expect(err).NotTo(HaveOccurred())
			item := doc.Paths.Find(path)
			Expect(item).NotTo(BeNil(), path)
			Expect(item.GetOperation(method)).NotTo(BeNil(), method+" "+path)
		},
		Entry("login", "/api/v1/auth/login", "POST"),
		Entry("create thanks", "/api/v1/thanks", "POST"),
		Entry("approve", "/api/v1/thanks/{id}/approve", "POST"),
		Entry("approvals", "/api/v1/approvals", "GET"),
		Entry("rankings", "/api/v1/rankings/{period}", "GET"),
		Entry("manager reassignment", "/api/v1/users/{id}/manager", "PATCH"),
		Entry("bulk import", "/api/v1/users/import", "POST"),
		Entry("admin override", "/api/v1/admin/thanks/{id}", "PATCH"),
	)
})
