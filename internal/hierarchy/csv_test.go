package hierarchy_test

import (
	"strings"

	"github.com/frahmantamala/recognition-portal/internal/hierarchy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseCSV", func() {
	It("maps columns by header name", func() {
		rows, err := hierarchy.ParseCSV(strings.NewReader(
			"email,username,name,manager_id,role,title\n" +
				"a@example.com,E1,Ann,7,manager,Lead\n" +
				"b@example.com,E2,Bob,,,\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))

		Expect(rows[0].Username).To(Equal("E1"))
		Expect(*rows[0].ManagerID).To(Equal(int64(7)))
		Expect(rows[0].Role).To(Equal("manager"))
		Expect(*rows[0].Title).To(Equal("Lead"))
		Expect(rows[0].Department).To(BeNil())

		Expect(rows[1].ManagerID).To(BeNil())
		Expect(rows[1].Title).To(BeNil())
	})

	It("tolerates short rows", func() {
		rows, err := hierarchy.ParseCSV(strings.NewReader("username,email,name,department\nE1,a@example.com,Ann\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(rows[0].Department).To(BeNil())
	})

	It("requires the identity columns", func() {
		_, err := hierarchy.ParseCSV(strings.NewReader("username,name\nE1,Ann\n"))
		Expect(err).To(MatchError(ContainSubstring(`"email"`)))
	})

	It("keeps parsing past a non-numeric manager id", func() {
		rows, err := hierarchy.ParseCSV(strings.NewReader(
			"username,email,name,manager_id\n" +
				"E1,a@example.com,Ann,\n" +
				"E2,b@example.com,Bob,boss\n" +
				"E3,c@example.com,Cy,1\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(3))
		Expect(rows[0].ParseError).To(BeEmpty())
		Expect(rows[1].ParseError).To(Equal("invalid manager_id"))
		Expect(rows[1].ManagerID).To(BeNil())
		Expect(*rows[2].ManagerID).To(Equal(int64(1)))
	})

	It("rejects an empty file", func() {
		_, err := hierarchy.ParseCSV(strings.NewReader(""))
		Expect(err).To(HaveOccurred())
	})
})
