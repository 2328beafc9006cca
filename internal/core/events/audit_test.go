package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/frahmantamala/recognition-portal/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AuditHandler", func() {
	It("logs admin deletions at warn level with the payload", func() {
		var buf bytes.Buffer
		handler := events.AuditHandler(slog.New(slog.NewJSONHandler(&buf, nil)))

		ev := events.NewThanksDeletedEvent(7, 1, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
		Expect(handler(context.Background(), ev)).To(Succeed())

		var line map[string]interface{}
		Expect(json.Unmarshal(buf.Bytes(), &line)).To(Succeed())
		Expect(line["level"]).To(Equal("WARN"))
		Expect(line["component"]).To(Equal("audit"))
		Expect(line["event_type"]).To(Equal(events.EventTypeThanksDeleted))
		Expect(line["event_id"]).To(Equal(ev.EventID()))
		Expect(line["payload"]).To(HaveKeyWithValue("thanks_id", BeNumerically("==", 7)))
	})
})
