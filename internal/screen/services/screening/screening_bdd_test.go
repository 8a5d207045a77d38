package screening_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/haukened/callscreen/internal/screen/common/log"
	"github.com/haukened/callscreen/internal/screen/domain"
	"github.com/haukened/callscreen/internal/screen/gateways/notify"
	"github.com/haukened/callscreen/internal/screen/repos/blocked"
	"github.com/haukened/callscreen/internal/screen/repos/blocked/bloom"
	"github.com/haukened/callscreen/internal/screen/repos/kv"
	"github.com/haukened/callscreen/internal/screen/repos/kv/bolt"
	"github.com/haukened/callscreen/internal/screen/repos/prefs"
	"github.com/haukened/callscreen/internal/screen/repos/rules"
	"github.com/haukened/callscreen/internal/screen/services/engine"
	"github.com/haukened/callscreen/internal/screen/services/screening"
)

type sinkRecorder struct {
	posted []notify.Notification
}

func (s *sinkRecorder) Post(n notify.Notification) error {
	s.posted = append(s.posted, n)
	return nil
}

var _ = Describe("Coordinator", func() {
	var (
		tmpDir      string
		store       kv.Store
		ruleStore   *rules.Store
		blockList   *blocked.Store
		prefStore   *prefs.Store
		sink        *sinkRecorder
		coordinator *screening.Coordinator
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "callscreen-screening-*")
		Expect(err).NotTo(HaveOccurred())
		store, err = bolt.Open(filepath.Join(tmpDir, "callscreen.db"), bolt.Options{})
		Expect(err).NotTo(HaveOccurred())

		logger := log.NewNoopLogger()
		ruleStore = rules.New(store, logger)
		blockList = blocked.New(blocked.Options{KV: store, Logger: logger, Bloom: bloom.NewFactory(), FPRate: 0.01})
		prefStore = prefs.New(store, logger)
		sink = &sinkRecorder{}

		eng, err := engine.New(engine.Options{Lookup: blockList.ContainsNumber, PatternCacheSize: 16, Logger: logger})
		Expect(err).NotTo(HaveOccurred())

		coordinator = screening.New(screening.Options{
			Rules:       ruleStore,
			Engine:      eng,
			Preferences: prefStore,
			Notifier:    notify.New(notify.Options{Sequence: store, Sink: sink, Logger: logger}),
			Logger:      logger,
		})
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	Describe("a fresh install", func() {
		It("allows every call and records the invocation", func() {
			Expect(prefStore.ServiceEverInvoked()).To(BeFalse())

			resp := coordinator.OnIncomingCall("+56912345678")

			Expect(resp).To(Equal(domain.AllowResponse()))
			Expect(prefStore.ServiceEverInvoked()).To(BeTrue())
			Expect(sink.posted).To(BeEmpty())
		})
	})

	Describe("combined digit-count and block-list rules", func() {
		BeforeEach(func() {
			Expect(ruleStore.SetRuleEnabled(rules.IDDigitCount, true)).To(Succeed())
			Expect(ruleStore.SetRuleEnabled(rules.IDFromList, true)).To(Succeed())
			_, added, err := blockList.AddNumber("+56999999999")
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(BeTrue())
		})

		DescribeTable("screens by verdict",
			func(number string, want domain.ScreeningResponse) {
				Expect(coordinator.OnIncomingCall(number)).To(Equal(want))
			},
			Entry("eight digits", "12345678", domain.RejectResponse()),
			Entry("listed number", "+56999999999", domain.RejectResponse()),
			Entry("other number", "+56911111111", domain.AllowResponse()),
		)

		Context("with notifications disabled", func() {
			It("rejects silently", func() {
				Expect(coordinator.OnIncomingCall("12345678")).To(Equal(domain.RejectResponse()))
				Expect(sink.posted).To(BeEmpty())
			})
		})

		Context("with notifications enabled", func() {
			BeforeEach(func() {
				Expect(prefStore.SetNotificationsEnabled(true)).To(Succeed())
			})

			It("notifies once per rejected call with increasing ids", func() {
				coordinator.OnIncomingCall("12345678")
				coordinator.OnIncomingCall("+56911111111")
				coordinator.OnIncomingCall("+56999999999")

				Expect(sink.posted).To(HaveLen(2))
				Expect(sink.posted[0].ID).To(Equal(uint64(notify.FirstID)))
				Expect(sink.posted[0].Text).To(Equal("Blocked call from 12345678"))
				Expect(sink.posted[1].ID).To(Equal(uint64(notify.FirstID + 1)))
			})
		})

		Context("after the number is unblocked", func() {
			It("no longer rejects it", func() {
				list := blockList.GetBlockedNumbers()
				Expect(list).To(HaveLen(1))
				removed, err := blockList.RemoveNumber(list[0].ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(removed).To(BeTrue())

				Expect(coordinator.OnIncomingCall("+56999999999")).To(Equal(domain.AllowResponse()))
			})
		})
	})

	Describe("corrupt persisted rules", func() {
		It("screens with the default rule set", func() {
			Expect(store.Put(rules.Key, []byte("{not json"))).To(Succeed())
			Expect(coordinator.OnIncomingCall("12345678")).To(Equal(domain.RejectResponse()))
			Expect(coordinator.OnIncomingCall("+56911111111")).To(Equal(domain.AllowResponse()))
		})
	})

	Describe("an invalid stored pattern", func() {
		It("never matches and does not break screening", func() {
			list := rules.DefaultRules()
			for i := range list {
				if list[i].ID == rules.IDRegex {
					list[i] = list[i].WithEnabled(true)
					list[i].Config = domain.RegexPattern{Pattern: "[invalid"}
				}
			}
			Expect(ruleStore.SaveRules(list)).To(Succeed())
			Expect(coordinator.OnIncomingCall("[invalid")).To(Equal(domain.AllowResponse()))
		})
	})

	Describe("block all", func() {
		It("rejects anything, including an empty caller id", func() {
			Expect(ruleStore.SetRuleEnabled(rules.IDAll, true)).To(Succeed())
			Expect(coordinator.OnIncomingCall("")).To(Equal(domain.RejectResponse()))
			Expect(coordinator.OnIncomingCall("+1 555 0100")).To(Equal(domain.RejectResponse()))
		})
	})
})
