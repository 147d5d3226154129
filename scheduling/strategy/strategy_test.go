package strategy

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/wnsched/scheduling"
)

var _ = Describe("Strategy", func() {
	var (
		mockCtrl *gomock.Controller
		registry *StaticRegistry
		queue    *BufferQueue
		cfg      Config
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		registry = NewStaticRegistry(testMapper(), defaultCaps)
		registry.AddUser("ue1", defaultCaps, nil, nil)
		registry.AddUser("ue2", defaultCaps, nil, nil)
		queue = NewBufferQueue(16)
		queue.AddConnection(1, "ue1")
		queue.AddConnection(2, "ue2")
		cfg = testConfig()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	newStrategy := func(opts ...Option) *Strategy {
		s, err := NewStrategy(cfg, registry, queue, opts...)
		Expect(err).NotTo(HaveOccurred())

		return s
	}

	newMap := func() *scheduling.SchedulingMap {
		m, err := scheduling.NewSchedulingMap(1e-3, 2, 1, 1, 0)
		Expect(err).NotTo(HaveOccurred())

		return m
	}

	Context("when building", func() {
		It("should reject unknown strategy names", func() {
			cfg.DSA = "Nope"
			_, err := NewStrategy(cfg, registry, queue)
			Expect(err).To(BeAssignableToTypeOf(&scheduling.ConfigError{}))

			cfg = testConfig()
			cfg.APC = "Nope"
			_, err = NewStrategy(cfg, registry, queue)
			Expect(err).To(HaveOccurred())

			cfg = testConfig()
			cfg.SubStrategy = "Nope"
			_, err = NewStrategy(cfg, registry, queue)
			Expect(err).To(HaveOccurred())
		})

		It("should reject an invalid jitter", func() {
			cfg.SubStrategy = SubStrategyProportionalFair
			cfg.PFJitter = 1.5
			_, err := NewStrategy(cfg, registry, queue)
			Expect(err).To(BeAssignableToTypeOf(&scheduling.ConfigError{}))
		})

		It("should fail a frame with invalid dimensions", func() {
			cfg.NumSubChannels = 0
			s := newStrategy()

			_, err := s.StartScheduling(&SchedulerState{})
			Expect(err).To(BeAssignableToTypeOf(&scheduling.ConfigError{}))
		})

		It("should fail a frame with a non-positive slot length", func() {
			cfg.SlotLength = 0
			s := newStrategy()

			_, err := s.StartScheduling(&SchedulerState{})
			Expect(err).To(HaveOccurred())
		})

		It("should fail a frame without state", func() {
			_, err := newStrategy().StartScheduling(nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("when choosing a resource", func() {
		It("should pick the first block with the best phy mode", func() {
			s := newStrategy()
			m := newMap()

			req := scheduling.RequestForResource{
				ConnectionID: 1, User: "ue1", Bits: 500}
			entry, ok := s.DoAdaptiveResourceScheduling(req, &SchedulerState{}, m)

			Expect(ok).To(BeTrue())
			Expect(entry.SubBand).To(Equal(0))
			Expect(entry.User).To(Equal(scheduling.UserID("ue1")))
			Expect(entry.SourceUser).To(Equal(scheduling.UserID("bs")))
			Expect(entry.PhyMode).To(BeIdenticalTo(highMode))
			Expect(entry.TxPower).To(Equal(scheduling.Power(20)))
			Expect(entry.End).To(BeNumerically("~", 2.5e-4, 1e-15))
			Expect(m.IsEmpty()).To(BeTrue())
		})

		It("should reject a request with a too low SINR", func() {
			cfg.FlatCQI = badChannel
			s := newStrategy()

			req := scheduling.RequestForResource{User: "ue1", Bits: 500}
			_, ok := s.DoAdaptiveResourceScheduling(req, &SchedulerState{}, newMap())

			Expect(ok).To(BeFalse())
		})

		It("should fall back to the lowest phy mode if tolerated", func() {
			cfg.FlatCQI = badChannel
			cfg.ExcludeTooLowSINR = false
			s := newStrategy()

			req := scheduling.RequestForResource{User: "ue1", Bits: 500}
			entry, ok := s.DoAdaptiveResourceScheduling(
				req, &SchedulerState{}, newMap())

			Expect(ok).To(BeTrue())
			Expect(entry.PhyMode).To(BeIdenticalTo(lowMode))
		})

		It("should report no subchannel when all are masked", func() {
			s := newStrategy()
			m := newMap()
			Expect(m.MaskOutSubChannels([]bool{false, false})).To(Succeed())

			req := scheduling.RequestForResource{User: "ue1", Bits: 1}
			_, ok := s.DoAdaptiveResourceScheduling(req, &SchedulerState{}, m)

			Expect(ok).To(BeFalse())
		})

		It("should reuse the assignment of a partly filled block", func() {
			s := newStrategy()
			m := newMap()
			m.AddCompound(0, 0, 0, 1e-4, 1, "ue1", "bs",
				scheduling.BitPDU{Bits: 100}, lowMode, 17,
				scheduling.Omnidirectional, goodChannel, false)

			req := scheduling.RequestForResource{User: "ue1", Bits: 500}
			entry, ok := s.DoAdaptiveResourceScheduling(req, &SchedulerState{}, m)

			Expect(ok).To(BeTrue())
			Expect(entry.SubBand).To(Equal(0))
			Expect(entry.PhyMode).To(BeIdenticalTo(lowMode))
			Expect(entry.TxPower).To(Equal(scheduling.Power(17)))
			Expect(entry.Start).To(BeNumerically("~", 1e-4, 1e-15))
		})
	})

	Context("when running a frame", func() {
		It("should serve connections in round robin order", func() {
			pushN(queue, 1, 3, 1000)
			pushN(queue, 2, 3, 1000)
			s := newStrategy()

			res, err := s.StartScheduling(&SchedulerState{FrameNr: 4})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Granted).To(Equal(4))
			Expect(res.GrantedBits).To(Equal(4000))
			Expect(res.Rejected[RejectNoSubChannel]).To(Equal(2))
			Expect(res.ResourceUsage).To(BeNumerically("~", 1, 1e-9))
			Expect(res.Map.FrameNr()).To(Equal(4))
			Expect(res.Entries).To(HaveLen(2))
			Expect(res.Entries[0].User).To(Equal(scheduling.UserID("ue1")))
			Expect(res.Entries[1].User).To(Equal(scheduling.UserID("ue2")))
			Expect(queue.NumBitsForCID(1)).To(Equal(1000))
			Expect(queue.NumBitsForCID(2)).To(Equal(1000))
		})

		It("should interleave connections of one user", func() {
			queue.AddConnection(3, "ue1")
			pushN(queue, 1, 3, 500)
			pushN(queue, 3, 3, 500)
			cfg.NumSubChannels = 1
			cfg.AllowSegmentation = false

			res, err := newStrategy().StartScheduling(&SchedulerState{})

			Expect(err).NotTo(HaveOccurred())
			Expect(cidsOf(res.Map.PRB(0, 0, 0))).
				To(Equal([]scheduling.ConnectionID{1, 3, 1, 3}))
		})

		It("should drain a connection with exhaustive round robin", func() {
			queue.AddConnection(3, "ue1")
			pushN(queue, 1, 3, 500)
			pushN(queue, 3, 3, 500)
			cfg.NumSubChannels = 1
			cfg.AllowSegmentation = false
			cfg.SubStrategy = SubStrategyExhaustiveRoundRobin

			res, err := newStrategy().StartScheduling(&SchedulerState{})

			Expect(err).NotTo(HaveOccurred())
			Expect(cidsOf(res.Map.PRB(0, 0, 0))).
				To(Equal([]scheduling.ConnectionID{1, 1, 1, 3}))
		})

		It("should move the round robin start across frames", func() {
			queue.AddConnection(3, "ue3")
			registry.AddUser("ue3", defaultCaps, nil, nil)
			pushN(queue, 1, 2, 2000)
			pushN(queue, 2, 2, 2000)
			pushN(queue, 3, 2, 2000)
			cfg.NumSubChannels = 1
			cfg.AllowSegmentation = false
			s := newStrategy()

			var served []scheduling.UserID
			for frame := 0; frame < 4; frame++ {
				res, err := s.StartScheduling(&SchedulerState{FrameNr: frame})
				Expect(err).NotTo(HaveOccurred())
				served = append(served, res.Entries[0].User)
			}

			Expect(served).To(Equal([]scheduling.UserID{
				"ue1", "ue2", "ue3", "ue1"}))
		})

		It("should alternate with proportional fair", func() {
			queue.AddConnection(3, "ue1")
			pushN(queue, 1, 3, 500)
			pushN(queue, 3, 3, 500)
			cfg.NumSubChannels = 1
			cfg.AllowSegmentation = false
			cfg.SubStrategy = SubStrategyProportionalFair
			s := newStrategy()

			res, err := s.StartScheduling(&SchedulerState{})

			Expect(err).NotTo(HaveOccurred())
			Expect(cidsOf(res.Map.PRB(0, 0, 0))).
				To(Equal([]scheduling.ConnectionID{1, 3, 1, 3}))

			pf := s.subs[0].(*proportionalFair)
			Expect(pf.Average(1)).To(BeNumerically("~", 100, 1e-9))
			Expect(pf.Average(3)).To(BeNumerically("~", 100, 1e-9))
		})

		It("should favor the starved connection with proportional fair", func() {
			queue.AddConnection(3, "ue1")
			cfg.NumSubChannels = 1
			cfg.AllowSegmentation = false
			cfg.SubStrategy = SubStrategyProportionalFair
			s := newStrategy()

			pushN(queue, 1, 4, 500)
			_, err := s.StartScheduling(&SchedulerState{FrameNr: 0})
			Expect(err).NotTo(HaveOccurred())

			pushN(queue, 1, 4, 500)
			pushN(queue, 3, 4, 500)
			res, err := s.StartScheduling(&SchedulerState{FrameNr: 1})

			Expect(err).NotTo(HaveOccurred())
			Expect(cidsOf(res.Map.PRB(0, 0, 0))).
				To(Equal([]scheduling.ConnectionID{3, 3, 3, 3}))
		})

		It("should serve higher priority classes first", func() {
			queue.AddConnection(3, "ue1")
			registry.SetPriority(1, 1)
			pushN(queue, 1, 2, 1000)
			pushN(queue, 3, 2, 1000)
			cfg.NumSubChannels = 1
			cfg.AllowSegmentation = false

			res, err := newStrategy().StartScheduling(&SchedulerState{})

			Expect(err).NotTo(HaveOccurred())
			Expect(cidsOf(res.Map.PRB(0, 0, 0))).
				To(Equal([]scheduling.ConnectionID{3, 3}))
		})

		It("should skip unreachable users", func() {
			registry.SetReachable("ue1", false)
			pushN(queue, 1, 1, 1000)
			pushN(queue, 2, 1, 1000)

			res, err := newStrategy().StartScheduling(&SchedulerState{})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Granted).To(Equal(1))
			Expect(res.Entries[0].User).To(Equal(scheduling.UserID("ue2")))
			Expect(queue.QueueHasPDUs(1)).To(BeTrue())
		})

		It("should segment a PDU that does not fit", func() {
			pushN(queue, 1, 1, 3000)
			cfg.NumSubChannels = 1
			s := newStrategy()

			res, err := s.StartScheduling(&SchedulerState{})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.GrantedBits).To(Equal(2000))
			Expect(res.Rejected[RejectNoSubChannel]).To(Equal(1))
			Expect(queue.HeadOfLinePDUBits(1)).To(Equal(1000))

			res, err = s.StartScheduling(&SchedulerState{FrameNr: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.GrantedBits).To(Equal(1000))

			pdu := res.Map.PRB(0, 0, 0).Compounds()[0].PDU
			Expect(pdu).To(BeAssignableToTypeOf(Segment{}))
			Expect(pdu.(Segment).Last).To(BeTrue())
			Expect(queue.QueueHasPDUs(1)).To(BeFalse())
		})

		It("should not segment when disabled", func() {
			pushN(queue, 1, 1, 3000)
			cfg.NumSubChannels = 1
			cfg.AllowSegmentation = false

			res, err := newStrategy().StartScheduling(&SchedulerState{})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Granted).To(Equal(0))
			Expect(res.Rejected[RejectDoesNotFit]).To(Equal(1))
		})

		It("should respect the overall power limit", func() {
			caps := defaultCaps
			caps.MaxOverall = 20
			registry = NewStaticRegistry(testMapper(), caps)
			pushN(queue, 1, 1, 1000)
			pushN(queue, 2, 1, 1000)

			res, err := newStrategy().StartScheduling(&SchedulerState{})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Granted).To(Equal(1))
			Expect(res.Rejected[RejectNoPower]).To(Equal(1))
		})

		It("should apply the subchannel mask", func() {
			pushN(queue, 1, 1, 1000)

			res, err := newStrategy().StartScheduling(&SchedulerState{
				UsableSubChannels: []bool{false, true},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Entries).To(HaveLen(1))
			Expect(res.Entries[0].SubBand).To(Equal(1))
			Expect(res.ResourceUsage).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("should notify observers", func() {
			observer := NewMockObserver(mockCtrl)
			pushN(queue, 1, 1, 1000)
			pushN(queue, 2, 1, 3000)
			cfg.NumSubChannels = 1
			cfg.AllowSegmentation = false

			observer.EXPECT().Granted(scheduling.UserID("ue1"), 1000)
			observer.EXPECT().Rejected(RejectNoSubChannel)
			observer.EXPECT().FrameDone(7, gomock.Any()).
				Do(func(_ int, usage float64) {
					Expect(usage).To(BeNumerically("~", 0.5, 1e-9))
				})

			_, err := newStrategy(WithObserver(observer)).
				StartScheduling(&SchedulerState{FrameNr: 7})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("as the uplink master", func() {
		BeforeEach(func() {
			cfg.Role = MasterRx
			cfg.DSA = DSABestChannel
			registry.AddUser("ue1",
				scheduling.PowerCapabilities{
					Nominal: 20, MaxPerSubChannel: 20, MaxOverall: 20},
				nil,
				scheduling.ChannelQualities{badChannel, goodChannel})
		})

		It("should use the remote station's channel and power", func() {
			pushN(queue, 1, 1, 500)

			res, err := newStrategy().StartScheduling(&SchedulerState{})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Entries).To(HaveLen(1))

			e := res.Entries[0]
			Expect(e.SubBand).To(Equal(1))
			Expect(e.SourceUser).To(Equal(scheduling.UserID("ue1")))
			Expect(e.TxPower).To(BeNumerically("~", 20, 1e-9))
			Expect(e.PhyMode).To(BeIdenticalTo(highMode))
			Expect(res.Map.PRB(1, 0, 0).IsGranted()).To(BeTrue())
			Expect(res.Map.PRB(1, 0, 0).FreeTime()).To(Equal(0.0))
		})
	})

	Context("as a slave", func() {
		var master *scheduling.SchedulingMap

		BeforeEach(func() {
			cfg.Role = Slave
			cfg.OwnID = "ue1"
			queue = NewBufferQueue(16)
			queue.AddConnection(5, "bs")
			registry.AddUser("bs", defaultCaps, nil, nil)

			master = newMap()
			master.AddCompound(0, 0, 0, 1e-4, 9, "ue2", "ue2",
				scheduling.BitPDU{Bits: 100}, highMode, 20,
				scheduling.Omnidirectional, goodChannel, false)
			master.AddCompound(1, 0, 0, 1e-4, 5, "ue1", "ue1",
				scheduling.BitPDU{Bits: 100}, lowMode, 17,
				scheduling.Omnidirectional, goodChannel, false)
			master.GrantFullResources()
		})

		It("should need the master's map", func() {
			_, err := newStrategy().StartScheduling(&SchedulerState{
				GrantedUser: "ue1"})
			Expect(err).To(BeAssignableToTypeOf(&scheduling.ConfigError{}))

			_, err = newStrategy().StartScheduling(&SchedulerState{
				InputMap: master})
			Expect(err).To(HaveOccurred())
		})

		It("should fill the granted block with the master's settings", func() {
			pushN(queue, 5, 2, 300)

			res, err := newStrategy().StartScheduling(&SchedulerState{
				FrameNr:     3,
				InputMap:    master,
				GrantedUser: "ue1",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Granted).To(Equal(2))
			Expect(res.Map.FrameNr()).To(Equal(3))

			b := res.Map.PRB(1, 0, 0)
			Expect(b.NumberOfCompounds()).To(Equal(2))
			Expect(b.PhyMode()).To(BeIdenticalTo(lowMode))
			Expect(b.TxPower()).To(Equal(scheduling.Power(17)))
			Expect(res.Map.PRB(0, 0, 0).NumberOfCompounds()).To(Equal(0))
		})

		It("should not fill more than the grant", func() {
			pushN(queue, 5, 2, 800)
			cfg.AllowSegmentation = false

			res, err := newStrategy().StartScheduling(&SchedulerState{
				InputMap:    master,
				GrantedUser: "ue1",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Granted).To(Equal(1))
			Expect(res.Rejected[RejectDoesNotFit]).To(Equal(1))
		})

		It("should report no grant", func() {
			pushN(queue, 5, 1, 100)

			res, err := newStrategy().StartScheduling(&SchedulerState{
				InputMap:    master,
				GrantedUser: "ue3",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Granted).To(Equal(0))
			Expect(res.Rejected[RejectNoSubChannel]).To(Equal(1))
		})
	})

	Context("with a mocked registry", func() {
		It("should look up downlink estimates as the downlink master", func() {
			reg := NewMockRegistry(mockCtrl)
			cfg.DSA = DSABestChannel
			pushN(queue, 1, 1, 100)

			reg.EXPECT().
				FilterReachable([]scheduling.UserID{"ue1"}).
				Return([]scheduling.UserID{"ue1"})
			reg.EXPECT().
				ChannelQualities(scheduling.UserID("ue1"), Downlink).
				Return(scheduling.ChannelQualities{badChannel, goodChannel}, true)
			reg.EXPECT().NumberOfPriorities().Return(1)
			reg.EXPECT().Priority(scheduling.ConnectionID(1)).Return(0)
			reg.EXPECT().OwnPowerCapabilities().Return(defaultCaps).AnyTimes()
			reg.EXPECT().PhyModeMapper().Return(testMapper()).AnyTimes()

			s, err := NewStrategy(cfg, reg, queue)
			Expect(err).NotTo(HaveOccurred())

			res, err := s.StartScheduling(&SchedulerState{})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Granted).To(Equal(1))
			Expect(res.Entries[0].SubBand).To(Equal(1))
		})
	})
})
