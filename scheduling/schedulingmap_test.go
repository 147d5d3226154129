package scheduling

import (
	"bytes"
	"math/rand"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SchedulingMap", func() {
	var pm *PhyMode

	BeforeEach(func() {
		pm = megabitMode()
	})

	It("should reject invalid dimensions", func() {
		_, err := NewSchedulingMap(1e-3, 0, 1, 1, 0)
		Expect(err).To(BeAssignableToTypeOf(&ConfigError{}))

		_, err = NewSchedulingMap(1e-3, 1, 0, 1, 0)
		Expect(err).To(HaveOccurred())

		_, err = NewSchedulingMap(1e-3, 1, 1, 0, 0)
		Expect(err).To(HaveOccurred())

		_, err = NewSchedulingMap(0, 1, 1, 1, 0)
		Expect(err).To(HaveOccurred())
	})

	Context("with a single resource block", func() {
		var m *SchedulingMap

		BeforeEach(func() {
			var err error
			m, err = NewSchedulingMap(1e-3, 1, 1, 1, 0)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should fit 500 bits and then reject 600 bits", func() {
			entry := MapInfoEntry{User: "ue1", SourceUser: "bs",
				PhyMode: pm, TxPower: 20}
			req := RequestForResource{ConnectionID: 1, User: "ue1", Bits: 500}

			Expect(m.PDUFitsInto(req, entry)).To(BeTrue())
			Expect(m.AddCompoundForEntry(entry, 1, bits("a", 500), false)).
				To(BeTrue())

			req.Bits = 600
			Expect(m.PDUFitsInto(req, entry)).To(BeFalse())
			Expect(m.AddCompoundForEntry(entry, 1, bits("b", 600), false)).
				To(BeFalse())

			Expect(m.NumberOfCompounds()).To(Equal(1))
			Expect(m.UsedTime()).To(BeNumerically("~", 5e-4, 1e-15))
			Expect(m.FreeTime()).To(BeNumerically("~", 5e-4, 1e-15))
			Expect(m.ResourceUsage()).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("should not fit outside of the map", func() {
			entry := MapInfoEntry{SubBand: 3, User: "ue1", PhyMode: pm}
			Expect(m.PDUFitsInto(
				RequestForResource{User: "ue1", Bits: 1}, entry)).To(BeFalse())
			Expect(func() { m.PRB(3, 0, 0) }).To(Panic())
		})
	})

	Context("with several subchannels", func() {
		var m *SchedulingMap

		BeforeEach(func() {
			var err error
			m, err = NewSchedulingMap(1e-3, 4, 2, 2, 5)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should mask out subchannels", func() {
			Expect(m.MaskOutSubChannels([]bool{false, true, true, true})).
				To(Succeed())

			Expect(m.SubChannel(0).FreeTime()).To(Equal(0.0))
			Expect(m.FreeBitsOnSubChannel(0, pm)).To(Equal(0))
			Expect(m.FreeBitsOnSubChannel(1, pm)).To(Equal(4000))

			entry := MapInfoEntry{SubBand: 0, User: "ue1", PhyMode: pm}
			Expect(m.PDUFitsInto(
				RequestForResource{User: "ue1", Bits: 1}, entry)).To(BeFalse())
			Expect(m.AddCompound(0, 0, 0, 1e-6, 1, "ue1", "bs", bits("a", 1),
				pm, 20, Omnidirectional, ChannelQuality{}, false)).
				To(BeFalse())
			Expect(m.IsEmpty()).To(BeTrue())
		})

		It("should reject a mask of the wrong size", func() {
			err := m.MaskOutSubChannels([]bool{true})
			Expect(err).To(BeAssignableToTypeOf(&ConfigError{}))
		})

		It("should mask out single time slots", func() {
			m.SetTimeSlotUsable(2, 1, false)

			Expect(m.SubChannel(2).TimeSlot(1).FreeTime()).To(Equal(0.0))
			Expect(m.FreeBitsOnSubChannel(2, pm)).To(Equal(2000))
		})

		It("should compute usage over usable resources only", func() {
			Expect(m.MaskOutSubChannels([]bool{true, false, false, false})).
				To(Succeed())

			for ts := 0; ts < 2; ts++ {
				for l := 0; l < 2; l++ {
					Expect(m.AddCompound(0, ts, l, 1e-3, 1, "ue1", "bs",
						bits("a", 1000), pm, 20, Omnidirectional,
						ChannelQuality{}, false)).To(BeTrue())
				}
			}

			Expect(m.ResourceUsage()).To(BeNumerically("~", 1, 1e-9))
		})

		It("should keep resource usage within bounds", func() {
			rng := rand.New(rand.NewSource(42))

			for i := 0; i < 500; i++ {
				sc := rng.Intn(4)
				ts := rng.Intn(2)
				l := rng.Intn(2)
				n := rng.Intn(400) + 1
				user := UserID([]string{"ue1", "ue2"}[(sc+ts+l)%2])

				m.AddCompound(sc, ts, l, pm.DurationFor(n),
					ConnectionID(i), user, "bs", bits("p", n), pm, 20,
					Omnidirectional, ChannelQuality{}, false)

				u := m.ResourceUsage()
				Expect(u).To(BeNumerically(">=", 0))
				Expect(u).To(BeNumerically("<=", 1))
			}
		})

		It("should sum the power of a time slot", func() {
			Expect(m.TxPowerUsedInTimeSlot(0).IsZero()).To(BeTrue())

			m.AddCompound(0, 0, 0, 1e-4, 1, "ue1", "bs", bits("a", 100),
				pm, 0, Omnidirectional, ChannelQuality{}, false)
			m.AddCompound(1, 0, 0, 1e-4, 2, "ue2", "bs", bits("b", 100),
				pm, 0, Omnidirectional, ChannelQuality{}, false)

			Expect(float64(m.TxPowerUsedInTimeSlot(0))).
				To(BeNumerically("~", 3.0103, 1e-3))
			Expect(m.TxPowerUsedInTimeSlot(1).IsZero()).To(BeTrue())

			remaining := m.RemainingTxPower(Power(10), 0)
			Expect(remaining.MilliWatt()).To(BeNumerically("~", 8, 1e-9))
		})

		It("should convert to map info entries", func() {
			m.AddCompound(1, 1, 0, 1e-4, 7, "ue1", "bs", bits("a", 100),
				pm, 20, "beam-1", ChannelQuality{PathLoss: 90}, true)
			m.AddCompound(1, 1, 0, 2e-4, 8, "ue1", "bs", bits("b", 200),
				pm, 20, "beam-1", ChannelQuality{PathLoss: 90}, false)

			entries := m.ConvertToMapInfoCollection()
			Expect(entries).To(HaveLen(1))

			e := entries[0]
			Expect(e.FrameNr).To(Equal(5))
			Expect(e.SubBand).To(Equal(1))
			Expect(e.TimeSlot).To(Equal(1))
			Expect(e.User).To(Equal(UserID("ue1")))
			Expect(e.Pattern).To(Equal(AntennaPattern("beam-1")))
			Expect(e.End).To(BeNumerically("~", 3e-4, 1e-15))
			Expect(e.TotalBits()).To(Equal(300))
			Expect(e.Compounds[0].HARQ).To(BeTrue())

			e.Compounds[0].ConnectionID = 99
			Expect(m.PRB(1, 1, 0).Compounds()[0].ConnectionID).
				To(Equal(ConnectionID(7)))
		})

		It("should grant and hand over to a slave", func() {
			m.AddCompound(2, 0, 1, 1e-4, 7, "ue1", "bs", bits("a", 100),
				pm, 20, Omnidirectional, ChannelQuality{}, false)

			m.GrantFullResources()
			Expect(m.PRB(2, 0, 1).FreeTime()).To(Equal(0.0))
			Expect(m.PRB(2, 1, 1).FreeTime()).To(Equal(1e-3))

			m.ProcessMasterMap()
			Expect(m.NumberOfCompounds()).To(Equal(0))
			Expect(m.PRB(2, 0, 1).UserID()).To(Equal(UserID("ue1")))
			Expect(m.ResourceUsage()).To(Equal(0.0))

			m.Reset()
			Expect(m.PRB(2, 0, 1).IsAssigned()).To(BeFalse())
		})

		It("should clone independently", func() {
			m.AddCompound(1, 1, 0, 1e-4, 7, "ue1", "bs", bits("a", 100),
				pm, 20, Omnidirectional, ChannelQuality{}, false)
			m.SetTimeSlotUsable(3, 1, false)

			c := m.Clone()
			c.ProcessMasterMap()

			Expect(m.NumberOfCompounds()).To(Equal(1))
			Expect(c.NumberOfCompounds()).To(Equal(0))
			Expect(c.PRB(1, 1, 0).UserID()).To(Equal(UserID("ue1")))
			Expect(c.PRB(3, 1, 0).IsUsable()).To(BeFalse())
			Expect(c.FrameNr()).To(Equal(m.FrameNr()))
		})

		It("should dump one row per resource block", func() {
			m.AddCompound(0, 0, 0, 5e-4, 7, "ue1", "bs", bits("a", 500),
				pm, 20, Omnidirectional, ChannelQuality{}, false)

			rows := m.DumpRows()
			Expect(rows).To(HaveLen(16))
			Expect(rows[0].CIDList).To(Equal("7(500)"))

			buf := new(bytes.Buffer)
			Expect(m.DumpContents(buf)).To(Succeed())

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			Expect(lines).To(HaveLen(16))
			Expect(lines[0]).
				To(Equal("5\t0\t0\t0\t1\t20.00\t0.5000\t1\tue1\t7(500)"))
			Expect(lines[1]).To(HavePrefix("5\t0\t0\t1\t0\t0.00\t0.0000\t0\t-"))

			Expect(m.String()).To(ContainSubstring("user=ue1"))
		})
	})
})

var _ = Describe("PhyModeMapper", func() {
	var (
		low, mid, high *PhyMode
		mapper         *PhyModeMapper
	)

	BeforeEach(func() {
		low = NewPhyMode("BPSK-1/2", BPSK, 0.5, 48, 4e-6, 1)
		mid = NewPhyMode("QPSK-3/4", QPSK, 0.75, 48, 4e-6, 6)
		high = NewPhyMode("QAM16-3/4", QAM16, 0.75, 48, 4e-6, 12)

		var err error
		mapper, err = NewPhyModeMapper(high, low, mid)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should derive the data rate", func() {
		Expect(low.DataRate).To(BeNumerically("~", 6e6, 1e-3))
		Expect(high.BitsPerSymbol()).To(Equal(3.0))
	})

	It("should order the modes", func() {
		Expect(mapper.PhyModes()).To(Equal([]*PhyMode{low, mid, high}))
		Expect(mapper.LowestPhyMode()).To(BeIdenticalTo(low))
		Expect(mapper.HighestPhyMode()).To(BeIdenticalTo(high))
		Expect(mapper.MinimumSINR()).To(Equal(Ratio(1)))
	})

	It("should pick the best mode for a SINR", func() {
		Expect(mapper.BestPhyMode(0)).To(BeNil())
		Expect(mapper.BestPhyMode(1)).To(BeIdenticalTo(low))
		Expect(mapper.BestPhyMode(7)).To(BeIdenticalTo(mid))
		Expect(mapper.BestPhyMode(30)).To(BeIdenticalTo(high))
	})

	It("should find modes by name", func() {
		Expect(mapper.Find("QPSK-3/4")).To(BeIdenticalTo(mid))
		Expect(mapper.Find("none")).To(BeNil())
	})

	It("should reject an empty mode list", func() {
		_, err := NewPhyModeMapper()
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Power", func() {
	It("should add in the linear domain", func() {
		Expect(float64(Power(0).Add(Power(0)))).
			To(BeNumerically("~", 3.0103, 1e-4))
		Expect(Power(20).MilliWatt()).To(BeNumerically("~", 100, 1e-9))
		Expect(NoPower.Add(Power(10))).To(BeNumerically("~", 10, 1e-9))
		Expect(Power(10).Sub(Power(20)).IsZero()).To(BeTrue())
	})

	It("should compute the SINR", func() {
		cqi := ChannelQuality{PathLoss: 100, Interference: -95}
		Expect(cqi.SINR(20)).To(BeNumerically("~", 15, 1e-9))
		Expect(cqi.RequiredTxPower(15)).To(BeNumerically("~", 20, 1e-9))
	})

	It("should validate capabilities", func() {
		Expect(PowerCapabilities{Nominal: 20, MaxPerSubChannel: 23,
			MaxOverall: 30}.Validate()).To(Succeed())
		Expect(PowerCapabilities{Nominal: 25, MaxPerSubChannel: 23,
			MaxOverall: 30}.Validate()).NotTo(Succeed())
	})
})
