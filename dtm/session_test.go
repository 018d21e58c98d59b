package dtm_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/openchip/rvdbg/dtm"
	"github.com/openchip/rvdbg/jtag"
)

var _ = Describe("Session over a mocked TAP", func() {
	var (
		mockCtrl *gomock.Controller
		tap      *MockTAP
		session  *dtm.Session
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		tap = NewMockTAP(mockCtrl)
		session = dtm.MakeSessionBuilder().
			WithTAP(tap).
			Build("session")
	})

	It("should read dtminfo and leave dbus selected", func() {
		gomock.InOrder(
			tap.EXPECT().QueueIR(dtm.InstDTMInfo),
			tap.EXPECT().QueueDR(gomock.Any()).
				Do(func(f *jtag.Field) {
					jtag.SetBits(f.In, 0, 32, uint64(5)<<4)
				}),
			tap.EXPECT().QueueIR(dtm.InstDBus),
			tap.EXPECT().Flush().Return(nil),
		)

		info, err := session.ReadDTMInfo()

		Expect(err).To(BeNil())
		Expect(info.AddressBits()).To(Equal(uint8(5)))
		Expect(session.AddressBits()).To(Equal(uint8(5)))
	})

	It("should propagate a transport failure from the dtminfo scan", func() {
		transportErr := errors.New("adapter unplugged")

		tap.EXPECT().QueueIR(gomock.Any()).Times(2)
		tap.EXPECT().QueueDR(gomock.Any())
		tap.EXPECT().Flush().Return(transportErr)

		_, err := session.ReadDTMInfo()

		Expect(errors.Is(err, transportErr)).To(BeTrue())
		Expect(session.AddressBits()).To(Equal(uint8(0)))
	})
})

var _ = Describe("Session over a simulated DTM", func() {
	var (
		sim     *dtm.SimDTM
		session *dtm.Session
	)

	BeforeEach(func() {
		sim = dtm.NewSimDTM(5, 18)
		session = dtm.MakeSessionBuilder().
			WithTAP(sim).
			WithRetryPolicy(dtm.RetryPolicy{
				MaxScanRetries: 8,
				OpTimeout:      time.Second,
			}).
			Build("session")

		_, err := session.ReadDTMInfo()
		Expect(err).To(BeNil())
	})

	It("should start with the address cache invalidated", func() {
		Expect(session.LastAddress()).To(Equal(dtm.AddressUnknown))
		Expect(session.LastOp()).To(Equal(dtm.OpNop))
	})

	It("should cache the address and op of every scan, busy or not", func() {
		sim.InjectBusy(1)

		result, _, err := session.Scan(dtm.OpWrite, 0x0b, 42)

		Expect(err).To(BeNil())
		Expect(result).To(Equal(dtm.ResultBusy))
		Expect(session.LastAddress()).To(Equal(uint16(0x0b)))
		Expect(session.LastOp()).To(Equal(dtm.OpWrite))
	})

	It("should return the previous request's data, one scan late", func() {
		sim.SetDRAMWord(3, 0xfeedface)

		_, stale, err := session.Scan(dtm.OpRead, 0x03, 0)
		Expect(err).To(BeNil())
		Expect(stale).NotTo(Equal(uint64(0xfeedface)))

		_, fresh, err := session.Scan(dtm.OpNop, 0x00, 0)
		Expect(err).To(BeNil())
		Expect(uint32(fresh)).To(Equal(uint32(0xfeedface)))
	})

	It("should reissue an identical write while the bus answers busy", func() {
		sim.InjectBusy(3)

		err := session.Write(0x10, 0x1234)
		Expect(err).To(BeNil())

		Expect(sim.ScanLog).To(HaveLen(4))
		for _, scan := range sim.ScanLog {
			Expect(scan.Op).To(Equal(dtm.OpWrite))
			Expect(scan.Address).To(Equal(uint16(0x10)))
			Expect(scan.Data).To(Equal(uint64(0x1234)))
		}
		Expect(sim.ScanLog[2].Result).To(Equal(dtm.ResultBusy))
		Expect(sim.ScanLog[3].Result).To(Equal(dtm.ResultSuccess))
	})

	It("should give up on a bus that never stops answering busy", func() {
		sim.InjectBusy(1000)

		err := session.Write(0x02, 1)

		Expect(errors.Is(err, dtm.ErrUnresponsive)).To(BeTrue())
		Expect(sim.ScanLog).To(HaveLen(9))
	})

	It("should give up when the op timeout expires", func() {
		slow := dtm.MakeSessionBuilder().
			WithTAP(sim).
			WithRetryPolicy(dtm.RetryPolicy{
				MaxScanRetries: 1 << 30,
				OpTimeout:      -time.Second,
			}).
			Build("slow")
		_, err := slow.ReadDTMInfo()
		Expect(err).To(BeNil())

		sim.InjectBusy(1000)

		err = slow.Write(0x02, 1)

		Expect(errors.Is(err, dtm.ErrUnresponsive)).To(BeTrue())
	})

	It("should not reissue the request scan when rereading one register", func() {
		sim.SetDRAMWord(7, 0x11223344)

		_, err := session.ReadThen(0x07, 0x07)
		Expect(err).To(BeNil())

		before := len(sim.ScanLog)

		value, err := session.ReadThen(0x07, 0x07)
		Expect(err).To(BeNil())
		Expect(uint32(value)).To(Equal(uint32(0x11223344)))
		Expect(sim.ScanLog).To(HaveLen(before + 1))
	})

	It("should refuse a conditional write while the interrupt is pending", func() {
		sim.SetAutoHalt(false)
		Expect(session.Write(0x00, dtm.InterruptBit|1)).To(Succeed())

		result, _, err := session.Scan(dtm.OpCondWrite, 0x01, 2)

		Expect(err).To(BeNil())
		Expect(result).To(Equal(dtm.ResultNoWrite))
		Expect(sim.DRAMWord(1)).To(Equal(uint32(0)))

		sim.SetRunBits(false, false)

		result, _, err = session.Scan(dtm.OpCondWrite, 0x01, 2)

		Expect(err).To(BeNil())
		Expect(result).To(Equal(dtm.ResultSuccess))
		Expect(sim.DRAMWord(1)).To(Equal(uint32(2)))
	})

	It("should log but not fail a read that reports a soft error", func() {
		sim.InjectResult(dtm.ResultFailed)

		_, err := session.Read(0x01)

		Expect(err).To(BeNil())
	})

	It("should surface a transport failure instead of retrying", func() {
		transportErr := errors.New("adapter unplugged")
		sim.FailFlush(transportErr)

		err := session.Write(0x01, 2)

		Expect(errors.Is(err, transportErr)).To(BeTrue())
	})
})
