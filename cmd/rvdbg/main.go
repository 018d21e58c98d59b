// rvdbg is a thin command-line harness around the debug core. It drives a
// target either through a Raspberry Pi bitbang adapter or through the
// built-in simulated debug unit.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/openchip/rvdbg/dtm"
	"github.com/openchip/rvdbg/jtag"
	"github.com/openchip/rvdbg/monitoring"
	"github.com/openchip/rvdbg/scanlog"
	"github.com/openchip/rvdbg/target"
)

var (
	flagSim         bool
	flagIRLength    int
	flagRetries     int
	flagTimeout     time.Duration
	flagScanLog     string
	flagTraceScans  bool
	flagMonitor     bool
	flagMonitorPort int
)

var rootCmd = &cobra.Command{
	Use:   "rvdbg",
	Short: "rvdbg drives the debug unit of a JTAG-attached RISC-V core.",
	Long: `rvdbg drives the debug unit of a JTAG-attached RISC-V core: it can ` +
		`examine the target, halt it, poll its run state, and move words ` +
		`through its Debug RAM. Pin assignments and defaults are read from ` +
		`RVDBG_* environment variables (a .env file is honored).`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagSim, "sim", false,
		"drive a simulated debug unit instead of real hardware")
	pf.IntVar(&flagIRLength, "ir-length", 5,
		"instruction register length of the target TAP")
	pf.IntVar(&flagRetries, "retries", dtm.DefaultRetryPolicy.MaxScanRetries,
		"max busy retries per bus operation")
	pf.DurationVar(&flagTimeout, "timeout", dtm.DefaultRetryPolicy.OpTimeout,
		"wall-clock limit per bus operation")
	pf.StringVar(&flagScanLog, "scan-log", "",
		"record all bus scans into this SQLite database")
	pf.BoolVar(&flagTraceScans, "trace-scans", false,
		"record all bus scans into a uniquely named SQLite database")
	pf.BoolVar(&flagMonitor, "monitor", false,
		"serve session status over HTTP while the command runs")
	pf.IntVar(&flagMonitorPort, "monitor-port", 0,
		"port for the monitoring server")

	rootCmd.AddCommand(examineCmd)
	rootCmd.AddCommand(pollCmd)
	rootCmd.AddCommand(haltCmd)
	rootCmd.AddCommand(ramCmd)
	ramCmd.AddCommand(ramReadCmd)
	ramCmd.AddCommand(ramWriteCmd)
}

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func envPin(name string, fallback jtag.Pin) jtag.Pin {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}

	n, err := strconv.ParseUint(v, 10, 8)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad %s: %s\n", name, err)
		atexit.Exit(1)
	}

	return jtag.Pin(n)
}

func buildTAP() (jtag.TAP, func(), error) {
	if flagSim {
		return dtm.NewSimDTM(5, 18), func() {}, nil
	}

	pins := jtag.Pins{
		TCK:  envPin("RVDBG_TCK", jtag.NoPin),
		TMS:  envPin("RVDBG_TMS", jtag.NoPin),
		TDI:  envPin("RVDBG_TDI", jtag.NoPin),
		TDO:  envPin("RVDBG_TDO", jtag.NoPin),
		TRST: envPin("RVDBG_TRST", jtag.NoPin),
	}

	for name, pin := range map[string]jtag.Pin{
		"RVDBG_TCK": pins.TCK,
		"RVDBG_TMS": pins.TMS,
		"RVDBG_TDI": pins.TDI,
		"RVDBG_TDO": pins.TDO,
	} {
		if pin == jtag.NoPin {
			return nil, nil, fmt.Errorf("%s is not set (or pass --sim)", name)
		}
	}

	tap, err := jtag.MakeBitbangTAPBuilder().
		WithDriver(&jtag.RPIODriver{}).
		WithPins(pins).
		WithIRLength(flagIRLength).
		Build()
	if err != nil {
		return nil, nil, err
	}

	return tap, tap.Close, nil
}

func buildTarget() (*target.Target, func(), error) {
	tap, cleanup, err := buildTAP()
	if err != nil {
		return nil, nil, err
	}

	session := dtm.MakeSessionBuilder().
		WithTAP(tap).
		WithRetryPolicy(dtm.RetryPolicy{
			MaxScanRetries: flagRetries,
			OpTimeout:      flagTimeout,
		}).
		Build("session")

	if flagScanLog != "" || flagTraceScans {
		recorder, err := scanlog.NewRecorder(flagScanLog)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		session.AcceptHook(scanlog.NewTracer(recorder))
	}

	t := target.MakeTargetBuilder().
		WithSession(session).
		Build("riscv")

	if flagMonitor {
		monitor := monitoring.NewMonitor().
			WithPortNumber(flagMonitorPort)
		monitor.RegisterTarget(t)
		monitor.StartServer()
	}

	return t, cleanup, nil
}
