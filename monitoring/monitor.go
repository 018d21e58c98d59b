// Package monitoring serves the state of live debug sessions over HTTP,
// so a wedged or slow session can be inspected without disturbing the
// driver loop.
package monitoring

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"

	"github.com/openchip/rvdbg/target"
)

// Monitor exposes registered targets through a small JSON API.
type Monitor struct {
	targets     []*target.Target
	portNumber  int
	openBrowser bool
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the status page in a browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterTarget registers a target to be monitored.
func (m *Monitor) RegisterTarget(t *target.Target) {
	m.targets = append(m.targets, t)
}

// StartServer starts the monitor as a web server, on the configured port
// or a free one.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/api/targets", m.listTargets)
	r.HandleFunc("/api/target/{name}", m.targetStatus)
	r.HandleFunc("/api/resource", m.listResources)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring debug session with %s\n", url)

	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()

	if m.openBrowser {
		err := browser.OpenURL(url + "/api/targets")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %s\n", err)
		}
	}
}

type targetRsp struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	Examined    bool   `json:"examined"`
	SessionID   string `json:"session_id"`
	AddressBits uint8  `json:"address_bits"`
	DRAMWords   uint32 `json:"dram_words"`
	ScanCount   uint64 `json:"scan_count"`
}

func (m *Monitor) statusOf(t *target.Target) targetRsp {
	rsp := targetRsp{
		Name:        t.Name(),
		State:       t.State().String(),
		Examined:    t.Examined(),
		SessionID:   t.Session().ID(),
		AddressBits: t.Session().AddressBits(),
		ScanCount:   t.Session().ScanCount(),
	}

	if t.RAM() != nil {
		rsp.DRAMWords = t.RAM().Size()
	}

	return rsp
}

func (m *Monitor) listTargets(w http.ResponseWriter, _ *http.Request) {
	rsps := make([]targetRsp, 0, len(m.targets))
	for _, t := range m.targets {
		rsps = append(rsps, m.statusOf(t))
	}

	bytes, err := json.Marshal(rsps)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) targetStatus(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	for _, t := range m.targets {
		if t.Name() != name {
			continue
		}

		bytes, err := json.Marshal(m.statusOf(t))
		dieOnErr(err)

		_, err = w.Write(bytes)
		dieOnErr(err)

		return
	}

	w.WriteHeader(http.StatusNotFound)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()

	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
