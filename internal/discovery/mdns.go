// ABOUTME: mDNS advertisement and browsing for sciaudio engines
// ABOUTME: Engines advertise _sciaudio._tcp; sciaudio-monitor browses for them
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	log "github.com/sirupsen/logrus"
)

// ServiceType is the DNS-SD service engines advertise
const ServiceType = "_sciaudio._tcp"

const browseTimeout = 3 * time.Second

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	// Path and SessionID are published as TXT records
	Path      string
	SessionID string
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	engines chan *EngineInfo
}

// EngineInfo describes a discovered engine
type EngineInfo struct {
	Name      string
	Host      string
	Port      int
	Path      string
	SessionID string
}

// Addr returns host:port for dialing
func (e *EngineInfo) Addr() string {
	return net.JoinHostPort(e.Host, fmt.Sprint(e.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		engines: make(chan *EngineInfo, 10),
	}
}

func (m *Manager) txt() []string {
	var txt []string
	if m.config.Path != "" {
		txt = append(txt, "path="+m.config.Path)
	}
	if m.config.SessionID != "" {
		txt = append(txt, "session="+m.config.SessionID)
	}
	return txt
}

// Advertise publishes this engine until Stop
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.txt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for engines until Stop; results arrive on Engines
func (m *Manager) Browse() {
	go m.browseLoop()
}

func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				info, ok := parseEntry(entry)
				if !ok {
					continue
				}
				log.Printf("Discovered engine: %s at %s", info.Name, info.Addr())

				select {
				case m.engines <- info:
				case <-m.ctx.Done():
				}
			}
		}()

		params := mdns.DefaultParams(ServiceType)
		params.Entries = entries
		params.Timeout = browseTimeout
		params.DisableIPv6 = true
		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query failed: %v", err)
		}
		close(entries)
		<-done
	}
}

// parseEntry turns an mDNS answer into engine info; entries without an
// IPv4 address are skipped
func parseEntry(entry *mdns.ServiceEntry) (*EngineInfo, bool) {
	if entry == nil || entry.AddrV4 == nil {
		return nil, false
	}

	info := &EngineInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host: entry.AddrV4.String(),
		Port: entry.Port,
	}
	for _, field := range entry.InfoFields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "path":
			info.Path = value
		case "session":
			info.SessionID = value
		}
	}
	return info, true
}

// Engines returns the channel of discovered engines
func (m *Manager) Engines() <-chan *EngineInfo {
	return m.engines
}

// Stop stops advertising and browsing
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
