// tinyhci
// Copyright (c) 2026 The tinyhci Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of tinyhci.
//
// tinyhci is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// tinyhci is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with tinyhci; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tinyhci "github.com/Sweet-Peas/tinyhci"
	"github.com/Sweet-Peas/tinyhci/transport/spi"
	"golang.org/x/exp/slog"
)

type config struct {
	port     *string
	csPin    *string
	irqPin   *string
	enPin    *string
	ssid     *string
	key      *string
	security *string
	host     *string
	httpPort *uint
	timeout  *time.Duration
	debug    *bool
}

func parseFlags() *config {
	cfg := &config{
		port:     flag.String("port", "SPI0.0", "SPI port name"),
		csPin:    flag.String("cs", "GPIO6", "Chip select GPIO name"),
		irqPin:   flag.String("irq", "GPIO7", "Interrupt GPIO name"),
		enPin:    flag.String("en", "GPIO5", "Enable GPIO name"),
		ssid:     flag.String("ssid", "", "Access point SSID (required)"),
		key:      flag.String("key", "", "Access point passphrase"),
		security: flag.String("security", "wpa2", "Security mode: open, wep, wpa or wpa2"),
		host:     flag.String("host", "example.com", "Hostname to resolve and fetch"),
		httpPort: flag.Uint("http-port", 80, "TCP port to connect to"),
		timeout:  flag.Duration("timeout", 60*time.Second, "Timeout for WLAN association and DHCP"),
		debug:    flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()
	return cfg
}

func securityMode(name string) (uint32, error) {
	switch name {
	case "open":
		return tinyhci.SecUnsecured, nil
	case "wep":
		return tinyhci.SecWEP, nil
	case "wpa":
		return tinyhci.SecWPA, nil
	case "wpa2":
		return tinyhci.SecWPA2, nil
	default:
		return 0, fmt.Errorf("unknown security mode: %s", name)
	}
}

func newDevice(cfg *config) (*tinyhci.Device, error) {
	transport, err := spi.New(*cfg.port, spi.Pins{
		ChipSelect: *cfg.csPin,
		Interrupt:  *cfg.irqPin,
		Enable:     *cfg.enPin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SPI transport: %w", err)
	}

	level := slog.LevelInfo
	if *cfg.debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	device, err := tinyhci.New(transport,
		tinyhci.WithLogger(log),
		tinyhci.WithEventCallback(func(event uint16, arg uint32) {
			log.Debug("unsolicited event", "event", fmt.Sprintf("%#04x", event), "arg", arg)
		}),
	)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return device, nil
}

func connectWlan(device *tinyhci.Device, cfg *config) error {
	security, err := securityMode(*cfg.security)
	if err != nil {
		return err
	}

	// Manual connection only; drop any stored profiles.
	if _, err := device.SetConnectionPolicy(false, false, false); err != nil {
		return fmt.Errorf("failed to set connection policy: %w", err)
	}

	_, _ = fmt.Printf("Connecting to %s...\n", *cfg.ssid)
	if _, err := device.WlanConnect(security, *cfg.ssid, nil, []byte(*cfg.key)); err != nil {
		return fmt.Errorf("failed to start association: %w", err)
	}

	deadline := time.Now().Add(*cfg.timeout)
	for !device.Connected() || !device.DHCPComplete() {
		if time.Now().After(deadline) {
			return fmt.Errorf("no DHCP lease within %s", *cfg.timeout)
		}
		time.Sleep(100 * time.Millisecond)
	}

	_, _ = fmt.Printf("Connected, IP address %s\n", device.IPAddr())
	return nil
}

func fetch(device *tinyhci.Device, cfg *config) error {
	_, ip, err := device.GetHostByName(*cfg.host)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", *cfg.host, err)
	}
	_, _ = fmt.Printf("%s resolves to %s\n", *cfg.host, ip)

	sd, err := device.Socket(tinyhci.AFInet, tinyhci.SockStream, tinyhci.IPProtoTCP)
	if err != nil {
		return fmt.Errorf("failed to create socket: %w", err)
	}
	defer func() { _, _ = device.CloseSocket(sd) }()

	addr := tinyhci.NewSockAddr(ip, uint16(*cfg.httpPort))
	if _, err := device.Connect(sd, addr, 0); err != nil {
		return fmt.Errorf("failed to connect to %s:%d: %w", ip, *cfg.httpPort, err)
	}

	request := fmt.Sprintf("GET / HTTP/1.0\r\nHost: %s\r\n\r\n", *cfg.host)
	if _, err := device.Send(sd, []byte(request), 0); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	buf := make([]byte, 512)
	n, err := device.Recv(sd, buf, 0)
	if err != nil {
		return fmt.Errorf("failed to receive response: %w", err)
	}

	_, _ = fmt.Printf("--- first %d bytes of response ---\n%s\n", n, buf[:n])
	return nil
}

func main() {
	cfg := parseFlags()
	if *cfg.ssid == "" {
		_, _ = fmt.Fprintln(os.Stderr, "no SSID given, use -ssid")
		os.Exit(1)
	}

	device, err := newDevice(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to open device: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = device.Close() }()

	if err := device.Init(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to start chip: %v\n", err)
		os.Exit(1)
	}

	if err := connectWlan(device, cfg); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer func() { _, _ = device.WlanDisconnect() }()

	if err := fetch(device, cfg); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
