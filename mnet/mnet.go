// Package mnet extends the standard package with extra functionality which is
// commonly useful
package mnet

import (
	"context"
	"net"
	"strings"

	"github.com/Nick-ccq/k10-base64/mcfg"
	"github.com/Nick-ccq/k10-base64/mcmp"
	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
	"github.com/Nick-ccq/k10-base64/mlog"
	"github.com/Nick-ccq/k10-base64/mrun"
)

// MListener is returned by MListen and simply wraps a net.Listener.
type MListener struct {
	net.Listener
	cmp *mcmp.Component

	// If set to true before mrun's shutdown event is run, the shutdown event
	// will not cause the MListener to be closed.
	NoCloseOnShutdown bool
}

// MListen returns an MListener which will be opened when the init event is
// triggered on the Component (see mrun.Init), and closed when the shutdown
// event is triggered on it (see mrun.Shutdown).
//
// network defaults to "tcp" if empty. defaultAddr defaults to ":0" if empty,
// and will be configurable via mcfg as the "listen-addr" parameter of the
// Component.
func MListen(cmp *mcmp.Component, network, defaultAddr string) *MListener {
	if network == "" {
		network = "tcp"
	}
	if defaultAddr == "" {
		defaultAddr = ":0"
	}

	l := &MListener{cmp: cmp}

	addr := mcfg.String(cmp, "listen-addr",
		mcfg.ParamDefault(defaultAddr),
		mcfg.ParamUsage(strings.ToUpper(network)+" address to listen on in format [host]:port. If port is 0 then a random one will be chosen"))
	mrun.InitHook(cmp, func(context.Context) error {
		var err error
		if l.Listener, err = net.Listen(network, *addr); err != nil {
			return merr.Wrap(err, cmp.Context(), mctx.Annotated("addr", *addr))
		}
		cmp.Annotate("addr", l.Addr().String())
		mlog.From(cmp).Info("listening")
		return nil
	})

	// TODO track connections and wait for them to complete before shutting
	// down?
	mrun.ShutdownHook(cmp, func(context.Context) error {
		if l.NoCloseOnShutdown || l.Listener == nil {
			return nil
		}
		mlog.From(cmp).Info("shutting down listener")
		return l.Close()
	})

	return l
}

// Accept wraps a call to Accept on the underlying net.Listener, providing debug
// logging.
func (l *MListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return conn, err
	}
	mlog.From(l.cmp).Debug("connection accepted",
		mctx.Annotated("remoteAddr", conn.RemoteAddr().String()))
	return conn, nil
}

// Close wraps a call to Close on the underlying net.Listener, providing debug
// logging.
func (l *MListener) Close() error {
	mlog.From(l.cmp).Debug("listener closing")
	err := l.Listener.Close()
	if err != nil {
		mlog.From(l.cmp).Debug("listener closed", merr.Context(err))
	}
	return err
}

////////////////////////////////////////////////////////////////////////////////

func mustGetCIDRNetwork(cidr string) *net.IPNet {
	_, n, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	return n
}

// https://en.wikipedia.org/wiki/Reserved_IP_addresses

var reservedCIDRs4 = []*net.IPNet{
	mustGetCIDRNetwork("0.0.0.0/8"),          // current network
	mustGetCIDRNetwork("10.0.0.0/8"),         // private network
	mustGetCIDRNetwork("100.64.0.0/10"),      // private network
	mustGetCIDRNetwork("127.0.0.0/8"),        // localhost
	mustGetCIDRNetwork("169.254.0.0/16"),     // link-local
	mustGetCIDRNetwork("172.16.0.0/12"),      // private network
	mustGetCIDRNetwork("192.0.0.0/24"),       // IETF protocol assignments
	mustGetCIDRNetwork("192.0.2.0/24"),       // documentation and examples
	mustGetCIDRNetwork("192.88.99.0/24"),     // 6to4 Relay
	mustGetCIDRNetwork("192.168.0.0/16"),     // private network
	mustGetCIDRNetwork("198.18.0.0/15"),      // private network
	mustGetCIDRNetwork("198.51.100.0/24"),    // documentation and examples
	mustGetCIDRNetwork("203.0.113.0/24"),     // documentation and examples
	mustGetCIDRNetwork("224.0.0.0/4"),        // IP multicast
	mustGetCIDRNetwork("240.0.0.0/4"),        // reserved
	mustGetCIDRNetwork("255.255.255.255/32"), // limited broadcast address
}

var reservedCIDRs6 = []*net.IPNet{
	mustGetCIDRNetwork("::/128"),        // unspecified address
	mustGetCIDRNetwork("::1/128"),       // loopback address
	mustGetCIDRNetwork("100::/64"),      // discard prefix
	mustGetCIDRNetwork("2001::/32"),     // Teredo tunneling
	mustGetCIDRNetwork("2001:20::/28"),  // ORCHID v2
	mustGetCIDRNetwork("2001:db8::/32"), // documentation and examples
	mustGetCIDRNetwork("2002::/16"),     // 6to4 addressing
	mustGetCIDRNetwork("fc00::/7"),      // unique local
	mustGetCIDRNetwork("fe80::/10"),     // link local
	mustGetCIDRNetwork("ff00::/8"),      // multicast
}

// IsReservedIP returns true if the given valid IP is part of a reserved IP
// range.
func IsReservedIP(ip net.IP) bool {
	containedBy := func(cidrs []*net.IPNet) bool {
		for _, cidr := range cidrs {
			if cidr.Contains(ip) {
				return true
			}
		}
		return false
	}

	if ip.To4() != nil {
		return containedBy(reservedCIDRs4)
	}
	return containedBy(reservedCIDRs6)
}
