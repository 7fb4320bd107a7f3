// SPDX-License-Identifier: GPL-3.0-or-later

package iolayer

import (
	"context"
	"net/netip"
)

// Target is a connection endpoint: a host string and numeric port,
// resolved once per connect (spec §3 "Connection target").
type Target struct {
	Host string
	Port uint16
}

// Resolver resolves a hostname to a single address.
//
// Synchronous resolution is accepted by spec §4.2; implementations may
// wrap [net.Resolver] (the default) or a custom DNS transport (see the
// root package's DNSOverUDPResolver).
type Resolver interface {
	Resolve(ctx context.Context, host string) (netip.Addr, error)
}
