// Package arp implements the address-resolution cache and request/reply
// packet shapes every L3-capable node uses (spec.md §4.4). The cache and
// matching logic are pure: the retry/broadcast orchestration that decides
// which interface to send a request on lives in pkg/network, which owns
// the interfaces and links an ARP exchange actually needs to traverse.
package arp

import "github.com/cyberrange/rangesim/pkg/model"

// Entry is one resolved IP -> MAC mapping, tagged with the interface it was
// learned on.
type Entry struct {
	MAC       string
	Interface string
}

// Cache maps an IP address to its resolved hardware address.
type Cache struct {
	entries map[string]Entry
}

// NewCache returns an empty ARP cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Lookup returns the cached entry for ip, if any.
func (c *Cache) Lookup(ip string) (Entry, bool) {
	e, ok := c.entries[ip]
	return e, ok
}

// Learn records or overwrites ip's resolved MAC/interface.
func (c *Cache) Learn(ip, mac, iface string) {
	c.entries[ip] = Entry{MAC: mac, Interface: iface}
}

// Forget removes ip from the cache.
func (c *Cache) Forget(ip string) {
	delete(c.entries, ip)
}

// NewRequest builds an ARP-request frame from srcIP/srcMAC asking for
// targetIP, to be broadcast on an interface.
func NewRequest(srcIP, srcMAC, targetIP string) *model.Frame {
	return &model.Frame{
		Ethernet: model.EthernetHeader{SrcMAC: srcMAC, DstMAC: model.BroadcastMAC},
		ARP: &model.ARPPacket{
			Opcode: model.ARPRequest,
			SrcIP:  srcIP,
			SrcMAC: srcMAC,
			DstIP:  targetIP,
		},
		SizeBits: arpFrameSizeBits,
	}
}

// NewReply builds an ARP-reply frame answering req from (srcIP, srcMAC).
func NewReply(req *model.ARPPacket, srcIP, srcMAC string) *model.Frame {
	return &model.Frame{
		Ethernet: model.EthernetHeader{SrcMAC: srcMAC, DstMAC: req.SrcMAC},
		ARP: &model.ARPPacket{
			Opcode: model.ARPReply,
			SrcIP:  srcIP,
			SrcMAC: srcMAC,
			DstIP:  req.SrcIP,
			DstMAC: req.SrcMAC,
		},
		SizeBits: arpFrameSizeBits,
	}
}

// arpFrameSizeBits is the fixed wire size of an ARP frame (28-byte payload
// plus 14-byte Ethernet header), used for link-bandwidth accounting.
const arpFrameSizeBits = 42 * 8
