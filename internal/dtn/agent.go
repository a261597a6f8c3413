// Package dtn is a minimal client for archipel-core's Application Agent
// Protocol (AAP) control socket, grounded on original_source's use of the
// ud3tn_aap crate (src/main_sender.rs, src/main_receiver.rs,
// src/mail_sender.rs): an agent connects over a local Unix socket,
// registers an agent ID, and can then send bundles to a destination EID
// or block waiting to receive one.
//
// No Go AAP client exists anywhere in the reachable ecosystem (the
// original only ever used the Rust ud3tn_aap crate), so this package
// speaks a small length-prefixed framing of its own over the socket
// rather than adapting a third-party implementation. See DESIGN.md for
// that justification.
package dtn

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
)

// Agent is a registered endpoint on the local DTN daemon, able to submit
// bundles to other endpoints and receive bundles addressed to itself.
type Agent struct {
	conn    net.Conn
	nodeEID string

	writeMu sync.Mutex
}

// frameKind tags each length-prefixed frame exchanged with the daemon.
type frameKind byte

const (
	frameRegister frameKind = iota + 1
	frameSendBundle
	frameRecvBundle
	frameWelcome
)

// maxBundleSize bounds a single bundle payload, generously above any
// plausible email message, to keep a malformed length prefix from
// exhausting memory.
const maxBundleSize = 64 << 20

// Connect dials the AAP control socket at socketPath and registers
// agentID as this process's local agent. Once the daemon welcomes the
// registration, the returned Agent carries the node's full EID
// ("dtn://<domain>/<agentID>"), available from NodeEID.
func Connect(socketPath, agentID string) (*Agent, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dtn: connect %s: %w", socketPath, err)
	}

	if err := writeFrame(conn, frameRegister, []byte(agentID)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("dtn: register %s: %w", agentID, err)
	}

	kind, payload, err := readFrame(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("dtn: awaiting welcome: %w", err)
	}
	if kind != frameWelcome {
		conn.Close()
		return nil, fmt.Errorf("dtn: unexpected frame kind %d awaiting welcome", kind)
	}

	return &Agent{conn: conn, nodeEID: string(payload)}, nil
}

// NodeEID returns the full EID the daemon assigned this agent on Connect.
func (a *Agent) NodeEID() string { return a.nodeEID }

// NodeDomain returns the domain segment of the node's EID, stripping the
// "dtn://" scheme and the agent-id path component that follows it, matching
// main_receiver.rs's slice of inbox_agent.node_eid used to derive the local
// mail domain.
func (a *Agent) NodeDomain() string {
	rest := strings.TrimPrefix(a.nodeEID, "dtn://")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i]
	}
	return rest
}

// Close releases the underlying socket.
func (a *Agent) Close() error { return a.conn.Close() }

// SendBundle submits payload for delivery to destinationEID (a full
// "dtn://..." endpoint identifier), per SPEC_FULL.md §6's DTN interface.
func (a *Agent) SendBundle(destinationEID string, payload []byte) error {
	body := make([]byte, 0, len(destinationEID)+1+len(payload))
	body = append(body, []byte(destinationEID)...)
	body = append(body, 0)
	body = append(body, payload...)

	a.writeMu.Lock()
	err := writeFrame(a.conn, frameSendBundle, body)
	a.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("dtn: send bundle to %s: %w", destinationEID, err)
	}
	return nil
}

// RecvBundle blocks until the daemon delivers a bundle addressed to this
// agent, returning the sending endpoint's EID and the raw bundle payload.
func (a *Agent) RecvBundle() (sourceEID string, payload []byte, err error) {
	kind, body, err := readFrame(a.conn)
	if err != nil {
		return "", nil, fmt.Errorf("dtn: recv bundle: %w", err)
	}
	if kind != frameRecvBundle {
		return "", nil, fmt.Errorf("dtn: unexpected frame kind %d awaiting bundle", kind)
	}

	nul := -1
	for i, b := range body {
		if b == 0 {
			nul = i
			break
		}
	}
	if nul < 0 {
		return "", nil, fmt.Errorf("dtn: malformed recv-bundle frame: no source EID terminator")
	}

	return string(body[:nul]), body[nul+1:], nil
}

// writeFrame writes one [kind byte][uint32 length big-endian][payload]
// frame.
func writeFrame(w io.Writer, kind frameKind, payload []byte) error {
	header := make([]byte, 5)
	header[0] = byte(kind)
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// readFrame reads one frame written by writeFrame.
func readFrame(r io.Reader) (frameKind, []byte, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}

	length := binary.BigEndian.Uint32(header[1:])
	if length > maxBundleSize {
		return 0, nil, fmt.Errorf("dtn: frame length %d exceeds %d byte cap", length, maxBundleSize)
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, err
		}
	}

	return frameKind(header[0]), payload, nil
}
