// Package termfilter strips a small, fixed set of out-of-band control
// sequences from PTY output before the bytes reach a terminal renderer.
//
// Two concerns are handled: the DEC private mode 2026 synchronized-output
// toggle (output is buffered while the mode is enabled and released when it
// is disabled), and OSC-9 status reports, which are dropped entirely. All
// other bytes — including unrelated escape sequences such as color codes —
// pass through unmodified and in order.
package termfilter

import "bytes"

const (
	escByte = 0x1b
	belByte = 0x07
)

var (
	// syncPrefix is shared by the enable ("h") and disable ("l") forms of
	// the synchronized-output toggle: ESC [ ? 2 0 2 6 h|l.
	syncPrefix = []byte("\x1b[?2026")

	// osc9Intro opens a status-report sequence, terminated by BEL or ESC \.
	osc9Intro = []byte("\x1b]9;")
)

// Filter removes recognized control sequences from a byte stream that may be
// fragmented at arbitrary boundaries. A sequence split across any number of
// chunks is recognized once its bytes are complete; the unresolved prefix is
// carried between Process calls.
//
// One Filter per PTY session. Not safe for concurrent use; the owner must
// serialize calls.
//
// An OSC-9 sequence whose terminator never arrives discards all subsequent
// bytes for the remainder of the session.
type Filter struct {
	pending    []byte // output held back while synchronized mode is active
	carry      []byte // unresolved prefix of a recognized sequence
	sync       bool
	suppressed bool
}

// New returns a Filter in pass-through state.
func New() *Filter {
	return &Filter{}
}

// Process consumes one chunk of PTY output and returns the bytes that are
// safe to forward to a renderer immediately. Bytes received while
// synchronized output is enabled are buffered and released either by the
// disable sequence or by Flush. Process never fails; unrecognized input
// degrades to pass-through.
func (f *Filter) Process(chunk []byte) []byte {
	if len(chunk) == 0 {
		return nil
	}

	in := chunk
	if len(f.carry) > 0 {
		in = append(f.carry, chunk...)
		f.carry = nil
	}

	var out []byte

	// Fast path: no ESC anywhere means nothing to recognize. The carry
	// always starts with ESC, so a non-empty carry never takes this path.
	if !f.suppressed && bytes.IndexByte(in, escByte) < 0 {
		f.route(in, &out)
		return out
	}

	// Explicit cursor loop; suppression continuation must not recurse.
	i := 0
	for i < len(in) {
		if f.suppressed {
			n, trailingEsc := findTerminator(in[i:])
			if n < 0 {
				if trailingEsc {
					// The chunk ends mid-terminator: ESC may be
					// the first half of ESC \.
					f.carry = []byte{escByte}
				}
				return out
			}
			i += n
			f.suppressed = false
			continue
		}

		if in[i] != escByte {
			next := bytes.IndexByte(in[i:], escByte)
			if next < 0 {
				f.route(in[i:], &out)
				return out
			}
			f.route(in[i:i+next], &out)
			i += next
			continue
		}

		rem := in[i:]
		n, act := matchSequence(rem)
		switch {
		case n > 0:
			switch act {
			case actSyncOn:
				f.sync = true
			case actSyncOff:
				f.sync = false
				out = append(out, f.pending...)
				f.pending = nil
			case actSuppress:
				f.suppressed = true
			}
			i += n
		case n < 0:
			// Too short to resolve; retry when more data arrives.
			f.carry = append([]byte(nil), rem...)
			return out
		default:
			// Not a recognized sequence: the ESC is ordinary data.
			f.route(rem[:1], &out)
			i++
		}
	}
	return out
}

// Flush returns and clears any bytes still held by the filter: the
// synchronized-output buffer first, then any carried partial sequence.
// Callers should invoke Flush at session teardown so output is not silently
// dropped when the peer never disables synchronized mode.
func (f *Filter) Flush() []byte {
	out := f.pending
	f.pending = nil
	carry := f.carry
	f.carry = nil
	if f.suppressed {
		// A carry held during suppression is part of the discarded span.
		return out
	}
	return append(out, carry...)
}

// route appends ordinary bytes to the synchronized-output buffer or to the
// forwarded result, depending on the current mode.
func (f *Filter) route(b []byte, out *[]byte) {
	if f.sync {
		f.pending = append(f.pending, b...)
	} else {
		*out = append(*out, b...)
	}
}

type action int

const (
	actNone action = iota
	actSyncOn
	actSyncOff
	actSuppress
)

// matchSequence classifies the bytes at an ESC. It returns the number of
// bytes consumed and the action to apply on a full match, -1 when rem is an
// incomplete prefix of a recognized sequence and must be carried, and 0 when
// rem cannot match (the ESC is ordinary data).
//
// The two sync toggles share a 7-byte prefix differing only in the final
// byte; the full prefix is held as ambiguous until the 8th byte resolves it.
// Divergence at any position immediately demotes the bytes to ordinary data.
func matchSequence(rem []byte) (int, action) {
	if bytes.HasPrefix(rem, osc9Intro) {
		return len(osc9Intro), actSuppress
	}
	if bytes.HasPrefix(rem, syncPrefix) {
		if len(rem) > len(syncPrefix) {
			switch rem[len(syncPrefix)] {
			case 'h':
				return len(syncPrefix) + 1, actSyncOn
			case 'l':
				return len(syncPrefix) + 1, actSyncOff
			}
			return 0, actNone
		}
		return -1, actNone
	}
	if len(rem) < len(syncPrefix) && bytes.HasPrefix(syncPrefix, rem) {
		return -1, actNone
	}
	if len(rem) < len(osc9Intro) && bytes.HasPrefix(osc9Intro, rem) {
		return -1, actNone
	}
	return 0, actNone
}

// findTerminator scans suppressed bytes for BEL or ESC \. It returns the
// count of bytes consumed through the terminator, or -1 if no terminator is
// present; trailingEsc reports that the data ends with a lone ESC that may
// begin a split two-byte terminator.
func findTerminator(data []byte) (n int, trailingEsc bool) {
	for j := 0; j < len(data); j++ {
		switch data[j] {
		case belByte:
			return j + 1, false
		case escByte:
			if j+1 >= len(data) {
				return -1, true
			}
			if data[j+1] == '\\' {
				return j + 2, false
			}
		}
	}
	return -1, false
}
