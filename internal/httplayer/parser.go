// SPDX-License-Identifier: GPL-3.0-or-later

package httplayer

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

// parseState is the resumable cursor for [*ResponseParser.Feed], the
// exact table in spec §4.3.
type parseState int

const (
	psStatusLine parseState = iota
	psHeader
	psBodyFramed
	psBodyEOF
	psDone
	psError
)

// ErrMalformedStatusLine is reported when the status line is not of the
// form "HTTP/1.1 <code> <reason>". It is also reported for a header line
// that has no colon.
var ErrMalformedStatusLine = errors.New("httplayer: malformed status line")

// ErrNonNumericStatus is reported when the status code is not an integer,
// and when a Content-Length header value is not an integer.
var ErrNonNumericStatus = errors.New("httplayer: non-numeric status code")

// ResponseParser incrementally parses an HTTP/1.1 response across
// arbitrarily-chunked reads (spec §4.3, §8 "reads split arbitrarily into
// chunks" and end-to-end scenario 5). It tolerates a header line split
// across a read boundary by accumulating bytes in pending until a full
// CRLF-terminated line is available.
type ResponseParser struct {
	state   parseState
	pending []byte

	StatusCode    int
	Headers       map[string]string
	ContentLength int // -1 means unframed (read-until-close)

	bodySeen int
	Err      error
}

// NewResponseParser returns a parser ready to consume a status line.
func NewResponseParser() *ResponseParser {
	return &ResponseParser{
		state:         psStatusLine,
		Headers:       make(map[string]string),
		ContentLength: -1,
	}
}

// Done reports whether the parser has reached a terminal state.
func (p *ResponseParser) Done() bool { return p.state == psDone || p.state == psError }

// Errored reports whether the parser failed terminally.
func (p *ResponseParser) Errored() bool { return p.state == psError }

// Feed delivers newly-read bytes. It returns any body bytes that became
// available as a result (to be forwarded upward to the codec layer) and
// whether the parser reached a terminal state (psDone, or psError after
// a parse failure). A BodyEOF-framed
// response never reports done from Feed alone; the caller must call
// [*ResponseParser.CloseBody] when the peer closes the connection.
func (p *ResponseParser) Feed(data []byte) (bodyChunk []byte, done bool) {
	p.pending = append(p.pending, data...)

	for {
		switch p.state {
		case psStatusLine:
			line, ok := p.takeLine()
			if !ok {
				return nil, false
			}
			if err := p.parseStatusLine(line); err != nil {
				p.fail(err)
				return nil, true
			}
			p.state = psHeader

		case psHeader:
			line, ok := p.takeLine()
			if !ok {
				return nil, false
			}
			if len(line) == 0 {
				if p.ContentLength >= 0 {
					p.state = psBodyFramed
				} else {
					p.state = psBodyEOF
				}
				continue
			}
			if err := p.parseHeaderLine(line); err != nil {
				p.fail(err)
				return nil, true
			}

		case psBodyFramed:
			remaining := p.ContentLength - p.bodySeen
			if remaining <= 0 {
				p.state = psDone
				return nil, true
			}
			if len(p.pending) == 0 {
				return nil, false
			}
			n := remaining
			if len(p.pending) < n {
				n = len(p.pending)
			}
			chunk := p.pending[:n]
			p.pending = p.pending[n:]
			p.bodySeen += n
			if p.bodySeen == p.ContentLength {
				p.state = psDone
				return chunk, true
			}
			return chunk, false

		case psBodyEOF:
			if len(p.pending) == 0 {
				return nil, false
			}
			chunk := p.pending
			p.pending = nil
			return chunk, false

		case psDone, psError:
			return nil, true
		}
	}
}

// CloseBody signals peer close for a BodyEof-framed response (spec §4.3
// table: "BodyEof → Done on on_close").
func (p *ResponseParser) CloseBody() {
	if p.state == psBodyEOF {
		p.state = psDone
	}
}

// takeLine extracts one CRLF-terminated line from pending, or reports
// false if pending does not yet contain a full line.
func (p *ResponseParser) takeLine() ([]byte, bool) {
	idx := bytes.Index(p.pending, []byte("\r\n"))
	if idx < 0 {
		return nil, false
	}
	line := p.pending[:idx]
	p.pending = p.pending[idx+2:]
	return line, true
}

func (p *ResponseParser) parseStatusLine(line []byte) error {
	parts := strings.SplitN(string(line), " ", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "HTTP/") {
		return ErrMalformedStatusLine
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return ErrNonNumericStatus
	}
	p.StatusCode = code
	return nil
}

func (p *ResponseParser) parseHeaderLine(line []byte) error {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return ErrMalformedStatusLine
	}
	key := strings.TrimSpace(string(line[:idx]))
	val := strings.TrimSpace(string(line[idx+1:]))
	p.Headers[key] = val
	if strings.EqualFold(key, "Content-Length") {
		n, err := strconv.Atoi(val)
		if err != nil {
			return ErrNonNumericStatus
		}
		p.ContentLength = n
	}
	return nil
}

func (p *ResponseParser) fail(err error) {
	p.state = psError
	p.Err = err
}
