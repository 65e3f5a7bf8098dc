package frame

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
)

// Reserved trailer keys. These may never be duplicated from user-supplied
// metadata; the encoder always emits them itself, in this order, first.
const (
	KeyStatus  = "grpc-status"
	KeyMessage = "grpc-message"
	KeyWeb     = "x-grpc-web"
)

var reservedTrailerKeys = map[string]struct{}{
	KeyStatus:  {},
	KeyMessage: {},
	KeyWeb:     {},
}

var lineSplit = regexp.MustCompile(`\r?\n`)

// EncodeTrailer builds the in-body trailer block: grpc-status, then
// grpc-message, then x-grpc-web, then each non-reserved metadata pair,
// one "name:value" per CRLF-terminated line, with a trailing CRLF.
//
// message is emitted verbatim; callers must ensure it contains no CR or
// LF, since the grammar has no escaping mechanism for those bytes.
func EncodeTrailer(code codes.Code, message string, md metadata.MD) []byte {
	var b strings.Builder
	b.WriteString(KeyStatus)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(int(code)))
	b.WriteString("\r\n")
	b.WriteString(KeyMessage)
	b.WriteByte(':')
	b.WriteString(message)
	b.WriteString("\r\n")
	b.WriteString(KeyWeb)
	b.WriteString(":1\r\n")

	keys := make([]string, 0, len(md))
	for k := range md {
		lower := strings.ToLower(k)
		if _, reserved := reservedTrailerKeys[lower]; reserved {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range md[k] {
			b.WriteString(strings.ToLower(k))
			b.WriteByte(':')
			b.WriteString(v)
			b.WriteString("\r\n")
		}
	}
	return []byte(b.String())
}

// ParseTrailer parses a trailer frame body per the grammar in section 6:
// lines split on CRLF or bare LF, each split at the first colon, lines
// without a separator ignored, last value wins on duplicate keys.
// grpc-status is parsed as a non-negative decimal integer; a missing or
// non-numeric value is treated as codes.Unknown.
func ParseTrailer(body []byte) (code codes.Code, message string, md metadata.MD) {
	code = codes.Unknown
	md = metadata.MD{}
	statusSeen := false

	for _, line := range lineSplit.Split(string(body), -1) {
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		switch key {
		case KeyStatus:
			if n, err := strconv.ParseUint(value, 10, 32); err == nil {
				code = codes.Code(n)
			} else {
				code = codes.Unknown
			}
			statusSeen = true
		case KeyMessage:
			message = value
		case KeyWeb:
			// recognized but carries no information beyond its presence
		default:
			md.Set(key, value)
		}
	}
	if !statusSeen {
		code = codes.Unknown
	}
	return code, message, md
}
