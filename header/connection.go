package header

// Connection returns the ordered list of connection options ("close",
// "keep-alive", or a header name to be treated hop-by-hop).
func (h *Headers) Connection() ([]string, error) {
	return typed(h, "Connection", func(v []string) ([]string, error) { return splitCommaList(v), nil })
}

// SetConnection encodes and stores the Connection header.
func (h *Headers) SetConnection(opts []string) error {
	return setTyped(h, "Connection", opts, joinCommaList)
}

// Upgrade returns the ordered list of requested protocols, e.g.
// ["websocket"].
func (h *Headers) Upgrade() ([]string, error) {
	return typed(h, "Upgrade", func(v []string) ([]string, error) { return splitCommaList(v), nil })
}

// SetUpgrade encodes and stores the Upgrade header.
func (h *Headers) SetUpgrade(protocols []string) error {
	return setTyped(h, "Upgrade", protocols, joinCommaList)
}

// TransferEncoding returns the ordered list of transfer codings, e.g.
// ["chunked"]. Transfer-Encoding and Content-Length are mutually
// exclusive on the wire; this accessor only parses the header and does
// not check the pair.
func (h *Headers) TransferEncoding() ([]string, error) {
	return typed(h, "Transfer-Encoding", func(v []string) ([]string, error) { return splitCommaList(v), nil })
}

// SetTransferEncoding encodes and stores the Transfer-Encoding header.
func (h *Headers) SetTransferEncoding(codings []string) error {
	return setTyped(h, "Transfer-Encoding", codings, joinCommaList)
}

// IsChunked reports whether "chunked" is present in Transfer-Encoding.
func (h *Headers) IsChunked() bool {
	codings, err := h.TransferEncoding()
	if err != nil {
		return false
	}
	for _, c := range codings {
		if c == "chunked" {
			return true
		}
	}
	return false
}
