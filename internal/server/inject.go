package server

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
)

const (
	scriptTag     = `<script async src="/livereload.js"></script>`
	maxInjectSize = 512 * 1024
)

// injectLiveReload adds the live reload script tag to HTML responses.
// Responses with a non-HTML Content-Type pass through untouched.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inj := &injector{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// injector buffers an HTML response up to maxInjectSize and inserts the
// script before </body>. Larger or non-HTML responses pass through.
type injector struct {
	http.ResponseWriter
	status      int
	buf         []byte
	started     bool
	passthrough bool
	wroteHeader bool
}

func (i *injector) WriteHeader(code int) {
	i.status = code
	if i.passthrough {
		i.ResponseWriter.WriteHeader(code)
		i.wroteHeader = true
	}
}

func (i *injector) Write(data []byte) (int, error) {
	if !i.started {
		i.started = true
		ct := i.Header().Get("Content-Type")
		if ct != "" && !strings.Contains(ct, "text/html") {
			i.passthrough = true
			i.ResponseWriter.WriteHeader(i.status)
			i.wroteHeader = true
		}
	}
	if i.passthrough {
		return i.ResponseWriter.Write(data)
	}

	if len(i.buf)+len(data) > maxInjectSize {
		i.passthrough = true
		i.Header().Del("Content-Length")
		i.ResponseWriter.WriteHeader(i.status)
		i.wroteHeader = true
		if len(i.buf) > 0 {
			if _, err := i.ResponseWriter.Write(i.buf); err != nil {
				return 0, err
			}
			i.buf = nil
		}
		return i.ResponseWriter.Write(data)
	}
	i.buf = append(i.buf, data...)
	return len(data), nil
}

func (i *injector) finalize() {
	if i.passthrough || !i.started {
		if !i.wroteHeader {
			i.ResponseWriter.WriteHeader(i.status)
		}
		return
	}
	body := i.buf
	if idx := bytes.LastIndex(body, []byte("</body>")); idx >= 0 {
		out := make([]byte, 0, len(body)+len(scriptTag))
		out = append(out, body[:idx]...)
		out = append(out, scriptTag...)
		out = append(out, body[idx:]...)
		body = out
	}
	i.Header().Set("Content-Length", strconv.Itoa(len(body)))
	i.ResponseWriter.WriteHeader(i.status)
	if len(body) > 0 {
		_, _ = i.ResponseWriter.Write(body)
	}
}
