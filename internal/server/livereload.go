package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// statusResponse is the body served at the status endpoint.
type statusResponse struct {
	Time int64 `json:"time"`
}

// statusHandler reports the last successful build time in unix milliseconds.
func statusHandler(state *build.State) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statusResponse{Time: state.LastBuild().UnixMilli()})
	})
}

const scriptTemplate = `<script>
(function () {
  var last = %d;
  setInterval(function () {
    fetch(%s, { cache: "no-store" })
      .then(function (r) { return r.json(); })
      .then(function (s) { if (s.time > last) { location.reload(); } })
      .catch(function () {});
  }, %d);
})();
</script>
`

// clientScript returns the polling script seeded with the build time seen by
// the page being served.
func clientScript(statusPath string, seen time.Time, interval time.Duration) []byte {
	return fmt.Appendf(nil, scriptTemplate, seen.UnixMilli(), strconv.Quote(statusPath), interval.Milliseconds())
}

// lastBodyEnd returns the byte offset of the last </body> end tag in doc, or
// -1 when there is none.
func lastBodyEnd(doc []byte) int {
	z := html.NewTokenizer(bytes.NewReader(doc))
	pos, found := 0, -1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return found
		}
		raw := len(z.Raw())
		if tt == html.EndTagToken {
			if name, _ := z.TagName(); string(name) == "body" {
				found = pos
			}
		}
		pos += raw
	}
}

// InjectScript inserts script before the last </body> end tag of doc, or
// appends it when doc has none.
func InjectScript(doc, script []byte) []byte {
	out := make([]byte, 0, len(doc)+len(script))
	at := lastBodyEnd(doc)
	if at < 0 {
		return append(append(out, doc...), script...)
	}
	out = append(out, doc[:at]...)
	out = append(out, script...)
	return append(out, doc[at:]...)
}

// maxInjectSize bounds how much of an HTML response is held in memory for
// injection. Larger documents are streamed unchanged.
const maxInjectSize = 8 << 20

// injector adds the live-reload script to complete HTML documents. Other
// responses are streamed through.
type injector struct {
	statusPath string
	interval   time.Duration
	state      *build.State
	recorder   metrics.Recorder
}

func (in *injector) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		// Conditional and partial responses would bypass injection.
		r = r.Clone(r.Context())
		for _, h := range []string{"If-Modified-Since", "If-None-Match", "If-Range", "Range"} {
			r.Header.Del(h)
		}
		// HEAD is served as GET so Content-Length matches the injected body.
		head := r.Method == http.MethodHead
		r.Method = http.MethodGet

		seen := in.state.LastBuild()
		iw := &injectingWriter{w: w, head: head, status: http.StatusOK}
		next.ServeHTTP(iw, r)
		if iw.finish(clientScript(in.statusPath, seen, in.interval)) && !head {
			in.recorder.IncLiveReloadInjection()
		}
	})
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/html"
}

// injectingWriter decides at WriteHeader time whether to hold the body back.
// Only 200 text/html responses are buffered; everything else goes straight
// to the client. With head set no body bytes are sent.
type injectingWriter struct {
	w         http.ResponseWriter
	head      bool
	status    int
	decided   bool
	buffering bool
	buf       bytes.Buffer
}

func (iw *injectingWriter) Header() http.Header { return iw.w.Header() }

func (iw *injectingWriter) WriteHeader(code int) {
	if iw.decided {
		return
	}
	iw.decided = true
	iw.status = code
	iw.buffering = code == http.StatusOK && isHTML(iw.w.Header().Get("Content-Type"))
	if !iw.buffering {
		iw.w.WriteHeader(code)
	}
}

func (iw *injectingWriter) Write(p []byte) (int, error) {
	if !iw.decided {
		iw.WriteHeader(http.StatusOK)
	}
	if iw.buffering && iw.buf.Len()+len(p) > maxInjectSize {
		// Too large: send what we have with the original headers.
		iw.buffering = false
		iw.w.WriteHeader(iw.status)
		if err := iw.send(iw.buf.Bytes()); err != nil {
			return 0, err
		}
		iw.buf.Reset()
	}
	if iw.buffering {
		return iw.buf.Write(p)
	}
	if err := iw.send(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (iw *injectingWriter) send(p []byte) error {
	if iw.head || len(p) == 0 {
		return nil
	}
	_, err := iw.w.Write(p)
	return err
}

// finish writes the buffered document with script injected. It reports
// whether an injection happened.
func (iw *injectingWriter) finish(script []byte) bool {
	if !iw.decided {
		iw.WriteHeader(http.StatusOK)
	}
	if !iw.buffering {
		return false
	}
	body := InjectScript(iw.buf.Bytes(), script)
	iw.w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	iw.w.WriteHeader(iw.status)
	_ = iw.send(body)
	return true
}
