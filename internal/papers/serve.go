package papers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/scitorrent/arandu-repro/internal/logging"
)

var serveLog = logging.Get("papers_serve")

// byteRange is a parsed, half-open [Start, End) byte span.
type byteRange struct {
	Start, End int64
}

// parseRange parses a single-range "bytes=a-b" / "bytes=a-" / "bytes=-b"
// header value against a resource of the given size, per spec §4.15's three
// supported forms. Returns an error for anything else (multi-range,
// malformed syntax, or a start position outside [0,size)).
func parseRange(header string, size int64) (byteRange, error) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return byteRange{}, fmt.Errorf("unsupported range unit")
	}
	spec := strings.TrimPrefix(header, prefix)
	if strings.Contains(spec, ",") {
		return byteRange{}, fmt.Errorf("multi-range requests are not supported")
	}

	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return byteRange{}, fmt.Errorf("malformed range")
	}

	if parts[0] == "" {
		// suffix range: "bytes=-500" means the last 500 bytes.
		suffixLen, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || suffixLen <= 0 {
			return byteRange{}, fmt.Errorf("malformed suffix range")
		}
		if suffixLen > size {
			suffixLen = size
		}
		return byteRange{Start: size - suffixLen, End: size}, nil
	}

	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return byteRange{}, fmt.Errorf("malformed range start")
	}
	if start < 0 || start >= size {
		return byteRange{}, fmt.Errorf("range start out of bounds")
	}

	if parts[1] == "" {
		return byteRange{Start: start, End: size}, nil
	}

	end, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || end < start {
		return byteRange{}, fmt.Errorf("malformed range end")
	}
	end++ // header end is inclusive; byteRange.End is exclusive
	if end > size {
		end = size
	}
	return byteRange{Start: start, End: end}, nil
}

// ServePDF writes v's PDF content to w, honoring a Range header when
// present: 206 Partial Content on a satisfiable range, 416 Range Not
// Satisfiable on an out-of-bounds one, 400 on a malformed Range header, and a
// plain 200 full-body response otherwise (spec §4.15).
func (s *Store) ServePDF(w http.ResponseWriter, r *http.Request, pdfPath string) {
	f, err := os.Open(pdfPath)
	if err != nil {
		http.Error(w, "paper content not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "paper content unavailable", http.StatusInternalServerError)
		return
	}
	size := info.Size()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Accept-Ranges", "bytes")

	header := r.Header.Get("Range")
	if header == "" {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, f)
		return
	}

	rng, err := parseRange(header, size)
	if err != nil {
		if err.Error() == "range start out of bounds" {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			http.Error(w, err.Error(), http.StatusRequestedRangeNotSatisfiable)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := f.Seek(rng.Start, io.SeekStart); err != nil {
		serveLog.Error("seeking to range start: %v", err)
		http.Error(w, "failed to seek", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.Start, rng.End-1, size))
	w.Header().Set("Content-Length", strconv.FormatInt(rng.End-rng.Start, 10))
	w.WriteHeader(http.StatusPartialContent)
	io.CopyN(w, f, rng.End-rng.Start)
}
