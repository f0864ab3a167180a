package bot

import (
	"errors"
	"net/url"
	"strings"

	"github.com/teslastreamer/teslastreamer/internal/validate"
)

var (
	ErrNotURL     = errors.New("not a direct video url")
	ErrURLTooLong = errors.New("video url too long")
)

// Substrings that usually mean the file is HEVC, which the car browser
// cannot decode.
var incompatibleMarkers = []string{"hevc", "h265", "x265"}

// Submission is a chat message accepted as a video reference.
type Submission struct {
	URL          string
	Title        string
	Incompatible bool
}

// ParseSubmission validates text as a direct http(s) link and derives the
// stored title from its last path segment. The title stays percent-encoded;
// readers decode it.
func ParseSubmission(text string) (Submission, error) {
	raw := strings.TrimSpace(text)
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return Submission{}, ErrNotURL
	}
	if validate.URL(raw) != "" {
		return Submission{}, ErrURLTooLong
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Submission{}, ErrNotURL
	}

	title := u.Host
	if path := strings.TrimRight(u.EscapedPath(), "/"); path != "" {
		if segment := path[strings.LastIndex(path, "/")+1:]; segment != "" {
			title = segment
		}
	}

	incompatible := false
	for _, marker := range incompatibleMarkers {
		if strings.Contains(lower, marker) {
			incompatible = true
			break
		}
	}

	if validate.Title(title) != "" {
		title = validate.TruncateTitle(title)
	}

	return Submission{
		URL:          raw,
		Title:        title,
		Incompatible: incompatible,
	}, nil
}

// displayTitle is the decoded form shown back to the sender.
func displayTitle(title string) string {
	decoded, err := url.PathUnescape(title)
	if err != nil {
		return title
	}
	return decoded
}
