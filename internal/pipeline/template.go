package pipeline

import (
	"path/filepath"
	"strings"
	"time"
)

// DateLayout renders the {date} placeholder.
const DateLayout = "2006-01-02 15:04"

// Expand substitutes {date}, {game} and {file} in tmpl. Unknown braces are
// left as they are.
func Expand(tmpl, game, path string, at time.Time) string {
	r := strings.NewReplacer(
		"{date}", at.Format(DateLayout),
		"{game}", game,
		"{file}", filepath.Base(path),
	)
	return r.Replace(tmpl)
}

// ContentType guesses the media type from the file extension.
func ContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".mkv":
		return "video/x-matroska"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".flv":
		return "video/x-flv"
	default:
		return "application/octet-stream"
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
