// Package export turns a finished waveform and its chapter marks into a
// chapterized M4B container using ffmpeg.
package export

import (
	"strconv"
	"strings"

	"github.com/book-expert/audiobook-service/internal/core"
)

const ffMetadataHeader = ";FFMETADATA1"

const millisecondsPerSecond = 1000

// metadataEscaper escapes the characters the ffmetadata format treats as
// special inside values.
var metadataEscaper = strings.NewReplacer(
	`\`, `\\`,
	"=", `\=`,
	";", `\;`,
	"#", `\#`,
	"\n", `\`+"\n",
)

// RenderChapterMetadata renders the chapter marks as an ffmetadata document
// understood by ffmpeg's chapter muxer. Timestamps are expressed in whole
// seconds with a 1/1 timebase, truncating sub-second precision.
func RenderChapterMetadata(marks []core.ChapterMark) string {
	var builder strings.Builder

	builder.WriteString(ffMetadataHeader)
	builder.WriteString("\n")

	for _, mark := range marks {
		builder.WriteString("\n[CHAPTER]\n")
		builder.WriteString("TIMEBASE=1/1\n")
		builder.WriteString("START=")
		builder.WriteString(strconv.FormatInt(mark.StartMS/millisecondsPerSecond, 10))
		builder.WriteString("\n")
		builder.WriteString("END=")
		builder.WriteString(strconv.FormatInt(mark.EndMS/millisecondsPerSecond, 10))
		builder.WriteString("\n")
		builder.WriteString("title=")
		builder.WriteString(metadataEscaper.Replace(mark.Title))
		builder.WriteString("\n")
	}

	return builder.String()
}
